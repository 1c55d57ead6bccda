package db

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/jsphweid/scoretrack/model"
	"github.com/pkg/errors"
)

// DynamoStore keeps one item per page: PK is the sheet name, SK the page number.
type DynamoStore struct {
	client *dynamodb.DynamoDB
	table  string
}

func OpenDynamo(endpoint, table string) (*DynamoStore, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String("localhost"),
		Endpoint: aws.String(endpoint),
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create a new DynamoDB session")
	}
	return &DynamoStore{client: dynamodb.New(sess), table: table}, nil
}

func scoreKeyAttributes(key model.ScoreKey) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"PK": {S: aws.String(key.Sheet)},
		"SK": {N: aws.String(strconv.Itoa(key.Page))},
	}
}

func (d *DynamoStore) PutScore(ctx context.Context, s model.Score) error {
	item := scoreKeyAttributes(model.ScoreKey{Sheet: s.Sheet, Page: s.Page})
	item["Midi"] = &dynamodb.AttributeValue{B: s.Midi}
	item["CreatedAt"] = &dynamodb.AttributeValue{S: aws.String(time.Now().UTC().Format(time.RFC3339))}

	_, err := d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	return errors.Wrapf(err, "storing %s page %d", s.Sheet, s.Page)
}

func (d *DynamoStore) GetScore(ctx context.Context, key model.ScoreKey) (model.Score, error) {
	res := model.Score{Sheet: key.Sheet, Page: key.Page}
	out, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       scoreKeyAttributes(key),
	})
	if err != nil {
		return res, errors.Wrap(err, "error from DynamoDB")
	}
	if len(out.Item) == 0 {
		return res, errors.Wrapf(ErrNotFound, "%s page %d", key.Sheet, key.Page)
	}
	if v := out.Item["Midi"]; v != nil {
		res.Midi = v.B
	}
	if v := out.Item["CreatedAt"]; v != nil && v.S != nil {
		res.CreatedAt, _ = time.Parse(time.RFC3339, *v.S)
	}
	return res, nil
}

func (d *DynamoStore) ListScores(ctx context.Context) ([]model.ScoreKey, error) {
	var res []model.ScoreKey
	input := &dynamodb.ScanInput{
		TableName:            aws.String(d.table),
		ProjectionExpression: aws.String("PK, SK"),
	}
	err := d.client.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, last bool) bool {
		for _, v := range page.Items {
			if v["PK"] == nil || v["SK"] == nil || v["SK"].N == nil {
				continue
			}
			num, _ := strconv.Atoi(*v["SK"].N)
			res = append(res, model.ScoreKey{Sheet: aws.StringValue(v["PK"].S), Page: num})
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrap(err, "error from DynamoDB")
	}
	sortKeys(res)
	return res, nil
}

func (d *DynamoStore) Close() error {
	return nil
}
