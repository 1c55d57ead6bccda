package db

import (
	"context"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/jsphweid/scoretrack/constants"
	"github.com/jsphweid/scoretrack/model"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("score not found")

// Store keeps reference MIDI files keyed by sheet name and page.
type Store interface {
	PutScore(ctx context.Context, s model.Score) error
	GetScore(ctx context.Context, key model.ScoreKey) (model.Score, error)
	ListScores(ctx context.Context) ([]model.ScoreKey, error)
	Close() error
}

// Open returns the backend named by SCORETRACK_STORE.
func Open() (Store, error) {
	switch backend := constants.GetStoreBackend(); backend {
	case "sqlite":
		return OpenSQLite(constants.GetDatabasePath())
	case "dynamodb":
		return OpenDynamo(constants.GetDynamoEndpoint(), constants.GetDynamoTable())
	default:
		return nil, errors.Errorf("unknown store backend %q", backend)
	}
}

// MinSimilarity is the lowest Jaro-Winkler score MatchSheet accepts.
const MinSimilarity = 0.85

// MatchSheet groups stored pages by sheet and ranks sheets by how closely
// their name resembles query. An exact (case-insensitive) name always wins.
func MatchSheet(keys []model.ScoreKey, query string) []model.ScoreMatch {
	q := normalize(query)
	pages := make(map[string][]int)
	for _, k := range keys {
		pages[k.Sheet] = append(pages[k.Sheet], k.Page)
	}

	var res []model.ScoreMatch
	for sheet, ps := range pages {
		score := 1.0
		if q != "" {
			score = strutil.Similarity(q, normalize(sheet), metrics.NewJaroWinkler())
		}
		if score < MinSimilarity {
			continue
		}
		sort.Ints(ps)
		res = append(res, model.ScoreMatch{Sheet: sheet, Pages: ps, Similarity: score})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Similarity != res[j].Similarity {
			return res[i].Similarity > res[j].Similarity
		}
		return res[i].Sheet < res[j].Sheet
	})
	return res
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func sortKeys(keys []model.ScoreKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Sheet != keys[j].Sheet {
			return keys[i].Sheet < keys[j].Sheet
		}
		return keys[i].Page < keys[j].Page
	})
}
