package db

import (
	"context"
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/jsphweid/scoretrack/model"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schema string

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// embedded schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "creating data dir")
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "applying schema")
	}
	return &SQLiteStore{db: conn}, nil
}

func (s *SQLiteStore) PutScore(ctx context.Context, score model.Score) error {
	query := `
	INSERT INTO scores (sheet, page, midi, created_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(sheet, page) DO UPDATE SET
		midi = excluded.midi,
		created_at = CURRENT_TIMESTAMP;`

	_, err := s.db.ExecContext(ctx, query, score.Sheet, score.Page, score.Midi)
	return errors.Wrapf(err, "storing %s page %d", score.Sheet, score.Page)
}

func (s *SQLiteStore) GetScore(ctx context.Context, key model.ScoreKey) (model.Score, error) {
	res := model.Score{Sheet: key.Sheet, Page: key.Page}
	err := s.db.QueryRowContext(ctx,
		"SELECT midi, created_at FROM scores WHERE sheet = ? AND page = ?",
		key.Sheet, key.Page,
	).Scan(&res.Midi, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return res, errors.Wrapf(ErrNotFound, "%s page %d", key.Sheet, key.Page)
	}
	if err != nil {
		return res, errors.Wrap(err, "loading score")
	}
	return res, nil
}

func (s *SQLiteStore) ListScores(ctx context.Context) ([]model.ScoreKey, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT sheet, page FROM scores ORDER BY sheet, page")
	if err != nil {
		return nil, errors.Wrap(err, "listing scores")
	}
	defer rows.Close()

	var res []model.ScoreKey
	for rows.Next() {
		var k model.ScoreKey
		if err := rows.Scan(&k.Sheet, &k.Page); err != nil {
			return nil, errors.Wrap(err, "scanning score key")
		}
		res = append(res, k)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
