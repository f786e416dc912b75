package recent

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/printhq/cloudprint/pkg/destination"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteCreateTableStatement = `
	CREATE TABLE IF NOT EXISTS recent_destinations (
		key         TEXT UNIQUE,
		data        BLOB,
		accessed_on INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_recent_destinations_accessed_on ON recent_destinations(accessed_on);`

	sqliteUpsertStatement = `
	INSERT INTO recent_destinations
		(key, data, accessed_on)
	VALUES
		(?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		data = excluded.data, accessed_on = excluded.accessed_on`

	sqliteListStatement = `
	SELECT
		data
	FROM
		recent_destinations
	ORDER BY
		accessed_on DESC
	LIMIT
		?`
)

type SqliteConfig struct {
	Path    string        `validate:"required"`
	Timeout time.Duration `validate:"gte=0"`
}

type sqliteStore struct {
	config *SqliteConfig
	db     *sql.DB
}

func NewSqlite(config *SqliteConfig) (Store, error) {
	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, sqliteCreateTableStatement); err != nil {
		return nil, err
	}

	return &sqliteStore{
		config: config,
		db:     db,
	}, nil
}

func (s *sqliteStore) String() string {
	return "recent:sqlite"
}

func (s *sqliteStore) Save(ctx context.Context, dest *destination.Destination) error {
	data, err := json.Marshal(dest)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, sqliteUpsertStatement, dest.Key(), data, dest.LastAccessed)
	return err
}

func (s *sqliteStore) List(ctx context.Context, limit int) ([]*destination.Destination, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListStatement, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var destinations []*destination.Destination
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}

		dest := &destination.Destination{}
		if err := json.Unmarshal(data, dest); err != nil {
			return nil, err
		}

		destinations = append(destinations, dest)
	}

	return destinations, rows.Err()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
