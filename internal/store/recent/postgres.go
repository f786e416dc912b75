package recent

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/printhq/cloudprint/pkg/destination"

	_ "github.com/lib/pq"
)

const (
	postgresCreateTableStatement = `
	CREATE TABLE IF NOT EXISTS recent_destinations (
		key         TEXT,
		data        BYTEA,
		accessed_on BIGINT,
		PRIMARY KEY(key)
	);

	CREATE INDEX IF NOT EXISTS idx_recent_destinations_accessed_on ON recent_destinations(accessed_on);`

	postgresUpsertStatement = `
	INSERT INTO recent_destinations
		(key, data, accessed_on)
	VALUES
		($1, $2, $3)
	ON CONFLICT(key) DO UPDATE SET
		data = excluded.data, accessed_on = excluded.accessed_on`

	postgresListStatement = `
	SELECT
		data
	FROM
		recent_destinations
	ORDER BY
		accessed_on DESC
	LIMIT
		$1`
)

type PostgresConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required"`
	Username string
	Password string
	Database string        `validate:"required"`
	Timeout  time.Duration `validate:"gte=0"`
}

type postgresStore struct {
	config *PostgresConfig
	db     *sql.DB
}

func NewPostgres(config *PostgresConfig) (Store, error) {
	dbUrl := &url.URL{
		User:     url.UserPassword(config.Username, config.Password),
		Host:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Path:     config.Database,
		Scheme:   "postgres",
		RawQuery: "sslmode=disable",
	}

	db, err := sql.Open("postgres", dbUrl.String())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, postgresCreateTableStatement); err != nil {
		return nil, err
	}

	return &postgresStore{
		config: config,
		db:     db,
	}, nil
}

func (s *postgresStore) String() string {
	return "recent:postgres"
}

func (s *postgresStore) Save(ctx context.Context, dest *destination.Destination) error {
	data, err := json.Marshal(dest)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, postgresUpsertStatement, dest.Key(), data, dest.LastAccessed)
	return err
}

func (s *postgresStore) List(ctx context.Context, limit int) ([]*destination.Destination, error) {
	rows, err := s.db.QueryContext(ctx, postgresListStatement, limit)
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

func (s *postgresStore) Close() error {
	return s.db.Close()
}
