// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"actuator-workers/internal/common/config"
	"actuator-workers/internal/common/errors"

	"github.com/lib/pq"
)

// CatalogTables must exist before the postgres catalog backend can serve.
var CatalogTables = []string{"actuators", "manual_overrides"}

// PostgresClient holds the catalog database pool.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// NewPostgresFromDB wraps an already opened handle, e.g. a sqlmock connection.
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

// CheckTables reports the first of tables missing from the current schema.
func (c *PostgresClient) CheckTables(ctx context.Context, tables ...string) error {
	rows, err := c.DB.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ANY($1)`,
		pq.Array(tables))
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	defer rows.Close()

	found := make(map[string]bool, len(tables))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return errors.NewDatabaseConnectionFailedError(err)
		}
		found[name] = true
	}
	if err := rows.Err(); err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}

	for _, t := range tables {
		if !found[t] {
			return errors.NewDatabaseConnectionFailedError(fmt.Errorf("table %q not found", t))
		}
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
