// Package datastore persists encoded cards: the SQLite card database the
// dueling engine reads, and an optional PostgreSQL catalog mirror.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gurbos/tcc/encode"
)

// ErrNotFound is returned when a card id has no stored rows.
var ErrNotFound = errors.New("card not found")

// Store is a persisted set of encoded cards keyed by id.
type Store interface {
	Upsert(ctx context.Context, recs ...encode.Record) error
	DeleteExcept(ctx context.Context, keep []int64) (int64, error)
	IDs(ctx context.Context) ([]int64, error)
	Get(ctx context.Context, id int64) (encode.Record, error)
	Close() error
}

// SetCodeSaver is implemented by stores that keep the archetype names.
type SetCodeSaver interface {
	SaveSetCodes(ctx context.Context, codes encode.SetCodes) error
}

// Config creates pgxpool.Config with default settings for the catalog
// mirror.
func Config(dsn string) (*pgxpool.Config, error) {
	const defaultMaxConns = int32(4)
	const defaultMinConns = int32(1)
	const defaultMaxConnLifetime = time.Minute * 10
	const defaultMaxIdletime = time.Minute * 5
	const defaultHealthCheckPeriod = time.Minute
	const defaultConnectTimeout = time.Second * 5

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("Error parsing dsn to config: %w", err)
	}

	config.MaxConns = defaultMaxConns
	config.MinConns = defaultMinConns
	config.MaxConnLifetime = defaultMaxConnLifetime
	config.MaxConnIdleTime = defaultMaxIdletime
	config.HealthCheckPeriod = defaultHealthCheckPeriod
	config.ConnConfig.ConnectTimeout = defaultConnectTimeout
	return config, nil
}

// NewDBPool creates a new PostgreSQL connection pool from config.
func NewDBPool(ctx context.Context, config *pgxpool.Config) (*pgxpool.Pool, error) {
	cp, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("Error in NewDBPool: %w", err)
	}
	return cp, nil
}

// NewPostgresDataStore wraps a pool. Call EnsureSchema before the first
// write.
func NewPostgresDataStore(pool *pgxpool.Pool) *PostgresDataStore {
	return &PostgresDataStore{cp: pool}
}
