// Package postgres persists output records as JSONB rows.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/about-harvester/internal/scraper"
)

const defaultTable = "about_records"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for record rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RecordStore upserts output records keyed by name. It satisfies
// scraper.RecordSink.
type RecordStore struct {
	pool  execCloser
	table string
	now   func() time.Time
}

// NewRecordStore connects a pool using cfg.
func NewRecordStore(ctx context.Context, cfg Config) (*RecordStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RecordStore{pool: pool, table: table, now: time.Now}, nil
}

// NewRecordStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRecordStoreWithPool(pool execCloser, table string) (*RecordStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &RecordStore{pool: pool, table: name, now: time.Now}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the records table if it does not exist.
func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	name         TEXT PRIMARY KEY,
	display_name TEXT,
	payload      JSONB NOT NULL,
	saved_at     TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Save upserts record under name, replacing any previous row.
func (s *RecordStore) Save(ctx context.Context, name string, record scraper.Record) (string, error) {
	if s == nil || s.pool == nil {
		return "", fmt.Errorf("record store is not configured")
	}
	if name == "" {
		return "", fmt.Errorf("record name is required")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	var displayName *string
	if v, ok := record.Get(scraper.DisplayNameKey); ok {
		if title, ok := v.(string); ok {
			displayName = &title
		}
	}
	query := fmt.Sprintf(`
INSERT INTO %s (name, display_name, payload, saved_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO UPDATE SET
	display_name = EXCLUDED.display_name,
	payload = EXCLUDED.payload,
	saved_at = EXCLUDED.saved_at`, s.table)

	if _, err := s.pool.Exec(ctx, query, name, displayName, payload, s.now().UTC()); err != nil {
		return "", fmt.Errorf("upsert record %s: %w", name, err)
	}
	return fmt.Sprintf("postgres://%s/%s", s.table, name), nil
}
