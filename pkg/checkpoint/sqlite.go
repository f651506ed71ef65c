package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// Go SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/restlab/paged-collection-client/pkg/collection"
)

// SQLiteConfig holds configuration for the SQLite checkpoint store.
type SQLiteConfig struct {
	// DataSourceName is the SQLite connection string.
	// Example: "file:checkpoints.db?_journal_mode=WAL"
	DataSourceName string

	// TableName is the checkpoint table name. Defaults to "checkpoints".
	TableName string

	// Connection pool settings.
	// Defaults: MaxOpen=5, MaxIdle=2, Lifetime=1h
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// setDefaults applies default values to the config.
func (c *SQLiteConfig) setDefaults() {
	if c.TableName == "" {
		c.TableName = "checkpoints"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 5
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 2
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
}

// SQLiteStore is a Store backed by a local SQLite database, for
// single-process tools that need checkpoints surviving restarts without
// external infrastructure.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore opens (and if needed initializes) a SQLite checkpoint
// database.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.DataSourceName == "" {
		return nil, fmt.Errorf("data source name is required")
	}
	cfg.setDefaults()

	db, err := sql.Open("sqlite3", cfg.DataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key        TEXT PRIMARY KEY,
		cursor     TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`, cfg.TableName)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize checkpoint table: %w", err)
	}

	return &SQLiteStore{db: db, table: cfg.TableName}, nil
}

// Save persists the cursor under key.
func (s *SQLiteStore) Save(ctx context.Context, key string, cursor collection.Cursor) error {
	Operations.WithLabelValues("sqlite", "save").Inc()

	data, err := json.Marshal(cursor)
	if err != nil {
		OperationErrors.WithLabelValues("sqlite", "save").Inc()
		return fmt.Errorf("marshal cursor: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (key, cursor, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET cursor = excluded.cursor, updated_at = excluded.updated_at`, s.table)

	if _, err := s.db.ExecContext(ctx, query, key, string(data), time.Now().UTC()); err != nil {
		OperationErrors.WithLabelValues("sqlite", "save").Inc()
		return fmt.Errorf("save checkpoint: %w", err)
	}

	return nil
}

// Load returns the cursor stored under key.
func (s *SQLiteStore) Load(ctx context.Context, key string) (collection.Cursor, error) {
	Operations.WithLabelValues("sqlite", "load").Inc()

	query := fmt.Sprintf("SELECT cursor FROM %s WHERE key = ?", s.table)

	var data string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if err == sql.ErrNoRows {
		return collection.Cursor{}, ErrNotFound
	}
	if err != nil {
		OperationErrors.WithLabelValues("sqlite", "load").Inc()
		return collection.Cursor{}, fmt.Errorf("load checkpoint: %w", err)
	}

	var cursor collection.Cursor
	if err := json.Unmarshal([]byte(data), &cursor); err != nil {
		OperationErrors.WithLabelValues("sqlite", "load").Inc()
		return collection.Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCheckpoint, err)
	}

	return cursor, nil
}

// Delete removes the checkpoint under key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	Operations.WithLabelValues("sqlite", "delete").Inc()

	query := fmt.Sprintf("DELETE FROM %s WHERE key = ?", s.table)

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		OperationErrors.WithLabelValues("sqlite", "delete").Inc()
		return fmt.Errorf("delete checkpoint: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
