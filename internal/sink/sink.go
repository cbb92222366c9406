// Package sink writes pipeline tables into the embedded analytical store
// and reads them back. Dialects register a DialectHandler; the pipeline
// addresses tables by bare name within the configured namespace.
package sink

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/plandata/kpi-etl/internal/config"
	"github.com/plandata/kpi-etl/internal/table"
)

// DialectHandler abstracts the store-specific parts of loading and reading
// tables: connection setup, identifier handling, DDL type names, and the
// catalog query used for existence checks.
type DialectHandler interface {
	CreatePool(cfg config.SinkConfig) (*sql.DB, error)
	QuoteIdentifier(name string) string
	// QualifiedTable renders the fully addressed table name within the
	// configured namespace.
	QualifiedTable(cfg config.SinkConfig, tableName string) string
	// EnsureSchemaSQL returns the idempotent namespace-creation statement,
	// or "" when the dialect has no schema concept.
	EnsureSchemaSQL(cfg config.SinkConfig) string
	// TypeName maps a cell kind to the dialect's SQL type name.
	TypeName(kind table.Kind) string
	// TableExistsQuery returns a catalog query yielding one row when the
	// table exists.
	TableExistsQuery(cfg config.SinkConfig, tableName string) (query string, args []any)
}

var (
	mu              sync.RWMutex
	dialectHandlers = make(map[string]DialectHandler)
)

// RegisterDialectHandler makes a dialect available to New. Dialect
// sub-packages call this from init.
func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	dialectHandlers[dialect] = handler
}

// GetDialectHandler looks up a registered dialect handler.
func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported sink dialect: %s", dialect)
	}
	return handler, nil
}

// DB holds the store connection pool and dialect handler for one run.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  config.SinkConfig

	log *zap.Logger
}

// New opens the embedded store for the configured dialect and verifies the
// connection.
func New(cfg config.SinkConfig, log *zap.Logger) (*DB, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	pool, err := handler.CreatePool(cfg)
	if err != nil {
		return nil, fmt.Errorf("open sink %s (%s): %w", cfg.Path, cfg.Dialect, err)
	}
	if err := pool.PingContext(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sink connection failed for %s: %w", cfg.Path, err)
	}

	log.Info("connected to sink", zap.String("dialect", cfg.Dialect), zap.String("path", cfg.Path))
	return &DB{Pool: pool, Handler: handler, Config: cfg, log: log}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("sink connection pool is not initialized")
	}
	return db.Pool.PingContext(ctx)
}

func (db *DB) Close() error {
	if db.Pool != nil {
		return db.Pool.Close()
	}
	return nil
}

// EnsureSchema creates the target namespace if the dialect supports one.
// Safe to call on every run.
func (db *DB) EnsureSchema(ctx context.Context) error {
	stmt := db.Handler.EnsureSchemaSQL(db.Config)
	if stmt == "" {
		return nil
	}
	if _, err := db.Pool.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema %s: %w", db.Config.Schema, err)
	}
	return nil
}

// TableExists reports whether the named table is present in the store.
func (db *DB) TableExists(ctx context.Context, tableName string) (bool, error) {
	query, args := db.Handler.TableExistsQuery(db.Config, tableName)
	rows, err := db.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", tableName, err)
	}
	defer rows.Close()
	exists := rows.Next()
	return exists, rows.Err()
}
