// Package sqlite registers a pure-Go sink dialect. SQLite has no schema
// namespaces, so the pipeline's namespace is emulated with a table-name
// prefix: plan.KPI_FY becomes "plan_KPI_FY".
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/plandata/kpi-etl/internal/config"
	"github.com/plandata/kpi-etl/internal/sink"
	"github.com/plandata/kpi-etl/internal/table"
)

type sqliteHandler struct{}

var _ sink.DialectHandler = (*sqliteHandler)(nil)

func init() {
	sink.RegisterDialectHandler("sqlite", sqliteHandler{})
}

func (h sqliteHandler) CreatePool(cfg config.SinkConfig) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	// The store file is single-writer; one connection avoids lock churn.
	pool.SetMaxOpenConns(1)
	return pool, nil
}

func (h sqliteHandler) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (h sqliteHandler) QualifiedTable(cfg config.SinkConfig, tableName string) string {
	return h.QuoteIdentifier(prefixed(cfg, tableName))
}

func (h sqliteHandler) EnsureSchemaSQL(cfg config.SinkConfig) string {
	return ""
}

func (h sqliteHandler) TypeName(kind table.Kind) string {
	switch kind {
	case table.KindInteger:
		return "INTEGER"
	case table.KindReal:
		return "REAL"
	case table.KindTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (h sqliteHandler) TableExistsQuery(cfg config.SinkConfig, tableName string) (string, []any) {
	return "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?",
		[]any{prefixed(cfg, tableName)}
}

func prefixed(cfg config.SinkConfig, tableName string) string {
	if cfg.Schema == "" {
		return tableName
	}
	return cfg.Schema + "_" + tableName
}
