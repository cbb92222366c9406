// Package duckdb registers the DuckDB sink dialect. DuckDB is the default
// store: a single-file analytical database with real schema support, so the
// pipeline's namespace maps to a SQL schema and tables are addressed as
// schema.table.
package duckdb

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/plandata/kpi-etl/internal/config"
	"github.com/plandata/kpi-etl/internal/sink"
	"github.com/plandata/kpi-etl/internal/table"
)

type duckdbHandler struct{}

var _ sink.DialectHandler = (*duckdbHandler)(nil)

func init() {
	sink.RegisterDialectHandler("duckdb", duckdbHandler{})
}

func (h duckdbHandler) CreatePool(cfg config.SinkConfig) (*sql.DB, error) {
	pool, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	return pool, nil
}

func (h duckdbHandler) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (h duckdbHandler) QualifiedTable(cfg config.SinkConfig, tableName string) string {
	return h.QuoteIdentifier(cfg.Schema) + "." + h.QuoteIdentifier(tableName)
}

func (h duckdbHandler) EnsureSchemaSQL(cfg config.SinkConfig) string {
	return "CREATE SCHEMA IF NOT EXISTS " + h.QuoteIdentifier(cfg.Schema)
}

func (h duckdbHandler) TypeName(kind table.Kind) string {
	switch kind {
	case table.KindInteger:
		return "INTEGER"
	case table.KindReal:
		return "DOUBLE"
	case table.KindTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

func (h duckdbHandler) TableExistsQuery(cfg config.SinkConfig, tableName string) (string, []any) {
	return "SELECT 1 FROM information_schema.tables WHERE table_schema = ? AND table_name = ?",
		[]any{cfg.Schema, tableName}
}
