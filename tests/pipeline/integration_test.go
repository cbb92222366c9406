package pipeline_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/plandata/kpi-etl/internal/config"
	"github.com/plandata/kpi-etl/internal/pipeline"
	"github.com/plandata/kpi-etl/internal/sink"
	"github.com/plandata/kpi-etl/internal/table"
)

// mockHandler registers a dialect whose pool is a pre-built sqlmock
// connection, so a full pipeline run can be driven through sink.DB and every
// SQL statement asserted.
type mockHandler struct {
	pool *sql.DB
}

var _ sink.DialectHandler = (*mockHandler)(nil)

func (h *mockHandler) CreatePool(cfg config.SinkConfig) (*sql.DB, error) { return h.pool, nil }

func (h *mockHandler) QuoteIdentifier(name string) string { return `"` + name + `"` }

func (h *mockHandler) QualifiedTable(cfg config.SinkConfig, tableName string) string {
	return h.QuoteIdentifier(cfg.Schema) + "." + h.QuoteIdentifier(tableName)
}

func (h *mockHandler) EnsureSchemaSQL(cfg config.SinkConfig) string {
	return "CREATE SCHEMA IF NOT EXISTS " + h.QuoteIdentifier(cfg.Schema)
}

func (h *mockHandler) TypeName(kind table.Kind) string {
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

func (h *mockHandler) TableExistsQuery(cfg config.SinkConfig, tableName string) (string, []any) {
	return "SELECT 1 FROM catalog_tables WHERE table_name = ?", []any{tableName}
}

func writeSources(t *testing.T) (kpiPath, centerPath string) {
	t.Helper()
	dir := t.TempDir()

	f := excelize.NewFile()
	const sheet = "Data to DB"
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	header := []any{
		"Fiscal_Year", "Center_ID", "Kpi Number", "Kpi_Name", "Unit",
		"Plan_Total", "Plan_Q1", "Plan_Q2", "Plan_Q3", "Plan_Q4",
		"Actual_Total", "Actual_Q1", "Actual_Q2", "Actual_Q3", "Actual_Q4",
	}
	row := []any{2024, "C01", "K1", "Revenue", "THB", 100, 25, 25, 25, 25, 90, 22.5, 22.5, 22.5, 22.5}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row))
	kpiPath = filepath.Join(dir, "KPI_FY.xlsx")
	require.NoError(t, f.SaveAs(kpiPath))

	centerPath = filepath.Join(dir, "M_Center.csv")
	require.NoError(t, os.WriteFile(centerPath, []byte("Center_ID,Center_Name\nC01,HQ\n"), 0o644))
	return kpiPath, centerPath
}

func q(literal string) string { return regexp.QuoteMeta(literal) }

func expectReplaceLoad(mock sqlmock.Sqlmock, qualified string, insertRows int) {
	mock.ExpectExec(q(`CREATE SCHEMA IF NOT EXISTS "plan"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec(q(`DROP TABLE IF EXISTS ` + qualified)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q(`CREATE TABLE ` + qualified)).WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(q(`INSERT INTO ` + qualified))
	for i := 0; i < insertRows; i++ {
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()
}

func expectExists(mock sqlmock.Sqlmock, tableName string) {
	mock.ExpectQuery(q(`SELECT 1 FROM catalog_tables WHERE table_name = ?`)).
		WithArgs(tableName).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
}

func kpiLongRows() *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"Fiscal_Year", "Center_ID", "Kpi_Number", "Kpi_Name", "Unit",
		"Amount_Name", "Amount", "Amount_Type",
	})
	names := []string{
		"Plan_Total", "Plan_Q1", "Plan_Q2", "Plan_Q3", "Plan_Q4",
		"Actual_Total", "Actual_Q1", "Actual_Q2", "Actual_Q3", "Actual_Q4",
	}
	for _, n := range names {
		rows.AddRow(int64(2024), "C01", "K1", "Revenue", "THB", n, 25.0, "Plan")
	}
	return rows
}

func centerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"Center_ID", "Center_Name"}).AddRow("C01", "HQ")
}

func TestPipelineAgainstSink(t *testing.T) {
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	sink.RegisterDialectHandler("mockduck", &mockHandler{pool: pool})

	// kpi_fy lineage: one wide row loads as ten long rows.
	expectReplaceLoad(mock, `"plan"."KPI_FY"`, 10)
	expectExists(mock, "KPI_FY")
	mock.ExpectQuery(q(`SELECT * FROM "plan"."KPI_FY" LIMIT 5`)).WillReturnRows(kpiLongRows())

	// m_center lineage.
	expectReplaceLoad(mock, `"plan"."M_Center"`, 1)
	expectExists(mock, "M_Center")
	mock.ExpectQuery(q(`SELECT * FROM "plan"."M_Center" LIMIT 5`)).WillReturnRows(centerRows())

	// kpi_fy_final: both tables read back in full, joined, loaded inferred.
	expectExists(mock, "KPI_FY")
	mock.ExpectQuery(q(`SELECT * FROM "plan"."KPI_FY"`)).WillReturnRows(kpiLongRows())
	expectExists(mock, "M_Center")
	mock.ExpectQuery(q(`SELECT * FROM "plan"."M_Center"`)).WillReturnRows(centerRows())
	expectReplaceLoad(mock, `"plan"."KPI_FY_Final"`, 10)
	expectExists(mock, "KPI_FY_Final")
	mock.ExpectQuery(q(`SELECT * FROM "plan"."KPI_FY_Final" LIMIT 5`)).
		WillReturnRows(sqlmock.NewRows([]string{"Center_ID"}).AddRow("C01"))

	kpiPath, centerPath := writeSources(t)
	cfg := &config.Config{
		Sink: config.SinkConfig{Dialect: "mockduck", Path: "plan.db", Schema: "plan"},
		Sources: config.SourcesConfig{
			KPI:    config.KPISource{Path: kpiPath, Sheet: "Data to DB"},
			Center: config.CenterSource{Path: centerPath},
		},
		Preview: config.PreviewConfig{Rows: 5},
	}

	log := zap.NewNop()
	db, err := sink.New(cfg.Sink, log)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, pipeline.New(cfg, db, log).Run(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
