package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Sink.Dialect)
	assert.Equal(t, "plan", cfg.Sink.Schema)
	assert.Equal(t, "Data to DB", cfg.Sources.KPI.Sheet)
	assert.Equal(t, "0 0 3,21 * *", cfg.Schedule.Cron)
	assert.Equal(t, "Asia/Bangkok", cfg.Schedule.Timezone)
	assert.True(t, cfg.Schedule.Enabled)
	assert.Equal(t, 5, cfg.Preview.Rows)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kpi-etl.yaml")
	content := `
sink:
  dialect: sqlite
  path: /tmp/plan.db
sources:
  kpi:
    path: /data/KPI_FY.xlsm
schedule:
  enabled: false
preview:
  rows: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Sink.Dialect)
	assert.Equal(t, "/tmp/plan.db", cfg.Sink.Path)
	assert.Equal(t, "/data/KPI_FY.xlsm", cfg.Sources.KPI.Path)
	assert.Equal(t, "Data to DB", cfg.Sources.KPI.Sheet, "unset keys keep defaults")
	assert.False(t, cfg.Schedule.Enabled)
	assert.Equal(t, 3, cfg.Preview.Rows)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("KPIETL_SINK_DIALECT", "sqlite")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Sink.Dialect)
}

func TestLoadClampsPreviewRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kpi-etl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preview:\n  rows: 0\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Preview.Rows)
}
