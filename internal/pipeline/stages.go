// Package pipeline wires the extract, validate, transform and load stages
// into a dependency graph for the two source lineages (KPI metrics and
// center master data) converging at the final join.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/plandata/kpi-etl/internal/config"
	"github.com/plandata/kpi-etl/internal/extract"
	"github.com/plandata/kpi-etl/internal/sink"
	"github.com/plandata/kpi-etl/internal/table"
	"github.com/plandata/kpi-etl/internal/transform"
	"github.com/plandata/kpi-etl/internal/validate"
)

// Sink table names produced by the pipeline.
const (
	TableKPI    = "KPI_FY"
	TableCenter = "M_Center"
	TableFinal  = "KPI_FY_Final"
)

// Store is the sink surface the pipeline depends on. *sink.DB satisfies it.
type Store interface {
	Load(ctx context.Context, tbl *table.Table, tableName string, defs []sink.ColumnDef) error
	ReadTable(ctx context.Context, tableName string) (*table.Table, error)
	Preview(ctx context.Context, tableName string, n int) (*table.Table, error)
}

// Column-type contracts, one per stage boundary. Declaration order drives
// the first-violation error reporting.
var (
	kpiRawContract = validate.Contract{
		{Name: "Fiscal_Year", Kind: table.KindInteger},
		{Name: "Center_ID", Kind: table.KindText},
		{Name: "Kpi Number", Kind: table.KindText},
		{Name: "Kpi_Name", Kind: table.KindText},
		{Name: "Unit", Kind: table.KindText},
		{Name: "Plan_Total", Kind: table.KindReal},
		{Name: "Plan_Q1", Kind: table.KindReal},
		{Name: "Plan_Q2", Kind: table.KindReal},
		{Name: "Plan_Q3", Kind: table.KindReal},
		{Name: "Plan_Q4", Kind: table.KindReal},
		{Name: "Actual_Total", Kind: table.KindReal},
		{Name: "Actual_Q1", Kind: table.KindReal},
		{Name: "Actual_Q2", Kind: table.KindReal},
		{Name: "Actual_Q3", Kind: table.KindReal},
		{Name: "Actual_Q4", Kind: table.KindReal},
	}

	kpiLongContract = validate.Contract{
		{Name: "Fiscal_Year", Kind: table.KindInteger},
		{Name: "Center_ID", Kind: table.KindText},
		{Name: "Kpi_Number", Kind: table.KindText},
		{Name: "Kpi_Name", Kind: table.KindText},
		{Name: "Unit", Kind: table.KindText},
		{Name: "Amount_Name", Kind: table.KindText},
		{Name: "Amount", Kind: table.KindReal},
		{Name: "Amount_Type", Kind: table.KindText},
	}

	centerContract = validate.Contract{
		{Name: "Center_ID", Kind: table.KindText},
		{Name: "Center_Name", Kind: table.KindText},
	}
)

// Explicit load schemas for the two source lineages. The final table's
// schema is inferred from the joined structure.
var (
	kpiColumnDefs = []sink.ColumnDef{
		{Name: "Fiscal_Year", Kind: table.KindInteger},
		{Name: "Center_ID", Kind: table.KindText, Size: 10},
		{Name: "Kpi_Number", Kind: table.KindText, Size: 20},
		{Name: "Kpi_Name", Kind: table.KindText},
		{Name: "Unit", Kind: table.KindText, Size: 20},
		{Name: "Amount_Name", Kind: table.KindText, Size: 20},
		{Name: "Amount", Kind: table.KindReal},
		{Name: "Amount_Type", Kind: table.KindText, Size: 10},
	}

	centerColumnDefs = []sink.ColumnDef{
		{Name: "Center_ID", Kind: table.KindText, Size: 10},
		{Name: "Center_Name", Kind: table.KindText, Size: 100},
	}
)

// Pipeline owns one run's collaborators: configuration, a sink handle and
// the extractor.
type Pipeline struct {
	cfg   *config.Config
	store Store
	ext   *extract.Extractor
	log   *zap.Logger

	// now is swappable for tests; it stamps updated_at once per join.
	now func() time.Time
}

func New(cfg *config.Config, store Store, log *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		store: store,
		ext:   extract.NewExtractor(log),
		log:   log,
		now:   time.Now,
	}
}

// Graph declares the stage dependency order: two independent lineages, a
// preview after every load, and the final join depending on both previews.
func (p *Pipeline) Graph() (*Graph, error) {
	g := NewGraph()
	stages := []Stage{
		{Name: "kpi_fy", Run: p.runKPILineage},
		{Name: "preview_kpi_fy", Inputs: []string{"kpi_fy"}, Run: p.previewStage(TableKPI)},
		{Name: "m_center", Run: p.runCenterLineage},
		{Name: "preview_m_center", Inputs: []string{"m_center"}, Run: p.previewStage(TableCenter)},
		{Name: "kpi_fy_final", Inputs: []string{"preview_kpi_fy", "preview_m_center"}, Run: p.runJoin},
		{Name: "preview_kpi_fy_final", Inputs: []string{"kpi_fy_final"}, Run: p.previewStage(TableFinal)},
	}
	for _, s := range stages {
		if err := g.Add(s); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Run executes the whole pipeline once, strictly in dependency order.
func (p *Pipeline) Run(ctx context.Context) error {
	g, err := p.Graph()
	if err != nil {
		return err
	}
	return g.Run(ctx, p.log)
}

// runKPILineage is extract -> validate -> pivot -> validate -> load for the
// KPI spreadsheet source.
func (p *Pipeline) runKPILineage(ctx context.Context) error {
	src := p.cfg.Sources.KPI
	wide, err := p.ext.FromExcel(src.Path, src.Sheet)
	if err != nil {
		return err
	}
	if err := validate.Run(wide, kpiRawContract, p.log, "KPI source passed type contract"); err != nil {
		return err
	}
	long, err := transform.Pivot(wide)
	if err != nil {
		return err
	}
	if err := validate.Run(long, kpiLongContract, p.log, "pivoted KPI table passed type contract"); err != nil {
		return err
	}
	return p.store.Load(ctx, long, TableKPI, kpiColumnDefs)
}

// runCenterLineage is extract -> validate -> load for the center master CSV.
func (p *Pipeline) runCenterLineage(ctx context.Context) error {
	tbl, err := p.ext.FromCSV(p.cfg.Sources.Center.Path)
	if err != nil {
		return err
	}
	if err := validate.Run(tbl, centerContract, p.log, "center master passed type contract"); err != nil {
		return err
	}
	return p.store.Load(ctx, tbl, TableCenter, centerColumnDefs)
}

// previewStage returns a stage function reading the first configured number
// of rows of a produced table. One parameterized previewer serves every
// table.
func (p *Pipeline) previewStage(tableName string) StageFunc {
	return func(ctx context.Context) error {
		_, err := p.store.Preview(ctx, tableName, p.cfg.Preview.Rows)
		return err
	}
}
