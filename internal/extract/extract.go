package extract

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/plandata/kpi-etl/internal/table"
)

// Column names of the KPI evaluation sheet. The amount columns are coerced
// to real numbers on read; cells that do not parse become the missing marker.
var (
	kpiAmountColumns = []string{
		"Plan_Total", "Plan_Q1", "Plan_Q2", "Plan_Q3", "Plan_Q4",
		"Actual_Total", "Actual_Q1", "Actual_Q2", "Actual_Q3", "Actual_Q4",
	}
	kpiIntegerColumns = []string{"Fiscal_Year"}
)

// Extractor reads raw tabular data from spreadsheet and delimited sources.
type Extractor struct {
	log *zap.Logger
}

func NewExtractor(log *zap.Logger) *Extractor {
	return &Extractor{log: log}
}

// FromExcel reads the named sheet of a spreadsheet file into a table,
// applying baseline type coercion for the KPI column set.
func (e *Extractor) FromExcel(path, sheet string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &SourceNotFoundError{Path: path, Err: err}
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &SourceNotFoundError{Path: path, Section: sheet, Err: err}
	}
	if len(rows) < 2 {
		return nil, &EmptySourceError{Path: path}
	}

	header := rows[0]
	tbl := table.New(header...)

	coerced := 0
	for _, raw := range rows[1:] {
		vals := make([]table.Value, len(header))
		for j, col := range header {
			var cell table.Value
			if j < len(raw) && raw[j] != "" {
				cell = table.Text(raw[j])
			} else {
				cell = table.Missing()
			}
			vals[j] = coerceKPICell(col, cell, &coerced)
		}
		if err := tbl.AppendRow(vals...); err != nil {
			return nil, fmt.Errorf("append row: %w", err)
		}
	}

	if coerced > 0 {
		e.log.Warn("cells replaced with missing marker during numeric coercion",
			zap.String("path", path), zap.String("sheet", sheet), zap.Int("cells", coerced))
	}
	e.log.Info("extracted spreadsheet source",
		zap.String("path", path), zap.String("sheet", sheet), zap.Int("rows", tbl.NumRows()))
	return tbl, nil
}

// FromCSV reads a delimited text file into a table. The first row is the
// header; every cell is read as text.
func (e *Extractor) FromCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceNotFoundError{Path: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, &EmptySourceError{Path: path}
	}

	header := records[0]
	tbl := table.New(header...)
	for _, raw := range records[1:] {
		vals := make([]table.Value, len(header))
		for j := range header {
			if j < len(raw) {
				vals[j] = table.Text(raw[j])
			} else {
				vals[j] = table.Missing()
			}
		}
		if err := tbl.AppendRow(vals...); err != nil {
			return nil, fmt.Errorf("append row: %w", err)
		}
	}

	e.log.Info("extracted delimited source",
		zap.String("path", path), zap.Int("rows", tbl.NumRows()))
	return tbl, nil
}

func coerceKPICell(col string, cell table.Value, coerced *int) table.Value {
	for _, c := range kpiAmountColumns {
		if col == c {
			out := table.CoerceReal(cell)
			if out.IsMissing() && !cell.IsMissing() {
				*coerced++
			}
			return out
		}
	}
	for _, c := range kpiIntegerColumns {
		if col == c {
			out := table.CoerceInteger(cell)
			if out.IsMissing() && !cell.IsMissing() {
				*coerced++
			}
			return out
		}
	}
	return table.CoerceText(cell)
}
