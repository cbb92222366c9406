// Package transform reshapes the wide KPI table into long format: one row
// per entity-metric pair.
package transform

import (
	"fmt"
	"strings"

	"github.com/plandata/kpi-etl/internal/table"
)

// Identifier columns carried into every output row. The source sheet names
// the KPI number column with a space; the long table normalizes it.
var (
	idSourceColumns = []string{"Fiscal_Year", "Center_ID", "Kpi Number", "Kpi_Name", "Unit"}
	idOutputColumns = []string{"Fiscal_Year", "Center_ID", "Kpi_Number", "Kpi_Name", "Unit"}
)

// Value columns expanded one-per-output-row, in this exact order.
var valueColumns = []string{
	"Plan_Total", "Plan_Q1", "Plan_Q2", "Plan_Q3", "Plan_Q4",
	"Actual_Total", "Actual_Q1", "Actual_Q2", "Actual_Q3", "Actual_Q4",
}

// Output column names of the long table.
var longColumns = append(append([]string(nil), idOutputColumns...), "Amount_Name", "Amount", "Amount_Type")

// Pivot melts a wide KPI table into long format. Every input row yields
// exactly len(valueColumns) output rows; missing amounts pass through as the
// missing marker. The output depends only on the input rows, not their order.
func Pivot(wide *table.Table) (*table.Table, error) {
	for _, col := range append(append([]string(nil), idSourceColumns...), valueColumns...) {
		if !wide.HasColumn(col) {
			return nil, fmt.Errorf("pivot input is missing column %q", col)
		}
	}

	long := table.New(longColumns...)
	for i := 0; i < wide.NumRows(); i++ {
		ids := make([]table.Value, len(idSourceColumns))
		for j, col := range idSourceColumns {
			v, _ := wide.Cell(i, col)
			ids[j] = v
		}
		for _, col := range valueColumns {
			amount, _ := wide.Cell(i, col)
			row := make([]table.Value, 0, len(longColumns))
			row = append(row, ids...)
			row = append(row, table.Text(col), amount, table.Text(amountType(col)))
			if err := long.AppendRow(row...); err != nil {
				return nil, err
			}
		}
	}
	return long, nil
}

// amountType derives the metric family from an amount column name: the text
// before the first underscore ("Plan_Q2" -> "Plan").
func amountType(amountName string) string {
	if i := strings.Index(amountName, "_"); i >= 0 {
		return amountName[:i]
	}
	return amountName
}
