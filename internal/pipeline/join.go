package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/plandata/kpi-etl/internal/sink"
	"github.com/plandata/kpi-etl/internal/table"
)

// joinKey is the shared column the two lineages converge on.
const joinKey = "Center_ID"

// runJoin reads the two loaded tables back in full, left-joins them on
// Center_ID, stamps updated_at once for the whole run, and loads the result
// as KPI_FY_Final with an inferred schema.
func (p *Pipeline) runJoin(ctx context.Context) error {
	kpi, err := p.readDependency(ctx, TableKPI)
	if err != nil {
		return err
	}
	center, err := p.readDependency(ctx, TableCenter)
	if err != nil {
		return err
	}

	joined, err := leftJoin(kpi, center, joinKey)
	if err != nil {
		return fmt.Errorf("join %s with %s: %w", TableKPI, TableCenter, err)
	}

	stamped, err := appendTimestamp(joined, "updated_at", p.now())
	if err != nil {
		return err
	}

	p.log.Info("joined lineages",
		zap.String("left", TableKPI),
		zap.String("right", TableCenter),
		zap.Int("rows", stamped.NumRows()))
	return p.store.Load(ctx, stamped, TableFinal, nil)
}

func (p *Pipeline) readDependency(ctx context.Context, tableName string) (*table.Table, error) {
	tbl, err := p.store.ReadTable(ctx, tableName)
	if err != nil {
		var notFound *sink.TableNotFoundError
		if errors.As(err, &notFound) {
			return nil, &MissingDependencyError{Table: tableName, Err: err}
		}
		return nil, err
	}
	return tbl, nil
}

// leftJoin performs a left outer join on key: every left row appears exactly
// once in the output; the right table's non-key columns are appended when a
// key matches and are missing otherwise. Missing keys never match.
func leftJoin(left, right *table.Table, key string) (*table.Table, error) {
	if !left.HasColumn(key) {
		return nil, fmt.Errorf("left table has no column %q", key)
	}
	if !right.HasColumn(key) {
		return nil, fmt.Errorf("right table has no column %q", key)
	}

	var rightCols []string
	for _, c := range right.Columns() {
		if c != key {
			rightCols = append(rightCols, c)
		}
	}

	// First match wins; the right table is master data keyed uniquely.
	matches := make(map[string]int, right.NumRows())
	for i := 0; i < right.NumRows(); i++ {
		v, _ := right.Cell(i, key)
		if v.IsMissing() {
			continue
		}
		k := v.String()
		if _, seen := matches[k]; !seen {
			matches[k] = i
		}
	}

	out := table.New(append(left.Columns(), rightCols...)...)
	for i := 0; i < left.NumRows(); i++ {
		row := append([]table.Value(nil), left.Row(i)...)
		keyVal, _ := left.Cell(i, key)

		ri, ok := 0, false
		if !keyVal.IsMissing() {
			ri, ok = matches[keyVal.String()]
		}
		for _, c := range rightCols {
			if ok {
				v, _ := right.Cell(ri, c)
				row = append(row, v)
			} else {
				row = append(row, table.Missing())
			}
		}
		if err := out.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// appendTimestamp returns a copy of tbl with one extra timestamp column,
// the same value for every row.
func appendTimestamp(tbl *table.Table, name string, at time.Time) (*table.Table, error) {
	out := table.New(append(tbl.Columns(), name)...)
	stamp := table.Timestamp(at)
	for i := 0; i < tbl.NumRows(); i++ {
		row := append(append([]table.Value(nil), tbl.Row(i)...), stamp)
		if err := out.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}
