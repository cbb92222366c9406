// Package validate enforces column-type contracts at pipeline stage
// boundaries. A table that fails validation must never reach the loader.
package validate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/plandata/kpi-etl/internal/table"
)

// Column is one entry of a contract: a required column and its expected
// runtime kind.
type Column struct {
	Name string
	Kind table.Kind
}

// Contract is an ordered column-type contract. Declaration order drives
// validation order, so the first violated column is the one reported.
type Contract []Column

// MissingColumnError reports a contract column absent from the table.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column: %s", e.Column)
}

// TypeMismatchError reports a column whose runtime type differs from the
// contract.
type TypeMismatchError struct {
	Column string
	Want   table.Kind
	Got    table.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %s: expected %s, got %s", e.Column, e.Want, e.Got)
}

// Run checks tbl against the contract. On success it logs successMsg and
// returns nil; the table is not copied or modified. Missing markers are
// accepted only in real-number columns, matching coerce-to-NaN reads.
func Run(tbl *table.Table, contract Contract, log *zap.Logger, successMsg string) error {
	for _, c := range contract {
		vals, err := tbl.ColumnValues(c.Name)
		if err != nil {
			return &MissingColumnError{Column: c.Name}
		}
		for _, v := range vals {
			if v.IsMissing() {
				if c.Kind == table.KindReal {
					continue
				}
				return &TypeMismatchError{Column: c.Name, Want: c.Kind, Got: table.KindMissing}
			}
			if v.Kind() != c.Kind {
				return &TypeMismatchError{Column: c.Name, Want: c.Kind, Got: v.Kind()}
			}
		}
	}
	log.Info(successMsg, zap.Int("rows", tbl.NumRows()), zap.Int("columns", len(contract)))
	return nil
}
