package sink

import (
	"fmt"
	"strings"
)

// LoadFailureError wraps any store-side failure during a load. Loads are
// fatal to the run; the error is logged with full detail and re-raised.
type LoadFailureError struct {
	Table string
	Err   error
}

func (e *LoadFailureError) Error() string {
	return fmt.Sprintf("loading table %s failed: %v", e.Table, e.Err)
}

func (e *LoadFailureError) Unwrap() error { return e.Err }

// SchemaMismatchError reports a table whose column order does not match the
// explicitly declared load schema.
type SchemaMismatchError struct {
	Table string
	Want  []string
	Got   []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch for table %s: declared columns [%s], table columns [%s]",
		e.Table, strings.Join(e.Want, ", "), strings.Join(e.Got, ", "))
}

// TableNotFoundError reports a read against a table absent from the store.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table not found in sink: %s", e.Table)
}
