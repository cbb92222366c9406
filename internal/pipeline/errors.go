package pipeline

import "fmt"

// MissingDependencyError reports a join source table that is absent from
// the sink. A join against a nonexistent table cannot produce a meaningful
// result, so this is fatal to the run.
type MissingDependencyError struct {
	Table string
	Err   error
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("join dependency %s is not available: %v", e.Table, e.Err)
}

func (e *MissingDependencyError) Unwrap() error { return e.Err }
