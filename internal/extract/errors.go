package extract

import (
	"errors"
	"fmt"
)

// SourceNotFoundError reports a source file or sheet that does not exist.
type SourceNotFoundError struct {
	Path    string
	Section string
	Err     error
}

func (e *SourceNotFoundError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("source not found: %s (section %q): %v", e.Path, e.Section, e.Err)
	}
	return fmt.Sprintf("source not found: %s: %v", e.Path, e.Err)
}

func (e *SourceNotFoundError) Unwrap() error { return e.Err }

// EmptySourceError reports a source that produced zero data rows.
type EmptySourceError struct {
	Path string
}

func (e *EmptySourceError) Error() string {
	return fmt.Sprintf("no data found in source: %s", e.Path)
}

// IsSourceNotFound reports whether err wraps a SourceNotFoundError.
func IsSourceNotFound(err error) bool {
	var e *SourceNotFoundError
	return errors.As(err, &e)
}
