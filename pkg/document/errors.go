package document

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad matches every document load failure
	ErrLoad = errors.New("document: load failed")

	// ErrInvalidHeader indicates the root record fails header validation
	ErrInvalidHeader = errors.New("document: invalid header")
)

// LoadError reports a document that is missing, malformed or invalid
type LoadError struct {
	Document string
	Path     string
	Err      error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load %s (%s): %v", e.Document, e.Path, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Document, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is makes every LoadError match ErrLoad
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}
