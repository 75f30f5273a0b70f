// ABOUTME: Registry errors: lookups that miss and documents that fail to load
// ABOUTME: Typed errors match their sentinel through Is

package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound matches every NotFoundError
	ErrNotFound = errors.New("registry: identifier not found")

	// ErrUnknownDocument means a name is not among the configured documents
	ErrUnknownDocument = errors.New("registry: unknown document")

	// ErrNothingLoaded means every configured document failed to load
	ErrNothingLoaded = errors.New("registry: no document could be loaded")
)

// NotFoundError is a syntactically valid identifier with no index entry
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("identifier %q not found", e.Identifier)
}

// Is makes every NotFoundError match ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Failure is one document that could not be loaded or indexed
type Failure struct {
	Document string
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Document, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// LoadReport summarizes one Load call
type LoadReport struct {
	Loaded      []string  // Documents merged into the index, in merge order
	Failed      []Failure // Documents skipped, in configured order
	Identifiers int       // Identifiers in the index after the load
}

// OK reports whether every document loaded
func (r LoadReport) OK() bool {
	return len(r.Failed) == 0
}

// Err joins all failures, or returns nil when there are none
func (r LoadReport) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// String renders one line per failed document
func (r LoadReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "loaded %d document(s), %d identifier(s)", len(r.Loaded), r.Identifiers)
	for _, f := range r.Failed {
		fmt.Fprintf(&b, "\nfailed %s", f.Error())
	}
	return b.String()
}
