// Package index builds the identifier index over loaded documents.
//
// Two structures are maintained side by side: a FlatIndex mapping every
// identifier to its node in traversal order, and a ContainmentTree that mirrors
// which identified nodes are nested inside which. Nodes carry no parent
// pointers, so parents are found by searching the ContainmentTree.
package index

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateIdentifier is returned when two nodes claim the same identifier
	ErrDuplicateIdentifier = errors.New("index: duplicate identifier")

	// ErrCorruptContainment is returned when the containment tree disagrees
	// with the flat index or lists an identifier more than once
	ErrCorruptContainment = errors.New("index: corrupt containment tree")

	// errUnhandledStep is a programming error: Classify produced a step the
	// visitor does not know
	errUnhandledStep = errors.New("index: unhandled traversal step")
)

// DuplicateIdentifierError names the identifier that was claimed twice
type DuplicateIdentifierError struct {
	Identifier string
	Document   string // Document being indexed when the clash was found
	Path       string // Location of the second occurrence
}

func (e *DuplicateIdentifierError) Error() string {
	if e.Document != "" {
		return fmt.Sprintf("duplicate identifier %q in %s at %s", e.Identifier, e.Document, e.Path)
	}
	return fmt.Sprintf("duplicate identifier %q at %s", e.Identifier, e.Path)
}

// Is makes every DuplicateIdentifierError match ErrDuplicateIdentifier
func (e *DuplicateIdentifierError) Is(target error) bool {
	return target == ErrDuplicateIdentifier
}
