// ABOUTME: Indexer walking a document tree into FlatIndex and ContainmentTree
// ABOUTME: Stages each document and commits only when it indexed cleanly

package index

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/nainya/swornref/pkg/document"
)

// Step is what one traversal position can be. The set is closed:
// IdentifiedRecord, TransparentContainer, Scalar and Unknown.
type Step interface {
	step()
}

// IdentifiedRecord is a record carrying a non-empty identifier
type IdentifiedRecord struct {
	Identifier string
	Node       *document.Node
}

// TransparentContainer is a record without identifier, a mapping or a
// sequence. Its children attach to the nearest identified ancestor.
type TransparentContainer struct {
	Node *document.Node
}

// Scalar is a terminal value
type Scalar struct {
	Value any
}

// Unknown is a value the indexer does not handle; it is skipped
type Unknown struct {
	Diagnostic string
}

func (IdentifiedRecord) step()     {}
func (TransparentContainer) step() {}
func (Scalar) step()               {}
func (Unknown) step()              {}

// Classify decides how the indexer treats n
func Classify(n *document.Node) Step {
	if n == nil {
		return Unknown{Diagnostic: "nil node"}
	}
	switch n.Kind {
	case document.KindRecord:
		if id := n.Identifier(); id != "" {
			return IdentifiedRecord{Identifier: id, Node: n}
		}
		return TransparentContainer{Node: n}
	case document.KindMapping, document.KindSequence:
		return TransparentContainer{Node: n}
	case document.KindScalar:
		return Scalar{Value: n.Scalar}
	default:
		return Unknown{Diagnostic: fmt.Sprintf("unknown node type %q", n.TypeName)}
	}
}

// Stats describes one indexing run
type Stats struct {
	Identified  int      // Identified nodes registered
	Unknown     int      // Unknown nodes skipped
	Identifiers []string // Registered identifiers in traversal order
	Roots       []string // Identifiers attached at the top of the tree
}

// Indexer indexes documents into shared maps. It is not safe for concurrent
// use against the same maps; callers serialize merges.
type Indexer struct {
	log      zerolog.Logger
	document string
}

// NewIndexer creates an indexer that logs skipped nodes to log
func NewIndexer(log zerolog.Logger, documentName string) *Indexer {
	return &Indexer{
		log:      log.With().Str("component", "indexer").Str("document", documentName).Logger(),
		document: documentName,
	}
}

// Index walks root and registers every identified node. It returns the number
// of identified nodes discovered.
func Index(flat *FlatIndex, tree *ContainmentTree, root *document.Node) (int, error) {
	stats, err := NewIndexer(zerolog.Nop(), "").Index(flat, tree, root)
	return stats.Identified, err
}

// Index walks root into staging maps, then merges them into flat and tree.
// On a duplicate identifier nothing is merged.
func (ix *Indexer) Index(flat *FlatIndex, tree *ContainmentTree, root *document.Node) (Stats, error) {
	run := &indexRun{
		ix:     ix,
		shared: flat,
		staged: NewFlatIndex(),
		tree:   NewContainmentTree(),
	}

	if err := run.visit(root, run.tree, "$"); err != nil {
		return Stats{Unknown: run.unknown}, err
	}

	for id, n := range run.staged.All() {
		flat.insert(id, n)
	}
	tree.merge(run.tree)

	return Stats{
		Identified:  run.staged.Len(),
		Unknown:     run.unknown,
		Identifiers: run.staged.KeyList(),
		Roots:       run.tree.Keys(),
	}, nil
}

// Remove drops a previously indexed document: its identifiers from flat and
// its top-level entries (with their subtrees) from tree.
func Remove(flat *FlatIndex, tree *ContainmentTree, stats Stats) {
	flat.remove(stats.Identifiers)
	tree.removeKeys(stats.Roots)
}

type indexRun struct {
	ix      *Indexer
	shared  *FlatIndex
	staged  *FlatIndex
	tree    *ContainmentTree
	unknown int
}

func (r *indexRun) visit(n *document.Node, cursor *ContainmentTree, path string) error {
	switch s := Classify(n).(type) {
	case IdentifiedRecord:
		if r.shared.Has(s.Identifier) || r.staged.Has(s.Identifier) {
			return &DuplicateIdentifierError{Identifier: s.Identifier, Document: r.ix.document, Path: path}
		}
		r.staged.insert(s.Identifier, s.Node)
		return r.children(s.Node, cursor.ensure(s.Identifier), path)

	case TransparentContainer:
		return r.children(s.Node, cursor, path)

	case Scalar:
		return nil

	case Unknown:
		r.unknown++
		r.ix.log.Warn().Str("path", path).Str("diagnostic", s.Diagnostic).Msg("Skipping unrecognized node")
		return nil

	default:
		return fmt.Errorf("%w: %T at %s", errUnhandledStep, s, path)
	}
}

func (r *indexRun) children(n *document.Node, cursor *ContainmentTree, path string) error {
	switch n.Kind {
	case document.KindRecord, document.KindMapping:
		for _, f := range n.Fields {
			if err := r.visit(f.Value, cursor, path+"."+f.Name); err != nil {
				return err
			}
		}
	case document.KindSequence:
		for i, item := range n.Items {
			if err := r.visit(item, cursor, path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
	}
	return nil
}
