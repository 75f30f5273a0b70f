// ABOUTME: Flat identifier -> node index with stable insertion order
// ABOUTME: Read-mostly; callers serialize writes

package index

import (
	"iter"
	"slices"

	"github.com/nainya/swornref/pkg/document"
)

// FlatIndex maps identifiers to nodes and remembers insertion order
type FlatIndex struct {
	keys  []string
	nodes map[string]*document.Node
}

// NewFlatIndex creates an empty index
func NewFlatIndex() *FlatIndex {
	return &FlatIndex{nodes: make(map[string]*document.Node)}
}

// Get returns the node for id
func (f *FlatIndex) Get(id string) (*document.Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// Has reports whether id is indexed
func (f *FlatIndex) Has(id string) bool {
	_, ok := f.nodes[id]
	return ok
}

// Len returns the number of identifiers
func (f *FlatIndex) Len() int {
	return len(f.keys)
}

// Keys iterates identifiers in insertion order. The sequence can be ranged
// over any number of times.
func (f *FlatIndex) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, k := range f.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// All iterates identifier/node pairs in insertion order
func (f *FlatIndex) All() iter.Seq2[string, *document.Node] {
	return func(yield func(string, *document.Node) bool) {
		for _, k := range f.keys {
			if !yield(k, f.nodes[k]) {
				return
			}
		}
	}
}

// KeyList returns a copy of the identifiers in insertion order
func (f *FlatIndex) KeyList() []string {
	return slices.Clone(f.keys)
}

func (f *FlatIndex) insert(id string, n *document.Node) {
	f.keys = append(f.keys, id)
	f.nodes[id] = n
}

// remove drops ids and compacts the order slice
func (f *FlatIndex) remove(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := f.nodes[id]; ok {
			drop[id] = struct{}{}
			delete(f.nodes, id)
		}
	}
	f.keys = slices.DeleteFunc(f.keys, func(k string) bool {
		_, ok := drop[k]
		return ok
	})
}
