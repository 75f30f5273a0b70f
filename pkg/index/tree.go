// ABOUTME: Containment tree of identifiers and parent resolution by search
// ABOUTME: No back-pointers: parents are found by depth-first search on demand

package index

import (
	"fmt"
	"slices"
)

// ContainmentTree maps each identifier to the identifiers nested directly
// inside it, recursively. Child order follows discovery order.
type ContainmentTree struct {
	keys     []string
	children map[string]*ContainmentTree
}

// NewContainmentTree creates an empty tree
func NewContainmentTree() *ContainmentTree {
	return &ContainmentTree{children: make(map[string]*ContainmentTree)}
}

// Keys returns the direct child identifiers in order
func (t *ContainmentTree) Keys() []string {
	return slices.Clone(t.keys)
}

// Len returns the number of direct children
func (t *ContainmentTree) Len() int {
	return len(t.keys)
}

// Has reports whether id is a direct child
func (t *ContainmentTree) Has(id string) bool {
	_, ok := t.children[id]
	return ok
}

// Child returns the subtree for a direct child
func (t *ContainmentTree) Child(id string) (*ContainmentTree, bool) {
	sub, ok := t.children[id]
	return sub, ok
}

// ensure creates or reuses the entry for id
func (t *ContainmentTree) ensure(id string) *ContainmentTree {
	if sub, ok := t.children[id]; ok {
		return sub
	}
	sub := NewContainmentTree()
	t.keys = append(t.keys, id)
	t.children[id] = sub
	return sub
}

// merge copies src into t, keeping src order after existing entries
func (t *ContainmentTree) merge(src *ContainmentTree) {
	for _, k := range src.keys {
		t.ensure(k).merge(src.children[k])
	}
}

// removeKeys drops direct children and their subtrees
func (t *ContainmentTree) removeKeys(ids []string) {
	for _, id := range ids {
		delete(t.children, id)
	}
	t.keys = slices.DeleteFunc(t.keys, func(k string) bool {
		_, ok := t.children[k]
		return !ok
	})
}

// Find returns the subtree rooted at id, searching depth-first
func (t *ContainmentTree) Find(id string) (*ContainmentTree, bool) {
	if sub, ok := t.children[id]; ok {
		return sub, true
	}
	for _, k := range t.keys {
		if sub, ok := t.children[k].Find(id); ok {
			return sub, true
		}
	}
	return nil, false
}

// Walk visits every entry depth-first in order. parent is "" at the top
// level. Returning false from fn stops the walk.
func (t *ContainmentTree) Walk(fn func(parent, id string, depth int) bool) {
	t.walk("", 0, fn)
}

func (t *ContainmentTree) walk(parent string, depth int, fn func(parent, id string, depth int) bool) bool {
	for _, k := range t.keys {
		if !fn(parent, k, depth) {
			return false
		}
		if !t.children[k].walk(k, depth+1, fn) {
			return false
		}
	}
	return true
}

// Equal reports whether both trees have the same shape and order
func (t *ContainmentTree) Equal(o *ContainmentTree) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !slices.Equal(t.keys, o.keys) {
		return false
	}
	for _, k := range t.keys {
		if !t.children[k].Equal(o.children[k]) {
			return false
		}
	}
	return true
}

// Map converts the tree into nested maps, for printing and encoding
func (t *ContainmentTree) Map() map[string]any {
	m := make(map[string]any, len(t.keys))
	for _, k := range t.keys {
		m[k] = t.children[k].Map()
	}
	return m
}

// ParentOf returns the identifier whose direct children include id. The
// search returns the first match; identifier uniqueness is guaranteed by the
// Indexer, and VerifyContainment can check it on a built tree. Roots and
// unknown identifiers both report false.
func ParentOf(id string, tree *ContainmentTree) (string, bool) {
	for _, k := range tree.keys {
		sub := tree.children[k]
		if sub.Has(id) {
			return k, true
		}
		if parent, ok := ParentOf(id, sub); ok {
			return parent, true
		}
	}
	return "", false
}

// Ancestors returns the chain of parents of id, nearest first
func Ancestors(id string, tree *ContainmentTree) []string {
	var chain []string
	seen := map[string]bool{id: true}
	for {
		parent, ok := ParentOf(id, tree)
		if !ok || seen[parent] {
			return chain
		}
		seen[parent] = true
		chain = append(chain, parent)
		id = parent
	}
}

// VerifyContainment checks that every identifier appears exactly once in the
// tree and that the tree and flat index hold the same identifiers.
func VerifyContainment(flat *FlatIndex, tree *ContainmentTree) error {
	seen := make(map[string]string, flat.Len())
	var err error
	tree.Walk(func(parent, id string, _ int) bool {
		if prev, dup := seen[id]; dup {
			err = fmt.Errorf("%w: %q under both %q and %q", ErrCorruptContainment, id, prev, parent)
			return false
		}
		seen[id] = parent
		if !flat.Has(id) {
			err = fmt.Errorf("%w: %q is not in the flat index", ErrCorruptContainment, id)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	if len(seen) != flat.Len() {
		for id := range flat.Keys() {
			if _, ok := seen[id]; !ok {
				return fmt.Errorf("%w: %q is missing from the tree", ErrCorruptContainment, id)
			}
		}
	}
	return nil
}
