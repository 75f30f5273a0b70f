// ABOUTME: Content data model for parsed ruleset documents
// ABOUTME: Defines Node (ordered record/mapping/sequence/scalar tree) and Document

package document

import (
	"fmt"
	"strings"
	"time"
)

// Kind classifies a node in a parsed document tree
type Kind int

const (
	KindUnknown  Kind = iota // Unrecognized value, carries a diagnostic in TypeName
	KindRecord               // Content record (object with "_id" or "type")
	KindMapping              // Plain dictionary of named children
	KindSequence             // Ordered list of children
	KindScalar               // String, number, boolean or null
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// Field is one named member of a record or mapping
type Field struct {
	Name  string
	Value *Node
}

// Node is one value in a parsed document. Nodes never point back at their
// parents; containment is tracked separately by the index package.
type Node struct {
	Kind     Kind
	Fields   []Field // Record and Mapping members, in source order
	Items    []*Node // Sequence elements
	Scalar   any     // string, int64, float64, bool or nil
	TypeName string  // Source type for KindUnknown (diagnostic)
}

// Document is one loaded ruleset or expansion
type Document struct {
	Name     string    // Configured document name
	Type     string    // "ruleset" or "expansion"
	Ruleset  string    // Parent ruleset for expansions, Name for rulesets
	Title    string    // Human title from the document header
	Path     string    // Source file
	Root     *Node     // Root record
	LoadedAt time.Time // Load timestamp
}

// Field names used to find identifiers and display names
const (
	IDField            = "_id"
	LegacyIDField      = "id"
	TypeField          = "type"
	CanonicalNameField = "canonical_name"
	NameField          = "name"
	LabelField         = "label"
	TitleField         = "title"
)

// IDPrefix is the optional namespace some documents put on identifiers
const IDPrefix = "datasworn:"

// NewScalar wraps a scalar value
func NewScalar(v any) *Node {
	return &Node{Kind: KindScalar, Scalar: v}
}

// NewRecord builds a record from ordered fields
func NewRecord(fields ...Field) *Node {
	return &Node{Kind: KindRecord, Fields: fields}
}

// NewMapping builds a mapping from ordered fields
func NewMapping(fields ...Field) *Node {
	return &Node{Kind: KindMapping, Fields: fields}
}

// NewSequence builds a sequence
func NewSequence(items ...*Node) *Node {
	return &Node{Kind: KindSequence, Items: items}
}

// F is shorthand for building a Field
func F(name string, value *Node) Field {
	return Field{Name: name, Value: value}
}

// S is shorthand for a string scalar
func S(s string) *Node {
	return NewScalar(s)
}

// Get returns the named member of a record or mapping
func (n *Node) Get(name string) *Node {
	if n == nil || (n.Kind != KindRecord && n.Kind != KindMapping) {
		return nil
	}
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

// StringField returns the named member if it is a string scalar
func (n *Node) StringField(name string) string {
	v := n.Get(name)
	if v == nil || v.Kind != KindScalar {
		return ""
	}
	s, _ := v.Scalar.(string)
	return s
}

// Identifier returns the node's identifier without IDPrefix, or "" when it
// has none
func (n *Node) Identifier() string {
	if n == nil || n.Kind != KindRecord {
		return ""
	}
	id := n.StringField(IDField)
	if id == "" {
		id = n.StringField(LegacyIDField)
	}
	return strings.TrimPrefix(id, IDPrefix)
}

// DisplayName returns canonical_name, name or label, in that order
func (n *Node) DisplayName() string {
	for _, field := range []string{CanonicalNameField, NameField, LabelField} {
		if s := n.StringField(field); s != "" {
			return s
		}
	}
	return ""
}

// Len returns the number of direct children
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case KindRecord, KindMapping:
		return len(n.Fields)
	case KindSequence:
		return len(n.Items)
	}
	return 0
}

// Interface converts the node back into plain Go values (map, slice, scalar)
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindRecord, KindMapping:
		m := make(map[string]any, len(n.Fields))
		for _, f := range n.Fields {
			m[f.Name] = f.Value.Interface()
		}
		return m
	case KindSequence:
		s := make([]any, len(n.Items))
		for i, item := range n.Items {
			s[i] = item.Interface()
		}
		return s
	case KindScalar:
		return n.Scalar
	default:
		return fmt.Sprintf("<%s>", n.TypeName)
	}
}
