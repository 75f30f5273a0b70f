// ABOUTME: Order-preserving decoders for JSON, JSONC and YAML documents
// ABOUTME: Produces Node trees with stable field order for deterministic indexing

package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// maxAliasDepth bounds YAML alias expansion
const maxAliasDepth = 64

// DecodeJSON parses a JSON document into a Node tree, keeping object key order
func DecodeJSON(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}

	return root, nil
}

// DecodeJSONC strips comments and trailing commas, then decodes as JSON
func DecodeJSONC(data []byte) (*Node, error) {
	return DecodeJSON(jsonc.ToJSON(data))
}

func decodeJSONValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case json.Number:
		return NewScalar(numberValue(t)), nil
	case string, bool, nil:
		return NewScalar(t), nil
	}

	return &Node{Kind: KindUnknown, TypeName: fmt.Sprintf("%T", tok)}, nil
}

func decodeJSONObject(dec *json.Decoder) (*Node, error) {
	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, not string", tok)
		}

		value, err := decodeJSONValue(dec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		fields = append(fields, Field{Name: key, Value: value})
	}

	// Closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return objectNode(fields), nil
}

func decodeJSONArray(dec *json.Decoder) (*Node, error) {
	items := []*Node{}
	for dec.More() {
		item, err := decodeJSONValue(dec)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", len(items), err)
		}
		items = append(items, item)
	}

	// Closing bracket
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return &Node{Kind: KindSequence, Items: items}, nil
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// objectNode decides whether an object is a content record or a plain mapping.
// Records carry an identifier or a type discriminator.
func objectNode(fields []Field) *Node {
	for _, f := range fields {
		switch f.Name {
		case IDField, TypeField:
			return &Node{Kind: KindRecord, Fields: fields}
		case LegacyIDField:
			if f.Value.Kind == KindScalar {
				if _, ok := f.Value.Scalar.(string); ok {
					return &Node{Kind: KindRecord, Fields: fields}
				}
			}
		}
	}
	return &Node{Kind: KindMapping, Fields: fields}
}

// DecodeYAML parses a YAML document into a Node tree, keeping mapping order
func DecodeYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, fmt.Errorf("empty YAML document")
	}
	return convertYAML(&doc, 0)
}

func convertYAML(n *yaml.Node, aliasDepth int) (*Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return NewScalar(nil), nil
		}
		return convertYAML(n.Content[0], aliasDepth)

	case yaml.MappingNode:
		fields := make([]Field, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			value, err := convertYAML(n.Content[i+1], aliasDepth)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			fields = append(fields, Field{Name: key, Value: value})
		}
		return objectNode(fields), nil

	case yaml.SequenceNode:
		items := make([]*Node, 0, len(n.Content))
		for i, child := range n.Content {
			item, err := convertYAML(child, aliasDepth)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, item)
		}
		return &Node{Kind: KindSequence, Items: items}, nil

	case yaml.AliasNode:
		if aliasDepth >= maxAliasDepth || n.Alias == nil {
			return nil, fmt.Errorf("alias %q too deep or unresolved", n.Value)
		}
		return convertYAML(n.Alias, aliasDepth+1)

	case yaml.ScalarNode:
		return yamlScalar(n), nil
	}

	return &Node{Kind: KindUnknown, TypeName: fmt.Sprintf("yaml kind %d", n.Kind)}, nil
}

func yamlScalar(n *yaml.Node) *Node {
	switch n.ShortTag() {
	case "!!str", "!!timestamp", "!!binary":
		return NewScalar(n.Value)
	case "!!null":
		return NewScalar(nil)
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return NewScalar(b)
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return NewScalar(i)
		}
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return NewScalar(f)
		}
		var f float64
		if err := n.Decode(&f); err == nil {
			return NewScalar(f)
		}
	}
	// Custom tags and values that failed to decode are left to the caller
	return &Node{Kind: KindUnknown, TypeName: "yaml " + n.ShortTag(), Scalar: n.Value}
}
