// ABOUTME: Tests for document decoding and loading
// ABOUTME: Verifies key order, record/mapping classification, formats and header checks

package document

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestDecodeJSONKeepsOrder(t *testing.T) {
	root, err := DecodeJSON([]byte(`{"_id":"a","zeta":1,"alpha":{"b":true,"a":null},"list":[1,2.5,"x"]}`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}

	if root.Kind != KindRecord {
		t.Fatalf("Expected record, got %s", root.Kind)
	}

	want := []string{"_id", "zeta", "alpha", "list"}
	if len(root.Fields) != len(want) {
		t.Fatalf("Expected %d fields, got %d", len(want), len(root.Fields))
	}
	for i, name := range want {
		if root.Fields[i].Name != name {
			t.Errorf("Field %d: expected %q, got %q", i, name, root.Fields[i].Name)
		}
	}

	alpha := root.Get("alpha")
	if alpha.Kind != KindMapping {
		t.Errorf("Expected mapping for alpha, got %s", alpha.Kind)
	}
	if alpha.Fields[0].Name != "b" || alpha.Fields[1].Name != "a" {
		t.Errorf("Mapping order not preserved: %v", alpha.Fields)
	}

	list := root.Get("list")
	if list.Kind != KindSequence || len(list.Items) != 3 {
		t.Fatalf("Expected 3-item sequence, got %s/%d", list.Kind, list.Len())
	}
	if v, ok := list.Items[0].Scalar.(int64); !ok || v != 1 {
		t.Errorf("Expected int64 1, got %#v", list.Items[0].Scalar)
	}
	if v, ok := list.Items[1].Scalar.(float64); !ok || v != 2.5 {
		t.Errorf("Expected float64 2.5, got %#v", list.Items[1].Scalar)
	}
	if root.Get("zeta").Scalar.(int64) != 1 {
		t.Errorf("Expected zeta=1")
	}
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	if _, err := DecodeJSON([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Error("Expected error for trailing data")
	}
	if _, err := DecodeJSON([]byte(`{"a":`)); err == nil {
		t.Error("Expected error for truncated document")
	}
}

func TestRecordClassification(t *testing.T) {
	root, err := DecodeJSON([]byte(`{"m":{"x":{}},"typed":{"type":"roll"},"legacy":{"id":"x:y/z"},"numeric":{"id":3}}`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}

	if root.Kind != KindMapping {
		t.Errorf("Expected root mapping, got %s", root.Kind)
	}
	if root.Get("typed").Kind != KindRecord {
		t.Error("Object with type should be a record")
	}
	if got := root.Get("legacy").Identifier(); got != "x:y/z" {
		t.Errorf("Expected legacy identifier, got %q", got)
	}
	if root.Get("numeric").Kind != KindMapping {
		t.Error("Numeric id should not make a record")
	}

	prefixed := NewRecord(F("_id", S("datasworn:move:a/moves/strike")))
	if got := prefixed.Identifier(); got != "move:a/moves/strike" {
		t.Errorf("Expected prefix stripped, got %q", got)
	}
}

func TestDecodeJSONC(t *testing.T) {
	root, err := DecodeJSONC([]byte(`{
		// comment
		"_id": "classic", /* block */
		"items": [1, 2,],
	}`))
	if err != nil {
		t.Fatalf("DecodeJSONC failed: %v", err)
	}
	if root.Identifier() != "classic" {
		t.Errorf("Expected classic, got %q", root.Identifier())
	}
	if root.Get("items").Len() != 2 {
		t.Errorf("Expected 2 items, got %d", root.Get("items").Len())
	}
}

func TestDecodeYAML(t *testing.T) {
	root, err := DecodeYAML([]byte(`
_id: classic
type: ruleset
base: &base
  name: Shared
copy: *base
count: 3
ratio: 0.5
flag: true
nothing: null
odd: !custom value
`))
	if err != nil {
		t.Fatalf("DecodeYAML failed: %v", err)
	}

	if root.Kind != KindRecord {
		t.Fatalf("Expected record, got %s", root.Kind)
	}
	if root.Get("copy").StringField("name") != "Shared" {
		t.Error("Alias was not expanded")
	}
	if root.Get("count").Scalar != int64(3) {
		t.Errorf("Expected int64 3, got %#v", root.Get("count").Scalar)
	}
	if root.Get("ratio").Scalar != 0.5 {
		t.Errorf("Expected 0.5, got %#v", root.Get("ratio").Scalar)
	}
	if root.Get("flag").Scalar != true {
		t.Error("Expected flag=true")
	}
	if root.Get("nothing").Scalar != nil {
		t.Error("Expected nil")
	}
	if root.Get("odd").Kind != KindUnknown {
		t.Errorf("Expected custom tag to be unknown, got %s", root.Get("odd").Kind)
	}
}

func TestDisplayName(t *testing.T) {
	n := NewRecord(F("_id", S("x")), F("label", S("Label")), F("name", S("Name")))
	if n.DisplayName() != "Name" {
		t.Errorf("Expected Name, got %q", n.DisplayName())
	}

	n = NewRecord(F("canonical_name", S("Canon")), F("name", S("Name")))
	if n.DisplayName() != "Canon" {
		t.Errorf("Expected Canon, got %q", n.DisplayName())
	}

	n = NewRecord(F("_id", S("x")))
	if n.DisplayName() != "" {
		t.Errorf("Expected empty, got %q", n.DisplayName())
	}
}

func TestFileLoaderFormats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "classic.json", `{"_id":"classic","type":"ruleset","title":"Ironsworn"}`)
	writeFile(t, dir, "delve.jsonc", `{"_id":"delve","type":"expansion","ruleset":"classic", // x
	}`)
	writeFile(t, dir, "starsmith.yaml", "_id: starsmith\ntype: expansion\nruleset: starforged\n")

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	loader := NewFileLoader(dir)
	loader.Now = func() time.Time { return fixed }

	ctx := context.Background()

	doc, err := loader.Load(ctx, "classic")
	if err != nil {
		t.Fatalf("Failed to load classic: %v", err)
	}
	if doc.Title != "Ironsworn" || doc.Ruleset != "classic" || doc.Type != TypeRuleset {
		t.Errorf("Unexpected header: %+v", doc)
	}
	if !doc.LoadedAt.Equal(fixed) {
		t.Errorf("Expected LoadedAt %v, got %v", fixed, doc.LoadedAt)
	}

	doc, err = loader.Load(ctx, "delve")
	if err != nil {
		t.Fatalf("Failed to load delve: %v", err)
	}
	if doc.Ruleset != "classic" || doc.Type != TypeExpansion {
		t.Errorf("Unexpected header: %+v", doc)
	}

	doc, err = loader.Load(ctx, "starsmith")
	if err != nil {
		t.Fatalf("Failed to load starsmith: %v", err)
	}
	if filepath.Ext(doc.Path) != ".yaml" {
		t.Errorf("Expected yaml path, got %s", doc.Path)
	}
}

func TestFileLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", `{"_id":"broken",`)
	writeFile(t, dir, "wrongid.json", `{"_id":"other","type":"ruleset"}`)
	writeFile(t, dir, "badtype.json", `{"_id":"badtype","type":"oracle"}`)
	writeFile(t, dir, "orphan.json", `{"_id":"orphan","type":"expansion"}`)
	writeFile(t, dir, "list.json", `[1,2]`)

	loader := NewFileLoader(dir)
	ctx := context.Background()

	_, err := loader.Load(ctx, "missing")
	if !errors.Is(err, ErrLoad) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrLoad wrapping ErrNotExist, got %v", err)
	}

	_, err = loader.Load(ctx, "broken")
	var le *LoadError
	if !errors.As(err, &le) || le.Document != "broken" || le.Path == "" {
		t.Errorf("Expected LoadError with path for broken, got %v", err)
	}

	for _, name := range []string{"wrongid", "badtype", "orphan", "list"} {
		_, err := loader.Load(ctx, name)
		if !errors.Is(err, ErrInvalidHeader) {
			t.Errorf("%s: expected ErrInvalidHeader, got %v", name, err)
		}
	}

	if _, err := loader.Load(ctx, "../etc"); !errors.Is(err, ErrLoad) {
		t.Errorf("Expected ErrLoad for unsafe name, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := loader.Load(cancelled, "broken"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
