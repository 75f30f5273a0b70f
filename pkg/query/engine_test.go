// ABOUTME: Tests for the query engine
// ABOUTME: Verifies type listings, counts, readable keys and search scoring

package query

import (
	"iter"
	"slices"
	"testing"

	d "github.com/nainya/swornref/pkg/document"
)

type entry struct {
	id   string
	node *d.Node
}

type fakeSource struct {
	rulesets []string
	entries  []entry
}

func (s *fakeSource) All() iter.Seq2[string, *d.Node] {
	return func(yield func(string, *d.Node) bool) {
		for _, e := range s.entries {
			if !yield(e.id, e.node) {
				return
			}
		}
	}
}

func (s *fakeSource) RulesetNames() []string {
	return s.rulesets
}

func record(id string, fields ...d.Field) entry {
	return entry{id: id, node: d.NewRecord(append([]d.Field{d.F("_id", d.S(id))}, fields...)...)}
}

func setupTestEngine() *Engine {
	return NewEngine(&fakeSource{
		rulesets: []string{"classic", "delve"},
		entries: []entry{
			record("classic", d.F("type", d.S("ruleset"))),
			record("move:classic/adventure/face_danger",
				d.F("name", d.S("Face Danger")),
				d.F("text", d.S("When you attempt something risky, envision your action."))),
			record("move:classic/adventure/secure_an_advantage",
				d.F("name", d.S("Secure an Advantage")),
				d.F("summary", d.S("Gain an edge before facing danger"))),
			record("oracle_rollable:classic/character/name", d.F("name", d.S("Name"))),
			record("oracle_rollable.row:classic/character/name.0", d.F("text", d.S("Danger-born"))),
			record("delve"),
			record("move:delve/delve/delve_the_depths",
				d.F("name", d.S("Delve the Depths")),
				d.F("text", d.S("When you traverse a dangerous site..."))),
			record("asset.ability:classic/companion/hawk.0", d.F("text", d.S("Your hawk can fly"))),
		},
	})
}

func TestQueryBuilder(t *testing.T) {
	q := NewQueryBuilder("Face  DANGER", "risky").
		Type("move").
		Ruleset("classic").
		SkipRows().
		Limit(10).
		MinScore(2).
		Build()

	if !slices.Equal(q.Terms, []string{"face", "danger", "risky"}) {
		t.Errorf("Terms = %v", q.Terms)
	}
	if !slices.Equal(q.Types, []string{"move"}) || !slices.Equal(q.Rulesets, []string{"classic"}) {
		t.Errorf("Filters not set: %+v", q)
	}
	if !q.SkipRows || q.Limit != 10 || q.MinScore != 2 {
		t.Errorf("Options not set: %+v", q)
	}
	if NewQueryBuilder().Build().Limit != 100 {
		t.Error("Default limit should be 100")
	}
}

func TestTypes(t *testing.T) {
	got := setupTestEngine().Types()
	want := []string{"asset.ability", "move", "oracle_rollable", "oracle_rollable.row", "source"}
	if !slices.Equal(got, want) {
		t.Errorf("Types = %v, want %v", got, want)
	}
}

func TestCountByType(t *testing.T) {
	counts := setupTestEngine().CountByType()

	var move *TypeCount
	for i := range counts {
		if counts[i].Type == "move" {
			move = &counts[i]
		}
	}
	if move == nil {
		t.Fatal("No count for move")
	}
	if move.Total != 3 {
		t.Errorf("Expected 3 moves, got %d", move.Total)
	}
	if move.ByRuleset["classic"] != 2 || move.ByRuleset["delve"] != 1 {
		t.Errorf("Per-ruleset counts wrong: %v", move.ByRuleset)
	}

	if counts[len(counts)-1].Type != "source" || counts[len(counts)-1].Total != 2 {
		t.Errorf("Expected 2 sources last, got %+v", counts[len(counts)-1])
	}
}

func TestHumanKey(t *testing.T) {
	cases := map[string]string{
		"move:classic/adventure/face_danger":        "classic move adventure face-danger",
		"oracle_rollable:classic/character/name":    "classic oracle character name",
		"datasworn:asset:sundered_isles/path/bound": "sundered-isles asset path bound",
		"asset.ability:classic/companion/hawk":      "classic asset companion hawk",
	}
	for id, want := range cases {
		got, ok := HumanKey(id)
		if !ok || got != want {
			t.Errorf("HumanKey(%q) = %q, %v; want %q", id, got, ok, want)
		}
	}

	for _, id := range []string{"classic", "oracle_rollable.row:classic/character/name.0"} {
		if key, ok := HumanKey(id); ok {
			t.Errorf("HumanKey(%q) should have no key, got %q", id, key)
		}
	}
}

func TestLookupHuman(t *testing.T) {
	e := setupTestEngine()

	id, ok := e.LookupHuman("  Classic Move Adventure Face-Danger ")
	if !ok || id != "move:classic/adventure/face_danger" {
		t.Errorf("LookupHuman = %q, %v", id, ok)
	}
	if _, ok := e.LookupHuman("classic move nothing"); ok {
		t.Error("Unknown key should not resolve")
	}

	h := e.HumanIndex()
	if h.Len() != 4 {
		t.Errorf("Expected 4 readable keys, got %d: %v", h.Len(), h.Keys())
	}
	if h.Keys()[0] != "classic move adventure face-danger" {
		t.Errorf("Keys should follow index order: %v", h.Keys())
	}
}

func TestSearchScoring(t *testing.T) {
	e := setupTestEngine()

	results := e.Search(NewQueryBuilder("danger").Build())
	got := make([]string, len(results))
	for i, r := range results {
		got[i] = r.Identifier
	}
	// name (3) beats summary (2) beats text (1); ties keep index order
	want := []string{
		"move:classic/adventure/face_danger",
		"move:classic/adventure/secure_an_advantage",
		"oracle_rollable.row:classic/character/name.0",
		"move:delve/delve/delve_the_depths",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Search order = %v, want %v", got, want)
	}

	if results[0].Score != 3 || results[0].Name != "Face Danger" {
		t.Errorf("Top result = %+v", results[0])
	}
	if results[1].Snippet != "Gain an edge before facing danger" {
		t.Errorf("Snippet = %q", results[1].Snippet)
	}
	if results[2].Name != "Name 0" {
		t.Errorf("Unnamed row should get a derived label, got %q", results[2].Name)
	}
}

func TestSearchFilters(t *testing.T) {
	e := setupTestEngine()

	results := e.Search(NewQueryBuilder("danger").SkipRows().Ruleset("classic").Build())
	if len(results) != 2 {
		t.Fatalf("Expected 2 classic non-row hits, got %d", len(results))
	}

	results = e.Search(NewQueryBuilder("hawk").SkipRows().Build())
	if len(results) != 1 || results[0].Identifier != "asset.ability:classic/companion/hawk.0" {
		t.Errorf("SkipRows should keep suffixed abilities: %+v", results)
	}

	results = e.Search(NewQueryBuilder("danger").Type("oracle_rollable").Build())
	if len(results) != 1 || results[0].Identifier != "oracle_rollable.row:classic/character/name.0" {
		t.Errorf("Type filter should match on root type: %+v", results)
	}

	results = e.Search(NewQueryBuilder("danger").MinScore(2).Limit(1).Build())
	if len(results) != 1 || results[0].Identifier != "move:classic/adventure/face_danger" {
		t.Errorf("MinScore/Limit not applied: %+v", results)
	}

	if results := e.Search(NewQueryBuilder().Build()); results != nil {
		t.Errorf("Empty query should return nothing, got %v", results)
	}
	if results := e.Search(NewQueryBuilder("classic").Build()); len(results) != 0 {
		t.Errorf("Ruleset roots are never search hits, got %v", results)
	}
}
