// ABOUTME: Tests for breadcrumb chains and type title resolution

package breadcrumb

import (
	"errors"
	"slices"
	"testing"

	d "github.com/nainya/swornref/pkg/document"
	"github.com/nainya/swornref/pkg/identifier"
	"github.com/nainya/swornref/pkg/index"
)

func newTestResolver(t *testing.T) (*Resolver, *index.FlatIndex) {
	t.Helper()

	row := d.NewRecord(d.F("_id", d.S("oracle_rollable.row:classic/character/name.0")), d.F("text", d.S("Ada")))
	oracle := d.NewRecord(
		d.F("_id", d.S("oracle_rollable:classic/character/name")),
		d.F("name", d.S("Name")),
		d.F("rows", d.NewSequence(row)),
	)
	collection := d.NewRecord(
		d.F("_id", d.S("oracle_collection:classic/character")),
		d.F("name", d.S("Character")),
		d.F("contents", d.NewMapping(d.F("name", oracle))),
	)
	asset := d.NewRecord(
		d.F("_id", d.S("asset:classic/companion/hawk")),
		d.F("name", d.S("Hawk")),
		d.F("canonical_name", d.S("Hawk Companion")),
	)
	custom := d.NewRecord(d.F("_id", d.S("widget:classic/x/y")))
	root := d.NewRecord(
		d.F("_id", d.S("classic")),
		d.F("type", d.S("ruleset")),
		d.F("title", d.S("Ironsworn Classic")),
		d.F("oracles", d.NewMapping(d.F("character", collection))),
		d.F("assets", d.NewMapping(d.F("hawk", asset))),
		d.F("widgets", d.NewSequence(custom)),
	)

	flat := index.NewFlatIndex()
	tree := index.NewContainmentTree()
	if _, err := index.Index(flat, tree, root); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	r := NewResolver(
		IndexSource{Flat: flat, Tree: tree},
		[]string{"classic", "delve"},
		map[string]string{"classic": "Ironsworn"},
		NewTypeTitles(nil),
	)
	return r, flat
}

func TestBreadcrumbsForIndexedIdentifiers(t *testing.T) {
	r, _ := newTestResolver(t)

	cases := map[string][]string{
		"classic":                             {"Ironsworn"},
		"oracle_collection:classic/character": {"Ironsworn", "Oracles", "Character"},
		"oracle_rollable:classic/character/name": {
			"Ironsworn", "Oracles", "Character", "Name",
		},
		"oracle_rollable.row:classic/character/name.0": {
			"Ironsworn", "Oracles", "Character", "Name", "Name 0",
		},
		"asset:classic/companion/hawk":           {"Ironsworn", "Assets", "Hawk Companion"},
		"datasworn:asset:classic/companion/hawk": {"Ironsworn", "Assets", "Hawk Companion"},
	}

	for id, want := range cases {
		got, err := r.Breadcrumbs(id)
		if err != nil {
			t.Errorf("Breadcrumbs(%q) failed: %v", id, err)
			continue
		}
		if !slices.Equal(got, want) {
			t.Errorf("Breadcrumbs(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestBreadcrumbsNonEmptyForEveryIndexedIdentifier(t *testing.T) {
	r, flat := newTestResolver(t)

	for id := range flat.Keys() {
		if id == "widget:classic/x/y" {
			continue
		}
		crumbs, err := r.Breadcrumbs(id)
		if err != nil {
			t.Fatalf("Breadcrumbs(%q): %v", id, err)
		}
		if len(crumbs) == 0 {
			t.Fatalf("Empty breadcrumbs for %q", id)
		}
		if crumbs[0] != "Ironsworn" {
			t.Errorf("%q: first crumb %q, want ruleset title", id, crumbs[0])
		}
		if id != "classic" && crumbs[len(crumbs)-1] != r.Name(id) {
			t.Errorf("%q: last crumb %q, want %q", id, crumbs[len(crumbs)-1], r.Name(id))
		}
	}
}

func TestBreadcrumbsDegradeForUnindexed(t *testing.T) {
	r, _ := newTestResolver(t)

	got, err := r.Breadcrumbs("move:delve/delve/delve_the_depths")
	if err != nil {
		t.Fatalf("Breadcrumbs failed: %v", err)
	}
	want := []string{"Delve", "Moves", "Delve The Depths"}
	if !slices.Equal(got, want) {
		t.Errorf("Breadcrumbs = %v, want %v", got, want)
	}
}

func TestBreadcrumbsErrors(t *testing.T) {
	r, _ := newTestResolver(t)

	if _, err := r.Breadcrumbs("not-a-ruleset"); !errors.Is(err, identifier.ErrParse) {
		t.Errorf("Expected ErrParse, got %v", err)
	}
	if _, err := r.Breadcrumbs("widget:classic/x/y"); !errors.Is(err, ErrUnknownContentType) {
		t.Errorf("Expected ErrUnknownContentType, got %v", err)
	}
}

func TestTypeTitles(t *testing.T) {
	titles := NewTypeTitles(map[string]string{"widget": "Widgets"})
	titles.Overrides = map[string]map[string]string{"starforged": {"npc": "Encounters"}}

	if got, _ := titles.Title("asset.ability.move", "classic"); got != "Assets" {
		t.Errorf("Expected Assets, got %q", got)
	}
	if got, _ := titles.Title("widget", "classic"); got != "Widgets" {
		t.Errorf("Expected Widgets, got %q", got)
	}
	if got, _ := titles.Title("npc.variant", "starforged"); got != "Encounters" {
		t.Errorf("Expected override Encounters, got %q", got)
	}
	if got, _ := titles.Title("npc", "classic"); got != "NPCs" {
		t.Errorf("Expected NPCs, got %q", got)
	}
	if DefaultTypeTitles["widget"] != "" {
		t.Error("NewTypeTitles must not modify the defaults")
	}
}

func TestRulesetTitleFallbacks(t *testing.T) {
	r, _ := newTestResolver(t)

	if got := r.RulesetTitle("classic"); got != "Ironsworn" {
		t.Errorf("Configured title expected, got %q", got)
	}
	if got := r.RulesetTitle("delve"); got != "Delve" {
		t.Errorf("Humanized title expected, got %q", got)
	}
	if got := r.RulesetTitle("sundered_isles"); got != "Sundered Isles" {
		t.Errorf("Humanized title expected, got %q", got)
	}
}
