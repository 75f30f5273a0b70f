package registry_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nainya/swornref/pkg/document"
	"github.com/nainya/swornref/pkg/registry"
)

func Example() {
	roots := map[string]*document.Node{
		"classic": document.NewRecord(
			document.F("_id", document.S("classic")),
			document.F("type", document.S("ruleset")),
			document.F("title", document.S("Ironsworn")),
			document.F("moves", document.NewMapping(
				document.F("face_danger", document.NewRecord(
					document.F("_id", document.S("move:classic/adventure/face_danger")),
					document.F("name", document.S("Face Danger")),
				)),
			)),
		),
	}

	reg := registry.New(registry.Options{
		Documents: []registry.DocumentConfig{{Name: "classic", Title: "Ironsworn"}},
		Loader: document.LoaderFunc(func(_ context.Context, name string) (*document.Document, error) {
			return document.NewDocument(name, roots[name])
		}),
		Logger: zerolog.Nop(),
	})
	if _, err := reg.Load(context.Background()); err != nil {
		fmt.Println(err)
		return
	}

	for id := range reg.AllIdentifiers() {
		fmt.Println(id)
	}

	parent, _ := reg.ParentOf("move:classic/adventure/face_danger")
	fmt.Println("parent:", parent)

	crumbs, _ := reg.Breadcrumbs("datasworn:move:classic/adventure/face_danger")
	fmt.Println(strings.Join(crumbs, " / "))
	// Output:
	// classic
	// move:classic/adventure/face_danger
	// parent: classic
	// Ironsworn / Moves / Face Danger
}
