// Query commands: ids, count, types, names, get and search
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nainya/swornref/pkg/identifier"
	"github.com/nainya/swornref/pkg/query"
	"github.com/nainya/swornref/pkg/registry"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return titleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func formatParsed(p identifier.Parsed) string {
	return fmt.Sprintf("type=%s ruleset=%s category=%s subcategory=%s",
		p.ContentType, p.Ruleset, p.Category, p.Subcategory)
}

func (a *app) idsCmd() *cobra.Command {
	var skipRows, parse, parents, tree bool

	cmd := &cobra.Command{
		Use:   "ids",
		Short: "List every identifier in index order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			isRow := func(id string) bool {
				p, err := reg.ParseIdentifier(id)
				return err == nil && p.IsRow()
			}

			if tree {
				reg.WalkTree(func(_, id string, depth int) bool {
					if !skipRows || !isRow(id) {
						fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), id)
					}
					return true
				})
				return nil
			}

			for id := range reg.AllIdentifiers() {
				if skipRows && isRow(id) {
					continue
				}
				fields := []string{id}
				if parents {
					parent, _ := reg.ParentOf(id)
					fields = append(fields, parent)
				}
				if parse {
					p, err := reg.ParseIdentifier(id)
					if err != nil {
						fields = append(fields, err.Error())
					} else {
						fields = append(fields, formatParsed(p))
					}
				}
				fmt.Fprintln(out, strings.Join(fields, "\t"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipRows, "skip-rows", false, "Omit oracle table rows")
	cmd.Flags().BoolVar(&parse, "parse", false, "Print the parsed parts of each identifier")
	cmd.Flags().BoolVar(&parents, "parents", false, "Print the parent of each identifier")
	cmd.Flags().BoolVar(&tree, "tree", false, "Print the containment tree instead of the flat list")
	return cmd
}

func (a *app) countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count identifiers per content type and ruleset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry(cmd)
			if err != nil {
				return err
			}

			names := reg.RulesetNames()
			t := newTable(append([]string{"Type", "Total"}, names...)...)

			totals := make(map[string]int, len(names))
			grand := 0
			for _, tc := range query.NewEngine(reg).CountByType() {
				row := []string{tc.Type, strconv.Itoa(tc.Total)}
				for _, name := range names {
					row = append(row, strconv.Itoa(tc.ByRuleset[name]))
					totals[name] += tc.ByRuleset[name]
				}
				grand += tc.Total
				t.Row(row...)
			}

			footer := []string{"all", strconv.Itoa(grand)}
			for _, name := range names {
				footer = append(footer, strconv.Itoa(totals[name]))
			}
			t.Row(footer...)

			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func (a *app) typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the distinct content types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry(cmd)
			if err != nil {
				return err
			}
			for _, t := range query.NewEngine(reg).Types() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func (a *app) namesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List the configured rulesets and expansions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry(cmd)
			if err != nil {
				return err
			}

			t := newTable("Name", "Title", "Type", "Status", "Source")
			for _, name := range reg.RulesetNames() {
				doc, ok := reg.Document(name)
				if !ok {
					t.Row(name, reg.RulesetTitle(name), "", errorStyle.Render("missing"), "")
					continue
				}
				t.Row(name, reg.RulesetTitle(name), doc.Type, "loaded", doc.Path)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <identifier | readable key>",
		Short: "Print one node with its breadcrumbs",
		Long: `Print one node as JSON. The argument is an identifier such as
move:classic/adventure/face_danger, or a readable key such as
"classic move adventure face-danger".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry(cmd)
			if err != nil {
				return err
			}

			id := strings.Join(args, " ")
			node, err := reg.Get(id)
			if errors.Is(err, registry.ErrNotFound) {
				if resolved, ok := query.NewEngine(reg).LookupHuman(id); ok {
					id = resolved
					node, err = reg.Get(id)
				}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if crumbs, err := reg.Breadcrumbs(id); err == nil {
				fmt.Fprintln(out, titleStyle.Render(strings.Join(crumbs, " › ")))
			} else {
				a.log.Warn("No breadcrumbs").Str("identifier", id).Err(err).Send()
			}

			data, err := json.MarshalIndent(node.Interface(), "", "  ")
			if err != nil {
				return fmt.Errorf("encode %q: %w", id, err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	var (
		types    []string
		rulesets []string
		skipRows bool
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search <terms...>",
		Short: "Search names, summaries and text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry(cmd)
			if err != nil {
				return err
			}

			qb := query.NewQueryBuilder(args...).Limit(limit)
			for _, t := range types {
				qb.Type(t)
			}
			for _, r := range rulesets {
				qb.Ruleset(r)
			}
			if skipRows {
				qb.SkipRows()
			}

			results := query.NewEngine(reg).Search(qb.Build())
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("no matches"))
				return nil
			}

			t := newTable("Score", "Identifier", "Name", "Snippet")
			for _, r := range results {
				t.Row(strconv.FormatFloat(r.Score, 'f', -1, 64), r.Identifier, r.Name, r.Snippet)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&types, "type", nil, "Keep only these root content types")
	cmd.Flags().StringSliceVar(&rulesets, "ruleset", nil, "Keep only these rulesets")
	cmd.Flags().BoolVar(&skipRows, "skip-rows", false, "Omit oracle table rows")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum results; 0 for all")
	return cmd
}
