package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-index/langcode"
	"github.com/dhcgn/mbox-index/listcfg"
)

type listView struct {
	Name     string            `json:"name"`
	Language string            `json:"language"`
	Code     string            `json:"code"`
	Section  string            `json:"section"`
	Status   string            `json:"status"`
	Fields   map[string]string `json:"fields,omitempty"`
}

func NewListsCommand(app *App) *cobra.Command {
	var (
		asJSON bool
		fields bool
	)

	c := &cobra.Command{
		Use:   "lists",
		Short: "Show the merged list configuration and how each list would be indexed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lists, err := app.LoadLists()
			if err != nil {
				return err
			}
			table, err := app.LoadTable()
			if err != nil {
				return err
			}

			views := describeLists(lists, table, app.Config.SkipLists, app.Config.ExcludedSections)
			if !fields {
				for i := range views {
					views[i].Fields = nil
				}
			}

			if asJSON {
				enc := json.NewEncoder(app.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}

			w := tabwriter.NewWriter(app.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LIST\tLANGUAGE\tCODE\tSECTION\tSTATUS")
			for _, v := range views {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Name, v.Language, v.Code, v.Section, v.Status)
			}
			return w.Flush()
		},
	}

	c.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	c.Flags().BoolVar(&fields, "fields", false, "Include every configured field (JSON only)")
	return c
}

func describeLists(lists listcfg.Set, table *langcode.Table, skip, excluded []string) []listView {
	skipSet := toSet(skip)
	excludedSet := toSet(excluded)

	views := make([]listView, 0, len(lists))
	for _, name := range lists.Names() {
		rec := lists[name]
		code, err := table.ResolveList(lists, name)

		status := "index"
		switch {
		case skipSet[name]:
			status = "skip-list"
		case excludedSet[rec.Section()]:
			status = "excluded-section"
		case errors.Is(err, langcode.ErrUnknownLanguage):
			status = "index (unknown language)"
		}

		views = append(views, listView{
			Name:     name,
			Language: langcode.Clean(rec.Language()),
			Code:     code,
			Section:  rec.Section(),
			Status:   status,
			Fields:   rec,
		})
	}
	return views
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
