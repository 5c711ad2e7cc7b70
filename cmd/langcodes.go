package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-index/export"
	"github.com/dhcgn/mbox-index/kvstore"
)

func NewLangCodesCommand(app *App) *cobra.Command {
	c := &cobra.Command{
		Use:   "langcodes",
		Short: "Inspect and export the language name/code table",
	}
	c.AddCommand(newLangCodesExportCommand(app), newLangCodesShowCommand(app))
	return c
}

func newLangCodesExportCommand(app *App) *cobra.Command {
	var (
		dir    string
		format string
	)

	c := &cobra.Command{
		Use:   "export",
		Short: "Build the langtocode and codetolang lookup databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := app.LoadTable()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = app.Config.CDBDir
			}

			var store kvstore.Store
			switch format {
			case "cdb":
				store = kvstore.NewCommand(dir, app.Config.CDBCommand)
			case "sqlite":
				store = kvstore.NewSQLite(dir)
			default:
				return fmt.Errorf("unknown format %q (want cdb or sqlite)", format)
			}

			return export.Export(cmd.Context(), table, store, app.Logger)
		},
	}

	c.Flags().StringVar(&dir, "dir", "", "Output directory (defaults to cdb_dir)")
	c.Flags().StringVar(&format, "format", "cdb", "Database format: cdb or sqlite")
	return c
}

func newLangCodesShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the language table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := app.LoadTable()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(app.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "# table version %s, %d languages\n", table.Version, table.Len())
			codes := table.Codes()
			for i, name := range table.Names() {
				fmt.Fprintf(w, "%s\t%s\n", name, codes[i])
			}
			return w.Flush()
		},
	}
}
