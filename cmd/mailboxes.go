package cmd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-index/mailbox"
	"github.com/dhcgn/mbox-index/state"
)

func NewMailboxesCommand(app *App) *cobra.Command {
	var (
		count     bool
		timestamp string
		csvPath   string
	)

	c := &cobra.Command{
		Use:   "mailboxes LIST",
		Short: "List the mailboxes discovered for one list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := args[0]

			paths, err := mailbox.Discover(app.Config.ArchiveRoot, list)
			if err != nil {
				return err
			}

			found := make([]mailbox.Mailbox, 0, len(paths))
			for _, path := range paths {
				mb, err := mailbox.Inspect(path)
				if err != nil {
					return err
				}
				found = append(found, mb)
			}

			if timestamp != "" {
				marker, err := state.NewFileMarker(timestamp)
				if err != nil {
					return err
				}
				since, err := marker.Since()
				if err != nil && !errors.Is(err, os.ErrNotExist) {
					return err
				}
				found = mailbox.ModifiedSince(found, since)
			}

			w := tabwriter.NewWriter(app.Stdout, 0, 4, 2, ' ', 0)
			header := "PATH\tPERIOD\tMODIFIED"
			if count {
				header += "\tMESSAGES"
			}
			fmt.Fprintln(w, header)

			total := 0
			rows := make([][]string, 0, len(found))
			for _, mb := range found {
				row := []string{mb.Path, mb.Period(), mb.ModTime.Format(time.RFC3339)}
				if count {
					n, err := mailbox.CountMessages(mb.Path)
					if err != nil {
						app.Logger.Warn("could not count messages", "path", mb.Path, "err", err)
						row = append(row, "?")
					} else {
						total += n
						row = append(row, strconv.Itoa(n))
					}
				}
				rows = append(rows, row)
				fmt.Fprintln(w, strings.Join(row, "\t"))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if csvPath != "" {
				if err := saveCSVReport(csvPath, count, rows); err != nil {
					return fmt.Errorf("save CSV report: %w", err)
				}
				app.Logger.Info("report saved", "path", csvPath)
			}

			app.Logger.Info("mailboxes discovered", "list", list, "mailboxes", len(found), "messages", total)
			return nil
		},
	}

	c.Flags().BoolVar(&count, "count", false, "Count the messages in each mailbox")
	c.Flags().StringVar(&timestamp, "timestamp", "", "Only show mailboxes modified since the time stored in this file")
	c.Flags().StringVar(&csvPath, "csv", "", "Also write the listing to this CSV file")
	return c
}

func saveCSVReport(path string, counted bool, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	header := []string{"Path", "Period", "Modified"}
	if counted {
		header = append(header, "Messages")
	}
	if err := writer.Write(header); err != nil {
		file.Close()
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
