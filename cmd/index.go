package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-index/filter"
	"github.com/dhcgn/mbox-index/indexer"
	"github.com/dhcgn/mbox-index/progress"
	"github.com/dhcgn/mbox-index/runner"
	"github.com/dhcgn/mbox-index/state"
	"github.com/dhcgn/mbox-index/stats"
)

func NewIndexCommand(app *App) *cobra.Command {
	var (
		all          bool
		timestamp    string
		force        bool
		verbose      bool
		dbName       string
		dryRun       bool
		showProgress bool
		includeLists []string
		excludeLists []string
	)

	c := &cobra.Command{
		Use:   "index [-F] [-v] [--dbname NAME] (--all [--timestamp FILE] | MBOX...)",
		Short: "Feed list mailboxes to myindex in bounded batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Missing or conflicting input is a usage problem, not a failure.
			if all == (len(args) > 0) || (timestamp != "" && !all) {
				return cmd.Usage()
			}

			cfg := app.Config
			logger := app.Logger

			listFilter, err := filter.New(filter.Options{Include: includeLists, Exclude: excludeLists})
			if err != nil {
				return err
			}

			lists, err := app.LoadLists()
			if err != nil {
				return err
			}
			table, err := app.LoadTable()
			if err != nil {
				return err
			}

			var idx indexer.Indexer
			if dryRun {
				idx = indexer.DryRun{Program: cfg.Indexer, Logger: logger}
			} else {
				idx, err = indexer.NewCommand(cfg.Indexer, logger)
				if err != nil {
					return err
				}
			}

			driver, err := runner.New(runner.Options{
				ArchiveRoot:      cfg.ArchiveRoot,
				Ceiling:          cfg.BatchCeiling,
				Indexer:          indexer.Options{Force: force, Verbose: verbose, DBName: dbName},
				SkipLists:        cfg.SkipLists,
				ExcludedSections: cfg.ExcludedSections,
				ListFilter:       listFilter,
			}, lists, table, idx, logger)
			if err != nil {
				return err
			}

			collector := stats.NewCollector()
			driver.AddObserver(collector)
			bar := progress.New(showProgress)
			driver.AddObserver(bar)

			req := runner.Request{All: all, Paths: args, Commit: !dryRun}
			if timestamp != "" {
				marker, err := state.NewFileMarker(timestamp)
				if err != nil {
					return err
				}
				req.Marker = marker
			}

			res, runErr := driver.Run(cmd.Context(), req)
			bar.Stop()

			summary := collector.Snapshot()
			if runErr != nil {
				logger.Error("index run failed", append(summary.LogAttrs(), "err", runErr)...)
			} else {
				logger.Info("stats summary", summary.LogAttrs()...)
			}

			if cfg.MetricsFile != "" {
				run := stats.RunInfo{Started: res.Started, Duration: time.Since(res.Started), Success: runErr == nil}
				if err := stats.WriteTextfile(cfg.MetricsFile, summary, run); err != nil {
					logger.Warn("could not write metrics", "path", cfg.MetricsFile, "err", err)
				}
			}

			return runErr
		},
	}

	flags := c.Flags()
	flags.BoolVar(&all, "all", false, "Index every mailbox of every list in the archive")
	flags.StringVar(&timestamp, "timestamp", "", "With --all, only index mailboxes modified since the time stored in this file, and update it on success")
	flags.BoolVarP(&force, "force", "F", false, "Pass -F to myindex")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Pass -v to myindex")
	flags.StringVar(&dbName, "dbname", "", "Pass --dbname to myindex")
	flags.BoolVar(&dryRun, "dry-run", false, "Log the indexer invocations instead of running them")
	flags.BoolVar(&showProgress, "progress", false, "Show a progress bar")
	flags.StringArrayVar(&includeLists, "include-list", nil, "With --all, only sweep lists matching this regex (repeatable)")
	flags.StringArrayVar(&excludeLists, "exclude-list", nil, "With --all, skip lists matching this regex (repeatable)")

	return c
}
