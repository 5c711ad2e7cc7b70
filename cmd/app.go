// Package cmd holds the mbox-index subcommands.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-index/config"
	"github.com/dhcgn/mbox-index/langcode"
	"github.com/dhcgn/mbox-index/listcfg"
)

// App carries what every subcommand needs once flags are parsed.
type App struct {
	Config config.Config
	Logger *slog.Logger
	Stdout io.Writer

	cleanup func() error
}

// Setup loads the configuration and installs the logger. It runs as the root
// command's PersistentPreRunE.
func (a *App) Setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	logger, cleanup, err := setupLogger(cfg)
	if err != nil {
		return err
	}

	a.Config = cfg
	a.Logger = logger
	a.cleanup = cleanup
	if a.Stdout == nil {
		a.Stdout = cmd.OutOrStdout()
	}
	slog.SetDefault(logger)
	return nil
}

func (a *App) Close() error {
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}

// LoadLists reads the dead and live list configuration and logs every
// parser warning.
func (a *App) LoadLists() (listcfg.Set, error) {
	lists, warnings, deadMissing, err := listcfg.LoadMerged(a.Config.DeadListsConfig, a.Config.ListsConfig)
	if err != nil {
		return nil, err
	}
	if deadMissing {
		a.Logger.Warn("dead lists config not found, continuing without it", "path", a.Config.DeadListsConfig)
	}
	for _, w := range warnings {
		a.Logger.Warn("list config", "source", w.Source, "line", w.Line, "problem", w.Text)
	}
	a.Logger.Debug("list configuration loaded", "lists", len(lists))
	return lists, nil
}

func (a *App) LoadTable() (*langcode.Table, error) {
	table, err := langcode.LoadTable(a.Config.LangCodes)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("language table loaded", "version", table.Version, "languages", table.Len())
	return table, nil
}

func setupLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("mbox-index-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler), cleanup, nil
}
