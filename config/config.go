package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

// EnvPrefix marks environment variables that override the config file,
// e.g. MBOXINDEX_ARCHIVE_ROOT for archive_root.
const EnvPrefix = "MBOXINDEX_"

const maxConfigFileSize = 1 << 20

// Config captures the site settings shared by all commands.
type Config struct {
	ArchiveRoot      string   `koanf:"archive_root"`
	ListsConfig      string   `koanf:"lists_config"`
	DeadListsConfig  string   `koanf:"dead_lists_config"`
	Indexer          string   `koanf:"indexer"`
	BatchCeiling     int      `koanf:"batch_ceiling"`
	SkipLists        []string `koanf:"skip_lists"`
	ExcludedSections []string `koanf:"excluded_sections"`
	CDBDir           string   `koanf:"cdb_dir"`
	CDBCommand       []string `koanf:"cdb_command"`
	LangCodes        string   `koanf:"langcodes"`
	MetricsFile      string   `koanf:"metrics_file"`
	LogLevel         string   `koanf:"log_level"`
	LogDir           string   `koanf:"log_dir"`
}

// Defaults match the lists.debian.org deployment the tool was written for.
func Defaults() Config {
	return Config{
		ArchiveRoot:     "/org/lists.debian.org/lists",
		ListsConfig:     "/org/lists.debian.org/cvsdata/.etc/lists.cfg",
		DeadListsConfig: "lists-dead.cfg",
		Indexer:         "myindex",
		BatchCeiling:    1000,
		SkipLists: []string{
			"debian-announce", "debian-devel", "debian-devel-announce",
			"debian-devel-changes", "debian-mentors", "debian-project", "debian-user",
		},
		ExcludedSections: []string{"spi", "lsb", "other"},
		CDBDir:           "/org/lists.debian.org/xapian/cdb",
		CDBCommand:       []string{"cdb", "-cm"},
		LogLevel:         "info",
	}
}

// RegisterFlags attaches the shared flags to the root command.
func RegisterFlags(cmd *cobra.Command) {
	def := Defaults()
	flags := cmd.PersistentFlags()
	flags.String("config", "", "YAML settings file")
	flags.String("archive-root", def.ArchiveRoot, "Directory holding one subdirectory per list")
	flags.String("lists-config", def.ListsConfig, "Live list configuration file")
	flags.String("dead-lists-config", def.DeadListsConfig, "Configuration of retired lists, loaded before the live file")
	flags.String("indexer", def.Indexer, "Path of the myindex program")
	flags.Int("batch-ceiling", def.BatchCeiling, "Maximum length of one indexer command line")
	flags.StringSlice("skip-list", def.SkipLists, "Lists never indexed")
	flags.StringSlice("exclude-section", def.ExcludedSections, "List sections never indexed")
	flags.String("cdb-dir", def.CDBDir, "Directory for the language lookup databases")
	flags.String("langcodes", "", "YAML language table replacing the built-in one")
	flags.String("metrics-file", "", "Write a Prometheus textfile with run metrics")
	flags.String("log-level", def.LogLevel, "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Also write logs to a timestamped file in this directory")
}

// Load merges defaults, the optional YAML file, the environment and any flag
// set explicitly on the command line, in increasing precedence.
func Load(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return Config{}, err
	}

	k := koanf.New(".")
	if configPath != "" {
		data, err := readConfigFile(configPath)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	// Slices decode on top of the defaults element by element, so restore
	// exactly what the sources said.
	for key, dst := range map[string]*[]string{
		"skip_lists":        &cfg.SkipLists,
		"excluded_sections": &cfg.ExcludedSections,
		"cdb_command":       &cfg.CDBCommand,
	} {
		if k.Exists(key) {
			*dst = k.Strings(key)
		}
	}

	if err := applyFlags(cmd, &cfg); err != nil {
		return Config{}, err
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	if cfg.ArchiveRoot != "" {
		cfg.ArchiveRoot = filepath.Clean(cfg.ArchiveRoot)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envValue maps MBOXINDEX_SKIP_LISTS=a,b to skip_lists: [a b].
func envValue(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	switch key {
	case "skip_lists", "excluded_sections":
		return key, splitList(value)
	case "cdb_command":
		return key, strings.Fields(value)
	}
	return key, value
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return io.ReadAll(f)
}

func applyFlags(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()

	strs := map[string]*string{
		"archive-root":      &cfg.ArchiveRoot,
		"lists-config":      &cfg.ListsConfig,
		"dead-lists-config": &cfg.DeadListsConfig,
		"indexer":           &cfg.Indexer,
		"cdb-dir":           &cfg.CDBDir,
		"langcodes":         &cfg.LangCodes,
		"metrics-file":      &cfg.MetricsFile,
		"log-level":         &cfg.LogLevel,
		"log-dir":           &cfg.LogDir,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	slices := map[string]*[]string{
		"skip-list":       &cfg.SkipLists,
		"exclude-section": &cfg.ExcludedSections,
	}
	for name, dst := range slices {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Changed("batch-ceiling") {
		v, err := flags.GetInt("batch-ceiling")
		if err != nil {
			return err
		}
		cfg.BatchCeiling = v
	}
	return nil
}

// Validate checks settings every command relies on.
func (c Config) Validate() error {
	if c.ArchiveRoot == "" {
		return fmt.Errorf("archive_root is required")
	}
	if c.ListsConfig == "" {
		return fmt.Errorf("lists_config is required")
	}
	if c.Indexer == "" {
		return fmt.Errorf("indexer is required")
	}
	// program name plus one "-l code path" triple
	if c.BatchCeiling < 4 {
		return fmt.Errorf("batch_ceiling must be at least 4, got %d", c.BatchCeiling)
	}
	if len(c.CDBCommand) == 0 {
		return fmt.Errorf("cdb_command must not be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}
