package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "mbox-index"}
	RegisterFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mbox-index.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newCommand(t))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
archive_root: /srv/lists/
lists_config: /etc/lists.cfg
batch_ceiling: 200
skip_lists:
  - debian-private
cdb_command: [cdb, -c, -m]
log_level: WARNING
metrics_file: /var/lib/node_exporter/mbox_index.prom
`)

	cfg, err := Load(newCommand(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "/srv/lists", cfg.ArchiveRoot)
	assert.Equal(t, "/etc/lists.cfg", cfg.ListsConfig)
	assert.Equal(t, 200, cfg.BatchCeiling)
	assert.Equal(t, []string{"debian-private"}, cfg.SkipLists)
	assert.Equal(t, []string{"cdb", "-c", "-m"}, cfg.CDBCommand)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/var/lib/node_exporter/mbox_index.prom", cfg.MetricsFile)
	assert.Equal(t, Defaults().ExcludedSections, cfg.ExcludedSections)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "indexer: /usr/bin/myindex\nexcluded_sections: [spi]\n")
	t.Setenv("MBOXINDEX_INDEXER", "/opt/myindex/bin/myindex")
	t.Setenv("MBOXINDEX_EXCLUDED_SECTIONS", "spi, other ,")
	t.Setenv("MBOXINDEX_BATCH_CEILING", "64")

	cfg, err := Load(newCommand(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "/opt/myindex/bin/myindex", cfg.Indexer)
	assert.Equal(t, []string{"spi", "other"}, cfg.ExcludedSections)
	assert.Equal(t, 64, cfg.BatchCeiling)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	path := writeConfig(t, "indexer: /usr/bin/myindex\nbatch_ceiling: 200\n")
	t.Setenv("MBOXINDEX_INDEXER", "/opt/myindex")

	cfg, err := Load(newCommand(t,
		"--config", path,
		"--indexer", "./myindex",
		"--batch-ceiling", "30",
		"--skip-list", "a,b",
		"--log-level", "debug",
	))
	require.NoError(t, err)

	assert.Equal(t, "./myindex", cfg.Indexer)
	assert.Equal(t, 30, cfg.BatchCeiling)
	assert.Equal(t, []string{"a", "b"}, cfg.SkipLists)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(newCommand(t, "--batch-ceiling", "3"))
	assert.ErrorContains(t, err, "batch_ceiling")

	_, err = Load(newCommand(t, "--log-level", "loud"))
	assert.ErrorContains(t, err, "invalid log level")

	_, err = Load(newCommand(t, "--archive-root", ""))
	assert.ErrorContains(t, err, "archive_root")

	_, err = Load(newCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(newCommand(t, "--config", writeConfig(t, "archive_root: [unterminated\n")))
	assert.ErrorContains(t, err, "parse config file")
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	cfg.CDBCommand = nil
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Indexer = ""
	assert.Error(t, cfg.Validate())
}
