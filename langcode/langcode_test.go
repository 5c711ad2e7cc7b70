package langcode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/mbox-index/listcfg"
)

func TestDefaultTable(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 40, table.Len())
	assert.NotEmpty(t, table.Version)

	for name, want := range map[string]string{
		"english":    "en",
		"basque":     "eu",
		"belarusian": "be",
		"norwegian":  "no",
		"german":     "de",
	} {
		code, ok := table.Code(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, code, name)
	}

	name, ok := table.Name("fr")
	assert.True(t, ok)
	assert.Equal(t, "french", name)
}

func TestTable_NamesAndCodesAligned(t *testing.T) {
	table, err := NewTable("t", map[string]string{"german": "de", "english": "en", "French": "fr"})
	require.NoError(t, err)

	assert.Equal(t, []string{"english", "french", "german"}, table.Names())
	assert.Equal(t, []string{"en", "fr", "de"}, table.Codes())
}

func TestNewTable_Errors(t *testing.T) {
	_, err := NewTable("t", map[string]string{"english": "en", "british": "en"})
	assert.ErrorIs(t, err, ErrDuplicateCode)

	_, err = NewTable("t", map[string]string{"english": "en", "german": ""})
	assert.Error(t, err)
}

func TestCheckDefault(t *testing.T) {
	table, err := NewTable("t", map[string]string{"german": "de"})
	require.NoError(t, err)
	assert.ErrorIs(t, table.CheckDefault(), ErrNoDefault)

	def, err := Default()
	require.NoError(t, err)
	assert.NoError(t, def.CheckDefault())
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: test-1\nlanguages:\n  english: en\n  klingon: tlh\n"), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, "test-1", table.Version)
	assert.Equal(t, []string{"english", "klingon"}, table.Names())

	def, err := LoadTable("")
	require.NoError(t, err)
	assert.Equal(t, 40, def.Len())

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "english"},
		{in: "German", want: "german"},
		{in: "French (fr)", want: "french"},
		{in: "(none)", want: "english"},
		{in: "spanish/english", want: "spanish"},
		{in: "  Portuguese  ", want: "portuguese"},
		{in: "42", want: "english"},
		{in: "Français", want: "francais"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestResolve(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	code, err := table.Resolve("French (fr)")
	require.NoError(t, err)
	assert.Equal(t, "fr", code)

	code, err = table.Resolve("Elvish")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
	assert.Equal(t, "en", code)
}

func TestResolveList(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	lists := listcfg.Set{
		"foo-bar":   {"shortname": "foo-bar", "language": "French (fr)", "section": "general"},
		"plain":     {"shortname": "plain"},
		"debian-de": {"shortname": "debian-de", "language": "German"},
	}

	first, err := table.ResolveList(lists, "foo-bar")
	require.NoError(t, err)
	second, err := table.ResolveList(lists, "foo-bar")
	require.NoError(t, err)
	assert.Equal(t, "fr", first)
	assert.Equal(t, first, second)

	code, err := table.ResolveList(lists, "plain")
	require.NoError(t, err)
	assert.Equal(t, "en", code)

	code, err = table.ResolveList(lists, "debian-de")
	require.NoError(t, err)
	assert.Equal(t, "de", code)

	code, err = table.ResolveList(lists, "unconfigured")
	require.NoError(t, err)
	assert.Equal(t, "en", code)
}
