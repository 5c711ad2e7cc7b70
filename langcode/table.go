// Package langcode holds the language name/code table shared by the index
// driver and the constant-database exporter.
package langcode

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultLanguage is assumed for lists without a usable language attribute.
const DefaultLanguage = "english"

//go:embed languages.yaml
var defaultTable []byte

var (
	ErrNoDefault       = errors.New("language table has no entry for " + DefaultLanguage)
	ErrDuplicateCode   = errors.New("language code mapped twice")
	ErrUnknownLanguage = errors.New("unknown language")
)

// Table is an immutable bidirectional mapping between language names and codes.
type Table struct {
	Version string

	byName map[string]string
	byCode map[string]string
	names  []string
}

// NewTable validates entries and builds a Table. Names are lowercased.
// Tables used for resolution must also pass CheckDefault.
func NewTable(version string, entries map[string]string) (*Table, error) {
	t := &Table{
		Version: version,
		byName:  make(map[string]string, len(entries)),
		byCode:  make(map[string]string, len(entries)),
	}

	for name, code := range entries {
		name = strings.ToLower(strings.TrimSpace(name))
		code = strings.TrimSpace(code)
		if name == "" || code == "" {
			return nil, fmt.Errorf("empty language entry %q: %q", name, code)
		}
		if other, ok := t.byCode[code]; ok {
			return nil, fmt.Errorf("%w: %s used by %s and %s", ErrDuplicateCode, code, other, name)
		}
		t.byName[name] = code
		t.byCode[code] = name
		t.names = append(t.names, name)
	}

	sort.Strings(t.names)
	return t, nil
}

// Default returns the table compiled into the binary.
func Default() (*Table, error) {
	return parse(defaultTable)
}

// LoadTable reads a YAML table of the same shape as the embedded one.
// An empty path yields the default table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read language table: %w", err)
	}
	t, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("language table %s: %w", path, err)
	}
	return t, nil
}

func parse(data []byte) (*Table, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parse language table: %w", err)
	}
	return NewTable(k.String("version"), k.StringMap("languages"))
}

// Code returns the code for a cleaned language name.
func (t *Table) Code(name string) (string, bool) {
	code, ok := t.byName[name]
	return code, ok
}

// Name returns the language name for a code.
func (t *Table) Name(code string) (string, bool) {
	name, ok := t.byCode[code]
	return name, ok
}

// Names returns all language names in sorted order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Codes returns all codes, ordered by their language name.
func (t *Table) Codes() []string {
	out := make([]string, len(t.names))
	for i, name := range t.names {
		out[i] = t.byName[name]
	}
	return out
}

// CheckDefault fails unless the table can resolve DefaultLanguage, which
// unknown names fall back to.
func (t *Table) CheckDefault() error {
	if _, ok := t.byName[DefaultLanguage]; !ok {
		return ErrNoDefault
	}
	return nil
}

func (t *Table) Len() int {
	return len(t.names)
}
