// Package listcfg parses the line-oriented mailing list configuration.
//
// A file is a sequence of "field: value" lines. A "list:" field opens a new
// record keyed by the local part of its address; the fields that follow
// attach to that record until the next "list:" line. Everything from an
// unescaped '#' to the end of a line is a comment.
package listcfg

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
)

const (
	FieldList      = "list"
	FieldShortName = "shortname"
	FieldLanguage  = "language"
	FieldSection   = "section"
)

var reField = regexp.MustCompile(`^([a-zA-Z\-]+):\s*(.*)$`)

// Record holds the attributes of one list. Field names are lowercase.
type Record map[string]string

func (r Record) Language() string {
	return r[FieldLanguage]
}

func (r Record) Section() string {
	return r[FieldSection]
}

// Set maps list short names to their records.
type Set map[string]Record

// Names returns the list names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge overlays other onto s field by field. Fields present in both take
// the value from other; fields present in only one side survive.
func (s Set) Merge(other Set) {
	for name, rec := range other {
		existing, ok := s[name]
		if !ok {
			existing = make(Record, len(rec))
			s[name] = existing
		}
		for field, value := range rec {
			existing[field] = value
		}
	}
}

// Warning describes a line the parser could not use.
type Warning struct {
	Source string
	Line   int
	Text   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.Source, w.Line, w.Text)
}

// Parse reads configuration from r. source names r in warnings.
func Parse(r io.Reader, source string) (Set, []Warning, error) {
	set := make(Set)
	var (
		warnings []Warning
		current  Record
		listName string
	)

	// Lines have no length limit; an overlong line is only a warning.
	reader := bufio.NewReader(r)
	for line := 1; ; line++ {
		raw, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, warnings, fmt.Errorf("read %s: %w", source, err)
		}
		if raw == "" && err != nil {
			break
		}

		text := StripComment(strings.TrimRight(raw, "\r\n"))
		m := reField.FindStringSubmatch(text)
		if m == nil {
			if strings.TrimSpace(text) != "" {
				warnings = append(warnings, Warning{Source: source, Line: line, Text: "unrecognised line " + quoteLine(text)})
			}
			continue
		}

		field := strings.ToLower(m[1])
		value := strings.TrimSpace(m[2])

		if field == FieldList {
			listName = strings.SplitN(value, "@", 2)[0]
			current = Record{FieldShortName: listName}
			set[listName] = current
		}
		if current == nil {
			warnings = append(warnings, Warning{Source: source, Line: line, Text: fmt.Sprintf("field %s outside of any list", field)})
			continue
		}
		if _, dup := current[field]; dup {
			warnings = append(warnings, Warning{Source: source, Line: line, Text: fmt.Sprintf("duplicate field %s for list %s", field, listName)})
		}
		current[field] = value
	}

	return set, warnings, nil
}

// Load parses the file at path.
func Load(path string) (Set, []Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open list config: %w", err)
	}
	defer f.Close()

	return Parse(f, path)
}

// LoadMerged loads the dead-lists file and then the live file on top of it.
// A missing dead file is not an error; the returned bool reports it.
func LoadMerged(deadPath, livePath string) (Set, []Warning, bool, error) {
	set := make(Set)
	var warnings []Warning
	deadMissing := false

	if deadPath != "" {
		dead, deadWarnings, err := Load(deadPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			deadMissing = true
		case err != nil:
			return nil, nil, false, err
		default:
			set.Merge(dead)
			warnings = append(warnings, deadWarnings...)
		}
	}

	live, liveWarnings, err := Load(livePath)
	if err != nil {
		return nil, nil, deadMissing, err
	}
	set.Merge(live)
	warnings = append(warnings, liveWarnings...)

	return set, warnings, deadMissing, nil
}

// StripComment removes everything from the first unescaped '#'. An escaped
// "\#" is kept as a literal '#'.
func StripComment(line string) string {
	if !strings.Contains(line, "#") {
		return line
	}

	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\\' && i+1 < len(line) && line[i+1] == '#' {
			b.WriteByte('#')
			i++
			continue
		}
		if c == '#' {
			break
		}
		b.WriteByte(c)
	}
	return b.String()
}

func quoteLine(s string) string {
	return fmt.Sprintf("%q", strings.TrimRight(s, " \t\r"))
}
