// Package filter narrows a full archive sweep to lists whose names match
// regular expressions.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrModeConflict = errors.New("include and exclude patterns are mutually exclusive")

// Options captures the filtering configuration.
type Options struct {
	Include []string
	Exclude []string
}

// Filter holds compiled patterns. A nil Filter allows every list.
type Filter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// New compiles the patterns. It returns nil when no pattern is set.
func New(opts Options) (*Filter, error) {
	include, err := compilePatterns(opts.Include)
	if err != nil {
		return nil, fmt.Errorf("compile include pattern: %w", err)
	}
	exclude, err := compilePatterns(opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("compile exclude pattern: %w", err)
	}

	if len(include) > 0 && len(exclude) > 0 {
		return nil, ErrModeConflict
	}
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	return &Filter{include: include, exclude: exclude}, nil
}

// Allows reports whether the list takes part in the sweep.
func (f *Filter) Allows(list string) bool {
	if f == nil {
		return true
	}
	if len(f.include) > 0 {
		return matchAny(f.include, list)
	}
	return !matchAny(f.exclude, list)
}

func (f *Filter) String() string {
	if f == nil {
		return "all lists"
	}
	if len(f.include) > 0 {
		return "include " + joinPatterns(f.include)
	}
	return "exclude " + joinPatterns(f.exclude)
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func joinPatterns(patterns []*regexp.Regexp) string {
	out := make([]string, len(patterns))
	for i, re := range patterns {
		out[i] = re.String()
	}
	return strings.Join(out, " ")
}
