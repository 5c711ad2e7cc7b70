package langcode

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dhcgn/mbox-index/listcfg"
)

var (
	reAnnotation = regexp.MustCompile(`\(.*\)`)
	reTrailing   = regexp.MustCompile(`[^a-z].*`)
)

// Clean normalises a free-form language attribute such as "French (fr)" or
// "german, english" down to a bare table key.
func Clean(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	lang = foldAccents(lang)
	lang = reAnnotation.ReplaceAllString(lang, "")
	lang = reTrailing.ReplaceAllString(lang, "")
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Resolve maps a raw language attribute to its code. For names missing from
// the table it returns the default language's code together with an error
// wrapping ErrUnknownLanguage; callers treat that error as a warning.
func (t *Table) Resolve(language string) (string, error) {
	name := Clean(language)
	if code, ok := t.byName[name]; ok {
		return code, nil
	}
	return t.byName[DefaultLanguage], fmt.Errorf("%w: %q (from %q)", ErrUnknownLanguage, name, language)
}

// ResolveList resolves the language of a configured list. Lists without a
// record resolve like lists without a language attribute.
func (t *Table) ResolveList(lists listcfg.Set, list string) (string, error) {
	return t.Resolve(lists[list].Language())
}
