// Package textfilter softens narration for kid-friendly sessions. Two
// passes run over the prose: a fixed table of coarse language swapped
// for tame equivalents, and redaction of any terms the player listed as
// off-limits.
package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// softenings maps coarse words to tame stand-ins. The narrator prompt
// already asks for clean language in kid-friendly mode; this is the
// backstop for when it slips.
var softenings = map[string]string{
	"damn":     "dang",
	"damned":   "danged",
	"goddamn":  "gosh-dang",
	"hell":     "heck",
	"ass":      "rear",
	"bastard":  "scoundrel",
	"bitch":    "wretch",
	"crap":     "junk",
	"shit":     "muck",
	"bullshit": "nonsense",
	"piss":     "spit",
	"fuck":     "blast",
	"fucking":  "blasted",
	"bloody":   "rotten",
	"kill you": "stop you",
	"corpse":   "fallen figure",
}

const redactedMark = "[…]"

// ContentFilter rewrites narration per a session's content settings.
type ContentFilter struct {
	soften map[string]*regexp.Regexp
	lines  []*regexp.Regexp
}

// New builds a filter. lines is the player's comma-separated list of
// hard-limit terms; matches are redacted outright rather than softened.
func New(lines string) *ContentFilter {
	f := &ContentFilter{soften: make(map[string]*regexp.Regexp, len(softenings))}
	for word := range softenings {
		f.soften[word] = wordPattern(word)
	}
	for _, term := range strings.Split(lines, ",") {
		term = strings.TrimSpace(term)
		if len(term) < 3 {
			continue
		}
		f.lines = append(f.lines, wordPattern(term))
	}
	return f
}

func wordPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
}

// Apply runs both passes and returns the cleaned text.
func (f *ContentFilter) Apply(text string) string {
	for word, re := range f.soften {
		replacement := softenings[word]
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			return matchCase(match, replacement)
		})
	}
	for _, re := range f.lines {
		text = re.ReplaceAllString(text, redactedMark)
	}
	return text
}

// matchCase shapes the replacement to the original's casing: all-caps
// stays all-caps, title case stays title case, anything else goes
// through character by character.
func matchCase(original, replacement string) string {
	if original == "" {
		return replacement
	}
	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	if strings.ToLower(original) == original {
		return replacement
	}

	titler := cases.Title(language.English)
	if titler.String(strings.ToLower(original)) == original {
		return titler.String(replacement)
	}

	orig := []rune(original)
	out := make([]rune, 0, len(replacement))
	for i, r := range replacement {
		if i < len(orig) && unicode.IsUpper(orig[i]) {
			out = append(out, unicode.ToUpper(r))
		} else {
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}
