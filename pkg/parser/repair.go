package parser

import (
	"regexp"
	"strings"
)

var (
	missingCommaRe  = regexp.MustCompile(`(["}\]0-9]|true|false|null)\s*\n(\s*")`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	danglingKeyRe   = regexp.MustCompile(`([,{\[])\s*"[^"]*"\s*:?\s*$`)
)

// RepairJSON fixes the malformations LLM output most often carries:
// literal control characters inside string values, missing commas
// between adjacent members split only by a newline, and trailing commas
// before a closing bracket. Callers repair once, re-parse once, and
// give up otherwise.
func RepairJSON(s string) string {
	s = escapeControlChars(s)
	s = missingCommaRe.ReplaceAllString(s, "$1,\n$2")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return s
}

// escapeControlChars escapes raw newlines/tabs/CRs appearing inside
// JSON string literals.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch {
		case r == '\\' && inString:
			b.WriteRune(r)
			escaped = true
		case r == '"':
			inString = !inString
			b.WriteRune(r)
		case inString && r == '\n':
			b.WriteString(`\n`)
		case inString && r == '\t':
			b.WriteString(`\t`)
		case inString && r == '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CloseTruncatedJSON completes JSON cut off by a generation length
// limit: it closes an unterminated string, strips dangling keys or
// separators from the tail, and appends the closing sequence for every
// bracket still open, in reverse nesting order.
func CloseTruncatedJSON(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}

	// A truncated tail often ends mid-member: `"key":` or `"key"` or a
	// bare comma. Trim until the tail is closable, bounded to five
	// passes.
	for i := 0; i < 5; i++ {
		trimmed := strings.TrimRight(s, " \n\t")
		if strings.HasSuffix(trimmed, ":") || strings.HasSuffix(trimmed, ",") {
			s = trimmed[:len(trimmed)-1]
			continue
		}
		if loc := danglingKeyRe.FindStringSubmatchIndex(trimmed); loc != nil {
			cut := loc[2]
			if trimmed[cut] != ',' {
				cut++ // keep an opening bracket
			}
			if cut < len(trimmed) {
				s = trimmed[:cut]
				continue
			}
		}
		s = trimmed
		break
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}
