package parser

import (
	"regexp"
	"strings"
)

var unclosedTagRe = regexp.MustCompile(`<(game_data|npc_rename|new_npcs|memory_updates|scene_context)>(?:[^<]|<[^/])*$`)

// sentenceEnders are the terminal punctuation patterns a complete
// sentence can end with, covering plain prose and both quote styles.
var sentenceEnders = []string{
	".", "!", "?",
	".\"", "!\"", "?\"",
	".'", "!'", "?'",
	".”", "!”", "?”",
	"…",
}

// SalvageTruncatedNarration cleans prose cut off by a generation length
// limit: any metadata tag opened but never closed is removed, then the
// prose is trimmed back to its last complete sentence. The trim is
// skipped when it would discard all but a short prefix.
func SalvageTruncatedNarration(text string) string {
	text = unclosedTagRe.ReplaceAllString(text, "")
	text = strings.TrimRight(text, " \n\t")
	if text == "" {
		return text
	}

	best := -1
	for _, end := range sentenceEnders {
		if idx := strings.LastIndex(text, end); idx >= 0 && idx+len(end) > best {
			best = idx + len(end)
		}
	}
	if best > 30 {
		return strings.TrimRight(text[:best], " \n\t")
	}
	return text
}
