package neural

import (
	"regexp"
	"strings"
)

var (
	incompleteTail = regexp.MustCompile(`(?P<punc>[.!?])[^.!?]+\z`)

	trailingThoughts = regexp.MustCompile(strings.Join([]string{
		// speaker tags, e.g. "DONKEY: " or "...DONKEY: "
		"(?m)(?:\\b|^)[A-Z!-/;-@\\[-`{-~]{3,}:",
		// looser tags, at line starts only
		`^[\w[:punct:]]{3,}:`,
		// stage directions, e.g. "[Shrek kisses Fiona]"
		`^[(\[].*[)\]]$`,
		`has left the conversation.$`,
	}, "|"))
)

// StripWeirdUnicode replaces the LEFT-TO-RIGHT EMBEDDING marks the model
// copies from chat logs.
func StripWeirdUnicode(s string) string {
	return strings.ReplaceAll(s, "\u202a", " ")
}

// StripIncompleteSentences cuts everything after the last sentence-ending
// punctuation. Text without any such punctuation is left alone.
func StripIncompleteSentences(s string) string {
	return incompleteTail.ReplaceAllString(s, "${punc}")
}

// StripTrailingThoughts keeps the generated line up to the point where the
// model starts writing the next speaker's line or stage directions.
func StripTrailingThoughts(s string) string {
	if loc := trailingThoughts.FindStringIndex(s); loc != nil {
		return s[:loc[0]]
	}
	return s
}
