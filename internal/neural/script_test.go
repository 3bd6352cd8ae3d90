package neural

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripIncompleteSentences(t *testing.T) {
	assert.Equal(t, "One. Two!", StripIncompleteSentences("One. Two! three"))
	assert.Equal(t, "One. Two?", StripIncompleteSentences("One. Two?"))
	assert.Equal(t, "just a fragment", StripIncompleteSentences("just a fragment"))
}

func TestStripTrailingThoughts(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"speaker tag":       {"Get out!\nDONKEY: no", "Get out!\n"},
		"inline tag":        {"Go away. FIONA: why", "Go away. "},
		"punctuation tag":   {"Fine, sure...DONKEY: hi", "Fine, sure"},
		"two word tag":      {"Bow, LORD FARQUAAD: no", "Bow, LORD "},
		"short caps kept":   {"Go to the UK: now", "Go to the UK: now"},
		"line start tag":    {"Sure thing\nlord_farquaad: hi", "Sure thing\n"},
		"stage direction":   {"Fine.\n[Shrek roars]\nmore", "Fine.\n"},
		"left conversation": {"Bye.\nDonkey has left the conversation.", "Bye.\nDonkey "},
		"nothing to strip":  {"Ogres have layers.", "Ogres have layers."},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTrailingThoughts(tt.in))
		})
	}
}

func TestStripWeirdUnicode(t *testing.T) {
	assert.Equal(t, "a b", StripWeirdUnicode("a\u202ab"))
}
