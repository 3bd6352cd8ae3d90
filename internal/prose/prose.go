// Package prose splits free text into sentences and paragraphs.
package prose

import (
	"regexp"
	"strings"
	"sync"

	"github.com/iamwavecut/tool"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

var (
	paragraphBreak = regexp.MustCompile(`(?:\r?\n){2,}`)
	terminal       = regexp.MustCompile(`[.!?…]["'”’)\]]*$`)
)

var segmenter = func() func() *sentences.DefaultSentenceTokenizer {
	var (
		once      sync.Once
		tokenizer *sentences.DefaultSentenceTokenizer
	)
	return func() *sentences.DefaultSentenceTokenizer {
		once.Do(func() {
			tokenizer = tool.MustReturn(english.NewSentenceTokenizer(nil))
		})
		return tokenizer
	}
}()

// Split returns the sentences of text, trimmed, in order.
func Split(text string) []string {
	var out []string
	for _, s := range segmenter().Tokenize(text) {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Sentences flattens raw onto one line and splits it into sentences.
func Sentences(raw string) []string {
	return Split(strings.Join(strings.Fields(raw), " "))
}

// Paragraphs splits raw on blank lines and normalizes whitespace inside each
// paragraph.
func Paragraphs(raw string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(raw, -1) {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Complete reports whether sentence ends with a sentence-boundary mark.
func Complete(sentence string) bool {
	return terminal.MatchString(strings.TrimSpace(sentence))
}

// TrimIncomplete drops a trailing sentence that was cut off mid-way. Text
// made of a single sentence is returned as is, finished or not.
func TrimIncomplete(text string) string {
	text = strings.TrimSpace(text)
	parts := Split(text)
	if len(parts) < 2 {
		return text
	}
	last := parts[len(parts)-1]
	if Complete(last) {
		return text
	}
	if i := strings.LastIndex(text, last); i > 0 {
		return strings.TrimSpace(text[:i])
	}
	return text
}
