// Package markov keeps the bot's word-level Markov chain: building it from
// chat lines, merging new text into it, sampling sentences and persisting it
// as a single JSON snapshot.
package markov

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	begin = "___BEGIN__"
	end   = "___END__"

	DefaultStateSize = 2

	// SeedSentence is what a fresh bot knows before it has heard anything.
	SeedSentence = "SHREK IS LOVE, SHREK IS LIFE"
)

var ErrStateSize = errors.New("state size mismatch")

var (
	lineSplit = regexp.MustCompile(`\s*\n\s*`)
	// lines with dangling quotes or brackets produce broken output
	malformed = regexp.MustCompile(`(^')|('$)|\s'|'\s|["(\(\)\[\])]`)
)

// Model is an immutable line-oriented Markov chain. Every transition maps a
// window of stateSize words to the weighted words observed right after it.
type Model struct {
	stateSize   int
	transitions map[string]map[string]int
	sentences   []string

	compiled map[string]*choices
	rejoined string
}

type choices struct {
	words      []string
	cumulative []int
}

// New builds a model with one training sample per line of each text.
func New(stateSize int, wellFormed bool, text ...string) *Model {
	if stateSize < 1 {
		stateSize = DefaultStateSize
	}
	m := &Model{
		stateSize:   stateSize,
		transitions: map[string]map[string]int{},
	}
	for _, t := range text {
		for _, line := range lineSplit.Split(t, -1) {
			words := strings.Fields(line)
			if len(words) == 0 {
				continue
			}
			if wellFormed && malformed.MatchString(strings.Join(words, " ")) {
				continue
			}
			m.add(words)
		}
	}
	m.compile()
	return m
}

// Seed returns the placeholder model used when no snapshot exists.
func Seed(stateSize int) *Model {
	return New(stateSize, true, SeedSentence)
}

func (m *Model) add(words []string) {
	m.sentences = append(m.sentences, strings.Join(words, " "))

	items := make([]string, 0, m.stateSize+len(words)+1)
	for i := 0; i < m.stateSize; i++ {
		items = append(items, begin)
	}
	items = append(items, words...)
	items = append(items, end)

	for i := 0; i+m.stateSize < len(items); i++ {
		state := stateKey(items[i : i+m.stateSize])
		next := items[i+m.stateSize]
		if m.transitions[state] == nil {
			m.transitions[state] = map[string]int{}
		}
		m.transitions[state][next]++
	}
}

// Combine returns a new model whose transition weights are the sums of the
// given models' weights.
func Combine(models ...*Model) (*Model, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: nothing to combine", ErrStateSize)
	}
	out := &Model{
		stateSize:   models[0].stateSize,
		transitions: map[string]map[string]int{},
	}
	for _, m := range models {
		if m.stateSize != out.stateSize {
			return nil, fmt.Errorf("%w: %d and %d", ErrStateSize, out.stateSize, m.stateSize)
		}
		for state, nexts := range m.transitions {
			if out.transitions[state] == nil {
				out.transitions[state] = make(map[string]int, len(nexts))
			}
			for next, weight := range nexts {
				out.transitions[state][next] += weight
			}
		}
		out.sentences = append(out.sentences, m.sentences...)
	}
	out.compile()
	return out, nil
}

func (m *Model) compile() {
	m.compiled = make(map[string]*choices, len(m.transitions))
	for state, nexts := range m.transitions {
		c := &choices{words: make([]string, 0, len(nexts))}
		for word := range nexts {
			c.words = append(c.words, word)
		}
		sort.Strings(c.words)
		total := 0
		for _, word := range c.words {
			total += nexts[word]
			c.cumulative = append(c.cumulative, total)
		}
		m.compiled[state] = c
	}
	m.rejoined = strings.Join(m.sentences, "\n")
}

func (m *Model) StateSize() int { return m.stateSize }

// Sentences returns the training lines in the order they were learned.
func (m *Model) Sentences() []string {
	return append([]string(nil), m.sentences...)
}

// Weight is the number of times next followed the given state window.
func (m *Model) Weight(state []string, next string) int {
	return m.transitions[stateKey(state)][next]
}

// TotalWeight is the number of transitions the model has learned.
func (m *Model) TotalWeight() int {
	total := 0
	for _, nexts := range m.transitions {
		for _, weight := range nexts {
			total += weight
		}
	}
	return total
}

// Transitions returns a copy of the chain keyed by space-joined state windows.
func (m *Model) Transitions() map[string]map[string]int {
	out := make(map[string]map[string]int, len(m.transitions))
	for state, nexts := range m.transitions {
		cp := make(map[string]int, len(nexts))
		for next, weight := range nexts {
			cp[next] = weight
		}
		out[state] = cp
	}
	return out
}

func (m *Model) beginState() []string {
	state := make([]string, m.stateSize)
	for i := range state {
		state[i] = begin
	}
	return state
}

// words never contain whitespace, so a space-joined window is unambiguous
func stateKey(state []string) string {
	return strings.Join(state, " ")
}
