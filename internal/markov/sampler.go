package markov

import (
	"math"
	"math/rand"
	"sort"
	"strings"
)

const (
	DefaultTries = 1000

	maxOverlapRatio = 0.7
	maxOverlapTotal = 15
	maxWords        = 4096
)

// Tier tells which fallback level produced a sample.
type Tier int

const (
	// TierStrict output passed the overlap test against the training text.
	TierStrict Tier = iota
	// TierRelaxed output skipped the overlap test.
	TierRelaxed
	// TierEchoed means nothing could be generated and the seed came back as is.
	TierEchoed
)

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierRelaxed:
		return "relaxed"
	case TierEchoed:
		return "echoed"
	}
	return "unknown"
}

type Result struct {
	Text string
	Tier Tier
}

// Rand is the part of *rand.Rand the sampler needs.
type Rand interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

type start struct {
	prefix []string
	state  []string
}

// Sample generates a sentence beginning with seed. It spends at most tries
// walks looking for output that does not copy the training text, then takes
// any walk from a matching state, and finally returns seed unchanged.
func Sample(m *Model, seed string, tries int, rng Rand) Result {
	if tries < 1 {
		tries = DefaultTries
	}
	if rng == nil {
		rng = globalRand{}
	}

	starts := m.startStates(strings.Fields(seed), rng)
	if len(starts) > 0 {
		if text, ok := m.sentence(starts, tries, true, rng); ok {
			return Result{Text: text, Tier: TierStrict}
		}
		if text, ok := m.sentence(starts, len(starts), false, rng); ok {
			return Result{Text: text, Tier: TierRelaxed}
		}
	}
	return Result{Text: seed, Tier: TierEchoed}
}

// startStates lists the chain states a sentence beginning with words can be
// continued from. Short seeds match any state whose leading real words are
// the seed, not only sentence starts.
func (m *Model) startStates(words []string, rng Rand) []start {
	switch {
	case len(words) == 0:
		return []start{{state: m.beginState()}}
	case len(words) >= m.stateSize:
		state := words[len(words)-m.stateSize:]
		if _, ok := m.compiled[stateKey(state)]; !ok {
			return nil
		}
		return []start{{prefix: words, state: state}}
	}

	keys := make([]string, 0)
	for key := range m.compiled {
		if hasWordPrefix(strings.Split(key, " "), words) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for i := len(keys) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		keys[i], keys[j] = keys[j], keys[i]
	}

	starts := make([]start, 0, len(keys))
	for _, key := range keys {
		state := strings.Split(key, " ")
		starts = append(starts, start{prefix: trimBegin(state), state: state})
	}
	return starts
}

func hasWordPrefix(state, words []string) bool {
	state = trimBegin(state)
	if len(state) < len(words) {
		return false
	}
	for i, w := range words {
		if state[i] != w {
			return false
		}
	}
	return true
}

func trimBegin(state []string) []string {
	i := 0
	for i < len(state) && state[i] == begin {
		i++
	}
	return state[i:]
}

func (m *Model) sentence(starts []start, tries int, testOutput bool, rng Rand) (string, bool) {
	for attempt := 0; attempt < tries; attempt++ {
		s := starts[attempt%len(starts)]
		tail, ok := m.walk(s.state, rng)
		if !ok {
			continue
		}
		words := make([]string, 0, len(s.prefix)+len(tail))
		words = append(words, s.prefix...)
		words = append(words, tail...)
		if len(words) == 0 {
			continue
		}
		if testOutput && !m.original(words) {
			continue
		}
		return strings.Join(words, " "), true
	}
	return "", false
}

func (m *Model) walk(state []string, rng Rand) ([]string, bool) {
	window := append([]string(nil), state...)
	var out []string
	for len(out) < maxWords {
		c, ok := m.compiled[stateKey(window)]
		if !ok {
			return nil, false
		}
		r := rng.Intn(c.cumulative[len(c.cumulative)-1])
		next := c.words[sort.Search(len(c.cumulative), func(i int) bool { return c.cumulative[i] > r })]
		if next == end {
			return out, true
		}
		out = append(out, next)
		window = append(window[1:], next)
	}
	return nil, false
}

// original rejects output sharing a long run of words with the training text.
func (m *Model) original(words []string) bool {
	if m.rejoined == "" {
		return true
	}
	overlapMax := int(math.RoundToEven(maxOverlapRatio * float64(len(words))))
	if overlapMax > maxOverlapTotal {
		overlapMax = maxOverlapTotal
	}
	gramLen := overlapMax + 1
	gramCount := len(words) - overlapMax
	if gramCount < 1 {
		gramCount = 1
	}
	for i := 0; i < gramCount; i++ {
		j := i + gramLen
		if j > len(words) {
			j = len(words)
		}
		if strings.Contains(m.rejoined, strings.Join(words[i:j], " ")) {
			return false
		}
	}
	return true
}
