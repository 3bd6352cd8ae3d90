package markov

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

type snapshot struct {
	StateSize int          `json:"state_size"`
	Chain     []transition `json:"chain"`
	Sentences []string     `json:"sentences"`
}

type transition struct {
	State []string       `json:"state"`
	Next  map[string]int `json:"next"`
}

// MarshalJSON encodes the model as a snapshot with a stable layout.
func (m *Model) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(m.transitions))
	for key := range m.transitions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	snap := snapshot{
		StateSize: m.stateSize,
		Chain:     make([]transition, 0, len(keys)),
		Sentences: m.sentences,
	}
	if snap.Sentences == nil {
		snap.Sentences = []string{}
	}
	for _, key := range keys {
		nexts := m.transitions[key]
		snap.Chain = append(snap.Chain, transition{
			State: splitState(key, m.stateSize),
			Next:  nexts,
		})
	}
	return json.Marshal(snap)
}

// Decode rebuilds a model from its snapshot.
func Decode(data []byte) (*Model, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if snap.StateSize < 1 {
		return nil, fmt.Errorf("%w: state size %d", ErrCorruptSnapshot, snap.StateSize)
	}

	m := &Model{
		stateSize:   snap.StateSize,
		transitions: make(map[string]map[string]int, len(snap.Chain)),
		sentences:   snap.Sentences,
	}
	for _, t := range snap.Chain {
		if len(t.State) != snap.StateSize {
			return nil, fmt.Errorf("%w: state %q has %d words, want %d",
				ErrCorruptSnapshot, t.State, len(t.State), snap.StateSize)
		}
		for _, word := range t.State {
			if !isWord(word) {
				return nil, fmt.Errorf("%w: bad word %q in state %q", ErrCorruptSnapshot, word, t.State)
			}
		}
		if len(t.Next) == 0 {
			return nil, fmt.Errorf("%w: state %q has no successors", ErrCorruptSnapshot, t.State)
		}
		key := stateKey(t.State)
		nexts := make(map[string]int, len(t.Next))
		for next, weight := range t.Next {
			if !isWord(next) {
				return nil, fmt.Errorf("%w: bad successor %q of state %q", ErrCorruptSnapshot, next, t.State)
			}
			if weight < 1 {
				return nil, fmt.Errorf("%w: weight %d for %q", ErrCorruptSnapshot, weight, next)
			}
			nexts[next] = weight
		}
		m.transitions[key] = nexts
	}
	if _, ok := m.transitions[stateKey(m.beginState())]; !ok && len(m.transitions) > 0 {
		return nil, fmt.Errorf("%w: no sentence starts", ErrCorruptSnapshot)
	}
	m.compile()
	return m, nil
}

// isWord reports whether w could have come out of strings.Fields.
func isWord(w string) bool {
	return w != "" && strings.IndexFunc(w, unicode.IsSpace) < 0
}

func splitState(key string, size int) []string {
	state := make([]string, 0, size)
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == ' ' {
			state = append(state, key[start:i])
			start = i + 1
		}
	}
	return append(state, key[start:])
}
