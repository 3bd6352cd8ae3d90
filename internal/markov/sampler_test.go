package markov

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleSeedModelStartsWithSeed(t *testing.T) {
	m := Seed(DefaultStateSize)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		res := Sample(m, "SHREK", DefaultTries, rng)
		assert.True(t, strings.HasPrefix(res.Text, "SHREK"), res.Text)
		assert.NotEqual(t, TierEchoed, res.Tier)
	}
}

func TestSampleRelaxedWhenEveryWalkCopiesTraining(t *testing.T) {
	// a single linear sentence can only ever be reproduced verbatim
	m := New(2, false, "one two three four five")

	res := Sample(m, "one", 100, rand.New(rand.NewSource(1)))
	assert.Equal(t, TierRelaxed, res.Tier)
	assert.Equal(t, "one two three four five", res.Text)
}

func TestSampleStrict(t *testing.T) {
	m := New(2, false,
		"the cat sat on the mat and purred",
		"the dog sat on the rug and barked",
		"a bird sat on the mat and sang",
		"the cat sat on the rug and slept",
	)

	res := Sample(m, "the", DefaultTries, rand.New(rand.NewSource(7)))
	assert.Equal(t, TierStrict, res.Tier)
	assert.True(t, strings.HasPrefix(res.Text, "the"), res.Text)
	assert.False(t, strings.Contains(strings.Join(m.Sentences(), "\n"), res.Text))
}

func TestSampleMatchesStatesInsideSentences(t *testing.T) {
	m := New(2, false, "we all love big green ogres")

	res := Sample(m, "green", 10, rand.New(rand.NewSource(1)))
	assert.Equal(t, "green ogres", res.Text)
	assert.Equal(t, TierRelaxed, res.Tier)
}

func TestSampleLongSeedContinuesFromLastWords(t *testing.T) {
	m := New(2, false, "get out of my swamp now")

	res := Sample(m, "please get out of my", 10, rand.New(rand.NewSource(1)))
	assert.Equal(t, "please get out of my swamp now", res.Text)
	assert.NotEqual(t, TierEchoed, res.Tier)
}

func TestSampleEchoesUnreachableSeed(t *testing.T) {
	m := Seed(DefaultStateSize)

	for _, seed := range []string{"DONKEY", "talking DONKEY", "not in the model at all"} {
		res := Sample(m, seed, DefaultTries, rand.New(rand.NewSource(1)))
		assert.Equal(t, TierEchoed, res.Tier)
		assert.Equal(t, seed, res.Text)
	}
}

func TestSampleEmptySeed(t *testing.T) {
	m := New(2, false, "layers like an onion")

	res := Sample(m, "", 10, nil)
	assert.Equal(t, "layers like an onion", res.Text)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "strict", TierStrict.String())
	assert.Equal(t, "relaxed", TierRelaxed.String())
	assert.Equal(t, "echoed", TierEchoed.String())
}
