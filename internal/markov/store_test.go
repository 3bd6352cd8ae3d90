package markov

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingSnapshotReturnsSeed(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "markov.json"), DefaultStateSize)
	require.NoError(t, err)
	assert.Equal(t, []string{SeedSentence}, m.Sentences())
	assert.Equal(t, Seed(DefaultStateSize).Transitions(), m.Transitions())
}

func TestLoadCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markov.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"state_size":2,"chain":[{"sta`), 0o644))

	_, err := Load(path, DefaultStateSize)
	require.ErrorIs(t, err, ErrCorruptSnapshot)

	s := NewStore(path, DefaultStateSize, DefaultTries)
	assert.Equal(t, []string{SeedSentence}, s.Model().Sentences())
}

func TestStoreScenarioFreshStore(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "markov.json"), DefaultStateSize, DefaultTries)

	assert.Equal(t, []string{SeedSentence}, s.Model().Sentences())
	res := s.Sample("SHREK")
	assert.True(t, strings.HasPrefix(res.Text, "SHREK"), res.Text)
}

func TestStoreMergePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markov.json")
	s := NewStore(path, DefaultStateSize, DefaultTries)

	require.NoError(t, s.Merge("the cat sat on the mat."))
	require.NoError(t, s.Merge([]string{"what are you doing in my swamp", "ogres are like onions"}...))

	loaded, err := Load(path, DefaultStateSize)
	require.NoError(t, err)
	assert.Equal(t, s.Model().Transitions(), loaded.Transitions())
	assert.Equal(t, []string{
		SeedSentence,
		"the cat sat on the mat.",
		"what are you doing in my swamp",
		"ogres are like onions",
	}, loaded.Sentences())

	dump, err := s.Dump()
	require.NoError(t, err)
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, string(onDisk), string(dump))
}

func TestStoreConcurrentMergesLoseNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markov.json")
	s := NewStore(path, DefaultStateSize, DefaultTries)
	base := s.Model().TotalWeight()

	const n = 50
	want := base
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		sentence := fmt.Sprintf("ogre number %d lives in swamp %d", i, i)
		want += len(strings.Fields(sentence)) + 1

		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Merge(sentence))
			_ = s.Sample("ogre")
		}()
	}
	wg.Wait()

	assert.Equal(t, want, s.Model().TotalWeight())
	assert.Len(t, s.Model().Sentences(), n+1)

	loaded, err := Load(path, DefaultStateSize)
	require.NoError(t, err)
	assert.Equal(t, want, loaded.TotalWeight())
}

func TestStoreMergeSurfacesPersistenceError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markov.json")
	s := NewStore(path, DefaultStateSize, DefaultTries)
	require.NoError(t, s.Merge("first sentence here"))

	// simulate a crash halfway through the write: a truncated temp file is
	// left behind and the rename never happens
	writeFile = func(path string, data []byte, perm os.FileMode) error {
		tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp-crash")
		if err := os.WriteFile(tmp, data[:len(data)/2], perm); err != nil {
			return err
		}
		return errors.New("power loss")
	}
	t.Cleanup(func() { writeFile = defaultWriteFile })

	err := s.Merge("the cat sat on the mat.")
	require.ErrorIs(t, err, ErrPersistence)
	// learning is kept in memory
	assert.Contains(t, s.Model().Sentences(), "the cat sat on the mat.")

	// a restart sees the last complete snapshot
	loaded, err := Load(path, DefaultStateSize)
	require.NoError(t, err)
	assert.Equal(t, []string{SeedSentence, "first sentence here"}, loaded.Sentences())
}
