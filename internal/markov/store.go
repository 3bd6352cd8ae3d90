package markov

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/shrek-bot/internal/infra"
)

var (
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
	ErrPersistence     = errors.New("persist snapshot")
)

const snapshotPerm = 0o644

var (
	defaultWriteFile = infra.AtomicWriteFile
	writeFile        = defaultWriteFile
)

// Load reads the snapshot at path. A missing file yields the seed model.
func Load(path string, stateSize int) (*Model, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Seed(stateSize), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return Decode(data)
}

// Persist replaces the snapshot at path with m in one atomic step.
func Persist(m *Model, path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := writeFile(path, data, snapshotPerm); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Store owns the current model. Merges are serialized and persisted; readers
// use whatever model was last published and never block on a merge.
type Store struct {
	path  string
	tries int

	mu      sync.Mutex
	current atomic.Pointer[Model]
}

// NewStore loads the snapshot at path, falling back to the seed model when it
// cannot be read.
func NewStore(path string, stateSize, tries int) *Store {
	s := &Store{path: path, tries: tries}

	m, err := Load(path, stateSize)
	if err != nil {
		log.WithError(err).WithField("path", path).Errorln("cant load markov snapshot, starting from seed")
		m = Seed(stateSize)
	}
	s.current.Store(m)
	log.WithField("path", path).
		WithField("transitions", m.TotalWeight()).
		Infoln("markov model loaded")
	return s
}

func (s *Store) Model() *Model {
	return s.current.Load()
}

// Merge folds text into the current model. The merged model is published even
// when persisting it fails; the returned error then wraps ErrPersistence.
func (s *Store) Merge(text ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.current.Load()
	next, err := Combine(current, New(current.StateSize(), false, text...))
	if err != nil {
		return err
	}
	s.current.Store(next)

	return Persist(next, s.path)
}

func (s *Store) Sample(seed string) Result {
	return Sample(s.Model(), seed, s.tries, nil)
}

// Dump returns the current snapshot as JSON.
func (s *Store) Dump() ([]byte, error) {
	return json.Marshal(s.Model())
}
