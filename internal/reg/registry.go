package reg

import (
	"sync"
)

type (
	registry map[string]any
)

var (
	instance = registry{}
	mu       sync.Mutex
)

func Get[T any](key string, defaults T) T {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := instance[key]; !ok {
		instance[key] = defaults
	}
	return instance[key].(T)
}

func Set(key string, value any) {
	mu.Lock()
	defer mu.Unlock()
	instance[key] = value
}

// Update replaces the value under key with fn(current) as one step, so
// concurrent updates of the same key are not lost.
func Update[T any](key string, defaults T, fn func(T) T) T {
	mu.Lock()
	defer mu.Unlock()
	current, ok := instance[key].(T)
	if !ok {
		current = defaults
	}
	next := fn(current)
	instance[key] = next
	return next
}

func Delete(key string) {
	mu.Lock()
	defer mu.Unlock()
	delete(instance, key)
}
