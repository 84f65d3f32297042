// Package liststate implements the list-screen state machine shared by
// every entity list in the admin panel: paged fetching, client-side
// re-filtering, optimistic local mutation, and load-more accumulation.
// The same controller drives appointments, patients, international
// patients, doctors, departments, health checkups, news, and blogs; only
// the fetch function and field accessors differ per entity.
package liststate

import "sync"

// Store is a keyed, ordered collection of entities. It is the single
// place local list mutations happen; every screen shares Upsert, Remove,
// SetPage, and Append instead of splicing its own slice.
type Store[T any] struct {
	mu    sync.RWMutex
	keyOf func(T) string
	items []T
	index map[string]int
}

// NewStore builds a store. keyOf must return a stable identifier per item.
func NewStore[T any](keyOf func(T) string) *Store[T] {
	return &Store[T]{keyOf: keyOf, index: make(map[string]int)}
}

// SetPage replaces the entire collection with a freshly fetched page.
func (s *Store[T]) SetPage(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]T(nil), items...)
	s.reindex()
}

// Append adds a subsequent page's items, dropping any whose key is already
// present (servers occasionally repeat boundary rows between pages).
func (s *Store[T]) Append(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if _, exists := s.index[s.keyOf(item)]; exists {
			continue
		}
		s.index[s.keyOf(item)] = len(s.items)
		s.items = append(s.items, item)
	}
}

// Upsert replaces the item with the same key in place, or appends when the
// key is new. Position is preserved on replace so an edited row does not
// jump within the list.
func (s *Store[T]) Upsert(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.keyOf(item)
	if i, ok := s.index[key]; ok {
		s.items[i] = item
		return
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, item)
}

// Remove deletes the item with the given key. Returns true when something
// was removed.
func (s *Store[T]) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[key]
	if !ok {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindex()
	return true
}

// Get returns the item with the given key.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.index[key]; ok {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// Items returns a copy of the collection in order.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]T(nil), s.items...)
}

// Len returns the number of items.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// reindex rebuilds the key index; callers hold the write lock.
func (s *Store[T]) reindex() {
	s.index = make(map[string]int, len(s.items))
	for i, item := range s.items {
		s.index[s.keyOf(item)] = i
	}
}
