package chart

import (
	"sort"
	"sync"
)

// Store maps album names to fetch results. Inserts are safe from any
// number of goroutines; the lock is held only for the map operation.
type Store struct {
	mu      sync.Mutex
	results map[string]Result
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{results: make(map[string]Result)}
}

// Insert records the result for an album, replacing any earlier one.
func (s *Store) Insert(name string, r Result) {
	s.mu.Lock()
	s.results[name] = r
	s.mu.Unlock()
}

// Get returns the result for an album and whether one was recorded.
func (s *Store) Get(name string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[name]
	return r, ok
}

// Len returns the number of recorded albums.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Names returns the recorded album names in sorted order.
func (s *Store) Names() []string {
	s.mu.Lock()
	names := make([]string, 0, len(s.results))
	for name := range s.results {
		names = append(names, name)
	}
	s.mu.Unlock()

	sort.Strings(names)
	return names
}
