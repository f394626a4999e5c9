// Package playlist provides the ordered URL list shown by the slideshow.
package playlist

import (
	"sync"

	"github.com/osa030/urlshow/internal/domain/slide"
)

// Store is an ordered list of normalized URLs.
// Duplicates are permitted and insertion order is significant.
type Store struct {
	mu   sync.RWMutex
	urls []string
}

// New creates a store holding urls as-is.
func New(urls ...string) *Store {
	s := &Store{urls: make([]string, 0, len(urls))}
	s.urls = append(s.urls, urls...)
	return s
}

// Add normalizes raw and appends it.
// Empty or whitespace-only input is rejected without mutation.
func (s *Store) Add(raw string) bool {
	u, ok := slide.Normalize(raw)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, u)
	return true
}

// AddMany adds every non-blank line of text and returns the number added.
func (s *Store) AddMany(text string) int {
	added := 0
	for _, line := range slide.SplitLines(text) {
		if s.Add(line) {
			added++
		}
	}
	return added
}

// Remove removes the element at index. Out of range is a no-op.
func (s *Store) Remove(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.urls) {
		return false
	}
	s.urls = append(s.urls[:index], s.urls[index+1:]...)
	return true
}

// Move swaps the element at index with its neighbour in direction (-1 or +1).
// It returns the new position of the moved element.
func (s *Store) Move(index, direction int) (int, bool) {
	if direction != -1 && direction != 1 {
		return index, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	to := index + direction
	if index < 0 || index >= len(s.urls) || to < 0 || to >= len(s.urls) {
		return index, false
	}
	s.urls[index], s.urls[to] = s.urls[to], s.urls[index]
	return to, true
}

// Replace swaps the whole list for urls.
func (s *Store) Replace(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.urls = make([]string, len(urls))
	copy(s.urls, urls)
}

// Clear removes every element.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = make([]string, 0)
}

// URLs returns a copy of the list.
func (s *Store) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, len(s.urls))
	copy(result, s.urls)
	return result
}

// Len returns the number of elements.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.urls)
}

// At returns the element at index.
func (s *Store) At(index int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.urls) {
		return "", false
	}
	return s.urls[index], true
}

// Contains reports whether u is in the list.
func (s *Store) Contains(u string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.urls {
		if v == u {
			return true
		}
	}
	return false
}
