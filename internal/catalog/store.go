package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrLoad marks every catalog load failure.
var ErrLoad = errors.New("catalog load failed")

// LoadError carries the cause of a failed load.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog: load from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLoad) hold for any *LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// Source fetches the raw catalog document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// Store holds the loaded catalog and derives views from it.
// Items are never mutated after a load; every accessor returns copies.
type Store struct {
	src Source

	mu         sync.RWMutex
	items      []Item
	featured   []Item
	index      map[ID]int
	generation uint64
	lastErr    error
}

// NewStore creates an empty store reading from src.
func NewStore(src Source) *Store {
	return &Store{src: src, index: map[ID]int{}}
}

// Load fetches and parses the catalog. On failure the store is left empty and
// the returned error matches ErrLoad.
func (s *Store) Load(ctx context.Context) ([]Item, error) {
	items, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if err != nil {
		s.items = nil
		s.featured = nil
		s.index = map[ID]int{}
		s.lastErr = err
		return nil, err
	}
	s.items = items
	s.index = make(map[ID]int, len(items))
	s.featured = s.featured[:0:0]
	for i, it := range items {
		s.index[it.ID] = i
		if it.Featured {
			s.featured = append(s.featured, it)
		}
	}
	s.lastErr = nil
	return clone(items), nil
}

func (s *Store) fetch(ctx context.Context) ([]Item, error) {
	if s.src == nil {
		return nil, &LoadError{Source: "none", Err: errors.New("no catalog source configured")}
	}
	data, err := s.src.Fetch(ctx)
	if err != nil {
		return nil, &LoadError{Source: s.src.String(), Err: err}
	}
	items, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Source: s.src.String(), Err: err}
	}
	return items, nil
}

// Err returns the error from the most recent load, if it failed.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Generation increments on every load attempt.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Items returns the full catalog in order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.items)
}

// Len reports the number of items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// At returns the item at catalog index i.
func (s *Store) At(i int) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.items) {
		return Item{}, false
	}
	return s.items[i], true
}

// Filtered returns items in category (or any, for CategoryAll) whose name
// contains query, case-insensitively, in catalog order.
func (s *Store) Filtered(category, query string) []Item {
	q := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if category != CategoryAll && it.Category != category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(it.Name), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// FavoritesOf returns items whose id is in ids, in catalog order.
func (s *Store) FavoritesOf(ids IDSet) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, 0, len(ids))
	for _, it := range s.items {
		if ids.Has(it.ID) {
			out = append(out, it)
		}
	}
	return out
}

// Featured returns the featured subset computed at load time.
func (s *Store) Featured() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.featured)
}

// ByID looks an item up by id.
func (s *Store) ByID(id ID) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

// IndexOf returns the catalog index of id, or -1.
func (s *Store) IndexOf(id ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// Categories lists distinct categories in first-seen order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	var out []string
	for _, it := range s.items {
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	return out
}

func clone(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
