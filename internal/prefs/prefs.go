// Package prefs holds a profile's favorites, recently played list and
// display settings, persisted to a key-value store.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gamehub/internal/catalog"
	applog "gamehub/internal/log"
)

// Persistence keys.
const (
	KeyFavorites   = "favorites"
	KeyRecent      = "recentlyPlayed"
	KeySettings    = "settings"
	KeyInitialized = "initialized"
)

// DefaultRecentLimit caps the recently played list.
const DefaultRecentLimit = 10

// ErrPersistence marks every read or write failure against the KV store.
var ErrPersistence = errors.New("preference persistence failed")

// PersistenceError describes one failed read or write.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("prefs: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Thumbnail sizes.
const (
	ThumbnailSmall  = "small"
	ThumbnailMedium = "medium"
	ThumbnailLarge  = "large"
)

// Settings are the display preferences.
type Settings struct {
	ThumbnailSize string `json:"thumbnailSize"`
	DarkMode      bool   `json:"darkmode"`
	Compact       bool   `json:"compact"`
}

// DefaultSettings returns the settings used when nothing valid is stored.
func DefaultSettings() Settings {
	return Settings{ThumbnailSize: ThumbnailMedium}
}

// Normalize replaces unknown thumbnail sizes with the default.
func (s Settings) Normalize() Settings {
	switch s.ThumbnailSize {
	case ThumbnailSmall, ThumbnailMedium, ThumbnailLarge:
	default:
		s.ThumbnailSize = ThumbnailMedium
	}
	return s
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithRecentLimit overrides DefaultRecentLimit.
func WithRecentLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

// Store is the in-memory, authoritative copy of one profile's preferences.
// Every mutation is written through to the KV store; a failed write is logged
// and the in-memory value is kept.
type Store struct {
	kv          KV
	log         *slog.Logger
	recentLimit int

	mu        sync.RWMutex
	favorites []catalog.ID
	recent    []catalog.ID
	settings  Settings
	lastErr   error
}

// New loads preferences from kv. Unreadable or malformed values fall back to
// empty lists and default settings.
func New(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, recentLimit: DefaultRecentLimit, settings: DefaultSettings()}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = applog.WithComponent("prefs")
	}
	s.favorites = dedupe(s.readIDs(KeyFavorites))
	s.recent = dedupe(s.readIDs(KeyRecent))
	if len(s.recent) > s.recentLimit {
		s.recent = s.recent[:s.recentLimit]
	}
	if raw, ok := s.read(KeySettings); ok {
		settings := DefaultSettings()
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			s.fail("decode", KeySettings, err)
		} else {
			s.settings = settings.Normalize()
		}
	}
	return s
}

// Favorites returns favorite ids in insertion order.
func (s *Store) Favorites() []catalog.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.ID(nil), s.favorites...)
}

// FavoriteIDs returns favorites as a set.
func (s *Store) FavoriteIDs() catalog.IDSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog.NewIDSet(s.favorites...)
}

// IsFavorite reports membership.
func (s *Store) IsFavorite(id catalog.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.favorites, id) >= 0
}

// ToggleFavorite flips membership and returns the new state.
func (s *Store) ToggleFavorite(id catalog.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	on := true
	if i := indexOf(s.favorites, id); i >= 0 {
		s.favorites = append(s.favorites[:i:i], s.favorites[i+1:]...)
		on = false
	} else {
		s.favorites = append(s.favorites, id)
	}
	s.writeJSON(KeyFavorites, s.favorites)
	return on
}

// ClearFavorites empties the favorites set.
func (s *Store) ClearFavorites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites = nil
	s.writeJSON(KeyFavorites, []catalog.ID{})
}

// RecentlyPlayed returns ids most-recent-first.
func (s *Store) RecentlyPlayed() []catalog.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.ID(nil), s.recent...)
}

// RecordPlayed moves id to the front of the recent list, evicting the oldest
// entries beyond the limit.
func (s *Store) RecordPlayed(id catalog.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]catalog.ID, 0, len(s.recent)+1)
	next = append(next, id)
	for _, other := range s.recent {
		if other != id {
			next = append(next, other)
		}
	}
	if len(next) > s.recentLimit {
		next = next[:s.recentLimit]
	}
	s.recent = next
	s.writeJSON(KeyRecent, s.recent)
}

// ClearRecentlyPlayed empties the recent list.
func (s *Store) ClearRecentlyPlayed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = nil
	s.writeJSON(KeyRecent, []catalog.ID{})
}

// RecentLimit reports the cap on the recent list.
func (s *Store) RecentLimit() int { return s.recentLimit }

// Settings returns the current display settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SaveSettings replaces the display settings.
func (s *Store) SaveSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings.Normalize()
	s.writeJSON(KeySettings, s.settings)
}

// FirstRun reports whether this is the profile's first session and sets the
// marker so later calls return false.
func (s *Store) FirstRun() bool {
	if _, ok := s.read(KeyInitialized); ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(KeyInitialized, "true"); err != nil {
		s.fail("write", KeyInitialized, err)
	}
	return true
}

// Err returns the most recent persistence failure, if any.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) read(key string) (string, bool) {
	v, ok, err := s.kv.Get(key)
	if err != nil {
		s.mu.Lock()
		s.fail("read", key, err)
		s.mu.Unlock()
		return "", false
	}
	return v, ok
}

func (s *Store) readIDs(key string) []catalog.ID {
	raw, ok := s.read(key)
	if !ok {
		return nil
	}
	var ids []catalog.ID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.fail("decode", key, err)
		return nil
	}
	return ids
}

// writeJSON must be called with s.mu held.
func (s *Store) writeJSON(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.fail("encode", key, err)
		return
	}
	if err := s.kv.Set(key, string(data)); err != nil {
		s.fail("write", key, err)
	}
}

func (s *Store) fail(op, key string, err error) {
	perr := &PersistenceError{Op: op, Key: key, Err: err}
	s.lastErr = perr
	applog.WithOperation(s.log, op).Warn("preference persistence failed",
		slog.String("key", key), slog.Any("err", err))
}

func indexOf(ids []catalog.ID, id catalog.ID) int {
	for i, other := range ids {
		if other == id {
			return i
		}
	}
	return -1
}

func dedupe(ids []catalog.ID) []catalog.ID {
	seen := make(map[catalog.ID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
