package realtime

import (
	"sync"
	"time"
)

// Room holds state and a broadcaster for one keyed entry (a browser profile,
// a game, ...).
type Room[T any] struct {
	ID    string
	State T
	hub   *Broadcaster

	mu      sync.Mutex
	touched time.Time
}

// Hub returns the room's broadcaster.
func (r *Room[T]) Hub() *Broadcaster {
	return r.hub
}

// Touch records activity on the room.
func (r *Room[T]) Touch(now time.Time) {
	r.mu.Lock()
	r.touched = now
	r.mu.Unlock()
}

// LastTouched returns the time of the last recorded activity.
func (r *Room[T]) LastTouched() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touched
}

// RoomStore manages rooms and their broadcasters.
type RoomStore[T any] struct {
	mu    sync.RWMutex
	rooms map[string]*Room[T]
	now   func() time.Time
}

// NewRoomStore creates an empty room store.
func NewRoomStore[T any]() *RoomStore[T] {
	return &RoomStore[T]{
		rooms: make(map[string]*Room[T]),
		now:   time.Now,
	}
}

// Get returns the room by ID if it exists.
func (s *RoomStore[T]) Get(id string) (*Room[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// GetOrCreate returns the room for id, building its state with create when
// the room does not exist yet. create runs under the store lock and receives
// the room's broadcaster so the state can publish through it.
func (s *RoomStore[T]) GetOrCreate(id string, create func(hub *Broadcaster) T) (*Room[T], bool) {
	s.mu.RLock()
	r, ok := s.rooms[id]
	s.mu.RUnlock()
	if ok {
		r.Touch(s.now())
		return r, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		r.Touch(s.now())
		return r, false
	}
	hub := NewBroadcaster()
	r = &Room[T]{ID: id, State: create(hub), hub: hub, touched: s.now()}
	s.rooms[id] = r
	return r, true
}

// Publish notifies subscribers of the room's broadcaster.
func (s *RoomStore[T]) Publish(id string, topics ...string) {
	if r, ok := s.Get(id); ok {
		r.hub.Publish(topics...)
	}
}

// Len reports the number of rooms.
func (s *RoomStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Sweep removes rooms idle for longer than idle that have no open
// subscriptions. evict runs for each removed room after the store lock is
// released.
func (s *RoomStore[T]) Sweep(idle time.Duration, evict func(*Room[T])) int {
	cutoff := s.now().Add(-idle)
	var removed []*Room[T]
	s.mu.Lock()
	for id, r := range s.rooms {
		if r.hub.Subscribers() > 0 || r.LastTouched().After(cutoff) {
			continue
		}
		delete(s.rooms, id)
		removed = append(removed, r)
	}
	s.mu.Unlock()
	if evict != nil {
		for _, r := range removed {
			evict(r)
		}
	}
	return len(removed)
}

// Each calls f for every room. f must not call back into the store.
func (s *RoomStore[T]) Each(f func(*Room[T])) {
	s.mu.RLock()
	rooms := make([]*Room[T], 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()
	for _, r := range rooms {
		f(r)
	}
}
