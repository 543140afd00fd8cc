package realtime

import "sync"

// Broadcaster fans topic notifications out to stream subscribers.
// Topics are coalesced per subscriber: publishing "grid" three times before
// the subscriber drains yields a single "grid", and nothing is ever dropped.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscription is one subscriber's view of a Broadcaster.
type Subscription struct {
	b     *Broadcaster
	mu    sync.Mutex
	order []string
	seen  map[string]struct{}
	ready chan struct{}
}

// Subscribe registers a new subscriber.
func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{
		b:     b,
		seen:  make(map[string]struct{}),
		ready: make(chan struct{}, 1),
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish marks topics pending on every subscriber.
func (b *Broadcaster) Publish(topics ...string) {
	if len(topics) == 0 {
		return
	}
	b.mu.Lock()
	for sub := range b.subs {
		sub.add(topics)
	}
	b.mu.Unlock()
}

// Subscribers reports how many subscriptions are currently open.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (s *Subscription) add(topics []string) {
	s.mu.Lock()
	for _, t := range topics {
		if _, ok := s.seen[t]; ok {
			continue
		}
		s.seen[t] = struct{}{}
		s.order = append(s.order, t)
	}
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Ready fires whenever at least one topic is pending.
func (s *Subscription) Ready() <-chan struct{} {
	return s.ready
}

// Take returns pending topics in first-published order and clears them.
func (s *Subscription) Take() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.order
	s.order = nil
	s.seen = make(map[string]struct{})
	return out
}

// Close removes the subscription from its broadcaster. Safe to call twice.
func (s *Subscription) Close() {
	s.b.mu.Lock()
	delete(s.b.subs, s)
	s.b.mu.Unlock()
}
