package realtime

import (
	"sort"
	"time"
)

// ManualScheduler is a virtual clock for tests. Callbacks run synchronously
// inside Advance, in deadline order. It is not safe for concurrent use.
type ManualScheduler struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	at      time.Duration
	seq     int
	f       func()
	stopped bool
}

// NewManualScheduler returns a clock at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc schedules f at Now()+d.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &manualTimer{s: s, at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer that comes due,
// including timers scheduled by callbacks during the advance.
func (s *ManualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		t := s.nextDue(target)
		if t == nil {
			break
		}
		s.now = t.at
		t.stopped = true
		s.remove(t)
		t.f()
	}
	s.now = target
}

// Flush fires all pending timers, however far in the future.
func (s *ManualScheduler) Flush() {
	for len(s.timers) > 0 {
		last := s.now
		for _, t := range s.timers {
			if t.at > last {
				last = t.at
			}
		}
		s.Advance(last - s.now)
	}
}

// Now returns the elapsed virtual time.
func (s *ManualScheduler) Now() time.Duration {
	return s.now
}

// Pending reports how many timers are scheduled and not stopped.
func (s *ManualScheduler) Pending() int {
	return len(s.timers)
}

func (s *ManualScheduler) nextDue(target time.Duration) *manualTimer {
	if len(s.timers) == 0 {
		return nil
	}
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].at != s.timers[j].at {
			return s.timers[i].at < s.timers[j].at
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	if s.timers[0].at > target {
		return nil
	}
	return s.timers[0]
}

func (s *ManualScheduler) remove(t *manualTimer) {
	for i, other := range s.timers {
		if other == t {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}

func (t *manualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	t.s.remove(t)
	return true
}
