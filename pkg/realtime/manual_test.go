package realtime

import (
	"reflect"
	"testing"
	"time"
)

func TestManualScheduler_AdvanceFiresInDeadlineOrder(t *testing.T) {
	s := NewManualScheduler()
	var got []string
	s.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	s.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	s.AfterFunc(100*time.Millisecond, func() { got = append(got, "b") })

	s.Advance(99 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("fired early: %v", got)
	}
	s.Advance(time.Second)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if s.Now() != 1099*time.Millisecond {
		t.Errorf("Now %v", s.Now())
	}
}

func TestManualScheduler_NestedTimersFireWithinAdvance(t *testing.T) {
	s := NewManualScheduler()
	count := 0
	var tick func()
	tick = func() {
		count++
		s.AfterFunc(time.Second, tick)
	}
	s.AfterFunc(time.Second, tick)
	s.Advance(3500 * time.Millisecond)
	if count != 3 {
		t.Errorf("count %d, want 3", count)
	}
	if s.Pending() != 1 {
		t.Errorf("Pending %d, want 1", s.Pending())
	}
}

func TestManualScheduler_Stop(t *testing.T) {
	s := NewManualScheduler()
	fired := false
	timer := s.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Error("Stop should report true")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
	s.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestManualScheduler_Flush(t *testing.T) {
	s := NewManualScheduler()
	fired := 0
	s.AfterFunc(time.Hour, func() {
		fired++
		s.AfterFunc(time.Minute, func() { fired++ })
	})
	s.Flush()
	if fired != 2 || s.Pending() != 0 {
		t.Errorf("fired %d pending %d", fired, s.Pending())
	}
}
