package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLoopClosed is returned when work is posted to a closed loop.
var ErrLoopClosed = errors.New("realtime: loop closed")

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer; false means it already fired or was stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Loop executes posted tasks one at a time on a single goroutine. Timers
// created through AfterFunc run their callbacks on the loop too, so state
// touched only from loop tasks needs no further locking.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewLoop starts a loop whose queue holds up to buffer pending tasks.
func NewLoop(buffer int) *Loop {
	if buffer < 1 {
		buffer = 1
	}
	l := &Loop{
		tasks: make(chan func(), buffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case f := <-l.tasks:
			l.exec(f)
		}
	}
}

func (l *Loop) exec(f func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("loop task panicked", slog.Any("panic", r))
		}
	}()
	f()
}

// Post queues f. It blocks while the queue is full.
func (l *Loop) Post(f func()) error {
	select {
	case <-l.quit:
		return ErrLoopClosed
	default:
	}
	select {
	case l.tasks <- f:
		return nil
	case <-l.quit:
		return ErrLoopClosed
	}
}

// Do runs f on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		f()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	}
}

// AfterFunc schedules f to run on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		_ = l.Post(func() {
			if t.stopped.CompareAndSwap(false, true) {
				f()
			}
		})
	})
	return t
}

// Close stops the loop and waits for the running task to return. Pending
// tasks are dropped. Close must not be called from a loop task.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.stopped.CompareAndSwap(false, true)
}
