// Package carousel drives the featured-item rotation: an index into the
// featured list, advanced by a timer and by manual navigation.
package carousel

import (
	"time"

	"gamehub/pkg/realtime"
)

const (
	// DefaultPeriod is the time between automatic advances.
	DefaultPeriod = 5 * time.Second
	// DefaultTransition is the exit animation applied before the index moves.
	DefaultTransition = 300 * time.Millisecond
)

// State is the rotation mode.
type State int

const (
	Idle State = iota
	AutoRotating
	Paused
)

func (s State) String() string {
	switch s {
	case AutoRotating:
		return "auto"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Direction of a transition.
type Direction int

const (
	None Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "right"
	case Backward:
		return "left"
	default:
		return ""
	}
}

// Options configures a Controller.
type Options struct {
	Period     time.Duration
	Transition time.Duration
	// OnChange runs after the index or transition state changed.
	OnChange func()
}

// Controller owns the carousel index and its two timers: the rotation timer
// and the transition timer. Each is cancelled before it is replaced, so at
// most one of each is ever outstanding. Methods must be called from the
// scheduler's goroutine.
type Controller struct {
	sched      realtime.Scheduler
	period     time.Duration
	transition time.Duration
	onChange   func()

	size  int
	index int
	state State

	rotation realtime.Timer

	pending       realtime.Timer
	pendingDir    Direction
	pendingManual bool
}

// New creates an idle controller.
func New(sched realtime.Scheduler, opts Options) *Controller {
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Transition < 0 {
		opts.Transition = 0
	}
	return &Controller{
		sched:      sched,
		period:     opts.Period,
		transition: opts.Transition,
		onChange:   opts.OnChange,
	}
}

// Reset points the controller at a featured list of size items. The index is
// kept when still in range. A paused controller stays paused; otherwise
// rotation starts.
func (c *Controller) Reset(size int) {
	c.cancelRotation()
	c.cancelTransition()
	if size < 0 {
		size = 0
	}
	c.size = size
	if c.index >= size {
		c.index = 0
	}
	if size == 0 {
		c.state = Idle
		c.notify()
		return
	}
	if c.state == Paused {
		c.notify()
		return
	}
	c.Start()
	c.notify()
}

// Start enters AutoRotating and restarts the rotation clock. With no items it
// does nothing; with a single item there is nothing to rotate to, so no timer
// is scheduled.
func (c *Controller) Start() {
	c.cancelRotation()
	if c.size == 0 {
		c.state = Idle
		return
	}
	c.state = AutoRotating
	c.scheduleRotation()
}

// Pause suspends rotation without changing the index. An automatic transition
// in flight is cancelled; a manual one still completes.
func (c *Controller) Pause() {
	if c.state != AutoRotating {
		return
	}
	c.state = Paused
	c.cancelRotation()
	if c.pending != nil && !c.pendingManual {
		c.cancelTransition()
		c.notify()
	}
}

// Resume restarts rotation after Pause.
func (c *Controller) Resume() {
	if c.state != Paused {
		return
	}
	c.Start()
}

// Next moves forward one item after the transition, then restarts rotation.
func (c *Controller) Next() { c.navigate(Forward, true) }

// Previous moves back one item after the transition, then restarts rotation.
func (c *Controller) Previous() { c.navigate(Backward, true) }

// Step moves one item in dir without touching the rotation mode. A paused
// controller stays paused.
func (c *Controller) Step(dir Direction) {
	if dir != Forward && dir != Backward {
		return
	}
	c.navigate(dir, false)
}

func (c *Controller) navigate(dir Direction, resume bool) {
	if c.size <= 1 {
		return
	}
	c.cancelRotation()
	if resume || c.state == Idle {
		c.state = AutoRotating
	}
	if c.pending == nil {
		c.beginTransition(dir, true)
		return
	}
	// One step per transition window; the latest press picks the direction
	// and opposite manual presses cancel out.
	if c.pendingManual && c.pendingDir != dir {
		c.cancelTransition()
		if c.state == AutoRotating {
			c.scheduleRotation()
		}
		c.notify()
		return
	}
	c.pendingDir = dir
	c.pendingManual = true
	c.notify()
}

// Select jumps straight to index i. A running rotation clock restarts.
func (c *Controller) Select(i int) {
	if c.size == 0 || i < 0 || i >= c.size {
		return
	}
	c.cancelTransition()
	c.index = i
	if c.state == AutoRotating {
		c.Start()
	}
	c.notify()
}

// Stop cancels both timers and leaves the controller idle.
func (c *Controller) Stop() {
	c.cancelRotation()
	c.cancelTransition()
	c.state = Idle
}

// Index returns the current index; 0 when empty.
func (c *Controller) Index() int { return c.index }

// Size returns the number of featured items.
func (c *Controller) Size() int { return c.size }

// State returns the rotation mode.
func (c *Controller) State() State { return c.state }

// Transitioning returns the direction of the transition in flight, or None.
func (c *Controller) Transitioning() Direction {
	if c.pending == nil {
		return None
	}
	return c.pendingDir
}

func (c *Controller) scheduleRotation() {
	c.cancelRotation()
	if c.size <= 1 {
		return
	}
	c.rotation = c.sched.AfterFunc(c.period, c.tick)
}

func (c *Controller) tick() {
	c.rotation = nil
	if c.state != AutoRotating {
		return
	}
	c.scheduleRotation()
	if c.pending != nil {
		return
	}
	c.beginTransition(Forward, false)
}

func (c *Controller) beginTransition(dir Direction, manual bool) {
	c.pendingDir = dir
	c.pendingManual = manual
	var t realtime.Timer
	t = c.sched.AfterFunc(c.transition, func() {
		if c.pending != t {
			return
		}
		c.finishTransition()
	})
	c.pending = t
	c.notify()
}

func (c *Controller) finishTransition() {
	dir, manual := c.pendingDir, c.pendingManual
	c.pending = nil
	c.pendingDir = None
	c.pendingManual = false
	if c.size > 0 {
		switch dir {
		case Forward:
			c.index = (c.index + 1) % c.size
		case Backward:
			c.index = (c.index - 1 + c.size) % c.size
		}
	}
	if manual && c.state == AutoRotating {
		c.Start()
	}
	c.notify()
}

func (c *Controller) cancelRotation() {
	if c.rotation != nil {
		c.rotation.Stop()
		c.rotation = nil
	}
}

func (c *Controller) cancelTransition() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
		c.pendingDir = None
		c.pendingManual = false
	}
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
