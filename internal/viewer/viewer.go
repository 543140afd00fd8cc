// Package viewer owns the "now playing" lifecycle: the embedded viewer, its
// fullscreen mode and the external pop-out window.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gamehub/internal/catalog"
	applog "gamehub/internal/log"
	"gamehub/pkg/realtime"
)

// Default delays.
const (
	DefaultPreloadDelay = 300 * time.Millisecond
	DefaultClosingDelay = 300 * time.Millisecond
)

// State of the embedded viewer.
type State int

const (
	Closed State = iota
	Preloading
	Active
	Closing
	PoppedOut
)

func (s State) String() string {
	switch s {
	case Preloading:
		return "preloading"
	case Active:
		return "active"
	case Closing:
		return "closing"
	case PoppedOut:
		return "popped-out"
	default:
		return "closed"
	}
}

// Catalog resolves items to catalog positions.
type Catalog interface {
	IndexOf(id catalog.ID) int
}

// Favorites is the preference store slice the viewer touches.
type Favorites interface {
	IsFavorite(id catalog.ID) bool
	ToggleFavorite(id catalog.ID) bool
	RecordPlayed(id catalog.ID)
}

// Rotator is paused while something is playing.
type Rotator interface {
	Pause()
	Resume()
}

// Options configures a Controller.
type Options struct {
	PreloadDelay time.Duration
	ClosingDelay time.Duration
	Sandbox      []string
	Cloak        Cloak
	// Origin is prefixed to relative item paths in pop-out windows.
	Origin string
	// OnChange runs after any observable change.
	OnChange func()
	// OnFavorited runs when the current item turns into a favorite.
	OnFavorited func(id catalog.ID)
	Logger      *slog.Logger
}

// Snapshot is a copy of the controller's observable state.
type Snapshot struct {
	State        State
	Item         catalog.Item
	HasItem      bool
	CatalogIndex int
	Favorite     bool
	Fullscreen   bool
	Src          string
	Sandbox      []string
	PopoutOpen   bool
	Notice       string
}

// Controller runs the viewer state machine. Every delayed step carries the
// intent token current when it was scheduled and does nothing if a newer
// play or close has happened since. Methods must be called from the
// scheduler's goroutine.
type Controller struct {
	sched    realtime.Scheduler
	platform Platform
	cat      Catalog
	favs     Favorites
	rot      Rotator
	opts     Options
	log      *slog.Logger

	state      State
	item       catalog.Item
	hasItem    bool
	index      int
	fullscreen bool
	src        string
	notice     string

	intent  uint64
	pending realtime.Timer
	holding bool

	popout   Window
	replaced bool
}

// New creates a closed controller.
func New(sched realtime.Scheduler, platform Platform, cat Catalog, favs Favorites, rot Rotator, opts Options) *Controller {
	if opts.PreloadDelay < 0 {
		opts.PreloadDelay = 0
	}
	if opts.ClosingDelay < 0 {
		opts.ClosingDelay = 0
	}
	if len(opts.Sandbox) == 0 {
		opts.Sandbox = DefaultSandbox
	}
	if opts.Cloak.Enabled {
		if opts.Cloak.Title == "" {
			opts.Cloak.Title = DefaultCloak.Title
		}
		if opts.Cloak.Icon == "" {
			opts.Cloak.Icon = DefaultCloak.Icon
		}
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("viewer")
	}
	return &Controller{
		sched:    sched,
		platform: platform,
		cat:      cat,
		favs:     favs,
		rot:      rot,
		opts:     opts,
		log:      l,
		index:    -1,
	}
}

// Play starts preloading item. It supersedes any pending step: a later
// close or play always wins over this one.
func (c *Controller) Play(item catalog.Item) {
	c.supersede()
	c.notice = ""
	c.item = item
	c.hasItem = true
	c.index = c.cat.IndexOf(item.ID)
	c.favs.RecordPlayed(item.ID)
	c.hold()
	c.state = Preloading
	token := c.intent
	c.pending = c.sched.AfterFunc(c.opts.PreloadDelay, func() {
		if token != c.intent {
			return
		}
		c.pending = nil
		c.activate()
	})
	c.notify()
}

func (c *Controller) activate() {
	c.src = c.item.Path
	if c.platform.Frame != nil {
		c.platform.Frame.Load(c.src, c.opts.Sandbox)
	}
	c.state = Active
	c.notify()
}

// Close tears the embedded viewer down. The frame is cleared, not hidden.
func (c *Controller) Close() {
	switch c.state {
	case Preloading, Active:
		c.beginClosing()
	}
}

func (c *Controller) beginClosing() {
	c.supersede()
	c.notice = ""
	c.leaveFullscreen()
	c.state = Closing
	token := c.intent
	c.pending = c.sched.AfterFunc(c.opts.ClosingDelay, func() {
		if token != c.intent {
			return
		}
		c.pending = nil
		c.finishClosing()
	})
	c.notify()
}

func (c *Controller) finishClosing() {
	if c.platform.Frame != nil {
		c.platform.Frame.Clear()
	}
	c.src = ""
	if c.popout != nil {
		c.state = PoppedOut
	} else {
		c.state = Closed
	}
	c.release()
	c.notify()
}

// ToggleFavoriteCurrent flips the favorite state of the item being shown.
func (c *Controller) ToggleFavoriteCurrent() {
	if !c.hasItem || (c.state != Active && c.state != Preloading) {
		return
	}
	on := c.favs.ToggleFavorite(c.item.ID)
	if on && c.opts.OnFavorited != nil {
		c.opts.OnFavorited(c.item.ID)
	}
	c.notify()
}

// ToggleFullscreen enters or leaves fullscreen on the embedded viewer.
func (c *Controller) ToggleFullscreen() error {
	if c.state != Active {
		return nil
	}
	if c.platform.Fullscreen == nil {
		return c.FullscreenFailed(ErrUnsupportedFullscreen)
	}
	if c.fullscreen {
		if err := c.platform.Fullscreen.Exit(); err != nil {
			c.log.Warn("fullscreen exit failed", slog.Any("err", err))
		}
		c.fullscreen = false
		c.notify()
		return nil
	}
	if err := c.platform.Fullscreen.Request(); err != nil {
		return c.FullscreenFailed(err)
	}
	c.fullscreen = true
	c.notify()
	return nil
}

// SyncFullscreen reconciles with a platform fullscreen-change notification,
// whichever path caused it.
func (c *Controller) SyncFullscreen(active bool) {
	next := active && c.state == Active
	if next == c.fullscreen {
		return
	}
	c.fullscreen = next
	c.notify()
}

// FullscreenFailed records a rejected fullscreen request and stays windowed.
func (c *Controller) FullscreenFailed(cause error) error {
	err := cause
	if !errors.Is(err, ErrUnsupportedFullscreen) {
		err = fmt.Errorf("%w: %v", ErrUnsupportedFullscreen, cause)
	}
	applog.WithOperation(c.log, "fullscreen").Warn("fullscreen rejected", slog.Any("err", cause))
	c.fullscreen = false
	c.notice = "Fullscreen is not available."
	c.notify()
	return err
}

// PopoutCurrent opens the item being shown in a pop-out window. There is a
// single affordance; it always acts on the current item.
func (c *Controller) PopoutCurrent() error {
	if !c.hasItem || (c.state != Active && c.state != Preloading) {
		return nil
	}
	return c.OpenPopout(c.item)
}

// OpenPopout shows item in a new external window, force-closing any window
// opened earlier, then closes the embedded viewer. When the window cannot be
// opened the embedded viewer is left as it was.
func (c *Controller) OpenPopout(item catalog.Item) error {
	l := applog.WithOperation(c.log, "popout")
	if c.platform.Windows == nil {
		return ErrPopoutUnavailable
	}
	if c.platform.Windows.Embedded() {
		l.Info("popout skipped inside embedded frame")
		return ErrPopoutUnavailable
	}
	c.closePopout()

	w, err := c.platform.Windows.Open(c.document(item))
	if err == nil && (w == nil || w.Closed()) {
		err = ErrPopoutBlocked
	}
	if err != nil {
		if !errors.Is(err, ErrPopoutBlocked) {
			err = fmt.Errorf("%w: %v", ErrPopoutBlocked, err)
		}
		l.Warn("popout blocked", slog.String("item", string(item.ID)), slog.Any("err", err))
		c.notice = "Pop-out was blocked by the browser."
		c.notify()
		return err
	}

	c.popout = w
	c.replaced = false
	w.OnUnload(func() { c.popoutUnloaded(w) })
	l.Info("popout opened", slog.String("item", string(item.ID)))

	switch c.state {
	case Preloading, Active:
		c.item, c.hasItem = item, true
		c.replaced = true
		c.beginClosing()
	case Closed:
		c.state = PoppedOut
		c.notify()
	default:
		c.notify()
	}
	return nil
}

// PopoutBlocked handles a window that failed after Open returned, such as a
// browser blocking it asynchronously. The embedded viewer comes back if the
// pop-out had replaced it.
func (c *Controller) PopoutBlocked(w Window) {
	if w == nil || c.popout != w {
		return
	}
	c.popout = nil
	applog.WithOperation(c.log, "popout").Warn("popout blocked after open")
	c.notice = "Pop-out was blocked by the browser."
	if c.replaced && c.hasItem && (c.state == Closing || c.state == PoppedOut) {
		c.replaced = false
		c.supersede()
		c.hold()
		c.activate()
		return
	}
	c.notify()
}

func (c *Controller) popoutUnloaded(w Window) {
	if c.popout != w {
		return
	}
	c.popout = nil
	if c.state == PoppedOut {
		c.state = Closed
	}
	c.notify()
}

func (c *Controller) closePopout() {
	if c.popout == nil {
		return
	}
	old := c.popout
	c.popout = nil
	if !old.Closed() {
		if err := old.Close(); err != nil {
			c.log.Warn("could not close previous popout", slog.Any("err", err))
		}
	}
	if c.state == PoppedOut {
		c.state = Closed
	}
}

func (c *Controller) document(item catalog.Item) PopoutDocument {
	doc := PopoutDocument{
		Title:   item.Name,
		Icon:    item.Logo,
		Src:     ResolveSource(c.opts.Origin, item.Path),
		Sandbox: c.opts.Sandbox,
	}
	if c.opts.Cloak.Enabled {
		doc.Title = c.opts.Cloak.Title
		doc.Icon = c.opts.Cloak.Icon
	}
	return doc
}

// Popout returns the live pop-out window, if any.
func (c *Controller) Popout() (Window, bool) {
	return c.popout, c.popout != nil
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Current returns the item last played.
func (c *Controller) Current() (catalog.Item, bool) { return c.item, c.hasItem }

// Snapshot copies the observable state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:        c.state,
		Item:         c.item,
		HasItem:      c.hasItem,
		CatalogIndex: c.index,
		Fullscreen:   c.fullscreen,
		Src:          c.src,
		Sandbox:      c.opts.Sandbox,
		PopoutOpen:   c.popout != nil,
		Notice:       c.notice,
	}
	if c.hasItem {
		s.Favorite = c.favs.IsFavorite(c.item.ID)
	}
	return s
}

// Stop cancels pending steps without touching the platform.
func (c *Controller) Stop() {
	c.supersede()
}

func (c *Controller) supersede() {
	c.intent++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Controller) leaveFullscreen() {
	if !c.fullscreen {
		return
	}
	c.fullscreen = false
	if c.platform.Fullscreen != nil {
		if err := c.platform.Fullscreen.Exit(); err != nil {
			c.log.Warn("fullscreen exit failed", slog.Any("err", err))
		}
	}
}

func (c *Controller) hold() {
	if c.holding || c.rot == nil {
		return
	}
	c.holding = true
	c.rot.Pause()
}

func (c *Controller) release() {
	if !c.holding || c.rot == nil {
		return
	}
	c.holding = false
	c.rot.Resume()
}

func (c *Controller) notify() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}
