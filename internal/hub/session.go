package hub

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"

	"gamehub/internal/carousel"
	"gamehub/internal/catalog"
	"gamehub/internal/prefs"
	"gamehub/internal/remote"
	"gamehub/internal/render"
	"gamehub/internal/viewer"
	"gamehub/pkg/realtime"
)

// Topics published when a part of the page must be re-rendered.
const (
	TopicGrid     = "grid"
	TopicRecent   = "recent"
	TopicCarousel = "carousel"
	TopicViewer   = "viewer"
	TopicSettings = "settings"
	TopicScript   = "script"
)

// AllTopics lists every render topic, in render order.
var AllTopics = []string{TopicSettings, TopicGrid, TopicRecent, TopicCarousel, TopicViewer}

// View selects which collection the grid shows.
type View string

const (
	ViewAll       View = "all"
	ViewFavorites View = "favorites"
)

// ErrUnknownItem is returned for ids not in the catalog.
var ErrUnknownItem = errors.New("hub: unknown item")

// Session is one browser profile's hub: view state, preferences, carousel
// and viewer. All methods must run on the session's loop.
type Session struct {
	cat      *catalog.Store
	prefs    *prefs.Store
	renderer *render.Renderer
	browser  *remote.Browser
	carousel *carousel.Controller
	viewer   *viewer.Controller
	publish  func(topics ...string)
	log      *slog.Logger
	pick     func(n int) int

	category      string
	query         string
	view          View
	showAllRecent bool
	expanded      catalog.IDSet
	generation    uint64
	firstRun      bool
}

// SessionOptions carries everything NewSession wires together.
type SessionOptions struct {
	Scheduler realtime.Scheduler
	Catalog   *catalog.Store
	Prefs     *prefs.Store
	Browser   *remote.Browser
	Render    render.Options
	Carousel  carousel.Options
	Viewer    viewer.Options
	Publish   func(topics ...string)
	Logger    *slog.Logger
}

// NewSession wires a session. Call Init on the loop before serving it.
func NewSession(o SessionOptions) *Session {
	s := &Session{
		cat:      o.Catalog,
		prefs:    o.Prefs,
		browser:  o.Browser,
		renderer: render.New(o.Catalog, o.Render),
		publish:  o.Publish,
		log:      o.Logger,
		pick:     rand.IntN,
		category: catalog.CategoryAll,
		view:     ViewAll,
		expanded: catalog.IDSet{},
	}
	if s.publish == nil {
		s.publish = func(...string) {}
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	co := o.Carousel
	co.OnChange = func() { s.publish(TopicCarousel) }
	s.carousel = carousel.New(o.Scheduler, co)

	vo := o.Viewer
	vo.OnChange = func() { s.publish(TopicViewer) }
	vo.OnFavorited = func(catalog.ID) { s.browser.Exec("heart") }
	if vo.Logger == nil {
		vo.Logger = s.log
	}
	s.viewer = viewer.New(o.Scheduler, o.Browser.Platform(), o.Catalog, o.Prefs, s.carousel, vo)
	return s
}

// Init runs once when the session starts.
func (s *Session) Init() {
	s.firstRun = s.prefs.FirstRun()
	if s.firstRun {
		s.log.Info("first session for profile")
	}
	s.generation = s.cat.Generation()
	s.carousel.Reset(len(s.cat.Featured()))
}

// Refresh picks up a reloaded catalog.
func (s *Session) Refresh() {
	g := s.cat.Generation()
	if g == s.generation {
		return
	}
	s.generation = g
	s.expanded = catalog.IDSet{}
	s.carousel.Reset(len(s.cat.Featured()))
	s.publish(AllTopics...)
}

// Close stops timers. The session must not be used afterwards.
func (s *Session) Close() {
	s.carousel.Stop()
	s.viewer.Stop()
}

// Search sets the search text.
func (s *Session) Search(q string) {
	q = strings.TrimSpace(q)
	if q == s.query {
		return
	}
	s.query = q
	s.publish(TopicGrid)
}

// SetCategory sets the category filter; unknown values fall back to all.
func (s *Session) SetCategory(c string) {
	c = strings.TrimSpace(c)
	if strings.EqualFold(c, catalog.CategoryAll) {
		c = catalog.CategoryAll
	}
	if c == "" {
		c = catalog.CategoryAll
	}
	s.category = c
	s.publish(TopicGrid)
}

// SetView switches between all items and favorites.
func (s *Session) SetView(v View) {
	if v != ViewFavorites {
		v = ViewAll
	}
	s.view = v
	s.publish(TopicGrid)
}

// ToggleFavorite flips membership of id and returns the new state.
func (s *Session) ToggleFavorite(id catalog.ID) (bool, error) {
	if _, ok := s.cat.ByID(id); !ok {
		return false, ErrUnknownItem
	}
	on := s.prefs.ToggleFavorite(id)
	s.publish(TopicGrid, TopicRecent, TopicViewer)
	return on, nil
}

// ClearFavorites empties favorites.
func (s *Session) ClearFavorites() {
	s.prefs.ClearFavorites()
	s.publish(TopicGrid, TopicRecent, TopicViewer)
}

// ClearRecent empties the recently played list.
func (s *Session) ClearRecent() {
	s.prefs.ClearRecentlyPlayed()
	s.showAllRecent = false
	s.publish(TopicRecent)
}

// ToggleRecentAll flips between the recent preview and the full list.
func (s *Session) ToggleRecentAll() {
	s.showAllRecent = !s.showAllRecent
	s.publish(TopicRecent)
}

// SaveSettings stores display settings.
func (s *Session) SaveSettings(settings prefs.Settings) {
	s.prefs.SaveSettings(settings)
	s.publish(TopicSettings, TopicGrid, TopicRecent)
}

// Play opens id in the viewer.
func (s *Session) Play(id catalog.ID) error {
	it, ok := s.cat.ByID(id)
	if !ok {
		return ErrUnknownItem
	}
	s.viewer.Play(it)
	s.publish(TopicRecent)
	return nil
}

// PlayRandom plays a uniformly random item. It does nothing on an empty
// catalog.
func (s *Session) PlayRandom() {
	n := s.cat.Len()
	if n == 0 {
		return
	}
	if it, ok := s.cat.At(s.pick(n)); ok {
		_ = s.Play(it.ID)
	}
}

// CarouselNext steps the carousel forward.
func (s *Session) CarouselNext() { s.carouselStep(carousel.Forward) }

// CarouselPrevious steps the carousel back.
func (s *Session) CarouselPrevious() { s.carouselStep(carousel.Backward) }

// carouselStep navigates without resuming rotation while the viewer holds it.
func (s *Session) carouselStep(dir carousel.Direction) {
	switch {
	case s.viewerBusy():
		s.carousel.Step(dir)
	case dir == carousel.Forward:
		s.carousel.Next()
	default:
		s.carousel.Previous()
	}
}

// CarouselPause pauses rotation while the pointer is over the carousel.
func (s *Session) CarouselPause() {
	if s.viewerBusy() {
		return
	}
	s.carousel.Pause()
}

// CarouselResume resumes rotation. While the viewer is open rotation stays
// held until it closes.
func (s *Session) CarouselResume() {
	if s.viewerBusy() {
		return
	}
	s.carousel.Resume()
}

// CarouselSelect jumps to a featured index.
func (s *Session) CarouselSelect(i int) { s.carousel.Select(i) }

// CarouselPlay plays the featured item currently shown.
func (s *Session) CarouselPlay() error {
	featured := s.cat.Featured()
	if len(featured) == 0 {
		return nil
	}
	i := s.carousel.Index()
	if i < 0 || i >= len(featured) {
		i = 0
	}
	return s.Play(featured[i].ID)
}

// ToggleDescription expands or collapses a featured description.
func (s *Session) ToggleDescription(id catalog.ID) {
	if s.expanded.Has(id) {
		delete(s.expanded, id)
	} else {
		s.expanded[id] = struct{}{}
	}
	s.publish(TopicCarousel)
}

// CloseViewer closes the embedded viewer.
func (s *Session) CloseViewer() { s.viewer.Close() }

// ToggleViewerFavorite flips favorite on the item being played.
func (s *Session) ToggleViewerFavorite() {
	s.viewer.ToggleFavoriteCurrent()
	s.publish(TopicGrid, TopicRecent)
}

// ToggleFullscreen enters or leaves fullscreen.
func (s *Session) ToggleFullscreen() error { return s.viewer.ToggleFullscreen() }

// FullscreenChanged reconciles with the page's fullscreen state.
func (s *Session) FullscreenChanged(active bool) { s.viewer.SyncFullscreen(active) }

// FullscreenRejected records that the page refused fullscreen.
func (s *Session) FullscreenRejected(reason string) {
	_ = s.viewer.FullscreenFailed(errors.New(reason))
}

// Popout opens the current item in a pop-out window.
func (s *Session) Popout() error { return s.viewer.PopoutCurrent() }

// PopoutBlocked handles the page reporting that window.open was refused.
func (s *Session) PopoutBlocked(token string) {
	if w, ok := s.browser.Blocked(token); ok {
		s.viewer.PopoutBlocked(w)
	}
}

// PopoutUnloaded handles a pop-out window going away.
func (s *Session) PopoutUnloaded(token string) { s.browser.Unloaded(token) }

// SetEmbedded records whether the page runs inside a frame.
func (s *Session) SetEmbedded(v bool) { s.browser.SetEmbedded(v) }

// PopoutDocument returns the document for a pop-out token.
func (s *Session) PopoutDocument(token string) (viewer.PopoutDocument, bool) {
	return s.browser.Document(token)
}

func (s *Session) viewerBusy() bool {
	switch s.viewer.State() {
	case viewer.Preloading, viewer.Active, viewer.Closing:
		return true
	}
	return false
}
