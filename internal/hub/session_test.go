package hub

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"gamehub/internal/carousel"
	"gamehub/internal/catalog"
	applog "gamehub/internal/log"
	"gamehub/internal/prefs"
	"gamehub/internal/remote"
	"gamehub/internal/viewer"
	"gamehub/pkg/realtime"
)

const testCatalog = `[
  {"id": 1, "name": "Space Invaders", "category": "arcade", "path": "games/space.html", "logo": "a.jpg", "featured": true, "rating": 4.5},
  {"id": 2, "name": "Pac-Man", "category": "arcade", "path": "games/pacman.html", "logo": "b.jpg", "rating": 4.8},
  {"id": 3, "name": "Tetris", "category": "puzzle", "path": "games/tetris.html", "logo": "c.jpg", "featured": true, "rating": 4.7},
  {"id": 4, "name": "Chess", "category": "strategy", "path": "games/chess.html", "logo": "d.jpg", "featured": true, "rating": 4.6},
  {"id": 5, "name": "Snake", "category": "arcade", "path": "games/snake.html", "logo": "e.jpg", "rating": 4.2}
]`

const (
	preload    = 300 * time.Millisecond
	closing    = 300 * time.Millisecond
	period     = 5 * time.Second
	transition = 300 * time.Millisecond
)

// docSource serves whatever document it currently holds.
type docSource struct {
	data []byte
	err  error
}

func (d *docSource) Fetch(context.Context) ([]byte, error) { return d.data, d.err }
func (d *docSource) String() string                        { return "test" }

type topicLog struct{ topics []string }

func (l *topicLog) publish(topics ...string) { l.topics = append(l.topics, topics...) }

func (l *topicLog) has(topic string) bool { return slices.Contains(l.topics, topic) }

func (l *topicLog) reset() { l.topics = nil }

type harness struct {
	sched   *realtime.ManualScheduler
	src     *docSource
	cat     *catalog.Store
	prefs   *prefs.Store
	browser *remote.Browser
	topics  *topicLog
	s       *Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sched:  realtime.NewManualScheduler(),
		src:    &docSource{data: []byte(testCatalog)},
		topics: &topicLog{},
	}
	h.cat = catalog.NewStore(h.src)
	if _, err := h.cat.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.prefs = prefs.New(prefs.NewMemoryKV(), prefs.WithLogger(applog.Discard()))
	h.browser = remote.NewBrowser(nil)
	h.browser.Attach()
	h.s = NewSession(SessionOptions{
		Scheduler: h.sched,
		Catalog:   h.cat,
		Prefs:     h.prefs,
		Browser:   h.browser,
		Carousel:  carousel.Options{Period: period, Transition: transition},
		Viewer:    viewer.Options{PreloadDelay: preload, ClosingDelay: closing},
		Publish:   h.topics.publish,
		Logger:    applog.Discard(),
	})
	h.s.Init()
	return h
}

func cardNames(p Page) []string {
	out := make([]string, 0, len(p.Grid.Cards))
	for _, c := range p.Grid.Cards {
		out = append(out, c.Title)
	}
	return out
}

func TestSession_InitStartsCarousel(t *testing.T) {
	h := newHarness(t)
	p := h.s.Page()
	if p.Rotation != carousel.AutoRotating {
		t.Errorf("rotation %v, want AutoRotating", p.Rotation)
	}
	if len(p.Carousel.Slides) != 3 || !p.Carousel.Slides[0].Active {
		t.Errorf("carousel %+v", p.Carousel)
	}
	if !p.FirstRun {
		t.Error("first session should report FirstRun")
	}
	if p.Grid.Count != 5 {
		t.Errorf("grid count %d, want 5", p.Grid.Count)
	}
	h.sched.Advance(period + transition)
	if got := h.s.Page().Carousel.Index; got != 1 {
		t.Errorf("index after one period %d, want 1", got)
	}
}

func TestSession_SearchAndCategory(t *testing.T) {
	h := newHarness(t)
	h.s.SetCategory("arcade")
	h.s.Search("  pac ")
	if got := cardNames(h.s.Page()); !slices.Equal(got, []string{"Pac-Man"}) {
		t.Errorf("cards %v", got)
	}
	if !h.topics.has(TopicGrid) {
		t.Error("grid not published")
	}
	h.s.SetCategory("")
	h.s.Search("")
	if got := h.s.Page(); got.Category != catalog.CategoryAll || got.Grid.Count != 5 {
		t.Errorf("category %q count %d", got.Category, got.Grid.Count)
	}
}

func TestSession_CategoryKeepsCatalogSpelling(t *testing.T) {
	h := newHarness(t)
	h.src.data = []byte(`[
  {"id": 1, "name": "Space Invaders", "category": "Arcade", "path": "a.html"},
  {"id": 2, "name": "Tetris", "category": "Puzzle", "path": "b.html"},
  {"id": 3, "name": "Snake", "category": "Arcade", "path": "c.html"}
]`)
	if _, err := h.cat.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.s.Refresh()
	p := h.s.Page()
	if !slices.Equal(p.Categories, []string{catalog.CategoryAll, "Arcade", "Puzzle"}) {
		t.Fatalf("categories %v", p.Categories)
	}
	h.s.SetCategory("Arcade")
	if got := cardNames(h.s.Page()); !slices.Equal(got, []string{"Space Invaders", "Snake"}) {
		t.Errorf("Arcade cards %v", got)
	}
	h.s.SetCategory("ALL")
	if got := h.s.Page(); got.Category != catalog.CategoryAll || got.Grid.Count != 3 {
		t.Errorf("category %q count %d", got.Category, got.Grid.Count)
	}
}

func TestSession_CatalogIndexSurvivesFiltering(t *testing.T) {
	h := newHarness(t)
	h.s.SetCategory("puzzle")
	cards := h.s.Page().Grid.Cards
	if len(cards) != 1 || cards[0].CatalogIndex != 2 || cards[0].ListIndex != 0 {
		t.Fatalf("cards %+v", cards)
	}
}

func TestSession_FavoritesView(t *testing.T) {
	h := newHarness(t)
	for _, id := range []catalog.ID{"5", "1", "3"} {
		if _, err := h.s.ToggleFavorite(id); err != nil {
			t.Fatalf("ToggleFavorite(%s): %v", id, err)
		}
	}
	h.s.SetView(ViewFavorites)
	if got := cardNames(h.s.Page()); !slices.Equal(got, []string{"Space Invaders", "Tetris", "Snake"}) {
		t.Errorf("favorites %v, want catalog order", got)
	}
	h.s.SetCategory("arcade")
	if got := cardNames(h.s.Page()); !slices.Equal(got, []string{"Space Invaders", "Snake"}) {
		t.Errorf("arcade favorites %v", got)
	}

	h.topics.reset()
	on, _ := h.s.ToggleFavorite("1")
	if on {
		t.Error("second toggle should remove")
	}
	if !h.topics.has(TopicGrid) {
		t.Error("unfavorite in favorites view must re-render the grid")
	}
	if got := cardNames(h.s.Page()); !slices.Equal(got, []string{"Snake"}) {
		t.Errorf("after unfavorite %v", got)
	}

	h.s.SetView("bogus")
	if h.s.Page().View != ViewAll {
		t.Error("unknown view should fall back to all")
	}
}

func TestSession_ToggleFavoriteUnknown(t *testing.T) {
	h := newHarness(t)
	if _, err := h.s.ToggleFavorite("nope"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("err %v, want ErrUnknownItem", err)
	}
	if len(h.prefs.Favorites()) != 0 {
		t.Error("unknown id stored")
	}
}

func TestSession_PlayHoldsCarousel(t *testing.T) {
	h := newHarness(t)
	if err := h.s.Play("2"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if h.s.Page().Viewer.State != viewer.Preloading {
		t.Fatalf("state %v, want Preloading", h.s.Page().Viewer.State)
	}
	if got := h.prefs.RecentlyPlayed(); !slices.Equal(got, []catalog.ID{"2"}) {
		t.Errorf("recent %v", got)
	}
	h.sched.Advance(preload)
	p := h.s.Page()
	if p.Viewer.State != viewer.Active || h.browser.FrameSource() != "games/pacman.html" {
		t.Fatalf("state %v frame %q", p.Viewer.State, h.browser.FrameSource())
	}
	if p.Rotation != carousel.Paused {
		t.Errorf("rotation %v, want Paused while playing", p.Rotation)
	}

	// Pointer leaving the carousel must not resume rotation under the viewer.
	h.s.CarouselResume()
	if h.s.Page().Rotation != carousel.Paused {
		t.Error("resume while playing should be ignored")
	}

	h.s.CloseViewer()
	h.sched.Advance(closing)
	p = h.s.Page()
	if p.Viewer.State != viewer.Closed || h.browser.FrameSource() != "" {
		t.Errorf("state %v frame %q", p.Viewer.State, h.browser.FrameSource())
	}
	if p.Rotation != carousel.AutoRotating {
		t.Errorf("rotation %v, want AutoRotating after close", p.Rotation)
	}
}

func TestSession_CarouselNavigationWhilePlayingStaysHeld(t *testing.T) {
	h := newHarness(t)
	if err := h.s.Play("2"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h.sched.Advance(preload)
	start := h.s.Page().Carousel.Index

	h.s.CarouselNext()
	h.sched.Advance(transition)
	p := h.s.Page()
	if p.Carousel.Index != start+1 {
		t.Fatalf("index %d, want %d", p.Carousel.Index, start+1)
	}
	if p.Rotation != carousel.Paused || p.Viewer.State != viewer.Active {
		t.Fatalf("rotation %v viewer %v", p.Rotation, p.Viewer.State)
	}
	h.sched.Advance(3 * period)
	if got := h.s.Page().Carousel.Index; got != start+1 {
		t.Errorf("rotated under the viewer: index %d", got)
	}

	h.s.CarouselPrevious()
	h.sched.Advance(transition)
	if got := h.s.Page(); got.Carousel.Index != start || got.Rotation != carousel.Paused {
		t.Errorf("index %d rotation %v", got.Carousel.Index, got.Rotation)
	}

	h.s.CloseViewer()
	h.sched.Advance(closing)
	if got := h.s.Page().Rotation; got != carousel.AutoRotating {
		t.Errorf("rotation %v, want AutoRotating after close", got)
	}
}

func TestSession_PlayUnknown(t *testing.T) {
	h := newHarness(t)
	if err := h.s.Play("missing"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("err %v", err)
	}
	if h.s.Page().Viewer.State != viewer.Closed {
		t.Error("viewer opened for unknown id")
	}
}

func TestSession_PlayRandom(t *testing.T) {
	h := newHarness(t)
	h.s.pick = func(n int) int {
		if n != 5 {
			t.Errorf("pick(%d), want 5", n)
		}
		return 3
	}
	h.s.PlayRandom()
	cur := h.s.Page().Viewer
	if !cur.HasItem || cur.Item.Name != "Chess" {
		t.Errorf("playing %+v", cur.Item)
	}
}

func TestSession_PlayRandomEmptyCatalog(t *testing.T) {
	h := newHarness(t)
	h.src.err = errors.New("offline")
	_, _ = h.cat.Load(context.Background())
	h.s.Refresh()
	h.s.pick = func(int) int {
		t.Error("pick called on empty catalog")
		return 0
	}
	h.s.PlayRandom()
	if h.s.Page().Viewer.State != viewer.Closed {
		t.Error("viewer opened on empty catalog")
	}
}

func TestSession_CarouselPlayUsesCatalogIndex(t *testing.T) {
	h := newHarness(t)
	h.s.CarouselSelect(1)
	if err := h.s.CarouselPlay(); err != nil {
		t.Fatalf("CarouselPlay: %v", err)
	}
	v := h.s.Page().Viewer
	if v.Item.Name != "Tetris" || v.CatalogIndex != 2 {
		t.Errorf("playing %q at %d, want Tetris at 2", v.Item.Name, v.CatalogIndex)
	}
}

func TestSession_CarouselPauseResume(t *testing.T) {
	h := newHarness(t)
	h.s.CarouselPause()
	h.sched.Advance(3 * period)
	if p := h.s.Page(); p.Rotation != carousel.Paused || p.Carousel.Index != 0 {
		t.Errorf("rotation %v index %d", p.Rotation, p.Carousel.Index)
	}
	h.s.CarouselResume()
	h.sched.Advance(period + transition)
	if got := h.s.Page().Carousel.Index; got != 1 {
		t.Errorf("index %d, want 1", got)
	}
	h.s.CarouselNext()
	h.s.CarouselNext()
	h.sched.Advance(transition)
	if got := h.s.Page().Carousel.Index; got != 2 {
		t.Errorf("index %d, want 2 after one coalesced step", got)
	}
	h.s.CarouselPrevious()
	h.sched.Advance(transition)
	if got := h.s.Page().Carousel.Index; got != 1 {
		t.Errorf("index %d, want 1", got)
	}
}

func TestSession_ToggleDescription(t *testing.T) {
	h := newHarness(t)
	h.topics.reset()
	h.s.ToggleDescription("1")
	if !h.topics.has(TopicCarousel) {
		t.Error("carousel not published")
	}
	if !h.s.expanded.Has("1") {
		t.Error("not expanded")
	}
	h.s.ToggleDescription("1")
	if h.s.expanded.Has("1") {
		t.Error("not collapsed")
	}
}

func TestSession_RecentToggleAndClear(t *testing.T) {
	h := newHarness(t)
	for _, id := range []catalog.ID{"1", "2", "3", "4", "5", "1"} {
		_ = h.s.Play(id)
	}
	p := h.s.Page()
	if p.Recent.Count != 5 || len(p.Recent.Cards) != 5 || p.Recent.ShowMore {
		t.Errorf("recent %+v", p.Recent)
	}
	if p.Recent.Cards[0].Title != "Space Invaders" {
		t.Errorf("most recent %q", p.Recent.Cards[0].Title)
	}
	h.s.ToggleRecentAll()
	if !h.s.showAllRecent {
		t.Error("toggle did not flip")
	}
	h.s.ClearRecent()
	p = h.s.Page()
	if !p.Recent.Empty || h.s.showAllRecent {
		t.Errorf("after clear %+v", p.Recent)
	}
}

func TestSession_SaveSettings(t *testing.T) {
	h := newHarness(t)
	h.topics.reset()
	h.s.SaveSettings(prefs.Settings{ThumbnailSize: "large", DarkMode: true, Compact: true})
	p := h.s.Page()
	if p.Grid.Size != "large" || !p.Grid.DarkMode || !p.Grid.Compact {
		t.Errorf("grid %+v", p.Grid)
	}
	for _, topic := range []string{TopicSettings, TopicGrid, TopicRecent} {
		if !h.topics.has(topic) {
			t.Errorf("%s not published", topic)
		}
	}
}

func TestSession_RefreshAfterFailedLoad(t *testing.T) {
	h := newHarness(t)
	h.s.ToggleDescription("1")
	h.src.err = errors.New("offline")
	_, _ = h.cat.Load(context.Background())
	h.s.Refresh()
	p := h.s.Page()
	if p.LoadError == "" || !p.Grid.Empty || !p.Carousel.Empty {
		t.Fatalf("page after failure %+v", p)
	}
	if p.Rotation != carousel.Idle {
		t.Errorf("rotation %v, want Idle", p.Rotation)
	}

	h.src.err = nil
	_, _ = h.cat.Load(context.Background())
	h.topics.reset()
	h.s.Refresh()
	p = h.s.Page()
	if p.LoadError != "" || p.Grid.Count != 5 || p.Rotation != carousel.AutoRotating {
		t.Errorf("page after retry %+v", p)
	}
	if h.s.expanded.Has("1") {
		t.Error("expanded descriptions should reset on reload")
	}
	for _, topic := range AllTopics {
		if !h.topics.has(topic) {
			t.Errorf("%s not published on refresh", topic)
		}
	}

	h.topics.reset()
	h.s.Refresh()
	if len(h.topics.topics) != 0 {
		t.Error("refresh without a new load should not publish")
	}
}

func TestSession_PopoutBlockedRestoresViewer(t *testing.T) {
	h := newHarness(t)
	_ = h.s.Play("3")
	h.sched.Advance(preload)
	if err := h.s.Popout(); err != nil {
		t.Fatalf("Popout: %v", err)
	}
	w, ok := h.s.viewer.Popout()
	if !ok {
		t.Fatal("no pop-out window")
	}
	token := w.(*remote.Window).Token
	if _, ok := h.s.PopoutDocument(token); !ok {
		t.Error("document not served")
	}
	h.s.PopoutBlocked(token)
	h.sched.Flush()
	if got := h.s.Page().Viewer; got.State != viewer.Active || got.Notice == "" {
		t.Errorf("viewer %+v, want Active with a notice", got)
	}
}

func TestSession_PopoutUnloaded(t *testing.T) {
	h := newHarness(t)
	_ = h.s.Play("3")
	h.sched.Advance(preload)
	_ = h.s.Popout()
	h.sched.Flush()
	if h.s.Page().Viewer.State != viewer.PoppedOut {
		t.Fatalf("state %v, want PoppedOut", h.s.Page().Viewer.State)
	}
	w, _ := h.s.viewer.Popout()
	h.s.PopoutUnloaded(w.(*remote.Window).Token)
	if h.s.Page().Viewer.State != viewer.Closed {
		t.Errorf("state %v, want Closed", h.s.Page().Viewer.State)
	}
}

func TestSession_PopoutEmbedded(t *testing.T) {
	h := newHarness(t)
	h.s.SetEmbedded(true)
	_ = h.s.Play("3")
	h.sched.Advance(preload)
	if err := h.s.Popout(); !errors.Is(err, viewer.ErrPopoutUnavailable) {
		t.Errorf("err %v, want ErrPopoutUnavailable", err)
	}
}
