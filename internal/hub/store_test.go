package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"gamehub/internal/catalog"
	"gamehub/internal/prefs"
)

func newTestStore(t *testing.T, opts Options) (*Store, *docSource) {
	t.Helper()
	src := &docSource{data: []byte(testCatalog)}
	cat := catalog.NewStore(src)
	if _, err := cat.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := NewStore(cat, prefs.NewMemoryBackend(), opts)
	t.Cleanup(s.Close)
	return s, src
}

func TestNewStore(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	if s.Len() != 0 {
		t.Errorf("Len %d, want 0", s.Len())
	}
	if s.Catalog().Len() != 5 {
		t.Errorf("catalog Len %d", s.Catalog().Len())
	}
}

func TestStore_Profile(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	p := s.Profile("alice")
	if p == nil || p.ID != "alice" {
		t.Fatalf("Profile = %+v", p)
	}
	if again := s.Profile("alice"); again != p {
		t.Error("Profile returned a different pointer")
	}
	if got, ok := s.Lookup("alice"); !ok || got != p {
		t.Error("Lookup missed an existing profile")
	}
	if _, ok := s.Lookup("bob"); ok {
		t.Error("Lookup should miss unknown profiles")
	}
}

func TestProfile_DoRunsOnLoop(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	p := s.Profile("alice")
	var page Page
	err := p.Do(context.Background(), func(sess *Session) {
		sess.Search("tet")
		page = sess.Page()
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if page.Grid.Count != 1 || !page.FirstRun {
		t.Errorf("page %+v", page)
	}
}

func TestProfile_PublishesTopics(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	p := s.Profile("alice")
	sub := p.Subscribe()
	defer sub.Close()

	_ = p.Do(context.Background(), func(sess *Session) { sess.SetView(ViewFavorites) })
	select {
	case <-sub.Ready():
	case <-time.After(time.Second):
		t.Fatal("no publish")
	}
	found := false
	for _, topic := range sub.Take() {
		if topic == TopicGrid {
			found = true
		}
	}
	if !found {
		t.Error("grid topic missing")
	}
}

func TestProfile_Allow(t *testing.T) {
	s, _ := newTestStore(t, Options{ActionRate: 0.001, ActionBurst: 2})
	p := s.Profile("alice")
	if !p.Allow() || !p.Allow() {
		t.Fatal("burst should allow two actions")
	}
	if p.Allow() {
		t.Error("third action should be limited")
	}

	unlimited, _ := newTestStore(t, Options{})
	q := unlimited.Profile("bob")
	for i := 0; i < 100; i++ {
		if !q.Allow() {
			t.Fatal("zero rate should not limit")
		}
	}
}

func TestStore_ProfilesShareBackend(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := context.Background()
	_ = s.Profile("alice").Do(ctx, func(sess *Session) { _, _ = sess.ToggleFavorite("3") })
	var aliceFav, bobFav int
	_ = s.Profile("alice").Do(ctx, func(sess *Session) { aliceFav = len(sess.prefs.Favorites()) })
	_ = s.Profile("bob").Do(ctx, func(sess *Session) { bobFav = len(sess.prefs.Favorites()) })
	if aliceFav != 1 || bobFav != 0 {
		t.Errorf("alice %d bob %d, want 1 and 0", aliceFav, bobFav)
	}
}

func TestStore_Reload(t *testing.T) {
	s, src := newTestStore(t, Options{})
	p := s.Profile("alice")
	ctx := context.Background()

	src.err = errors.New("offline")
	if err := s.Reload(ctx); !errors.Is(err, catalog.ErrLoad) {
		t.Fatalf("Reload err %v, want ErrLoad", err)
	}
	var page Page
	_ = p.Do(ctx, func(sess *Session) { page = sess.Page() })
	if page.LoadError == "" || !page.Grid.Empty {
		t.Errorf("page after failed reload %+v", page)
	}

	src.err = nil
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	_ = p.Do(ctx, func(sess *Session) { page = sess.Page() })
	if page.LoadError != "" || page.Grid.Count != 5 {
		t.Errorf("page after reload %+v", page)
	}
}

func TestStore_Sweep(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	p := s.Profile("idle")
	busy := s.Profile("busy")
	sub := busy.Subscribe()
	defer sub.Close()

	if n := s.Sweep(time.Hour); n != 0 {
		t.Errorf("swept %d fresh profiles", n)
	}
	if n := s.Sweep(-time.Second); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, ok := s.Lookup("idle"); ok {
		t.Error("idle profile still present")
	}
	if err := p.Do(context.Background(), func(*Session) {}); err == nil {
		t.Error("swept profile loop should be closed")
	}
	if _, ok := s.Lookup("busy"); !ok {
		t.Error("subscribed profile was swept")
	}
}
