package hub

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"gamehub/internal/carousel"
	"gamehub/internal/catalog"
	applog "gamehub/internal/log"
	"gamehub/internal/prefs"
	"gamehub/internal/remote"
	"gamehub/internal/render"
	"gamehub/internal/viewer"
	"gamehub/pkg/realtime"
)

// Backend hands out the key-value store of a profile.
type Backend interface {
	Profile(id string) prefs.KV
}

// Options configures every session the store creates.
type Options struct {
	Render      render.Options
	RecentLimit int
	Carousel    carousel.Options
	Viewer      viewer.Options

	// ActionRate and ActionBurst bound how fast one profile may post
	// actions. A zero rate disables the limit.
	ActionRate  rate.Limit
	ActionBurst int
	LoopBuffer  int
}

// Profile is one browser profile's session and the loop that drives it.
type Profile struct {
	ID      string
	Session *Session
	Browser *remote.Browser

	loop    *realtime.Loop
	hub     *realtime.Broadcaster
	limiter *rate.Limiter
}

// Do runs f on the profile's loop and waits for it.
func (p *Profile) Do(ctx context.Context, f func(*Session)) error {
	return p.loop.Do(ctx, func() { f(p.Session) })
}

// Subscribe returns a subscription to the profile's render topics.
func (p *Profile) Subscribe() *realtime.Subscription {
	return p.hub.Subscribe()
}

// Allow reports whether another action may run now.
func (p *Profile) Allow() bool {
	return p.limiter == nil || p.limiter.Allow()
}

// Store holds profiles and delegates to realtime.RoomStore for lookup,
// broadcast and eviction.
type Store struct {
	r       *realtime.RoomStore[*Profile]
	cat     *catalog.Store
	backend Backend
	opts    Options
	log     *slog.Logger
}

// NewStore creates an empty profile store over a shared catalog.
func NewStore(cat *catalog.Store, backend Backend, opts Options) *Store {
	if opts.LoopBuffer <= 0 {
		opts.LoopBuffer = 64
	}
	return &Store{
		r:       realtime.NewRoomStore[*Profile](),
		cat:     cat,
		backend: backend,
		opts:    opts,
		log:     applog.WithComponent("hub"),
	}
}

// Catalog returns the shared catalog.
func (s *Store) Catalog() *catalog.Store { return s.cat }

// Profile returns the profile for id, starting its session on first use.
func (s *Store) Profile(id string) *Profile {
	room, created := s.r.GetOrCreate(id, func(hub *realtime.Broadcaster) *Profile {
		return s.newProfile(id, hub)
	})
	if created {
		s.log.Debug("profile started", slog.String("profile", id))
	}
	return room.State
}

// Lookup returns an existing profile.
func (s *Store) Lookup(id string) (*Profile, bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	room.Touch(time.Now())
	return room.State, true
}

// Len reports the number of live profiles.
func (s *Store) Len() int { return s.r.Len() }

func (s *Store) newProfile(id string, hub *realtime.Broadcaster) *Profile {
	log := s.log.With(slog.String("profile", id))
	loop := realtime.NewLoop(s.opts.LoopBuffer)
	browser := remote.NewBrowser(func() { hub.Publish(TopicScript) })
	store := prefs.New(s.backend.Profile(id),
		prefs.WithLogger(applog.WithComponent("prefs").With(slog.String("profile", id))),
		prefs.WithRecentLimit(s.opts.RecentLimit),
	)
	vo := s.opts.Viewer
	vo.Logger = applog.WithComponent("viewer").With(slog.String("profile", id))
	session := NewSession(SessionOptions{
		Scheduler: loop,
		Catalog:   s.cat,
		Prefs:     store,
		Browser:   browser,
		Render:    s.opts.Render,
		Carousel:  s.opts.Carousel,
		Viewer:    vo,
		Publish:   hub.Publish,
		Logger:    log,
	})
	p := &Profile{ID: id, Session: session, Browser: browser, loop: loop, hub: hub}
	if s.opts.ActionRate > 0 {
		burst := s.opts.ActionBurst
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(s.opts.ActionRate, burst)
	}
	_ = loop.Post(session.Init)
	return p
}

// Reload fetches the catalog again and refreshes every session. The error
// is the load failure, if any; sessions are refreshed either way.
func (s *Store) Reload(ctx context.Context) error {
	_, err := s.cat.Load(ctx)
	if err != nil {
		s.log.Error("catalog reload failed", slog.Any("err", err))
	}
	s.r.Each(func(r *realtime.Room[*Profile]) {
		p := r.State
		_ = p.loop.Post(p.Session.Refresh)
	})
	return err
}

// Sweep stops profiles idle for longer than idle with no open stream.
func (s *Store) Sweep(idle time.Duration) int {
	n := s.r.Sweep(idle, func(r *realtime.Room[*Profile]) {
		s.stop(r.State)
	})
	if n > 0 {
		s.log.Debug("profiles swept", slog.Int("count", n))
	}
	return n
}

// RunSweeper sweeps every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep(idle)
		}
	}
}

// Close stops every session.
func (s *Store) Close() {
	s.r.Each(func(r *realtime.Room[*Profile]) { s.stop(r.State) })
}

func (s *Store) stop(p *Profile) {
	_ = p.loop.Do(context.Background(), p.Session.Close)
	p.loop.Close()
}
