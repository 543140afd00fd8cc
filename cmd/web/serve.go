package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"gamehub/internal/carousel"
	"gamehub/internal/catalog"
	"gamehub/internal/config"
	"gamehub/internal/handlers"
	"gamehub/internal/hub"
	applog "gamehub/internal/log"
	"gamehub/internal/prefs"
	"gamehub/internal/render"
	"gamehub/internal/viewer"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hub page, catalog and session streams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	applog.Init(cfg.LogOptions())
	log := applog.WithComponent("server")

	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return err
	}

	backend, closeBackend, err := openBackend(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeBackend()

	src := catalogSource(cfg.Catalog, staticFS)
	cat := catalog.NewStore(src)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if items, err := cat.Load(ctx); err != nil {
		// Sessions show the failure with a retry prompt.
		log.Warn("catalog load failed", slog.String("source", src.String()), slog.Any("err", err))
	} else {
		log.Info("catalog loaded", slog.Int("games", len(items)))
	}

	store := hub.NewStore(cat, backend, storeOptions(cfg))
	defer store.Close()
	go store.RunSweeper(ctx, cfg.Hub.SweepInterval, cfg.Hub.IdleTimeout)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(store, staticFS, cfg.Catalog.Path),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		// Streams stay open; per-request limits come from middleware.Timeout.
		WriteTimeout: 0,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", "http://localhost"+cfg.Server.Addr))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", slog.Any("err", err))
		return server.Close()
	}
	return nil
}

func newRouter(store *hub.Store, staticFS fs.FS, catalogPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))
	r.Get("/"+catalogPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, staticFS, catalogPath)
	})
	r.Get("/health", handlers.Health(store))

	r.Group(func(r chi.Router) {
		r.Use(handlers.Profiles(store))
		handlers.NewHomeHandler(store, "").RegisterRoutes(r.With(middleware.Timeout(15 * time.Second)))
		handlers.NewHubHandler(store).RegisterRoutes(r)
	})
	return r
}

func openBackend(cfg config.StorageConfig) (hub.Backend, func(), error) {
	if cfg.Driver == "memory" {
		return prefs.NewMemoryBackend(), func() {}, nil
	}
	db, err := prefs.Open(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

func catalogSource(cfg config.CatalogConfig, staticFS fs.FS) catalog.Source {
	if cfg.URL != "" {
		return catalog.HTTPSource{URL: cfg.URL}
	}
	return catalog.FSSource{FS: staticFS, Path: cfg.Path}
}

func storeOptions(cfg config.Config) hub.Options {
	return hub.Options{
		Render: render.Options{
			RecentPreview:    cfg.Hub.RecentPreview,
			DescriptionLimit: cfg.Hub.DescriptionLimit,
			Stagger:          cfg.Hub.CardStagger,
		},
		RecentLimit: cfg.Hub.RecentLimit,
		Carousel: carousel.Options{
			Period:     cfg.Carousel.Period,
			Transition: cfg.Carousel.Transition,
		},
		Viewer: viewer.Options{
			PreloadDelay: cfg.Viewer.PreloadDelay,
			ClosingDelay: cfg.Viewer.ClosingDelay,
			Sandbox:      cfg.Viewer.Sandbox,
			Cloak: viewer.Cloak{
				Enabled: cfg.Popout.Cloak,
				Title:   cfg.Popout.Title,
				Icon:    cfg.Popout.Icon,
			},
			Origin: cfg.Server.Origin,
		},
		ActionRate:  rate.Limit(cfg.Limits.ActionsPerSecond),
		ActionBurst: cfg.Limits.Burst,
	}
}
