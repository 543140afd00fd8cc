package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"gamehub/internal/catalog"
	"gamehub/internal/hub"
	applog "gamehub/internal/log"
	"gamehub/internal/prefs"
	"gamehub/internal/viewer"
)

type HubHandler struct {
	store *hub.Store
	log   *slog.Logger
}

func NewHubHandler(store *hub.Store) *HubHandler {
	return &HubHandler{store: store, log: applog.WithComponent("handlers")}
}

func (h *HubHandler) RegisterRoutes(r chi.Router) {
	r.Get("/popout/{token}", h.popoutPage)
	r.Route("/hub", func(r chi.Router) {
		r.Get("/stream", h.stream)

		// Notifications from the browser are not throttled.
		r.Post("/popout/{token}/blocked", h.popoutBlocked)
		r.Post("/popout/{token}/unload", h.popoutUnload)
		r.Post("/viewer/fullscreen/sync", h.fullscreenSync)
		r.Post("/viewer/fullscreen/error", h.fullscreenError)

		r.Group(func(r chi.Router) {
			r.Use(Throttle)
			r.Post("/search", h.search)
			r.Post("/category/{category}", h.category)
			r.Post("/view/{view}", h.view)
			r.Post("/favorites/{id}/toggle", h.toggleFavorite)
			r.Post("/favorites/clear", h.simple(func(s *hub.Session) { s.ClearFavorites() }))
			r.Post("/recent/clear", h.simple(func(s *hub.Session) { s.ClearRecent() }))
			r.Post("/recent/toggle", h.simple(func(s *hub.Session) { s.ToggleRecentAll() }))
			r.Post("/settings", h.settings)
			r.Post("/play/random", h.simple(func(s *hub.Session) { s.PlayRandom() }))
			r.Post("/play/{id}", h.play)
			r.Post("/carousel/next", h.simple(func(s *hub.Session) { s.CarouselNext() }))
			r.Post("/carousel/previous", h.simple(func(s *hub.Session) { s.CarouselPrevious() }))
			r.Post("/carousel/pause", h.simple(func(s *hub.Session) { s.CarouselPause() }))
			r.Post("/carousel/resume", h.simple(func(s *hub.Session) { s.CarouselResume() }))
			r.Post("/carousel/play", h.action(func(s *hub.Session) error { return s.CarouselPlay() }))
			r.Post("/carousel/select/{index}", h.carouselSelect)
			r.Post("/carousel/describe/{id}", h.describe)
			r.Post("/viewer/close", h.simple(func(s *hub.Session) { s.CloseViewer() }))
			r.Post("/viewer/favorite", h.simple(func(s *hub.Session) { s.ToggleViewerFavorite() }))
			r.Post("/viewer/fullscreen", h.action(func(s *hub.Session) error { return s.ToggleFullscreen() }))
			r.Post("/viewer/popout", h.action(func(s *hub.Session) error { return s.Popout() }))
			r.Post("/retry", h.retry)
		})
	})
}

// run executes f on the caller's session loop and maps the result to a
// status. Platform refusals are already surfaced to the user as notices, so
// they still answer 204.
func (h *HubHandler) run(w http.ResponseWriter, r *http.Request, f func(s *hub.Session) error) {
	p := profileFrom(r)
	if p == nil {
		http.Error(w, "no profile", http.StatusInternalServerError)
		return
	}
	var actionErr error
	if err := p.Do(r.Context(), func(s *hub.Session) { actionErr = f(s) }); err != nil {
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}
	switch {
	case actionErr == nil:
	case errors.Is(actionErr, hub.ErrUnknownItem):
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	case errors.Is(actionErr, viewer.ErrPopoutBlocked),
		errors.Is(actionErr, viewer.ErrPopoutUnavailable),
		errors.Is(actionErr, viewer.ErrUnsupportedFullscreen):
		applog.WithOperation(h.log, "action").Debug("platform refused", slog.String("path", r.URL.Path), slog.Any("err", actionErr))
	default:
		h.log.Error("action failed", slog.String("path", r.URL.Path), slog.Any("err", actionErr))
		http.Error(w, "action failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HubHandler) action(f func(s *hub.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { h.run(w, r, f) }
}

func (h *HubHandler) simple(f func(s *hub.Session)) http.HandlerFunc {
	return h.action(func(s *hub.Session) error {
		f(s)
		return nil
	})
}

func (h *HubHandler) search(w http.ResponseWriter, r *http.Request) {
	var sig struct {
		Search string `json:"search"`
	}
	if err := datastar.ReadSignals(r, &sig); err != nil {
		http.Error(w, "invalid signals", http.StatusBadRequest)
		return
	}
	sig.Search = clipRunes(sig.Search, maxSearchRunes)
	h.run(w, r, func(s *hub.Session) error {
		s.Search(sig.Search)
		return nil
	})
}

const maxSearchRunes = 100

// clipRunes keeps at most n runes of s.
func clipRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func (h *HubHandler) category(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	h.run(w, r, func(s *hub.Session) error {
		s.SetCategory(category)
		return nil
	})
}

func (h *HubHandler) view(w http.ResponseWriter, r *http.Request) {
	v := hub.View(chi.URLParam(r, "view"))
	h.run(w, r, func(s *hub.Session) error {
		s.SetView(v)
		return nil
	})
}

func (h *HubHandler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := catalog.ID(chi.URLParam(r, "id"))
	h.run(w, r, func(s *hub.Session) error {
		_, err := s.ToggleFavorite(id)
		return err
	})
}

func (h *HubHandler) settings(w http.ResponseWriter, r *http.Request) {
	var sig struct {
		ThumbnailSize string `json:"thumbnailSize"`
		DarkMode      bool   `json:"darkMode"`
		Compact       bool   `json:"compact"`
	}
	if err := datastar.ReadSignals(r, &sig); err != nil {
		http.Error(w, "invalid signals", http.StatusBadRequest)
		return
	}
	settings := prefs.Settings{
		ThumbnailSize: strings.ToLower(sig.ThumbnailSize),
		DarkMode:      sig.DarkMode,
		Compact:       sig.Compact,
	}.Normalize()
	h.run(w, r, func(s *hub.Session) error {
		s.SaveSettings(settings)
		return nil
	})
}

func (h *HubHandler) play(w http.ResponseWriter, r *http.Request) {
	id := catalog.ID(chi.URLParam(r, "id"))
	h.run(w, r, func(s *hub.Session) error { return s.Play(id) })
}

func (h *HubHandler) carouselSelect(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	h.run(w, r, func(s *hub.Session) error {
		s.CarouselSelect(index)
		return nil
	})
}

func (h *HubHandler) describe(w http.ResponseWriter, r *http.Request) {
	id := catalog.ID(chi.URLParam(r, "id"))
	h.run(w, r, func(s *hub.Session) error {
		s.ToggleDescription(id)
		return nil
	})
}

func (h *HubHandler) fullscreenSync(w http.ResponseWriter, r *http.Request) {
	var sig struct {
		Active bool `json:"active"`
	}
	if err := datastar.ReadSignals(r, &sig); err != nil {
		http.Error(w, "invalid signals", http.StatusBadRequest)
		return
	}
	h.run(w, r, func(s *hub.Session) error {
		s.FullscreenChanged(sig.Active)
		return nil
	})
}

func (h *HubHandler) fullscreenError(w http.ResponseWriter, r *http.Request) {
	var sig struct {
		Reason string `json:"reason"`
	}
	_ = datastar.ReadSignals(r, &sig)
	if sig.Reason == "" {
		sig.Reason = "request rejected"
	}
	h.run(w, r, func(s *hub.Session) error {
		s.FullscreenRejected(sig.Reason)
		return nil
	})
}

func (h *HubHandler) popoutBlocked(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	h.run(w, r, func(s *hub.Session) error {
		s.PopoutBlocked(token)
		return nil
	})
}

func (h *HubHandler) popoutUnload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	h.run(w, r, func(s *hub.Session) error {
		s.PopoutUnloaded(token)
		return nil
	})
}

func (h *HubHandler) retry(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reload(r.Context()); err != nil {
		// The grid shows the failure with another retry prompt.
		h.log.Warn("retry failed", slog.Any("err", err))
	}
	w.WriteHeader(http.StatusNoContent)
}
