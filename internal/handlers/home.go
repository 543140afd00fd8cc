package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gamehub/internal/hub"
	"gamehub/views/pages"
)

type HomeHandler struct {
	store *hub.Store
	title string
}

func NewHomeHandler(store *hub.Store, title string) *HomeHandler {
	if title == "" {
		title = "Game Hub"
	}
	return &HomeHandler{store: store, title: title}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	p := profileFrom(r)
	if p == nil {
		http.Error(w, "no profile", http.StatusInternalServerError)
		return
	}
	var page hub.Page
	if err := p.Do(r.Context(), func(s *hub.Session) { page = s.Page() }); err != nil {
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	render(w, r, pages.HomePage(buildHomePage(h.title, page)))
}

// Health reports catalog and session counts.
func Health(store *hub.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{
			"status":   "ok",
			"games":    store.Catalog().Len(),
			"profiles": store.Len(),
		}
		if err := store.Catalog().Err(); err != nil {
			status["status"] = "degraded"
			status["catalog"] = err.Error()
		}
		writeJSON(w, status)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
