package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gamehub/internal/hub"
	"gamehub/internal/viewer"
	"gamehub/internal/viewmodel"
	"gamehub/views/pages"
)

func (h *HubHandler) popoutPage(w http.ResponseWriter, r *http.Request) {
	p := profileFrom(r)
	if p == nil {
		http.NotFound(w, r)
		return
	}
	token := chi.URLParam(r, "token")
	var (
		doc viewer.PopoutDocument
		ok  bool
	)
	if err := p.Do(r.Context(), func(s *hub.Session) { doc, ok = s.PopoutDocument(token) }); err != nil || !ok {
		http.NotFound(w, r)
		return
	}
	render(w, r, pages.PopoutPage(viewmodel.PopoutPage{
		Title:   doc.Title,
		Icon:    doc.Icon,
		Src:     doc.Src,
		Sandbox: strings.Join(doc.Sandbox, " "),
		Token:   token,
	}))
}
