package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"gamehub/internal/hub"
	"gamehub/views/components"
)

type patch struct {
	selector  string
	component templ.Component
}

// stream keeps the page in sync with the session: fragment patches for
// changed topics, signal updates and queued browser commands.
func (h *HubHandler) stream(w http.ResponseWriter, r *http.Request) {
	p := profileFrom(r)
	if p == nil {
		http.Error(w, "no profile", http.StatusInternalServerError)
		return
	}
	var sig struct {
		Embedded bool `json:"embedded"`
	}
	_ = datastar.ReadSignals(r, &sig)

	sub := p.Subscribe()
	defer sub.Close()
	detach := p.Browser.Attach()
	defer detach()

	sse := datastar.NewSSE(w, r)
	ctx := sse.Context()
	if err := p.Do(ctx, func(s *hub.Session) { s.SetEmbedded(sig.Embedded) }); err != nil {
		return
	}

	send := func(topics []string) bool {
		var page hub.Page
		if err := p.Do(ctx, func(s *hub.Session) { page = s.Page() }); err != nil {
			return false
		}
		for _, pt := range patchesFor(page, topics) {
			html, err := renderToString(r, pt.component)
			if err != nil {
				h.log.Error("render fragment", slog.String("selector", pt.selector), slog.Any("err", err))
				continue
			}
			if err := sse.PatchElements(html, datastar.WithSelector(pt.selector), datastar.WithMode(datastar.ElementPatchModeOuter)); err != nil {
				return false
			}
		}
		if err := sse.MarshalAndPatchSignals(buildSignals(page)); err != nil {
			return false
		}
		for _, script := range p.Browser.DrainScripts() {
			if err := sse.ExecuteScript(script); err != nil {
				return false
			}
		}
		return true
	}

	if !send(hub.AllTopics) {
		return
	}

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if err := sse.PatchSignals([]byte(`{}`)); err != nil {
				return
			}
		case <-sub.Ready():
			if !send(sub.Take()) {
				return
			}
		}
	}
}

func patchesFor(page hub.Page, topics []string) []patch {
	var out []patch
	for _, topic := range topics {
		switch topic {
		case hub.TopicSettings:
			out = append(out, patch{"#settings-panel", components.Settings(buildSettings(page))})
		case hub.TopicGrid:
			out = append(out,
				patch{"#categories", components.Categories(buildCategories(page))},
				patch{"#game-grid", components.Grid(buildGrid(page))},
			)
		case hub.TopicRecent:
			out = append(out, patch{"#recent", components.Recent(buildRecent(page))})
		case hub.TopicCarousel:
			out = append(out, patch{"#carousel", components.Carousel(buildCarousel(page))})
		case hub.TopicViewer:
			out = append(out, patch{"#viewer-bar", components.Viewer(buildViewer(page.Viewer))})
		}
	}
	return out
}
