package hub

import (
	"gamehub/internal/carousel"
	"gamehub/internal/catalog"
	"gamehub/internal/prefs"
	"gamehub/internal/render"
	"gamehub/internal/viewer"
)

// Page is everything the hub page shows for one profile.
type Page struct {
	Settings   prefs.Settings
	FirstRun   bool
	Categories []string
	Category   string
	Query      string
	View       View

	// LoadError is set when the catalog could not be loaded; the grid shows
	// a retry prompt instead of cards.
	LoadError string

	Grid      render.Collection
	Recent    render.Collection
	Carousel  render.Panel
	Rotation  carousel.State
	Direction carousel.Direction
	Viewer    viewer.Snapshot
}

// Page renders the current state.
func (s *Session) Page() Page {
	settings := s.prefs.Settings()
	favs := s.prefs.FavoriteIDs()
	p := Page{
		Settings:   settings,
		FirstRun:   s.firstRun,
		Categories: append([]string{catalog.CategoryAll}, s.cat.Categories()...),
		Category:   s.category,
		Query:      s.query,
		View:       s.view,
		Grid:       s.renderer.List(s.visible(favs), favs, settings),
		Recent:     s.renderer.Recent(s.prefs.RecentlyPlayed(), favs, settings, s.showAllRecent),
		Carousel:   s.renderer.Featured(s.carousel.Index(), s.expanded),
		Rotation:   s.carousel.State(),
		Direction:  s.carousel.Transitioning(),
		Viewer:     s.viewer.Snapshot(),
	}
	if err := s.cat.Err(); err != nil {
		p.LoadError = err.Error()
	}
	return p
}

// visible returns the items the grid shows: the category and search filter,
// narrowed to favorites in the favorites view.
func (s *Session) visible(favs catalog.IDSet) []catalog.Item {
	items := s.cat.Filtered(s.category, s.query)
	if s.view != ViewFavorites {
		return items
	}
	out := items[:0]
	for _, it := range items {
		if favs.Has(it.ID) {
			out = append(out, it)
		}
	}
	return out
}
