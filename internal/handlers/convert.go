package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"gamehub/internal/hub"
	renderpkg "gamehub/internal/render"
	"gamehub/internal/viewer"
	"gamehub/internal/viewmodel"
)

var thumbnailSizes = []viewmodel.Option{
	{Value: "small", Label: "Small"},
	{Value: "medium", Label: "Medium"},
	{Value: "large", Label: "Large"},
}

func buildHomePage(title string, p hub.Page) viewmodel.HomePage {
	return viewmodel.HomePage{
		Title:      title,
		Signals:    signalsJSON(p),
		Settings:   buildSettings(p),
		Categories: buildCategories(p),
		Grid:       buildGrid(p),
		Recent:     buildRecent(p),
		Carousel:   buildCarousel(p),
		Viewer:     buildViewer(p.Viewer),
	}
}

func buildSignals(p hub.Page) viewmodel.Signals {
	return viewmodel.Signals{
		Search:        p.Query,
		Category:      p.Category,
		View:          string(p.View),
		ThumbnailSize: p.Settings.ThumbnailSize,
		DarkMode:      p.Settings.DarkMode,
		Compact:       p.Settings.Compact,
		Viewer:        viewerSignals(p.Viewer),
	}
}

func signalsJSON(p hub.Page) string {
	data, err := json.Marshal(buildSignals(p))
	if err != nil {
		return "{}"
	}
	return string(data)
}

func viewerSignals(s viewer.Snapshot) viewmodel.ViewerSignals {
	return viewmodel.ViewerSignals{State: s.State.String(), Fullscreen: s.Fullscreen}
}

func buildSettings(p hub.Page) viewmodel.SettingsFragment {
	sizes := make([]viewmodel.Option, len(thumbnailSizes))
	for i, o := range thumbnailSizes {
		o.Selected = o.Value == p.Settings.ThumbnailSize
		sizes[i] = o
	}
	return viewmodel.SettingsFragment{
		ThumbnailSize: p.Settings.ThumbnailSize,
		DarkMode:      p.Settings.DarkMode,
		Compact:       p.Settings.Compact,
		Sizes:         sizes,
	}
}

func buildCategories(p hub.Page) viewmodel.CategoriesFragment {
	out := make([]viewmodel.Category, 0, len(p.Categories))
	for _, c := range p.Categories {
		out = append(out, viewmodel.Category{Name: c, Label: titleCase(c), Active: c == p.Category})
	}
	return viewmodel.CategoriesFragment{Categories: out, View: string(p.View)}
}

func buildGrid(p hub.Page) viewmodel.GridFragment {
	g := viewmodel.GridFragment{
		Cards:      toCards(p.Grid.Cards),
		CountLabel: countLabel(p.Grid.Count),
		Size:       p.Grid.Size,
		Compact:    p.Grid.Compact,
		Empty:      p.Grid.Empty,
		LoadError:  p.LoadError,
	}
	if g.Empty {
		g.EmptyMessage = "No games found"
		if p.View == hub.ViewFavorites {
			g.EmptyMessage = "No favorite games yet"
		}
	}
	return g
}

func buildRecent(p hub.Page) viewmodel.RecentFragment {
	r := viewmodel.RecentFragment{
		Cards:    toCards(p.Recent.Cards),
		Size:     p.Recent.Size,
		Compact:  p.Recent.Compact,
		Empty:    p.Recent.Empty,
		ShowMore: p.Recent.ShowMore,
	}
	if r.ShowMore {
		r.ToggleLabel = "View All"
		if p.Recent.ShowingAll {
			r.ToggleLabel = "Show Less"
		}
	}
	return r
}

func buildCarousel(p hub.Page) viewmodel.CarouselFragment {
	c := viewmodel.CarouselFragment{
		Empty:     p.Carousel.Empty,
		Rotation:  p.Rotation.String(),
		Direction: p.Direction.String(),
	}
	for _, s := range p.Carousel.Slides {
		c.Slides = append(c.Slides, viewmodel.Slide{
			ID:           string(s.ID),
			Title:        s.Title,
			Category:     s.Category,
			Image:        s.Image,
			Rating:       fmt.Sprintf("%.1f", s.Rating),
			Stars:        toStars(s.Stars),
			CatalogIndex: s.CatalogIndex,
			Active:       s.Active,
			Text:         s.Text,
			Expandable:   s.Expandable,
			ToggleLabel:  s.ToggleLabel,
		})
	}
	for _, d := range p.Carousel.Dots {
		c.Dots = append(c.Dots, viewmodel.Dot{Index: d.Index, Active: d.Active})
	}
	return c
}

func buildViewer(s viewer.Snapshot) viewmodel.ViewerFragment {
	v := viewmodel.ViewerFragment{
		State:      s.State.String(),
		HasItem:    s.HasItem && s.State != viewer.Closed,
		Favorite:   s.Favorite,
		Fullscreen: s.Fullscreen,
		PopoutOpen: s.PopoutOpen,
		Notice:     s.Notice,
	}
	if s.HasItem {
		v.ID = string(s.Item.ID)
		v.Title = s.Item.Name
		v.Category = s.Item.Category
		v.Rating = fmt.Sprintf("%.1f", s.Item.Rating)
		v.Stars = toStars(renderpkg.Stars(s.Item.Rating))
	}
	return v
}

func toCards(cards []renderpkg.Card) []viewmodel.Card {
	out := make([]viewmodel.Card, 0, len(cards))
	for _, c := range cards {
		out = append(out, viewmodel.Card{
			ID:           string(c.ID),
			Title:        c.Title,
			Category:     c.Category,
			Thumbnail:    c.Thumbnail,
			Favorite:     c.Favorite,
			CatalogIndex: c.CatalogIndex,
			ListIndex:    c.ListIndex,
			DelayMs:      c.Stagger.Milliseconds(),
		})
	}
	return out
}

func toStars(stars []renderpkg.Star) []string {
	out := make([]string, len(stars))
	for i, s := range stars {
		out[i] = string(s)
	}
	return out
}

func countLabel(n int) string {
	if n == 1 {
		return "1 game"
	}
	return fmt.Sprintf("%d games", n)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
