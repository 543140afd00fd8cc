// Package render projects catalog items and preferences into card
// collections and the featured panel. Every call builds a complete,
// independent result; callers replace what they displayed before.
package render

import (
	"math"
	"time"
	"unicode/utf8"

	"gamehub/internal/catalog"
	"gamehub/internal/prefs"
)

// Defaults for Options.
const (
	DefaultRecentPreview    = 5
	DefaultDescriptionLimit = 120
	DefaultStagger          = 50 * time.Millisecond
)

// Catalog is the part of the catalog store the renderer reads.
type Catalog interface {
	IndexOf(id catalog.ID) int
	ByID(id catalog.ID) (catalog.Item, bool)
	Featured() []catalog.Item
}

// Options tunes rendering.
type Options struct {
	RecentPreview    int
	DescriptionLimit int
	Stagger          time.Duration
}

func (o Options) withDefaults() Options {
	if o.RecentPreview <= 0 {
		o.RecentPreview = DefaultRecentPreview
	}
	if o.DescriptionLimit <= 0 {
		o.DescriptionLimit = DefaultDescriptionLimit
	}
	if o.Stagger < 0 {
		o.Stagger = 0
	}
	return o
}

// Renderer builds view projections.
type Renderer struct {
	cat  Catalog
	opts Options
}

// New creates a renderer over cat.
func New(cat Catalog, opts Options) *Renderer {
	return &Renderer{cat: cat, opts: opts.withDefaults()}
}

// Options returns the effective options.
func (r *Renderer) Options() Options { return r.opts }

// Card is one rendered item. CatalogIndex is the item's position in the full
// catalog and is what play actions must use; ListIndex is only its position
// in the collection being shown.
type Card struct {
	ID           catalog.ID
	Title        string
	Category     string
	Thumbnail    string
	Favorite     bool
	CatalogIndex int
	ListIndex    int
	Stagger      time.Duration
}

// Collection is a rendered list of cards plus display flags.
type Collection struct {
	Cards      []Card
	Count      int
	Size       string
	Compact    bool
	DarkMode   bool
	ShowMore   bool
	ShowingAll bool
	Empty      bool
}

// List renders one card per item, in the order given.
func (r *Renderer) List(items []catalog.Item, favorites catalog.IDSet, settings prefs.Settings) Collection {
	c := r.collection(settings)
	c.Cards = r.cards(items, favorites)
	c.Count = len(c.Cards)
	c.Empty = c.Count == 0
	return c
}

// Recent renders the recently played ids that still exist in the catalog.
// Unless showAll is set only the preview count is shown; ShowMore reports
// whether more exist.
func (r *Renderer) Recent(ids []catalog.ID, favorites catalog.IDSet, settings prefs.Settings, showAll bool) Collection {
	items := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := r.cat.ByID(id); ok {
			items = append(items, it)
		}
	}
	c := r.collection(settings)
	c.Count = len(items)
	c.Empty = c.Count == 0
	c.ShowMore = c.Count > r.opts.RecentPreview
	c.ShowingAll = showAll && c.ShowMore
	if !showAll && len(items) > r.opts.RecentPreview {
		items = items[:r.opts.RecentPreview]
	}
	c.Cards = r.cards(items, favorites)
	return c
}

func (r *Renderer) collection(settings prefs.Settings) Collection {
	settings = settings.Normalize()
	return Collection{
		Size:     settings.ThumbnailSize,
		Compact:  settings.Compact,
		DarkMode: settings.DarkMode,
	}
}

func (r *Renderer) cards(items []catalog.Item, favorites catalog.IDSet) []Card {
	cards := make([]Card, 0, len(items))
	for i, it := range items {
		cards = append(cards, Card{
			ID:           it.ID,
			Title:        it.Name,
			Category:     it.Category,
			Thumbnail:    it.Logo,
			Favorite:     favorites.Has(it.ID),
			CatalogIndex: r.cat.IndexOf(it.ID),
			ListIndex:    i,
			Stagger:      time.Duration(i) * r.opts.Stagger,
		})
	}
	return cards
}

// Panel is the rendered featured carousel.
type Panel struct {
	Slides []Slide
	Dots   []Dot
	Index  int
	Empty  bool
}

// Slide is one featured item.
type Slide struct {
	ID           catalog.ID
	Title        string
	Category     string
	Image        string
	Rating       float64
	Stars        []Star
	CatalogIndex int
	Active       bool

	// Text is what is displayed: Short unless Expanded.
	Text        string
	Short       string
	Full        string
	Expandable  bool
	Expanded    bool
	ToggleLabel string
}

// Dot is one carousel indicator.
type Dot struct {
	Index  int
	Active bool
}

// Featured renders one slide and one dot per featured item with index marked
// active. Items in expanded show their full description.
func (r *Renderer) Featured(index int, expanded catalog.IDSet) Panel {
	featured := r.cat.Featured()
	if len(featured) == 0 {
		return Panel{Empty: true}
	}
	index = ((index % len(featured)) + len(featured)) % len(featured)
	p := Panel{Index: index}
	for i, it := range featured {
		full := it.Summary()
		short, long := Truncate(full, r.opts.DescriptionLimit)
		s := Slide{
			ID:           it.ID,
			Title:        it.Name,
			Category:     it.Category,
			Image:        it.Logo,
			Rating:       it.Rating,
			Stars:        Stars(it.Rating),
			CatalogIndex: r.cat.IndexOf(it.ID),
			Active:       i == index,
			Short:        short,
			Full:         full,
			Expandable:   long,
			Text:         short,
		}
		if long {
			s.ToggleLabel = "Show More"
			if expanded.Has(it.ID) {
				s.Expanded = true
				s.Text = full
				s.ToggleLabel = "Show Less"
			}
		}
		p.Slides = append(p.Slides, s)
		p.Dots = append(p.Dots, Dot{Index: i, Active: i == index})
	}
	return p
}

// Truncate cuts s to limit runes followed by "...". The second result reports
// whether s was cut.
func Truncate(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + "...", true
		}
		n++
	}
	return s, false
}

// Star is one rating glyph.
type Star string

const (
	StarFull  Star = "full"
	StarHalf  Star = "half"
	StarEmpty Star = "empty"
)

// Stars converts a 0-5 rating into five glyphs.
func Stars(rating float64) []Star {
	out := make([]Star, 5)
	whole := math.Floor(rating)
	for i := range out {
		switch {
		case float64(i) < whole:
			out[i] = StarFull
		case float64(i) < rating:
			out[i] = StarHalf
		default:
			out[i] = StarEmpty
		}
	}
	return out
}
