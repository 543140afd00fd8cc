package viewmodel

// HomePage holds data for the hub page.
type HomePage struct {
	Title      string
	Signals    string
	Settings   SettingsFragment
	Categories CategoriesFragment
	Grid       GridFragment
	Recent     RecentFragment
	Carousel   CarouselFragment
	Viewer     ViewerFragment
}

// Option is one choice in a select.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// SettingsFragment holds data for the settings panel.
type SettingsFragment struct {
	ThumbnailSize string
	DarkMode      bool
	Compact       bool
	Sizes         []Option
}

// Category is one filter button.
type Category struct {
	Name   string
	Label  string
	Active bool
}

// CategoriesFragment holds the category filter and view switch.
type CategoriesFragment struct {
	Categories []Category
	View       string
}

// Card is one game tile. CatalogIndex is what play actions address.
type Card struct {
	ID           string
	Title        string
	Category     string
	Thumbnail    string
	Favorite     bool
	CatalogIndex int
	ListIndex    int
	DelayMs      int64
}

// GridFragment holds the main game grid.
type GridFragment struct {
	Cards        []Card
	CountLabel   string
	Size         string
	Compact      bool
	Empty        bool
	EmptyMessage string
	LoadError    string
}

// RecentFragment holds the recently played strip.
type RecentFragment struct {
	Cards       []Card
	Size        string
	Compact     bool
	Empty       bool
	ShowMore    bool
	ToggleLabel string
}

// Slide is one featured game.
type Slide struct {
	ID           string
	Title        string
	Category     string
	Image        string
	Rating       string
	Stars        []string
	CatalogIndex int
	Active       bool
	Text         string
	Expandable   bool
	ToggleLabel  string
}

// Dot is one carousel indicator.
type Dot struct {
	Index  int
	Active bool
}

// CarouselFragment holds the featured carousel.
type CarouselFragment struct {
	Slides    []Slide
	Dots      []Dot
	Empty     bool
	Rotation  string
	Direction string
}

// ViewerFragment holds the viewer toolbar and notices.
type ViewerFragment struct {
	State      string
	HasItem    bool
	ID         string
	Title      string
	Category   string
	Rating     string
	Stars      []string
	Favorite   bool
	Fullscreen bool
	PopoutOpen bool
	Notice     string
}

// PopoutPage holds data for the pop-out window document.
type PopoutPage struct {
	Title   string
	Icon    string
	Src     string
	Sandbox string
	Token   string
}

// Signals is the client-side state the page keeps in sync with the session.
type Signals struct {
	Search        string        `json:"search"`
	Category      string        `json:"category"`
	View          string        `json:"view"`
	ThumbnailSize string        `json:"thumbnailSize"`
	DarkMode      bool          `json:"darkMode"`
	Compact       bool          `json:"compact"`
	Viewer        ViewerSignals `json:"viewer"`
}

// ViewerSignals drive the viewer overlay classes.
type ViewerSignals struct {
	State      string `json:"state"`
	Fullscreen bool   `json:"fullscreen"`
}
