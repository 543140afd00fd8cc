package components

import (
	"github.com/a-h/templ"

	"gamehub/internal/viewmodel"
	"gamehub/views"
)

func Settings(data viewmodel.SettingsFragment) templ.Component {
	return views.Component("settings", data)
}

func Categories(data viewmodel.CategoriesFragment) templ.Component {
	return views.Component("categories", data)
}

func Grid(data viewmodel.GridFragment) templ.Component {
	return views.Component("grid", data)
}

func Recent(data viewmodel.RecentFragment) templ.Component {
	return views.Component("recent", data)
}

func Carousel(data viewmodel.CarouselFragment) templ.Component {
	return views.Component("carousel", data)
}

func Viewer(data viewmodel.ViewerFragment) templ.Component {
	return views.Component("viewer", data)
}
