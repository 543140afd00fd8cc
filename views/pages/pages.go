package pages

import (
	"github.com/a-h/templ"

	"gamehub/internal/viewmodel"
	"gamehub/views"
)

// HomePage is the hub.
func HomePage(data viewmodel.HomePage) templ.Component {
	return views.Component("home", data)
}

// PopoutPage is the document shown in a pop-out window.
func PopoutPage(data viewmodel.PopoutPage) templ.Component {
	return views.Component("popout", data)
}
