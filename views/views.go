// Package views holds the hub's HTML templates. Components in the
// components and pages packages render them as templ components.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templatesFS embed.FS

var tmpl = template.Must(template.New("views").ParseFS(templatesFS, "templates/*.html"))

// Component renders the named template with data.
func Component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return tmpl.ExecuteTemplate(w, name, data)
	})
}
