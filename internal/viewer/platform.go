package viewer

import (
	"errors"
	"strings"
)

var (
	// ErrPopoutBlocked means the platform refused to open the window.
	ErrPopoutBlocked = errors.New("viewer: popout blocked")
	// ErrPopoutUnavailable means pop-outs are skipped in this context, e.g.
	// when the hub itself runs inside an embedded frame.
	ErrPopoutUnavailable = errors.New("viewer: popout unavailable")
	// ErrUnsupportedFullscreen means fullscreen is absent or was rejected.
	ErrUnsupportedFullscreen = errors.New("viewer: fullscreen unsupported")
)

// DefaultSandbox is the capability allow-list applied to every embedded
// viewer, in-page and pop-out alike.
var DefaultSandbox = []string{
	"allow-scripts",
	"allow-forms",
	"allow-same-origin",
	"allow-popups",
	"allow-downloads",
	"allow-modals",
	"allow-presentation",
	"allow-top-navigation",
	"allow-top-navigation-by-user-activation",
	"allow-popups-to-escape-sandbox",
}

// Frame is the single in-page embedded viewer.
type Frame interface {
	// Load points the frame at src with the given sandbox tokens.
	Load(src string, sandbox []string)
	// Clear unloads whatever the frame shows so it stops running.
	Clear()
}

// Fullscreen is the platform fullscreen capability for the frame.
type Fullscreen interface {
	Request() error
	Exit() error
}

// PopoutDocument describes what a new external window shows.
type PopoutDocument struct {
	Title   string
	Icon    string
	Src     string
	Sandbox []string
}

// Window is an external pop-out window.
type Window interface {
	Closed() bool
	Close() error
	// OnUnload registers f to run when the window goes away.
	OnUnload(f func())
}

// WindowOpener opens external windows.
type WindowOpener interface {
	// Embedded reports whether the hub is itself running inside a frame.
	Embedded() bool
	Open(doc PopoutDocument) (Window, error)
}

// Platform groups the capabilities a Controller drives.
type Platform struct {
	Frame      Frame
	Fullscreen Fullscreen
	Windows    WindowOpener
}

// Cloak disguises the pop-out window's title and icon. It is off unless
// explicitly enabled.
type Cloak struct {
	Enabled bool
	Title   string
	Icon    string
}

// DefaultCloak is the disguise used when the cloak is enabled without a
// custom title or icon.
var DefaultCloak = Cloak{
	Title: "Google Docs",
	Icon:  "https://ssl.gstatic.com/images/branding/product/1x/drive_2020q4_32dp.png",
}

// ResolveSource makes path loadable from a pop-out window. Absolute URLs are
// returned unchanged; anything else is joined onto origin.
func ResolveSource(origin, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "//") {
		return path
	}
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		return "/" + strings.TrimLeft(path, "/")
	}
	return origin + "/" + strings.TrimLeft(path, "/")
}
