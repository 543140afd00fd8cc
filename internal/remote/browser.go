// Package remote implements the viewer's platform capabilities for a browser
// attached over a server-sent event stream. Commands are queued as small
// scripts that the stream delivers; the browser reports back through hub
// actions (fullscreen change, pop-out blocked, pop-out unload).
package remote

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"gamehub/internal/viewer"
)

// Browser is one profile's connected browser.
type Browser struct {
	mu       sync.Mutex
	streams  int
	embedded bool
	scripts  []string
	windows  map[string]*Window
	onScript func()

	frame frame
}

// NewBrowser creates a browser with no attached streams. onScript runs after
// a script has been queued.
func NewBrowser(onScript func()) *Browser {
	b := &Browser{
		windows:  make(map[string]*Window),
		onScript: onScript,
	}
	b.frame.b = b
	return b
}

// Platform returns the viewer capabilities backed by this browser.
func (b *Browser) Platform() viewer.Platform {
	return viewer.Platform{Frame: &b.frame, Fullscreen: fullscreen{b: b}, Windows: b}
}

// Attach records a connected stream. The returned func detaches it.
func (b *Browser) Attach() func() {
	b.mu.Lock()
	b.streams++
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.streams--
			b.mu.Unlock()
		})
	}
}

// Connected reports whether at least one stream is attached.
func (b *Browser) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streams > 0
}

// SetEmbedded records whether the page runs inside another frame.
func (b *Browser) SetEmbedded(v bool) {
	b.mu.Lock()
	b.embedded = v
	b.mu.Unlock()
}

// Embedded implements viewer.WindowOpener.
func (b *Browser) Embedded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.embedded
}

// DrainScripts returns queued scripts in order and clears the queue.
func (b *Browser) DrainScripts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.scripts
	b.scripts = nil
	return out
}

// Exec queues a call to a function in the page's hub namespace.
func (b *Browser) Exec(fn string, args ...any) {
	b.mu.Lock()
	b.scripts = append(b.scripts, call(fn, args...))
	b.mu.Unlock()
	if b.onScript != nil {
		b.onScript()
	}
}

// Open implements viewer.WindowOpener. The window is opened by the page;
// a refusal arrives later through Blocked.
func (b *Browser) Open(doc viewer.PopoutDocument) (viewer.Window, error) {
	if !b.Connected() {
		return nil, fmt.Errorf("%w: no browser attached", viewer.ErrPopoutBlocked)
	}
	w := &Window{b: b, Token: newToken(), Doc: doc}
	b.mu.Lock()
	b.windows[w.Token] = w
	b.mu.Unlock()
	b.Exec("openPopout", w.Token, "/popout/"+w.Token)
	return w, nil
}

// Document returns what the pop-out page for token should show.
func (b *Browser) Document(token string) (viewer.PopoutDocument, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[token]
	if !ok || w.closed {
		return viewer.PopoutDocument{}, false
	}
	return w.Doc, true
}

// Window returns the live window for token.
func (b *Browser) Window(token string) (*Window, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[token]
	return w, ok
}

// Unloaded marks the window closed and runs its unload handler.
func (b *Browser) Unloaded(token string) {
	w, ok := b.take(token)
	if !ok {
		return
	}
	if w.onUnload != nil {
		w.onUnload()
	}
}

// Blocked marks the window as never opened and returns it so the viewer can
// restore itself.
func (b *Browser) Blocked(token string) (*Window, bool) {
	return b.take(token)
}

func (b *Browser) take(token string) (*Window, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[token]
	if !ok {
		return nil, false
	}
	delete(b.windows, token)
	w.closed = true
	return w, true
}

// Window is a pop-out window opened by the page.
type Window struct {
	b        *Browser
	Token    string
	Doc      viewer.PopoutDocument
	closed   bool
	onUnload func()
}

// Closed implements viewer.Window.
func (w *Window) Closed() bool {
	w.b.mu.Lock()
	defer w.b.mu.Unlock()
	return w.closed
}

// Close asks the page to close the window.
func (w *Window) Close() error {
	w.b.mu.Lock()
	if w.closed {
		w.b.mu.Unlock()
		return nil
	}
	w.closed = true
	delete(w.b.windows, w.Token)
	w.b.mu.Unlock()
	w.b.Exec("closePopout", w.Token)
	return nil
}

// OnUnload implements viewer.Window.
func (w *Window) OnUnload(f func()) {
	w.b.mu.Lock()
	w.onUnload = f
	w.b.mu.Unlock()
}

type frame struct {
	b       *Browser
	src     string
	sandbox []string
}

func (f *frame) Load(src string, sandbox []string) {
	f.b.mu.Lock()
	f.src, f.sandbox = src, sandbox
	f.b.mu.Unlock()
	f.b.Exec("loadFrame", src, strings.Join(sandbox, " "))
}

func (f *frame) Clear() {
	f.b.mu.Lock()
	f.src, f.sandbox = "", nil
	f.b.mu.Unlock()
	f.b.Exec("clearFrame")
}

// FrameSource returns what the embedded frame was last told to show.
func (b *Browser) FrameSource() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame.src
}

type fullscreen struct{ b *Browser }

func (f fullscreen) Request() error {
	if !f.b.Connected() {
		return fmt.Errorf("%w: no browser attached", viewer.ErrUnsupportedFullscreen)
	}
	f.b.Exec("requestFullscreen")
	return nil
}

func (f fullscreen) Exit() error {
	if !f.b.Connected() {
		return nil
	}
	f.b.Exec("exitFullscreen")
	return nil
}

func call(fn string, args ...any) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		data, err := json.Marshal(a)
		if err != nil {
			data = []byte("null")
		}
		parts = append(parts, string(data))
	}
	return "window.hub && window.hub." + fn + "(" + strings.Join(parts, ", ") + ")"
}

func newToken() string {
	// 10 bytes -> 16 chars of base32, short and url-safe.
	buf := make([]byte, 10)
	_, _ = rand.Read(buf)
	encoder := base32.StdEncoding.WithPadding(base32.NoPadding)
	return strings.ToLower(encoder.EncodeToString(buf))
}
