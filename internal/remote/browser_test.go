package remote

import (
	"errors"
	"strings"
	"testing"

	"gamehub/internal/viewer"
)

func TestBrowser_OpenRequiresStream(t *testing.T) {
	b := NewBrowser(nil)
	if _, err := b.Open(viewer.PopoutDocument{}); !errors.Is(err, viewer.ErrPopoutBlocked) {
		t.Errorf("err %v, want ErrPopoutBlocked", err)
	}
	if err := b.Platform().Fullscreen.Request(); !errors.Is(err, viewer.ErrUnsupportedFullscreen) {
		t.Errorf("err %v, want ErrUnsupportedFullscreen", err)
	}
}

func TestBrowser_OpenQueuesScriptAndServesDocument(t *testing.T) {
	queued := 0
	b := NewBrowser(func() { queued++ })
	detach := b.Attach()
	defer detach()

	doc := viewer.PopoutDocument{Title: "Snake", Src: "http://hub/games/snake.html"}
	w, err := b.Open(doc)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	win := w.(*Window)
	scripts := b.DrainScripts()
	if len(scripts) != 1 || queued != 1 {
		t.Fatalf("scripts %v", scripts)
	}
	want := `window.hub && window.hub.openPopout("` + win.Token + `", "/popout/` + win.Token + `")`
	if scripts[0] != want {
		t.Errorf("script %q, want %q", scripts[0], want)
	}
	got, ok := b.Document(win.Token)
	if !ok || got.Title != "Snake" {
		t.Errorf("Document = %+v, %v", got, ok)
	}
	if len(b.DrainScripts()) != 0 {
		t.Error("queue not cleared")
	}
}

func TestBrowser_UnloadRunsHandlerOnce(t *testing.T) {
	b := NewBrowser(nil)
	defer b.Attach()()
	w, _ := b.Open(viewer.PopoutDocument{})
	calls := 0
	w.OnUnload(func() { calls++ })
	token := w.(*Window).Token

	b.Unloaded(token)
	b.Unloaded(token)
	if calls != 1 || !w.Closed() {
		t.Errorf("calls %d closed %v", calls, w.Closed())
	}
	if _, ok := b.Document(token); ok {
		t.Error("document still served after unload")
	}
}

func TestBrowser_CloseQueuesScript(t *testing.T) {
	b := NewBrowser(nil)
	defer b.Attach()()
	w, _ := b.Open(viewer.PopoutDocument{})
	b.DrainScripts()
	_ = w.Close()
	_ = w.Close()
	scripts := b.DrainScripts()
	if len(scripts) != 1 || !strings.Contains(scripts[0], "closePopout") {
		t.Errorf("scripts %v", scripts)
	}
}

func TestBrowser_Blocked(t *testing.T) {
	b := NewBrowser(nil)
	defer b.Attach()()
	w, _ := b.Open(viewer.PopoutDocument{})
	token := w.(*Window).Token
	got, ok := b.Blocked(token)
	if !ok || got != w || !w.Closed() {
		t.Errorf("Blocked = %v, %v", got, ok)
	}
	if _, ok := b.Blocked(token); ok {
		t.Error("second Blocked should miss")
	}
}

func TestBrowser_FrameCommands(t *testing.T) {
	b := NewBrowser(nil)
	p := b.Platform()
	p.Frame.Load("games/a.html", []string{"allow-scripts", "allow-forms"})
	if b.FrameSource() != "games/a.html" {
		t.Errorf("FrameSource %q", b.FrameSource())
	}
	p.Frame.Clear()
	scripts := b.DrainScripts()
	want := []string{
		`window.hub && window.hub.loadFrame("games/a.html", "allow-scripts allow-forms")`,
		`window.hub && window.hub.clearFrame()`,
	}
	if len(scripts) != 2 || scripts[0] != want[0] || scripts[1] != want[1] {
		t.Errorf("scripts %q", scripts)
	}
	if b.FrameSource() != "" {
		t.Error("frame not cleared")
	}
}

func TestBrowser_AttachDetach(t *testing.T) {
	b := NewBrowser(nil)
	d1 := b.Attach()
	d2 := b.Attach()
	d1()
	d1()
	if !b.Connected() {
		t.Error("should still be connected")
	}
	d2()
	if b.Connected() {
		t.Error("should be disconnected")
	}
	b.SetEmbedded(true)
	if !b.Embedded() {
		t.Error("Embedded not recorded")
	}
}
