package main

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gamehub/internal/catalog"
	"gamehub/internal/config"
	"gamehub/internal/hub"
	"gamehub/internal/prefs"
	"gamehub/internal/render"
)

func embeddedCatalog(t *testing.T) (*catalog.Store, fs.FS) {
	t.Helper()
	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		t.Fatal(err)
	}
	cat := catalog.NewStore(catalogSource(config.Defaults().Catalog, staticFS))
	if _, err := cat.Load(context.Background()); err != nil {
		t.Fatalf("embedded catalog: %v", err)
	}
	return cat, staticFS
}

func TestEmbeddedCatalog_IsValid(t *testing.T) {
	cat, _ := embeddedCatalog(t)
	if cat.Len() == 0 {
		t.Fatal("embedded catalog is empty")
	}
	if len(cat.Featured()) < 2 {
		t.Errorf("featured %d, want a rotating carousel", len(cat.Featured()))
	}
}

func TestNewRouter_ServesAssets(t *testing.T) {
	cat, staticFS := embeddedCatalog(t)
	store := hub.NewStore(cat, prefs.NewMemoryBackend(), storeOptions(config.Defaults()))
	t.Cleanup(store.Close)
	h := newRouter(store, staticFS, config.Defaults().Catalog.Path)

	for _, path := range []string{"/assets/lists/gl.json", "/static/hub.js", "/static/app.css", "/health", "/"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status %d", path, rec.Code)
		}
	}
}

func TestCatalogCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(good, []byte(`[{"id":1,"name":"Snake","category":"arcade","path":"snake.html"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte(`[{"id":1,"category":"arcade"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"catalog", "check", good})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("check good: %v", err)
	}
	if !strings.Contains(out.String(), "1 games") {
		t.Errorf("output %q", out.String())
	}

	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"catalog", "check", bad})
	if err := cmd.Execute(); err == nil {
		t.Error("invalid document accepted")
	}
	if !strings.Contains(errOut.String(), "name") {
		t.Errorf("problems not reported: %q", errOut.String())
	}
}

func TestRenderCards(t *testing.T) {
	cat, _ := embeddedCatalog(t)
	r := render.New(cat, render.Options{})

	got := renderCards(cat, r.List(cat.Filtered("puzzle", "tetris"), nil, prefs.DefaultSettings()))
	if !strings.Contains(got, "Tetris") || !strings.Contains(got, "1 game") {
		t.Errorf("listing %q", got)
	}
	got = renderCards(cat, r.List(cat.Filtered(catalog.CategoryAll, "no such game"), nil, prefs.DefaultSettings()))
	if !strings.Contains(got, "No games found") {
		t.Errorf("empty listing %q", got)
	}
}
