package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_JSONFormatWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Level: "debug", Format: "json"})
	l.With(slog.String("component", "prefs")).Debug("hello", slog.String("key", "favorites"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["msg"] != "hello" || rec["component"] != "prefs" || rec["app"] != "gamehub" {
		t.Errorf("record %v", rec)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Level: "warn", Format: "json"})
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info written at warn level: %q", buf.String())
	}
	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn missing: %q", buf.String())
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Level: "info"})
	l.Info("catalog loaded", "items", 12)
	if !strings.Contains(buf.String(), "catalog loaded") {
		t.Errorf("console output %q", buf.String())
	}
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.log")
	var buf bytes.Buffer
	l := New(&buf, Options{Format: "json", File: path})
	l.Error("popout blocked")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "popout blocked") {
		t.Errorf("file content %q", data)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GAMEHUB_LOG_LEVEL", "debug")
	t.Setenv("GAMEHUB_LOG_FORMAT", "json")
	t.Setenv("GAMEHUB_LOG_SOURCE", "TRUE")
	t.Setenv("GAMEHUB_LOG_FILE", "")
	o := FromEnv()
	if o.Level != "debug" || o.Format != "json" || !o.AddSource || o.File != "" {
		t.Errorf("FromEnv = %+v", o)
	}
}
