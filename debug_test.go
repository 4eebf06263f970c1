package fxscene

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// captureLogs routes fxscene logging into a buffer for the duration of the
// test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })
	return &buf
}

func TestDebugFrameLog(t *testing.T) {
	logs := captureLogs(t)
	e := newTestEnvWithOptions(t, 10, 10, &SceneOptions{Debug: true})
	CreateRect(e.scene.Root(), 10, 10, ColorWhite)
	e.frame(t)
	e.frame(t)
	out := logs.String()
	if !strings.Contains(out, "fxscene: frame") || !strings.Contains(out, "draw_calls=1") {
		t.Errorf("frame log missing:\n%s", out)
	}
	if !strings.Contains(out, "frame skipped") {
		t.Errorf("skip log missing:\n%s", out)
	}
}

func TestNoFrameLogWithoutDebug(t *testing.T) {
	logs := captureLogs(t)
	e := newTestEnv(t, 10, 10)
	CreateRect(e.scene.Root(), 10, 10, ColorWhite)
	e.frame(t)
	if strings.Contains(logs.String(), "fxscene: frame") {
		t.Error("frame statistics logged with debug off")
	}
}

func TestDebugWarnsOnOpenSubscriptions(t *testing.T) {
	logs := captureLogs(t)
	s := NewScene(&SceneOptions{Debug: true})
	n := CreateRect(s.Root(), 1, 1, ColorWhite)
	n.Events.Destroy.Subscribe(func(*Node) {})
	n.Destroy()
	if !strings.Contains(logs.String(), "open subscriptions") {
		t.Errorf("warning missing:\n%s", logs.String())
	}
}

func TestDebugWarnsOnDeepTree(t *testing.T) {
	logs := captureLogs(t)
	s := NewScene(&SceneOptions{Debug: true})
	n := s.Root()
	for range debugMaxTreeDepth {
		n = CreateTree(n)
	}
	if !strings.Contains(logs.String(), "deep scene tree") {
		t.Errorf("warning missing:\n%s", logs.String())
	}
}

func TestDebugWarnsOnManyChildren(t *testing.T) {
	logs := captureLogs(t)
	s := NewScene(&SceneOptions{Debug: true})
	for range debugMaxChildCount + 1 {
		CreateTree(s.Root())
	}
	if !strings.Contains(logs.String(), "many children") {
		t.Error("warning missing")
	}
}

func TestSetLoggerNilRestoresSilence(t *testing.T) {
	captureLogs(t)
	SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("default logger should be silent")
	}
}
