package fxscene

import (
	"errors"
	"testing"
)

func TestNewScene(t *testing.T) {
	s := NewScene(nil)
	root := s.Root()
	if root == nil || root.Name != "root" || root.Type != NodeTypeTree {
		t.Fatalf("root = %+v", root)
	}
	if root.Parent() != nil {
		t.Error("root has no parent")
	}
	if s.Options().DamageRingDepth != defaultDamageRingDepth {
		t.Errorf("DamageRingDepth = %d", s.Options().DamageRingDepth)
	}
	if s.BlurParams() != DefaultBlurParams() {
		t.Error("scene should start with the default blur")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("FXSCENE_DEBUG_DAMAGE", "Highlight")
	t.Setenv("FXSCENE_DISABLE_DIRECT_SCANOUT", "1")
	t.Setenv("FXSCENE_DISABLE_VISIBILITY", "no")
	t.Setenv("FXSCENE_HIGHLIGHT_TRANSPARENT_REGION", "true")
	t.Setenv("FXSCENE_DEBUG", "")
	opts := OptionsFromEnv()
	if opts.DebugDamage != DebugDamageHighlight || !opts.DisableDirectScanout ||
		opts.DisableVisibility || !opts.HighlightTransparentRegion || opts.Debug {
		t.Errorf("options = %+v", opts)
	}

	t.Setenv("FXSCENE_DEBUG_DAMAGE", "sparkles")
	if OptionsFromEnv().DebugDamage != DebugDamageNone {
		t.Error("unknown debug damage value should fall back to none")
	}
}

func TestParseDebugDamage(t *testing.T) {
	for _, d := range []DebugDamage{DebugDamageNone, DebugDamageRerender, DebugDamageHighlight} {
		got, ok := ParseDebugDamage(d.String())
		if !ok || got != d {
			t.Errorf("ParseDebugDamage(%q) = %v, %v", d.String(), got, ok)
		}
	}
}

func TestSetBlurParams(t *testing.T) {
	e := newTestEnv(t, 10, 10)
	s := e.scene
	CreateRect(s.Root(), 10, 10, ColorWhite)
	e.frame(t)
	v := s.BlurVersion()

	if err := s.SetBlurParams(s.BlurParams()); err != nil || s.BlurVersion() != v {
		t.Error("setting the current parameters should be a no-op")
	}
	if e.output.NeedsFrame() {
		t.Error("no-op blur change damaged the output")
	}

	if err := s.SetBlurPasses(3); err != nil {
		t.Fatal(err)
	}
	if s.BlurVersion() != v+1 || s.BlurParams().Passes != 3 {
		t.Errorf("version %d, passes %d", s.BlurVersion(), s.BlurParams().Passes)
	}
	if !e.output.NeedsFrame() {
		t.Error("blur change should damage every output")
	}

	tests := []struct {
		name string
		set  func() error
	}{
		{"radius", func() error { return s.SetBlurRadius(MaxBlurRadius + 1) }},
		{"passes", func() error { return s.SetBlurPasses(-1) }},
		{"noise", func() error { return s.SetBlurNoise(1.5) }},
		{"brightness", func() error { return s.SetBlurBrightness(-0.1) }},
		{"contrast", func() error { return s.SetBlurContrast(2.5) }},
		{"saturation", func() error { return s.SetBlurSaturation(3) }},
	}
	before := s.BlurParams()
	for _, tt := range tests {
		err := tt.set()
		var re *RangeError
		if !errors.As(err, &re) || !errors.Is(err, ErrOutOfRange) {
			t.Errorf("%s: err = %v, want RangeError", tt.name, err)
		}
	}
	if s.BlurParams() != before {
		t.Error("rejected values changed the parameters")
	}
}

func TestBlurParamsSize(t *testing.T) {
	p := BlurParams{Enabled: true, Radius: 5, Passes: 1}
	if p.Size() != 20 {
		t.Errorf("Size = %d, want 20", p.Size())
	}
	p.Passes = 3
	if p.Size() != 80 {
		t.Errorf("Size = %d, want 80", p.Size())
	}
	p.Passes = 0
	if p.Active() || p.Size() != 0 {
		t.Error("zero passes should blur nothing")
	}
}

func TestSceneDestroy(t *testing.T) {
	e := newTestEnv(t, 10, 10)
	n := CreateBuffer(e.scene.Root(), newTestBuffer(10, 10, true))
	var outputGone bool
	e.output.Events.Destroy.Subscribe(func(*Output) { outputGone = true })
	e.scene.Destroy()
	if !outputGone || !e.output.Destroyed() {
		t.Error("destroying the scene should destroy its outputs")
	}
	if !n.Destroyed() {
		t.Error("nodes should be destroyed with the scene")
	}
	assertPanics(t, "output for destroyed scene", func() {
		_, _ = NewOutput(e.scene, newFakeDisplay("late", 1, 1), e.renderer)
	})
}

func TestSceneDestroyRemovesOutputsFirst(t *testing.T) {
	e := newTestEnv(t, 10, 10)
	n := CreateBuffer(e.scene.Root(), newTestBuffer(10, 10, true))
	var events []string
	e.output.Events.Destroy.Subscribe(func(*Output) { events = append(events, "output destroy") })
	n.Events.OutputLeave.Subscribe(func(*Output) { events = append(events, "leave") })
	n.Events.Destroy.Subscribe(func(*Node) { events = append(events, "node destroy") })

	e.scene.Destroy()
	want := []string{"output destroy", "leave", "node destroy"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestResetTextures(t *testing.T) {
	e := newTestEnv(t, 100, 100)
	CreateRect(e.scene.Root(), 100, 100, ColorWhite)
	CreateBuffer(e.scene.Root(), newTestBuffer(10, 10, true))
	e.frame(t)
	e.scene.ResetTextures()
	if !e.renderer.textures[0].destroyed {
		t.Error("texture not destroyed")
	}
	r2 := &fakeRenderer{}
	e.output.SetRenderer(r2)
	e.frame(t)
	if r2.imports != 1 {
		t.Errorf("new renderer imports = %d, want 1", r2.imports)
	}
}

func TestDisabledOutputIsNotEntered(t *testing.T) {
	e := newTestEnv(t, 100, 100)
	e.display.disabled = true
	e.output.HandleModeChange()
	n := CreateBuffer(e.scene.Root(), newTestBuffer(10, 10, true))
	if n.ActiveOutputs() != 0 {
		t.Error("buffer entered a disabled output")
	}
}
