package ebitenrender

import (
	"testing"

	"github.com/phanxgames/fxscene"
)

func TestWindowDefaults(t *testing.T) {
	w := NewWindow(WindowConfig{Width: 8, Height: 6})
	if w.Name() != "WINDOW-1" || w.Scale() != 1 || w.Refresh() != 60000 {
		t.Errorf("defaults: name %q scale %v refresh %d", w.Name(), w.Scale(), w.Refresh())
	}
	a, _ := w.AcquireBuffer()
	b, _ := w.AcquireBuffer()
	c, _ := w.AcquireBuffer()
	if a == b || a != c {
		t.Error("two buffers should be handed out round robin")
	}
	if !w.TestScanout(fxscene.OutputState{Buffer: a}) {
		t.Error("ebiten image buffers can be scanned out")
	}
	single := fxscene.NewSinglePixelBuffer(fxscene.Color{A: 1})
	if w.TestScanout(fxscene.OutputState{Buffer: single}) {
		t.Error("single pixel buffers have no image to scan out")
	}
	if err := w.Commit(fxscene.OutputState{Buffer: single}); err == nil {
		t.Error("committing a buffer without an image should fail")
	}
}

func TestWindowLayout(t *testing.T) {
	w := NewWindow(WindowConfig{Width: 8, Height: 6, Transform: fxscene.Transform90})
	if sw, sh := w.Layout(100, 100); sw != 6 || sh != 8 {
		t.Errorf("Layout = %dx%d, want 6x8", sw, sh)
	}

	r := NewWindow(WindowConfig{Width: 8, Height: 6, Resizable: true, Transform: fxscene.Transform90})
	s := fxscene.NewScene(nil)
	out, err := fxscene.NewOutput(s, r, New())
	if err != nil {
		t.Fatal(err)
	}
	r.Attach(out)
	if sw, sh := r.Layout(10, 20); sw != 10 || sh != 20 {
		t.Errorf("resizable Layout = %dx%d, want 10x20", sw, sh)
	}
	if mw, mh := r.Resolution(); mw != 20 || mh != 10 {
		t.Errorf("mode %dx%d, want 20x10", mw, mh)
	}
	if ew, eh := out.EffectiveResolution(); ew != 10 || eh != 20 {
		t.Errorf("output effective resolution %dx%d, want 10x20", ew, eh)
	}
	buf, _ := r.AcquireBuffer()
	if buf.Width() != 20 || buf.Height() != 10 {
		t.Errorf("swapchain not reallocated: %dx%d", buf.Width(), buf.Height())
	}
}

func TestWindowAttachOtherDisplay(t *testing.T) {
	a := NewWindow(WindowConfig{Width: 4, Height: 4})
	b := NewWindow(WindowConfig{Width: 4, Height: 4, Name: "WINDOW-2"})
	s := fxscene.NewScene(nil)
	out, err := fxscene.NewOutput(s, a, New())
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("attaching an output of another display should panic")
		}
	}()
	b.Attach(out)
}

func TestWindowUpdate(t *testing.T) {
	w := NewWindow(WindowConfig{Width: 4, Height: 4})
	if err := w.Update(); err != nil {
		t.Fatal(err)
	}
	calls := 0
	w.OnUpdate(func() error { calls++; return nil })
	_ = w.Update()
	if calls != 1 {
		t.Errorf("update callback called %d times", calls)
	}
}
