package softrender

import (
	"image/color"
	"testing"

	"github.com/phanxgames/fxscene"
)

func newOutput(t *testing.T, cfg DisplayConfig) (*fxscene.Scene, *fxscene.Output, *Display) {
	t.Helper()
	s := fxscene.NewScene(nil)
	d := NewDisplay(cfg)
	o, err := fxscene.NewOutput(s, d, New())
	if err != nil {
		t.Fatalf("NewOutput: %v", err)
	}
	return s, o, d
}

func commit(t *testing.T, o *fxscene.Output) {
	t.Helper()
	if err := o.Commit(nil); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	o.HandlePresent(fxscene.PresentEvent{Presented: true})
}

func TestDisplayDefaults(t *testing.T) {
	d := NewDisplay(DisplayConfig{Width: 4, Height: 3})
	if d.Name() != "HEADLESS-1" || d.Scale() != 1 {
		t.Errorf("defaults: name %q, scale %v", d.Name(), d.Scale())
	}
	a, _ := d.AcquireBuffer()
	b, _ := d.AcquireBuffer()
	c, _ := d.AcquireBuffer()
	if a == b || a != c {
		t.Error("two buffers should be handed out round robin")
	}
	if a.Width() != 4 || a.Height() != 3 || !a.Opaque() {
		t.Errorf("swapchain buffer %dx%d opaque=%v", a.Width(), a.Height(), a.Opaque())
	}
	assertPanics(t, "empty mode", func() { NewDisplay(DisplayConfig{}) })
}

func TestCompositedFrame(t *testing.T) {
	s, o, d := newOutput(t, DisplayConfig{Width: 20, Height: 20})
	fxscene.CreateRect(s.Root(), 20, 20, red)
	top := fxscene.CreateRect(s.Root(), 10, 10, blue)
	top.SetPosition(10, 10)

	commit(t, o)
	assertPixel(t, d.Front(), 5, 5, opaqueRed)
	assertPixel(t, d.Front(), 15, 15, opaqueBlue)
	if d.Commits() != 1 || d.LastCommit().DirectScanout {
		t.Errorf("commits %d, last %+v", d.Commits(), d.LastCommit())
	}

	top.SetPosition(0, 0)
	commit(t, o)
	assertPixel(t, d.Front(), 5, 5, opaqueBlue)
	assertPixel(t, d.Front(), 15, 15, opaqueRed)

	commit(t, o)
	if d.Commits() != 2 {
		t.Errorf("an unchanged scene should not commit, got %d commits", d.Commits())
	}
}

func TestCompositedFrameScaled(t *testing.T) {
	s, o, d := newOutput(t, DisplayConfig{Width: 20, Height: 20, Scale: 2})
	r := fxscene.CreateRect(s.Root(), 5, 5, green)
	r.SetPosition(5, 5)
	commit(t, o)
	assertPixel(t, d.Front(), 9, 9, color.RGBA{A: 255})
	assertPixel(t, d.Front(), 10, 10, opaqueGreen)
	assertPixel(t, d.Front(), 19, 19, opaqueGreen)
}

func TestDirectScanout(t *testing.T) {
	s, o, d := newOutput(t, DisplayConfig{Width: 8, Height: 8})
	fxscene.CreateBuffer(s.Root(), NewSolidBuffer(8, 8, green))
	commit(t, o)
	if !d.LastCommit().DirectScanout {
		t.Fatal("a single full-screen buffer should be scanned out")
	}
	assertPixel(t, d.Front(), 3, 3, opaqueGreen)
}

func TestScanoutRejected(t *testing.T) {
	s, o, d := newOutput(t, DisplayConfig{Width: 8, Height: 8, RejectScanout: true})
	fxscene.CreateBuffer(s.Root(), NewSolidBuffer(8, 8, green))
	commit(t, o)
	if d.LastCommit().DirectScanout {
		t.Fatal("rejected scan-out should fall back to composition")
	}
	assertPixel(t, d.Front(), 3, 3, opaqueGreen)
}

func TestSetMode(t *testing.T) {
	s, o, d := newOutput(t, DisplayConfig{Width: 8, Height: 8})
	fxscene.CreateRect(s.Root(), 16, 16, red)
	commit(t, o)
	d.SetMode(16, 16)
	o.HandleModeChange()
	commit(t, o)
	if b := d.Front().Rect; b.Dx() != 16 || b.Dy() != 16 {
		t.Fatalf("front is %v after mode change", b)
	}
	assertPixel(t, d.Front(), 15, 15, opaqueRed)
}

func TestScheduledFrames(t *testing.T) {
	s, _, d := newOutput(t, DisplayConfig{Width: 8, Height: 8})
	d.TakeFrameRequest()
	fxscene.CreateRect(s.Root(), 4, 4, red)
	if !d.TakeFrameRequest() {
		t.Error("damage should schedule a frame")
	}
	if d.TakeFrameRequest() {
		t.Error("the request should be cleared once taken")
	}
}

func TestOriented(t *testing.T) {
	_, img := NewImageBuffer(2, 1, true)
	img.SetRGBA(1, 0, opaqueBlue)
	out := Oriented(img, fxscene.Transform90)
	if b := out.Rect; b.Dx() != 1 || b.Dy() != 2 {
		t.Fatalf("rotated size = %v", b)
	}
	assertPixel(t, out, 0, 1, opaqueBlue)
}
