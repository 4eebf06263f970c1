package ebitenrender

import (
	"image"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/fxscene"
)

// WindowConfig describes a window display.
type WindowConfig struct {
	Title string
	// Name is the display name. Defaults to "WINDOW-1".
	Name          string
	Width, Height int
	Scale         float64
	Transform     fxscene.Transform
	// Refresh is in mHz. Defaults to 60000.
	Refresh int
	// Buffers is the swapchain length. Defaults to 2.
	Buffers int
	// Resizable lets the user resize the window; the mode follows the
	// window size.
	Resizable bool
}

// Window is an fxscene.Display shown in an Ebitengine window. It is also
// the ebiten.Game that drives the attached output: every Draw commits a
// scheduled frame and presents it right away.
type Window struct {
	cfg       WindowConfig
	swapchain []*fxscene.Buffer
	next      int
	front     *ebiten.Image

	output    *fxscene.Output
	onUpdate  func() error
	scheduled bool
	frames    uint64
	frontOp   ebiten.DrawImageOptions
}

// NewWindow creates a window display. Width and height must be positive.
func NewWindow(cfg WindowConfig) *Window {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		panic("ebitenrender: window dimensions must be positive")
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.Buffers <= 0 {
		cfg.Buffers = 2
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = 60000
	}
	if cfg.Name == "" {
		cfg.Name = "WINDOW-1"
	}
	w := &Window{cfg: cfg}
	w.allocate()
	return w
}

func (w *Window) allocate() {
	for _, b := range w.swapchain {
		if img, ok := b.Source.(*ebiten.Image); ok {
			img.Deallocate()
		}
		b.Drop()
	}
	w.swapchain = w.swapchain[:0]
	for range w.cfg.Buffers {
		buf, _ := NewImageBuffer(w.cfg.Width, w.cfg.Height, true)
		w.swapchain = append(w.swapchain, buf)
	}
	w.next = 0
	if w.front != nil {
		w.front.Deallocate()
	}
	w.front = ebiten.NewImage(w.cfg.Width, w.cfg.Height)
}

// Attach makes out the output committed from Draw. Its display must be w.
func (w *Window) Attach(out *fxscene.Output) {
	if out != nil && out.Display() != fxscene.Display(w) {
		panic("ebitenrender: output drives another display")
	}
	w.output = out
	w.scheduled = true
}

// OnUpdate sets the function called on every tick, before Draw. Returning
// an error stops the game loop.
func (w *Window) OnUpdate(fn func() error) { w.onUpdate = fn }

// Name implements fxscene.Display.
func (w *Window) Name() string { return w.cfg.Name }

// Resolution implements fxscene.Display.
func (w *Window) Resolution() (int, int) { return w.cfg.Width, w.cfg.Height }

// Scale implements fxscene.Display.
func (w *Window) Scale() float64 { return w.cfg.Scale }

// Transform implements fxscene.Display.
func (w *Window) Transform() fxscene.Transform { return w.cfg.Transform }

// Refresh implements fxscene.Display.
func (w *Window) Refresh() int { return w.cfg.Refresh }

// ScheduleFrame implements fxscene.Display. The frame is committed on the
// next Draw.
func (w *Window) ScheduleFrame() { w.scheduled = true }

// AcquireBuffer implements fxscene.Display.
func (w *Window) AcquireBuffer() (*fxscene.Buffer, error) {
	b := w.swapchain[w.next]
	w.next = (w.next + 1) % len(w.swapchain)
	return b, nil
}

// TestScanout implements fxscene.ScanoutTester. Only GPU images can be
// shown directly.
func (w *Window) TestScanout(state fxscene.OutputState) bool {
	_, ok := state.Buffer.Source.(*ebiten.Image)
	return ok
}

// Commit implements fxscene.Display. Damaged parts of the buffer are copied
// to the front image; a scanned out buffer replaces it.
func (w *Window) Commit(state fxscene.OutputState) error {
	img, ok := state.Buffer.Source.(*ebiten.Image)
	if !ok {
		return ErrUnsupportedBuffer
	}
	var op ebiten.DrawImageOptions
	op.Blend = ebiten.BlendCopy
	if state.DirectScanout {
		b := img.Bounds()
		op.GeoM.Scale(float64(w.cfg.Width)/float64(b.Dx()), float64(w.cfg.Height)/float64(b.Dy()))
		w.front.DrawImage(img, &op)
		return nil
	}
	for _, r := range state.Damage.Rects() {
		rect := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
		op.GeoM.Reset()
		op.GeoM.Translate(float64(r.X), float64(r.Y))
		w.front.SubImage(rect).(*ebiten.Image).DrawImage(img.SubImage(rect).(*ebiten.Image), &op)
	}
	return nil
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if w.onUpdate != nil {
		return w.onUpdate()
	}
	return nil
}

// Draw implements ebiten.Game. Commit failures are logged and retried on
// the next frame.
func (w *Window) Draw(screen *ebiten.Image) {
	if out := w.output; out != nil && !out.Destroyed() && w.scheduled {
		w.scheduled = false
		if err := out.Commit(nil); err != nil {
			fxscene.Logger().Error("commit failed", "output", w.cfg.Name, "err", err)
			w.scheduled = true
		} else if out.State() == fxscene.FramePresented {
			w.frames++
			out.HandlePresent(fxscene.PresentEvent{When: time.Now(), Presented: true, Seq: w.frames})
		}
	}
	w.frontOp.GeoM = orientGeoM(w.cfg.Transform, float64(w.cfg.Width), float64(w.cfg.Height))
	screen.DrawImage(w.front, &w.frontOp)
}

// Layout implements ebiten.Game. The screen is the mode size with the
// transform applied. A resizable window changes mode to follow its size.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	tw, th := w.transformedSize()
	if w.cfg.Resizable && outsideWidth > 0 && outsideHeight > 0 && (outsideWidth != tw || outsideHeight != th) {
		mw, mh := outsideWidth, outsideHeight
		if w.cfg.Transform.SwapsAxes() {
			mw, mh = mh, mw
		}
		w.SetMode(mw, mh)
		tw, th = outsideWidth, outsideHeight
	}
	return tw, th
}

func (w *Window) transformedSize() (int, int) {
	if w.cfg.Transform.SwapsAxes() {
		return w.cfg.Height, w.cfg.Width
	}
	return w.cfg.Width, w.cfg.Height
}

// SetMode changes the resolution, reallocates the swapchain and tells the
// attached output.
func (w *Window) SetMode(width, height int) {
	if width <= 0 || height <= 0 {
		panic("ebitenrender: window dimensions must be positive")
	}
	w.cfg.Width, w.cfg.Height = width, height
	w.allocate()
	if w.output != nil && !w.output.Destroyed() {
		w.output.HandleModeChange()
	}
	w.scheduled = true
}

// Frames returns the number of frames presented.
func (w *Window) Frames() uint64 { return w.frames }

// Run opens the window and runs the game loop until it is closed or
// OnUpdate returns an error.
func (w *Window) Run() error {
	tw, th := w.transformedSize()
	ebiten.SetWindowSize(tw, th)
	ebiten.SetWindowTitle(w.cfg.Title)
	if w.cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	return ebiten.RunGame(w)
}
