package softrender

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/phanxgames/fxscene"
)

// DisplayConfig describes a headless display.
type DisplayConfig struct {
	Name          string
	Width, Height int
	Scale         float64
	Transform     fxscene.Transform
	// Refresh is in mHz.
	Refresh int
	// Buffers is the swapchain length. Defaults to 2.
	Buffers int
	// RejectScanout makes TestScanout fail, forcing composition.
	RejectScanout bool
}

// Display is a headless fxscene.Display backed by a swapchain of images.
// Every commit is copied to a front image that stands in for the screen.
type Display struct {
	cfg       DisplayConfig
	swapchain []*fxscene.Buffer
	next      int
	front     *image.RGBA

	commits   int
	scheduled bool
	last      fxscene.OutputState
}

// NewDisplay creates a display. Width and height must be positive.
func NewDisplay(cfg DisplayConfig) *Display {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		panic("softrender: display dimensions must be positive")
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.Buffers <= 0 {
		cfg.Buffers = 2
	}
	if cfg.Name == "" {
		cfg.Name = "HEADLESS-1"
	}
	d := &Display{cfg: cfg}
	d.allocate()
	return d
}

func (d *Display) allocate() {
	for _, b := range d.swapchain {
		b.Drop()
	}
	d.swapchain = d.swapchain[:0]
	for range d.cfg.Buffers {
		buf, _ := NewImageBuffer(d.cfg.Width, d.cfg.Height, true)
		d.swapchain = append(d.swapchain, buf)
	}
	d.next = 0
	d.front = image.NewRGBA(image.Rect(0, 0, d.cfg.Width, d.cfg.Height))
}

// Name implements fxscene.Display.
func (d *Display) Name() string { return d.cfg.Name }

// Resolution implements fxscene.Display.
func (d *Display) Resolution() (int, int) { return d.cfg.Width, d.cfg.Height }

// Scale implements fxscene.Display.
func (d *Display) Scale() float64 { return d.cfg.Scale }

// Transform implements fxscene.Display.
func (d *Display) Transform() fxscene.Transform { return d.cfg.Transform }

// Refresh implements fxscene.Display.
func (d *Display) Refresh() int { return d.cfg.Refresh }

// ScheduleFrame implements fxscene.Display.
func (d *Display) ScheduleFrame() { d.scheduled = true }

// TakeFrameRequest reports whether a frame was scheduled since the last
// call, and clears the request.
func (d *Display) TakeFrameRequest() bool {
	s := d.scheduled
	d.scheduled = false
	return s
}

// AcquireBuffer implements fxscene.Display. Buffers are handed out round
// robin.
func (d *Display) AcquireBuffer() (*fxscene.Buffer, error) {
	b := d.swapchain[d.next]
	d.next = (d.next + 1) % len(d.swapchain)
	return b, nil
}

// TestScanout implements fxscene.ScanoutTester. Only buffers the renderer
// can read are accepted.
func (d *Display) TestScanout(state fxscene.OutputState) bool {
	if d.cfg.RejectScanout {
		return false
	}
	_, err := importImage(state.Buffer)
	return err == nil
}

// Commit implements fxscene.Display. The committed buffer becomes the front
// image.
func (d *Display) Commit(state fxscene.OutputState) error {
	img, err := importImage(state.Buffer)
	if err != nil {
		return err
	}
	if state.DirectScanout {
		draw.NearestNeighbor.Scale(d.front, d.front.Rect, img, img.Rect, draw.Src, nil)
	} else {
		for _, r := range state.Damage.Rects() {
			rect := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
			draw.Draw(d.front, rect, img, rect.Min, draw.Src)
		}
	}
	d.commits++
	d.last = state
	return nil
}

// SetMode changes the resolution and reallocates the swapchain. The output
// driving the display must be told with Output.HandleModeChange.
func (d *Display) SetMode(width, height int) {
	if width <= 0 || height <= 0 {
		panic("softrender: display dimensions must be positive")
	}
	d.cfg.Width, d.cfg.Height = width, height
	d.allocate()
}

// SetScale changes the display scale.
func (d *Display) SetScale(scale float64) { d.cfg.Scale = scale }

// SetTransform changes the display transform.
func (d *Display) SetTransform(t fxscene.Transform) { d.cfg.Transform = t }

// Front returns what the display currently shows, before its transform.
func (d *Display) Front() *image.RGBA { return d.front }

// Commits returns the number of successful commits.
func (d *Display) Commits() int { return d.commits }

// LastCommit returns the state handed to the last successful commit.
func (d *Display) LastCommit() fxscene.OutputState { return d.last }
