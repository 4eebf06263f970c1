// Package ebitenrender implements the fxscene renderer contract on top of
// Ebitengine. Textures and render targets are *ebiten.Image; rounded
// rectangles, shadows and blur effects are Kage shaders, and the dual
// kawase blur ping-pongs between pooled offscreen images with bilinear
// filtering.
//
// Ebitengine must only be used from its game loop, so a Renderer is driven
// from the Draw method of an ebiten.Game, typically a Window.
package ebitenrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/fxscene"
)

// ErrUnsupportedBuffer is returned for buffers whose Source the renderer
// cannot sample or paint into.
var ErrUnsupportedBuffer = errors.New("ebitenrender: unsupported buffer source")

// Texture is an imported buffer.
type Texture struct {
	img *ebiten.Image
	// owned textures were uploaded on import and are deallocated on
	// Destroy. Borrowed ones belong to the buffer's producer.
	owned     bool
	destroyed bool
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.img.Bounds().Dx() }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.img.Bounds().Dy() }

// Image returns the image backing the texture.
func (t *Texture) Image() *ebiten.Image { return t.img }

// Destroy releases the texture.
func (t *Texture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	if t.owned {
		t.img.Deallocate()
	}
}

// Timeline signals when a pass is submitted. Ebitengine orders GPU work
// internally, so a point submitted on the game loop is reached for every
// later draw.
type Timeline struct {
	point uint64
}

// Signal marks point as reached.
func (tl *Timeline) Signal(point uint64) error {
	tl.point = max(tl.point, point)
	return nil
}

// Signaled reports whether point has been reached.
func (tl *Timeline) Signaled(point uint64) bool { return tl.point >= point }

// Renderer is an Ebitengine fxscene.Renderer.
type Renderer struct {
	pool   imagePool
	passes int
	draws  int
}

// New returns a renderer.
func New() *Renderer {
	return &Renderer{}
}

// Passes returns the number of passes begun.
func (r *Renderer) Passes() int { return r.passes }

// DrawCalls returns the number of shader and image draws issued.
func (r *Renderer) DrawCalls() int { return r.draws }

// ImportBuffer implements fxscene.Renderer. *ebiten.Image sources are
// sampled in place; other image.Image sources are uploaded.
func (r *Renderer) ImportBuffer(buf *fxscene.Buffer) (fxscene.Texture, error) {
	if c, ok := buf.SinglePixelColor(); ok {
		img := ebiten.NewImage(1, 1)
		img.Fill(c.RGBA())
		return &Texture{img: img, owned: true}, nil
	}
	switch src := buf.Source.(type) {
	case *ebiten.Image:
		return &Texture{img: src}, nil
	case image.Image:
		return &Texture{img: ebiten.NewImageFromImage(src), owned: true}, nil
	case nil:
		return nil, fmt.Errorf("import %dx%d buffer: %w", buf.Width(), buf.Height(), ErrUnsupportedBuffer)
	default:
		return nil, fmt.Errorf("import %T: %w", src, ErrUnsupportedBuffer)
	}
}

// BeginPass implements fxscene.Renderer. target.Source must be an
// *ebiten.Image.
func (r *Renderer) BeginPass(target *fxscene.Buffer, opts fxscene.PassOptions) (fxscene.RenderPass, error) {
	img, ok := target.Source.(*ebiten.Image)
	if !ok {
		return nil, fmt.Errorf("begin pass on %T: %w", target.Source, ErrUnsupportedBuffer)
	}
	r.passes++
	p := &Pass{r: r, dst: img, opts: opts}
	for _, b := range opts.Background.IntersectBox(p.bounds()).Rects() {
		p.sub(b).Fill(color.Black)
		r.draws++
	}
	return p, nil
}

// CreateTimeline implements fxscene.Renderer.
func (r *Renderer) CreateTimeline() (fxscene.Timeline, error) {
	return &Timeline{}, nil
}

// Purge deallocates pooled offscreen images. Call it after a burst of
// large blurs, or when the window shrinks.
func (r *Renderer) Purge() {
	r.pool.purge()
}

// NewImageBuffer wraps a new w×h image in a buffer handle.
func NewImageBuffer(w, h int, opaque bool) (*fxscene.Buffer, *ebiten.Image) {
	img := ebiten.NewImage(w, h)
	return fxscene.NewBuffer(fxscene.BufferDesc{Width: w, Height: h, Opaque: opaque, Source: img}), img
}
