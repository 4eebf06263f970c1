// Package softrender is a CPU implementation of the fxscene renderer
// contract. It paints into *image.RGBA buffers with premultiplied alpha and
// is exact enough to assert on individual pixels, which makes it the
// renderer of choice for tests and offline rendering.
//
// Like the rest of fxscene it is single-threaded.
package softrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/phanxgames/fxscene"
)

// ErrUnsupportedBuffer is returned for buffers whose Source the renderer
// cannot read or paint into.
var ErrUnsupportedBuffer = errors.New("softrender: unsupported buffer source")

// Texture is an imported buffer.
type Texture struct {
	img       *image.RGBA
	destroyed bool
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.img.Rect.Dx() }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.img.Rect.Dy() }

// Destroy releases the texture. Drawing a destroyed texture is a no-op.
func (t *Texture) Destroy() { t.destroyed = true }

// Image returns the pixels backing the texture.
func (t *Texture) Image() *image.RGBA { return t.img }

// Timeline is a counter that passes signal when they are submitted. CPU
// passes finish synchronously, so a point is reached as soon as Signal
// returns.
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

// Stats counts the primitives a renderer has drawn since it was created.
type Stats struct {
	Passes   int
	Rects    int
	Textures int
	Shadows  int
	Blurs    int
	Captures int
	Imports  int
}

// Renderer is a software fxscene.Renderer.
//
// Buffers backed by *image.RGBA are sampled in place, so a producer that
// writes into the image and damages the node shows the new pixels without
// a re-import. Any other image.Image is copied on import.
type Renderer struct {
	stats Stats
}

// New returns a software renderer.
func New() *Renderer {
	return &Renderer{}
}

// Stats returns the renderer's primitive counters.
func (r *Renderer) Stats() Stats { return r.stats }

// ImportBuffer implements fxscene.Renderer.
func (r *Renderer) ImportBuffer(buf *fxscene.Buffer) (fxscene.Texture, error) {
	img, err := importImage(buf)
	if err != nil {
		return nil, err
	}
	r.stats.Imports++
	return &Texture{img: img}, nil
}

func importImage(buf *fxscene.Buffer) (*image.RGBA, error) {
	if c, ok := buf.SinglePixelColor(); ok {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.SetRGBA(0, 0, c.RGBA())
		return img, nil
	}
	switch src := buf.Source.(type) {
	case *image.RGBA:
		if src.Rect.Min != (image.Point{}) {
			return rebase(src), nil
		}
		return src, nil
	case image.Image:
		b := src.Bounds()
		img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(img, img.Rect, src, b.Min, draw.Src)
		return img, nil
	case nil:
		return nil, fmt.Errorf("import %dx%d buffer: %w", buf.Width(), buf.Height(), ErrUnsupportedBuffer)
	default:
		return nil, fmt.Errorf("import %T: %w", src, ErrUnsupportedBuffer)
	}
}

// rebase returns img shifted so its bounds start at the origin. The pixels
// are shared.
func rebase(img *image.RGBA) *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y):],
		Stride: img.Stride,
		Rect:   image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()),
	}
}

// BeginPass implements fxscene.Renderer. target.Source must be an
// *image.RGBA.
func (r *Renderer) BeginPass(target *fxscene.Buffer, opts fxscene.PassOptions) (fxscene.RenderPass, error) {
	img, ok := target.Source.(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("begin pass on %T: %w", target.Source, ErrUnsupportedBuffer)
	}
	if img.Rect.Min != (image.Point{}) {
		img = rebase(img)
	}
	r.stats.Passes++
	p := &Pass{r: r, dst: img, opts: opts}
	black := premul{a: 1}
	p.forEach(p.bounds(), opts.Background, func(x, y int) { p.set(x, y, black) })
	return p, nil
}

// CreateTimeline implements fxscene.Renderer.
func (r *Renderer) CreateTimeline() (fxscene.Timeline, error) {
	return &Timeline{}, nil
}

// NewImageBuffer wraps a new transparent w×h image in a buffer handle.
func NewImageBuffer(w, h int, opaque bool) (*fxscene.Buffer, *image.RGBA) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	return fxscene.NewBuffer(fxscene.BufferDesc{Width: w, Height: h, Opaque: opaque, Source: img}), img
}

// NewSolidBuffer returns a w×h buffer filled with c. It is opaque when c is.
func NewSolidBuffer(w, h int, c fxscene.Color) *fxscene.Buffer {
	buf, img := NewImageBuffer(w, h, c.Opaque())
	draw.Draw(img, img.Rect, image.NewUniform(c.RGBA()), image.Point{}, draw.Src)
	return buf
}

// BufferFromImage wraps img in a buffer handle. The buffer is opaque when
// every pixel of img is.
func BufferFromImage(img image.Image) *fxscene.Buffer {
	b := img.Bounds()
	opaque := false
	if o, ok := img.(interface{ Opaque() bool }); ok {
		opaque = o.Opaque()
	}
	return fxscene.NewBuffer(fxscene.BufferDesc{Width: b.Dx(), Height: b.Dy(), Opaque: opaque, Source: img})
}

// premul is a premultiplied color with components in [0, 1].
type premul struct {
	r, g, b, a float64
}

func fromColor(c fxscene.Color) premul {
	p := c.Premultiplied()
	return premul{p.R, p.G, p.B, p.A}
}

func fromRGBA(c color.RGBA) premul {
	return premul{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255}
}

func (p premul) scale(f float64) premul {
	return premul{p.r * f, p.g * f, p.b * f, p.a * f}
}

func (p premul) rgba() color.RGBA {
	return color.RGBA{R: to8(p.r), G: to8(p.g), B: to8(p.b), A: to8(p.a)}
}

func to8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// over composites s over d.
func over(d, s premul) premul {
	inv := 1 - s.a
	return premul{s.r + d.r*inv, s.g + d.g*inv, s.b + d.b*inv, s.a + d.a*inv}
}

// lerp mixes a toward b by t.
func lerp(a, b premul, t float64) premul {
	return premul{
		a.r + (b.r-a.r)*t,
		a.g + (b.g-a.g)*t,
		a.b + (b.b-a.b)*t,
		a.a + (b.a-a.a)*t,
	}
}
