package softrender

import (
	"errors"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/phanxgames/fxscene"
)

// Pass paints into one target image. Geometry outside the target is
// discarded.
type Pass struct {
	r         *Renderer
	dst       *image.RGBA
	opts      fxscene.PassOptions
	err       error
	submitted bool
}

// Target returns the image the pass paints into.
func (p *Pass) Target() *image.RGBA { return p.dst }

func (p *Pass) bounds() fxscene.Box {
	return fxscene.Box{Width: p.dst.Rect.Dx(), Height: p.dst.Rect.Dy()}
}

// forEach calls fn for every target pixel inside box and clip.
func (p *Pass) forEach(box fxscene.Box, clip fxscene.Region, fn func(x, y int)) {
	b, ok := box.Intersect(p.bounds())
	if !ok {
		return
	}
	for _, r := range clip.IntersectBox(b).Rects() {
		for y := r.Y; y < r.Y+r.Height; y++ {
			for x := r.X; x < r.X+r.Width; x++ {
				fn(x, y)
			}
		}
	}
}

func (p *Pass) at(x, y int) premul {
	return fromRGBA(p.dst.RGBAAt(x, y))
}

func (p *Pass) set(x, y int, c premul) {
	p.dst.SetRGBA(x, y, c.rgba())
}

func (p *Pass) mustOpen() {
	if p.submitted {
		panic("softrender: draw after submit")
	}
}

// DrawRect implements fxscene.RenderPass.
func (p *Pass) DrawRect(prim fxscene.RectPrimitive) {
	p.mustOpen()
	p.r.stats.Rects++
	src := fromColor(prim.Color)
	p.forEach(prim.Box, prim.Clip, func(x, y int) {
		cx, cy := float64(x)+0.5, float64(y)+0.5
		cov := coverage(cx, cy, prim.Box, prim.CornerRadius, prim.Corners)
		if !prim.Cutout.Empty() {
			cov *= 1 - coverage(cx, cy, prim.Cutout, prim.CutoutRadius, prim.CutoutCorners)
		}
		if cov <= 0 {
			return
		}
		p.set(x, y, over(p.at(x, y), src.scale(cov)))
	})
}

// DrawTexture implements fxscene.RenderPass.
func (p *Pass) DrawTexture(prim fxscene.TexturePrimitive) {
	p.mustOpen()
	p.r.stats.Textures++
	if prim.Wait.Valid() && !prim.Wait.Timeline.Signaled(prim.Wait.Point) {
		p.err = errors.Join(p.err, fmt.Errorf("softrender: texture sampled before sync point %d", prim.Wait.Point))
	}
	img := p.sample(prim)
	if img == nil {
		return
	}
	box := prim.DstBox
	p.forEach(box, prim.Clip, func(x, y int) {
		cov := coverage(float64(x)+0.5, float64(y)+0.5, box, prim.CornerRadius, prim.Corners) * prim.Alpha
		if cov <= 0 {
			return
		}
		s := fromRGBA(img.RGBAAt(x-box.X, y-box.Y))
		p.set(x, y, over(p.at(x, y), s.scale(cov)))
	})
}

// sample returns the texture region of prim cropped, transformed and scaled
// to the size of DstBox.
func (p *Pass) sample(prim fxscene.TexturePrimitive) *image.RGBA {
	tex, ok := prim.Texture.(*Texture)
	if !ok || tex.destroyed || prim.DstBox.Empty() {
		return nil
	}
	src := tex.img
	if !prim.SrcBox.Empty() {
		sb := prim.SrcBox
		r := image.Rect(
			int(math.Floor(sb.X)), int(math.Floor(sb.Y)),
			int(math.Ceil(sb.X+sb.Width)), int(math.Ceil(sb.Y+sb.Height)),
		).Intersect(src.Rect)
		if r.Empty() {
			return nil
		}
		src = rebase(src.SubImage(r).(*image.RGBA))
	}
	src = orient(src, prim.Transform)

	w, h := prim.DstBox.Width, prim.DstBox.Height
	if src.Rect.Dx() == w && src.Rect.Dy() == h {
		return src
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	var scaler draw.Scaler = draw.BiLinear
	if prim.Filter == fxscene.FilterNearest {
		scaler = draw.NearestNeighbor
	}
	scaler.Scale(out, out.Rect, src, src.Rect, draw.Src, nil)
	return out
}

// orient applies t to img.
func orient(img *image.RGBA, t fxscene.Transform) *image.RGBA {
	if t == fxscene.TransformNormal {
		return img
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	ow, oh := w, h
	if t.SwapsAxes() {
		ow, oh = h, w
	}
	out := image.NewRGBA(image.Rect(0, 0, ow, oh))
	for y := range h {
		for x := range w {
			d := fxscene.TransformBox(fxscene.Box{X: x, Y: y, Width: 1, Height: 1}, t, w, h)
			out.SetRGBA(d.X, d.Y, img.RGBAAt(x, y))
		}
	}
	return out
}

// DrawShadow implements fxscene.RenderPass.
func (p *Pass) DrawShadow(prim fxscene.ShadowPrimitive) {
	p.mustOpen()
	p.r.stats.Shadows++
	box := prim.Box
	if box.Empty() {
		return
	}
	mask := shadowMask(box.Width, box.Height, prim.CornerRadius, prim.BlurSigma)
	src := fromColor(prim.Color)
	p.forEach(box, prim.Clip, func(x, y int) {
		a := mask[(y-box.Y)*box.Width+(x-box.X)]
		if a <= 0 {
			return
		}
		p.set(x, y, over(p.at(x, y), src.scale(a)))
	})
}

// shadowMask returns the coverage of a w×h shadow: the rounded box inset by
// sigma, blurred with a gaussian of that sigma.
func shadowMask(w, h, radius int, sigma float64) []float64 {
	inset := int(math.Round(sigma))
	shape := fxscene.Box{X: inset, Y: inset, Width: w - 2*inset, Height: h - 2*inset}
	mask := make([]float64, w*h)
	for y := range h {
		for x := range w {
			mask[y*w+x] = coverage(float64(x)+0.5, float64(y)+0.5, shape, radius, fxscene.CornerAll)
		}
	}
	if sigma <= 0 {
		return mask
	}
	kernel := gaussianKernel(sigma)
	return convolve(convolve(mask, w, h, kernel, true), w, h, kernel, false)
}

func gaussianKernel(sigma float64) []float64 {
	n := int(math.Ceil(sigma * 3))
	k := make([]float64, 2*n+1)
	sum := 0.0
	for i := range k {
		d := float64(i - n)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// convolve runs a 1D kernel along rows (horizontal) or columns. Samples
// outside the mask count as empty.
func convolve(src []float64, w, h int, kernel []float64, horizontal bool) []float64 {
	n := len(kernel) / 2
	dst := make([]float64, len(src))
	for y := range h {
		for x := range w {
			sum := 0.0
			for i, k := range kernel {
				sx, sy := x, y
				if horizontal {
					sx += i - n
				} else {
					sy += i - n
				}
				if sx < 0 || sy < 0 || sx >= w || sy >= h {
					continue
				}
				sum += src[sy*w+sx] * k
			}
			dst[y*w+x] = sum
		}
	}
	return dst
}

// Submit implements fxscene.RenderPass.
func (p *Pass) Submit() error {
	if p.submitted {
		return errors.New("softrender: pass submitted twice")
	}
	p.submitted = true
	if p.err != nil {
		return p.err
	}
	if s := p.opts.Signal; s.Valid() {
		if err := s.Timeline.Signal(s.Point); err != nil {
			return fmt.Errorf("signal timeline: %w", err)
		}
	}
	return nil
}

// coverage returns how much of the pixel centered at (x, y) lies inside the
// box with the given rounded corners, antialiased over one pixel.
func coverage(x, y float64, b fxscene.Box, radius int, corners fxscene.CornerLocation) float64 {
	if !b.ContainsF(x, y) {
		return 0
	}
	if radius <= 0 || corners == fxscene.CornerNone {
		return 1
	}
	r := math.Min(float64(radius), float64(min(b.Width, b.Height))/2)
	left, top := float64(b.X), float64(b.Y)
	right, bottom := float64(b.X+b.Width), float64(b.Y+b.Height)

	var corner fxscene.CornerLocation
	var cx, cy float64
	switch {
	case x < left+r && y < top+r:
		corner, cx, cy = fxscene.CornerTopLeft, left+r, top+r
	case x > right-r && y < top+r:
		corner, cx, cy = fxscene.CornerTopRight, right-r, top+r
	case x > right-r && y > bottom-r:
		corner, cx, cy = fxscene.CornerBottomRight, right-r, bottom-r
	case x < left+r && y > bottom-r:
		corner, cx, cy = fxscene.CornerBottomLeft, left+r, bottom-r
	default:
		return 1
	}
	if corners&corner == 0 {
		return 1
	}
	d := math.Hypot(x-cx, y-cy) - r
	return math.Max(0, math.Min(1, 0.5-d))
}
