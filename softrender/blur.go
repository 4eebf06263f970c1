package softrender

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/phanxgames/fxscene"
)

// capture is the renderer state stored in a fxscene.BlurCache.
type capture struct {
	img *image.RGBA
	box fxscene.Box
}

func (c *capture) Destroy() { c.img = nil }

// DrawBlur implements fxscene.RenderPass.
func (p *Pass) DrawBlur(prim fxscene.BlurPrimitive) {
	p.mustOpen()
	var src *capture
	switch {
	case prim.Cache != nil && !prim.Capture:
		src, _ = prim.Cache.Data.(*capture)
		if src == nil || src.img == nil {
			return
		}
	default:
		src = p.blurBackdrop(prim.Box, prim.Params)
		if src == nil {
			return
		}
	}
	if prim.Capture {
		if prim.Cache == nil {
			panic("softrender: blur capture without a cache")
		}
		if old, ok := prim.Cache.Data.(*capture); ok {
			old.Destroy()
		}
		prim.Cache.Data = src
		p.r.stats.Captures++
		return
	}
	p.r.stats.Blurs++

	var mask *image.RGBA
	if prim.Mask != nil {
		if mask = p.sample(*prim.Mask); mask == nil {
			return
		}
	}
	box := prim.Box
	p.forEach(box, prim.Clip, func(x, y int) {
		if !src.box.Contains(x, y) {
			return
		}
		if mask != nil {
			mb := prim.Mask.DstBox
			if !mb.Contains(x, y) || mask.RGBAAt(x-mb.X, y-mb.Y).A == 0 {
				return
			}
		}
		t := coverage(float64(x)+0.5, float64(y)+0.5, box, prim.CornerRadius, prim.Corners) * prim.Alpha
		if t <= 0 {
			return
		}
		b := fromRGBA(src.img.RGBAAt(x-src.box.X, y-src.box.Y))
		p.set(x, y, lerp(p.at(x, y), b, t))
	})
}

// blurBackdrop blurs the target around box. Pixels up to params.Size away
// feed the result.
func (p *Pass) blurBackdrop(box fxscene.Box, params fxscene.BlurParams) *capture {
	area, ok := fxscene.NewRegion(box).Expand(params.Size()).Extents().Intersect(p.bounds())
	if !ok {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, area.Width, area.Height))
	draw.Draw(img, img.Rect, p.dst, image.Pt(area.X, area.Y), draw.Src)
	img = kawase(img, params.Radius, params.Passes)
	adjust(img, area, params)
	return &capture{img: img, box: area}
}

// kawase approximates a dual kawase blur: every pass halves the image and
// box blurs it by radius, then the image is scaled back up pass by pass
// with bilinear filtering.
func kawase(img *image.RGBA, radius, passes int) *image.RGBA {
	if radius <= 0 || passes <= 0 {
		return img
	}
	sizes := []image.Rectangle{img.Rect}
	current := img
	for range passes {
		w := max(current.Rect.Dx()/2, 1)
		h := max(current.Rect.Dy()/2, 1)
		half := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(half, half.Rect, current, current.Rect, draw.Src, nil)
		boxBlur(half, radius)
		sizes = append(sizes, half.Rect)
		current = half
	}
	for i := len(sizes) - 2; i >= 0; i-- {
		up := image.NewRGBA(sizes[i])
		draw.BiLinear.Scale(up, up.Rect, current, current.Rect, draw.Src, nil)
		current = up
	}
	return current
}

// boxBlur blurs img in place with a (2r+1)² box, clamping at the edges.
func boxBlur(img *image.RGBA, r int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	tmp := make([]premul, w*h)
	for y := range h {
		for x := range w {
			tmp[y*w+x] = fromRGBA(img.RGBAAt(x, y))
		}
	}
	pass := func(src []premul, horizontal bool) []premul {
		dst := make([]premul, len(src))
		n := float64(2*r + 1)
		for y := range h {
			for x := range w {
				var sum premul
				for i := -r; i <= r; i++ {
					sx, sy := x, y
					if horizontal {
						sx = min(max(x+i, 0), w-1)
					} else {
						sy = min(max(y+i, 0), h-1)
					}
					c := src[sy*w+sx]
					sum = premul{sum.r + c.r, sum.g + c.g, sum.b + c.b, sum.a + c.a}
				}
				dst[y*w+x] = sum.scale(1 / n)
			}
		}
		return dst
	}
	tmp = pass(pass(tmp, true), false)
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, tmp[y*w+x].rgba())
		}
	}
}

// Noise returns the deterministic dither value in [0, 1) for the target
// pixel (x, y).
func Noise(x, y int) float64 {
	v := math.Sin(float64(x)*12.9898+float64(y)*78.233) * 43758.5453
	return v - math.Floor(v)
}

// adjust applies the post-blur color matrix and noise. area is where img
// sits in the target, so noise is stable across frames.
func adjust(img *image.RGBA, area fxscene.Box, params fxscene.BlurParams) {
	m := params.ColorMatrix()
	if m == fxscene.IdentityColorMatrix && params.Noise == 0 {
		return
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := range h {
		for x := range w {
			c := fromRGBA(img.RGBAAt(x, y))
			if c.a == 0 {
				continue
			}
			r, g, b, a := m.Apply(c.r/c.a, c.g/c.a, c.b/c.a, c.a)
			if params.Noise > 0 {
				n := (Noise(area.X+x, area.Y+y) - 0.5) * params.Noise
				r, g, b = r+n, g+n, b+n
			}
			a = math.Max(0, math.Min(1, a))
			r = math.Max(0, math.Min(1, r))
			g = math.Max(0, math.Min(1, g))
			b = math.Max(0, math.Min(1, b))
			img.SetRGBA(x, y, premul{r * a, g * a, b * a, a}.rgba())
		}
	}
}
