package ebitenrender

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/fxscene"
)

// capture is the renderer state stored in a fxscene.BlurCache.
type capture struct {
	img *ebiten.Image
	box fxscene.Box
}

func (c *capture) Destroy() {
	if c.img != nil {
		c.img.Deallocate()
		c.img = nil
	}
}

// blurred is a blurred snapshot of part of the target.
type blurred struct {
	img     *ebiten.Image // w×h view
	box     fxscene.Box   // where img sits in the target
	release func()
}

// DrawBlur implements fxscene.RenderPass.
func (p *Pass) DrawBlur(prim fxscene.BlurPrimitive) {
	p.mustOpen()
	var src blurred
	if prim.Cache != nil && !prim.Capture {
		c, _ := prim.Cache.Data.(*capture)
		if c == nil || c.img == nil {
			return
		}
		src = blurred{img: c.img, box: c.box, release: func() {}}
	} else {
		var ok bool
		if src, ok = p.blurBackdrop(prim.Box, prim.Params); !ok {
			return
		}
	}
	defer src.release()

	if prim.Capture {
		if prim.Cache == nil {
			panic("ebitenrender: blur capture without a cache")
		}
		if old, ok := prim.Cache.Data.(*capture); ok {
			old.Destroy()
		}
		img := ebiten.NewImage(src.box.Width, src.box.Height)
		img.DrawImage(src.img, nil)
		p.r.draws++
		prim.Cache.Data = &capture{img: img, box: src.box}
		return
	}

	box, ok := prim.Box.Intersect(src.box)
	if !ok {
		return
	}
	local := box.Translate(-src.box.X, -src.box.Y)
	images := []*ebiten.Image{src.img.SubImage(rect(local)).(*ebiten.Image)}
	hasMask := float32(0)
	if prim.Mask != nil {
		mask := *prim.Mask
		mask.DstBox = mask.DstBox.Translate(-box.X, -box.Y)
		tmp := p.sampleAt(mask, box.Width, box.Height)
		if tmp == nil {
			return
		}
		defer p.r.pool.release(tmp)
		images = append(images, view(tmp, box.Width, box.Height))
		hasMask = 1
	}
	p.drawShader(ensureBlurCompositeShader(), box, prim.Clip, map[string]any{
		"Box":     boxUniform(prim.Box),
		"Radius":  float32(prim.CornerRadius),
		"Corners": cornerUniform(prim.Corners),
		"Alpha":   float32(prim.Alpha),
		"HasMask": hasMask,
	}, images...)
}

// sampleAt draws a texture primitive into a pooled w×h image with DstBox
// relative to the image origin.
func (p *Pass) sampleAt(prim fxscene.TexturePrimitive, w, h int) *ebiten.Image {
	tmp := p.sample(prim)
	if tmp == nil {
		return nil
	}
	if prim.DstBox.X == 0 && prim.DstBox.Y == 0 {
		return tmp
	}
	defer p.r.pool.release(tmp)
	out := p.r.pool.acquire(w, h)
	op := &p.imgOp
	op.GeoM.Reset()
	op.GeoM.Translate(float64(prim.DstBox.X), float64(prim.DstBox.Y))
	op.ColorScale.Reset()
	op.Blend = ebiten.BlendSourceOver
	view(out, w, h).DrawImage(view(tmp, prim.DstBox.Width, prim.DstBox.Height), op)
	p.r.draws++
	return out
}

// blurBackdrop blurs the target around box. Pixels up to params.Size away
// feed the result.
func (p *Pass) blurBackdrop(box fxscene.Box, params fxscene.BlurParams) (blurred, bool) {
	area, ok := fxscene.NewRegion(box).Expand(params.Size()).Extents().Intersect(p.bounds())
	if !ok {
		return blurred{}, false
	}
	pool := &p.r.pool
	var held []*ebiten.Image
	take := func(w, h int) *ebiten.Image {
		img := pool.acquire(w, h)
		held = append(held, img)
		return view(img, w, h)
	}
	release := func() {
		for _, img := range held {
			pool.release(img)
		}
	}

	op := &p.imgOp
	op.GeoM.Reset()
	op.ColorScale.Reset()
	op.Blend = ebiten.BlendCopy
	op.Filter = ebiten.FilterNearest
	current := take(area.Width, area.Height)
	current.DrawImage(p.sub(area), op)
	p.r.draws++

	current = p.kawase(current, params, take)

	out := take(area.Width, area.Height)
	m := params.ColorMatrix()
	matrix := make([]float32, len(m))
	for i, v := range m {
		matrix[i] = float32(v)
	}
	sop := &p.shaderOp
	sop.GeoM.Reset()
	sop.Blend = ebiten.BlendCopy
	sop.Images = [4]*ebiten.Image{current}
	sop.Uniforms = map[string]any{
		"Matrix": matrix,
		"Noise":  float32(params.Noise),
		"Origin": []float32{float32(area.X), float32(area.Y)},
	}
	out.DrawRectShader(area.Width, area.Height, ensureBlurEffectsShader(), sop)
	p.r.draws++
	return blurred{img: out, box: area, release: release}, true
}

// kawase runs a dual kawase blur. Each down pass halves the image while
// averaging four bilinear taps offset by the radius; up passes scale back
// with bilinear filtering.
func (p *Pass) kawase(src *ebiten.Image, params fxscene.BlurParams, take func(w, h int) *ebiten.Image) *ebiten.Image {
	if params.Radius <= 0 || params.Passes <= 0 {
		return src
	}
	op := &p.imgOp
	chain := []*ebiten.Image{src}
	current := src
	off := float64(params.Radius)
	taps := [4][2]float64{{-off, -off}, {off, -off}, {-off, off}, {off, off}}
	for range params.Passes {
		cw, ch := current.Bounds().Dx(), current.Bounds().Dy()
		w, h := max(cw/2, 1), max(ch/2, 1)
		next := take(w, h)
		for _, t := range taps {
			op.GeoM.Reset()
			op.GeoM.Translate(t[0], t[1])
			op.GeoM.Scale(float64(w)/float64(cw), float64(h)/float64(ch))
			op.ColorScale.Reset()
			op.ColorScale.Scale(0.25, 0.25, 0.25, 0.25)
			op.Blend = ebiten.BlendLighter
			op.Filter = ebiten.FilterLinear
			next.DrawImage(current, op)
			p.r.draws++
		}
		chain = append(chain, next)
		current = next
	}
	for i := len(chain) - 2; i >= 0; i-- {
		b := chain[i].Bounds()
		next := take(b.Dx(), b.Dy())
		op.GeoM.Reset()
		op.GeoM.Scale(float64(b.Dx())/float64(current.Bounds().Dx()), float64(b.Dy())/float64(current.Bounds().Dy()))
		op.ColorScale.Reset()
		op.Blend = ebiten.BlendCopy
		op.Filter = ebiten.FilterLinear
		next.DrawImage(current, op)
		p.r.draws++
		current = next
	}
	return current
}
