package ebitenrender

import (
	"errors"
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/fxscene"
)

// Pass records drawing into one target image.
type Pass struct {
	r         *Renderer
	dst       *ebiten.Image
	opts      fxscene.PassOptions
	err       error
	submitted bool

	shaderOp ebiten.DrawRectShaderOptions
	imgOp    ebiten.DrawImageOptions
}

func (p *Pass) bounds() fxscene.Box {
	b := p.dst.Bounds()
	return fxscene.Box{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
}

// sub returns the part of the target inside b. Draws on it are clipped to
// b but keep the target's coordinates.
func (p *Pass) sub(b fxscene.Box) *ebiten.Image {
	return p.dst.SubImage(rect(b)).(*ebiten.Image)
}

func rect(b fxscene.Box) image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// clipRects returns the parts of clip inside box and the target.
func (p *Pass) clipRects(box fxscene.Box, clip fxscene.Region) []fxscene.Box {
	b, ok := box.Intersect(p.bounds())
	if !ok {
		return nil
	}
	return clip.IntersectBox(b).Rects()
}

func (p *Pass) mustOpen() {
	if p.submitted {
		panic("ebitenrender: draw after submit")
	}
}

func boxUniform(b fxscene.Box) []float32 {
	return []float32{float32(b.X), float32(b.Y), float32(b.Width), float32(b.Height)}
}

func cornerUniform(c fxscene.CornerLocation) []float32 {
	bit := func(m fxscene.CornerLocation) float32 {
		if c&m != 0 {
			return 1
		}
		return 0
	}
	return []float32{
		bit(fxscene.CornerTopLeft),
		bit(fxscene.CornerTopRight),
		bit(fxscene.CornerBottomRight),
		bit(fxscene.CornerBottomLeft),
	}
}

func colorUniform(c fxscene.Color) []float32 {
	pm := c.Premultiplied()
	return []float32{float32(pm.R), float32(pm.G), float32(pm.B), float32(pm.A)}
}

// drawShader runs shader over box, clipped to every rect of clip.
func (p *Pass) drawShader(shader *ebiten.Shader, box fxscene.Box, clip fxscene.Region,
	uniforms map[string]any, images ...*ebiten.Image) {
	op := &p.shaderOp
	op.GeoM.Reset()
	op.GeoM.Translate(float64(box.X), float64(box.Y))
	op.Blend = ebiten.BlendSourceOver
	op.Uniforms = uniforms
	op.Images = [4]*ebiten.Image{}
	copy(op.Images[:], images)
	for _, c := range p.clipRects(box, clip) {
		p.sub(c).DrawRectShader(box.Width, box.Height, shader, op)
		p.r.draws++
	}
}

// DrawRect implements fxscene.RenderPass.
func (p *Pass) DrawRect(prim fxscene.RectPrimitive) {
	p.mustOpen()
	if prim.Box.Empty() {
		return
	}
	p.drawShader(ensureRectShader(), prim.Box, prim.Clip, map[string]any{
		"Box":           boxUniform(prim.Box),
		"Color":         colorUniform(prim.Color),
		"Radius":        float32(prim.CornerRadius),
		"Corners":       cornerUniform(prim.Corners),
		"Cutout":        boxUniform(prim.Cutout),
		"CutoutRadius":  float32(prim.CutoutRadius),
		"CutoutCorners": cornerUniform(prim.CutoutCorners),
	})
}

// DrawTexture implements fxscene.RenderPass.
func (p *Pass) DrawTexture(prim fxscene.TexturePrimitive) {
	p.mustOpen()
	if prim.Wait.Valid() && !prim.Wait.Timeline.Signaled(prim.Wait.Point) {
		p.err = errors.Join(p.err, fmt.Errorf("ebitenrender: texture sampled before sync point %d", prim.Wait.Point))
	}
	tmp := p.sample(prim)
	if tmp == nil {
		return
	}
	defer p.r.pool.release(tmp)
	box := prim.DstBox
	p.drawShader(ensureTextureShader(), box, prim.Clip, map[string]any{
		"Box":     boxUniform(box),
		"Radius":  float32(prim.CornerRadius),
		"Corners": cornerUniform(prim.Corners),
		"Alpha":   float32(prim.Alpha),
	}, view(tmp, box.Width, box.Height))
}

// sample draws the texture region of prim, oriented and scaled to the size
// of DstBox, into a pooled image. The caller releases it.
func (p *Pass) sample(prim fxscene.TexturePrimitive) *ebiten.Image {
	tex, ok := prim.Texture.(*Texture)
	if !ok || tex.destroyed || prim.DstBox.Empty() {
		return nil
	}
	src := tex.img
	sw, sh := float64(tex.Width()), float64(tex.Height())
	if sb := prim.SrcBox; !sb.Empty() {
		r := image.Rect(int(sb.X), int(sb.Y), int(sb.X+sb.Width+0.999), int(sb.Y+sb.Height+0.999))
		src = src.SubImage(r.Add(src.Bounds().Min)).(*ebiten.Image)
		sw, sh = float64(src.Bounds().Dx()), float64(src.Bounds().Dy())
	}
	box := prim.DstBox
	tmp := p.r.pool.acquire(box.Width, box.Height)

	op := &p.imgOp
	op.GeoM = orientGeoM(prim.Transform, sw, sh)
	ow, oh := sw, sh
	if prim.Transform.SwapsAxes() {
		ow, oh = sh, sw
	}
	op.GeoM.Scale(float64(box.Width)/ow, float64(box.Height)/oh)
	op.ColorScale.Reset()
	op.Blend = ebiten.BlendCopy
	op.Filter = ebiten.FilterLinear
	if prim.Filter == fxscene.FilterNearest {
		op.Filter = ebiten.FilterNearest
	}
	tmp.DrawImage(src, op)
	p.r.draws++
	return tmp
}

// orientGeoM maps a w×h image onto itself with t applied, matching
// fxscene.TransformBox.
func orientGeoM(t fxscene.Transform, w, h float64) ebiten.GeoM {
	var g ebiten.GeoM
	// a, b, c, d, tx, ty with x' = a*x + b*y + tx and y' = c*x + d*y + ty.
	set := func(a, b, c, d, tx, ty float64) {
		g.SetElement(0, 0, a)
		g.SetElement(0, 1, b)
		g.SetElement(1, 0, c)
		g.SetElement(1, 1, d)
		g.SetElement(0, 2, tx)
		g.SetElement(1, 2, ty)
	}
	switch t {
	case fxscene.Transform90:
		set(0, -1, 1, 0, h, 0)
	case fxscene.Transform180:
		set(-1, 0, 0, -1, w, h)
	case fxscene.Transform270:
		set(0, 1, -1, 0, 0, w)
	case fxscene.TransformFlipped:
		set(-1, 0, 0, 1, w, 0)
	case fxscene.TransformFlipped90:
		set(0, 1, 1, 0, 0, 0)
	case fxscene.TransformFlipped180:
		set(1, 0, 0, -1, 0, h)
	case fxscene.TransformFlipped270:
		set(0, -1, -1, 0, h, w)
	}
	return g
}

// DrawShadow implements fxscene.RenderPass.
func (p *Pass) DrawShadow(prim fxscene.ShadowPrimitive) {
	p.mustOpen()
	if prim.Box.Empty() {
		return
	}
	sigma := prim.BlurSigma
	inset := int(sigma + 0.5)
	shape := fxscene.Box{
		X:      prim.Box.X + inset,
		Y:      prim.Box.Y + inset,
		Width:  prim.Box.Width - 2*inset,
		Height: prim.Box.Height - 2*inset,
	}
	if sigma <= 0 {
		p.DrawRect(fxscene.RectPrimitive{Box: shape, Clip: prim.Clip, Color: prim.Color,
			CornerRadius: prim.CornerRadius, Corners: fxscene.CornerAll})
		return
	}
	p.drawShader(ensureShadowShader(), prim.Box, prim.Clip, map[string]any{
		"Shape":  boxUniform(shape),
		"Color":  colorUniform(prim.Color),
		"Radius": float32(prim.CornerRadius),
		"Sigma":  float32(sigma),
	})
}

// Submit implements fxscene.RenderPass.
func (p *Pass) Submit() error {
	if p.submitted {
		return errors.New("ebitenrender: pass submitted twice")
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
