package ebitenrender

import "github.com/hajimehoshi/ebiten/v2"

// --- Kage shader sources ---
// All shaders use //kage:unit pixels, so dst.xy is the target pixel
// position. Ebitengine uses premultiplied alpha.

// roundedAlphaSrc is shared by every shader that clips to a rounded box.
// Corners holds 1 for each rounded corner, in the order top-left,
// top-right, bottom-right, bottom-left.
const roundedAlphaSrc = `
func roundedAlpha(p vec2, b vec4, r float, corners vec4) float {
	if b.z <= 0 || b.w <= 0 {
		return 0
	}
	half := b.zw / 2
	q := p - (b.xy + half)
	rr := 0.0
	if q.x < 0 && q.y < 0 {
		rr = r * corners.x
	} else if q.y < 0 {
		rr = r * corners.y
	} else if q.x >= 0 {
		rr = r * corners.z
	} else {
		rr = r * corners.w
	}
	rr = min(rr, min(half.x, half.y))
	d := abs(q) - half + rr
	dist := length(max(d, vec2(0))) + min(max(d.x, d.y), 0) - rr
	return clamp(0.5-dist, 0, 1)
}
`

const rectShaderSrc = `//kage:unit pixels
package main

var Box vec4
var Color vec4
var Radius float
var Corners vec4
var Cutout vec4
var CutoutRadius float
var CutoutCorners vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	a := roundedAlpha(dst.xy, Box, Radius, Corners)
	if Cutout.z > 0 && Cutout.w > 0 {
		a *= 1 - roundedAlpha(dst.xy, Cutout, CutoutRadius, CutoutCorners)
	}
	return Color * a
}
` + roundedAlphaSrc

const textureShaderSrc = `//kage:unit pixels
package main

var Box vec4
var Radius float
var Corners vec4
var Alpha float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	return imageSrc0At(src) * Alpha * roundedAlpha(dst.xy, Box, Radius, Corners)
}
` + roundedAlphaSrc

// shadowShaderSrc is the closed-form gaussian blurred rounded box by Evan
// Wallace: the box is integrated exactly along x and sampled along y.
const shadowShaderSrc = `//kage:unit pixels
package main

var Shape vec4
var Color vec4
var Radius float
var Sigma float

func gaussian(x, sigma float) float {
	return exp(-(x*x)/(2*sigma*sigma)) / (2.5066282746 * sigma)
}

func erf2(x vec2) vec2 {
	s := sign(x)
	a := abs(x)
	y := 1 + (0.278393+(0.230389+0.078108*(a*a))*a)*a
	y *= y
	return s - s/(y*y)
}

func shadowX(x, y, sigma, corner float, half vec2) float {
	delta := min(half.y-corner-abs(y), 0)
	curved := half.x - corner + sqrt(max(0, corner*corner-delta*delta))
	integral := 0.5 + 0.5*erf2((vec2(x)+vec2(-curved, curved))*(0.7071067812/sigma))
	return integral.y - integral.x
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	half := Shape.zw / 2
	p := dst.xy - (Shape.xy + half)
	corner := min(Radius, min(half.x, half.y))
	low := p.y - half.y
	high := p.y + half.y
	start := clamp(-3*Sigma, low, high)
	end := clamp(3*Sigma, low, high)
	step := (end - start) / 4
	y := start + step*0.5
	v := 0.0
	for i := 0; i < 4; i++ {
		v += shadowX(p.x, p.y-y, Sigma, corner, half) * gaussian(y, Sigma) * step
		y += step
	}
	return Color * clamp(v, 0, 1)
}
`

// blurEffectsShaderSrc applies the post-blur color matrix and noise.
// Matrix is row-major 4x5 on straight alpha, offsets in elements 4, 9, 14
// and 19.
const blurEffectsShaderSrc = `//kage:unit pixels
package main

var Matrix [20]float
var Noise float
var Origin vec2

func hash(p vec2) float {
	return fract(sin(dot(p, vec2(12.9898, 78.233))) * 43758.5453)
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a == 0 {
		return c
	}
	c.rgb /= c.a
	r := Matrix[0]*c.r + Matrix[1]*c.g + Matrix[2]*c.b + Matrix[3]*c.a + Matrix[4]
	g := Matrix[5]*c.r + Matrix[6]*c.g + Matrix[7]*c.b + Matrix[8]*c.a + Matrix[9]
	b := Matrix[10]*c.r + Matrix[11]*c.g + Matrix[12]*c.b + Matrix[13]*c.a + Matrix[14]
	a := Matrix[15]*c.r + Matrix[16]*c.g + Matrix[17]*c.b + Matrix[18]*c.a + Matrix[19]
	n := (hash(floor(Origin+src)) - 0.5) * Noise
	r = clamp(r+n, 0, 1)
	g = clamp(g+n, 0, 1)
	b = clamp(b+n, 0, 1)
	a = clamp(a, 0, 1)
	return vec4(r*a, g*a, b*a, a)
}
`

// blurCompositeShaderSrc draws a blurred backdrop inside a rounded box.
// With HasMask set, pixels the mask leaves transparent are skipped.
const blurCompositeShaderSrc = `//kage:unit pixels
package main

var Box vec4
var Radius float
var Corners vec4
var Alpha float
var HasMask float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	a := Alpha * roundedAlpha(dst.xy, Box, Radius, Corners)
	if HasMask > 0 && imageSrc1At(src-imageSrc0Origin()+imageSrc1Origin()).a == 0 {
		a = 0
	}
	return imageSrc0At(src) * a
}
` + roundedAlphaSrc

// --- Lazy shader compilation (no sync.Once, rendering is single-threaded) ---

var (
	rectShader          *ebiten.Shader
	textureShader       *ebiten.Shader
	shadowShader        *ebiten.Shader
	blurEffectsShader   *ebiten.Shader
	blurCompositeShader *ebiten.Shader
)

func ensureShader(s **ebiten.Shader, name, src string) *ebiten.Shader {
	if *s == nil {
		sh, err := ebiten.NewShader([]byte(src))
		if err != nil {
			panic("ebitenrender: failed to compile " + name + " shader: " + err.Error())
		}
		*s = sh
	}
	return *s
}

func ensureRectShader() *ebiten.Shader {
	return ensureShader(&rectShader, "rect", rectShaderSrc)
}

func ensureTextureShader() *ebiten.Shader {
	return ensureShader(&textureShader, "texture", textureShaderSrc)
}

func ensureShadowShader() *ebiten.Shader {
	return ensureShader(&shadowShader, "shadow", shadowShaderSrc)
}

func ensureBlurEffectsShader() *ebiten.Shader {
	return ensureShader(&blurEffectsShader, "blur effects", blurEffectsShaderSrc)
}

func ensureBlurCompositeShader() *ebiten.Shader {
	return ensureShader(&blurCompositeShader, "blur composite", blurCompositeShaderSrc)
}
