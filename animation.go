package fxscene

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 values of a node property at once. Create one
// with the Tween constructors and call Update(dt) from the frame loop; the
// group writes values through the node's setters, so damage is tracked as
// for any other change. If the target node is destroyed, the group stops.
//
// There is no global animation manager; callers drive Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	apply  func(v [4]float32)
	target NodeRef
	Done   bool
}

// Update advances the tweens by dt seconds and applies the values.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target.Resolve() == nil {
		g.Done = true
		return
	}

	var vals [4]float32
	allDone := true
	for i := 0; i < g.count; i++ {
		v, finished := g.tweens[i].Update(dt)
		vals[i] = v
		if !finished {
			allDone = false
		}
	}
	g.apply(vals)
	g.Done = allDone
}

// TweenPosition moves node to (toX, toY).
func TweenPosition(node *Node, toX, toY int, duration float32, fn ease.TweenFunc) *TweenGroup {
	x, y := node.Position()
	g := &TweenGroup{count: 2, target: node.Ref()}
	g.tweens[0] = gween.New(float32(x), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(y), float32(toY), duration, fn)
	g.apply = func(v [4]float32) {
		node.SetPosition(int(math.Round(float64(v[0]))), int(math.Round(float64(v[1]))))
	}
	return g
}

// TweenOpacity fades a buffer node to the given opacity.
func TweenOpacity(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	node.mustType(NodeTypeBuffer)
	g := &TweenGroup{count: 1, target: node.Ref()}
	g.tweens[0] = gween.New(float32(node.Opacity()), float32(clamp01(to)), duration, fn)
	g.apply = func(v [4]float32) {
		_ = node.SetOpacity(clamp01(float64(v[0])))
	}
	return g
}

// TweenColor animates all four components of a rect or shadow color.
func TweenColor(node *Node, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := node.Color()
	g := &TweenGroup{count: 4, target: node.Ref()}
	g.tweens[0] = gween.New(float32(from.R), float32(to.R), duration, fn)
	g.tweens[1] = gween.New(float32(from.G), float32(to.G), duration, fn)
	g.tweens[2] = gween.New(float32(from.B), float32(to.B), duration, fn)
	g.tweens[3] = gween.New(float32(from.A), float32(to.A), duration, fn)
	g.apply = func(v [4]float32) {
		node.SetColor(Color{
			R: clamp01(float64(v[0])),
			G: clamp01(float64(v[1])),
			B: clamp01(float64(v[2])),
			A: clamp01(float64(v[3])),
		})
	}
	return g
}

// TweenBlurSigma animates a shadow's blur sigma.
func TweenBlurSigma(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	node.mustType(NodeTypeShadow)
	g := &TweenGroup{count: 1, target: node.Ref()}
	g.tweens[0] = gween.New(float32(node.BlurSigma()), float32(to), duration, fn)
	g.apply = func(v [4]float32) {
		sigma := math.Min(math.Max(float64(v[0]), MinShadowSigma), MaxShadowSigma)
		_ = node.SetBlurSigma(sigma)
	}
	return g
}

// TweenCornerRadius animates the corner radius of a rect, shadow or buffer.
func TweenCornerRadius(node *Node, to int, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: node.Ref()}
	g.tweens[0] = gween.New(float32(node.CornerRadius()), float32(max(to, 0)), duration, fn)
	g.apply = func(v [4]float32) {
		_ = node.SetCornerRadius(max(int(math.Round(float64(v[0]))), 0))
	}
	return g
}
