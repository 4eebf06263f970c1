package fxscene

import (
	"errors"
	"fmt"
	"math"
)

// BlurParams configure the backdrop blur shared by every node in a scene.
type BlurParams struct {
	Enabled    bool
	Radius     int
	Passes     int
	Noise      float64
	Brightness float64
	Contrast   float64
	Saturation float64
}

// Limits for BlurParams fields.
const (
	MaxBlurRadius = 10
	MaxBlurPasses = 10
)

// DefaultBlurParams returns the parameters a new scene starts with.
func DefaultBlurParams() BlurParams {
	return BlurParams{
		Enabled:    true,
		Radius:     5,
		Passes:     1,
		Noise:      0.02,
		Brightness: 0.9,
		Contrast:   0.9,
		Saturation: 1.1,
	}
}

// Active reports whether the parameters produce any blur at all.
func (p BlurParams) Active() bool {
	return p.Enabled && p.Radius > 0 && p.Passes > 0
}

// Size returns how far, in pixels, a blurred pixel may sample from. Damage
// under a blurring node is expanded by this amount.
func (p BlurParams) Size() int {
	if p.Passes <= 0 {
		return 0
	}
	return int(math.Pow(2, float64(p.Passes+1))) * p.Radius
}

// Validate checks every field against its range.
func (p BlurParams) Validate() error {
	return errors.Join(
		checkIntRange("blur radius", p.Radius, 0, MaxBlurRadius),
		checkIntRange("blur passes", p.Passes, 0, MaxBlurPasses),
		checkRange("blur noise", p.Noise, 0, 1),
		checkRange("blur brightness", p.Brightness, 0, 2),
		checkRange("blur contrast", p.Contrast, 0, 2),
		checkRange("blur saturation", p.Saturation, 0, 2),
	)
}

// Shadow sigma limits.
const (
	MinShadowSigma = 0
	MaxShadowSigma = 99
)

// ShadowBox returns the footprint of a drop shadow for content occupying
// box: the box grown by sigma on every side.
func ShadowBox(content Box, sigma float64) Box {
	s := int(math.Ceil(sigma))
	return Box{content.X - s, content.Y - s, content.Width + 2*s, content.Height + 2*s}
}

func checkRange(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return &RangeError{Field: field, Value: v, Min: lo, Max: hi}
	}
	return nil
}

func checkIntRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return &RangeError{Field: field, Value: float64(v), Min: float64(lo), Max: float64(hi)}
	}
	return nil
}

func checkNonNegative(field string, v int) error {
	if v < 0 {
		return fmt.Errorf("%s must be a non-negative integer, got %d: %w", field, v, ErrOutOfRange)
	}
	return nil
}

// shouldBlurRect reports whether a rect blurs what is behind it.
func shouldBlurRect(n *Node, p BlurParams) bool {
	return n.rect.backdropBlur && p.Active() && n.rect.color.A < 1
}

// shouldBlurBuffer reports whether a buffer node blurs what is behind it.
func shouldBlurBuffer(n *Node, p BlurParams) bool {
	b := &n.buffer
	return b.backdropBlur && p.Active() && (!b.bufferIsOpaque || b.opacity < 1)
}

// ShouldBlur reports whether n currently needs a backdrop blur pass under
// the scene's blur parameters.
func (n *Node) ShouldBlur() bool {
	s := n.Scene()
	switch n.Type {
	case NodeTypeRect:
		return shouldBlurRect(n, s.blur)
	case NodeTypeBuffer:
		return shouldBlurBuffer(n, s.blur)
	}
	return false
}
