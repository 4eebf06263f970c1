package fxscene

import (
	"os"
	"strings"
)

// DebugDamage selects a damage debugging mode.
type DebugDamage uint8

const (
	// DebugDamageNone renders normally.
	DebugDamageNone DebugDamage = iota
	// DebugDamageRerender repaints every output completely on every frame.
	DebugDamageRerender
	// DebugDamageHighlight paints recent damage as fading red overlays.
	DebugDamageHighlight
)

// ParseDebugDamage converts "none", "rerender" or "highlight".
func ParseDebugDamage(s string) (DebugDamage, bool) {
	switch s {
	case "", "none":
		return DebugDamageNone, true
	case "rerender":
		return DebugDamageRerender, true
	case "highlight":
		return DebugDamageHighlight, true
	}
	return DebugDamageNone, false
}

func (d DebugDamage) String() string {
	switch d {
	case DebugDamageRerender:
		return "rerender"
	case DebugDamageHighlight:
		return "highlight"
	}
	return "none"
}

const defaultDamageRingDepth = 4

// SceneOptions configure a Scene. The zero value is a valid configuration.
type SceneOptions struct {
	DebugDamage                DebugDamage
	DisableDirectScanout       bool
	DisableVisibility          bool
	HighlightTransparentRegion bool

	// DamageRingDepth is how many previous frames of damage each output
	// remembers. Buffers older than that are repainted completely.
	// Defaults to 4.
	DamageRingDepth int

	// TextureCacheSize bounds the number of imported textures. Defaults to 64.
	TextureCacheSize int

	// Debug enables extra diagnostics: per-frame statistics and warnings
	// about subscriptions left open when nodes are destroyed.
	Debug bool
}

// OptionsFromEnv reads SceneOptions from FXSCENE_DEBUG_DAMAGE,
// FXSCENE_DISABLE_DIRECT_SCANOUT, FXSCENE_DISABLE_VISIBILITY,
// FXSCENE_HIGHLIGHT_TRANSPARENT_REGION and FXSCENE_DEBUG. Unknown values are
// logged and ignored.
func OptionsFromEnv() SceneOptions {
	var opts SceneOptions
	if v, ok := os.LookupEnv("FXSCENE_DEBUG_DAMAGE"); ok {
		d, valid := ParseDebugDamage(strings.ToLower(v))
		if !valid {
			Logger().Warn("fxscene: unknown FXSCENE_DEBUG_DAMAGE value", "value", v)
		}
		opts.DebugDamage = d
	}
	opts.DisableDirectScanout = envBool("FXSCENE_DISABLE_DIRECT_SCANOUT")
	opts.DisableVisibility = envBool("FXSCENE_DISABLE_VISIBILITY")
	opts.HighlightTransparentRegion = envBool("FXSCENE_HIGHLIGHT_TRANSPARENT_REGION")
	opts.Debug = envBool("FXSCENE_DEBUG")
	return opts
}

func envBool(name string) bool {
	switch strings.ToLower(os.Getenv(name)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Scene owns the node tree, the output bindings and the blur parameters.
// It is single-threaded: all calls must come from one goroutine.
type Scene struct {
	root    *Node
	outputs []*Output
	opts    SceneOptions

	blur        BlurParams
	blurVersion uint64

	textures *textureCache

	// usedIndices has one bit per output index in use.
	usedIndices uint64
}

// NewScene creates a scene with an empty root tree. opts may be nil.
func NewScene(opts *SceneOptions) *Scene {
	s := &Scene{blur: DefaultBlurParams(), blurVersion: 1}
	if opts != nil {
		s.opts = *opts
	}
	if s.opts.DamageRingDepth <= 0 {
		s.opts.DamageRingDepth = defaultDamageRingDepth
	}
	s.textures = newTextureCache(s.opts.TextureCacheSize)
	s.root = &Node{
		ID:      nextNodeID(),
		Name:    "root",
		Type:    NodeTypeTree,
		scene:   s,
		enabled: true,
	}
	return s
}

// Root returns the scene's root tree. Destroying it destroys the scene.
func (s *Scene) Root() *Node {
	return s.root
}

// Options returns the options the scene was created with.
func (s *Scene) Options() SceneOptions {
	return s.opts
}

// Outputs returns the bound outputs in creation order.
func (s *Scene) Outputs() []*Output {
	out := make([]*Output, len(s.outputs))
	copy(out, s.outputs)
	return out
}

// BlurParams returns the current blur parameters.
func (s *Scene) BlurParams() BlurParams {
	return s.blur
}

// BlurVersion is incremented whenever the blur parameters change.
func (s *Scene) BlurVersion() uint64 {
	return s.blurVersion
}

// SetBlurParams validates and installs p. Invalid parameters are rejected
// without changing anything. Setting the current value is a no-op;
// otherwise cached blurs are invalidated and every output is damaged.
func (s *Scene) SetBlurParams(p BlurParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p == s.blur {
		return nil
	}
	s.blur = p
	s.blurVersion++
	for _, o := range s.outputs {
		o.DamageWhole()
	}
	return nil
}

// SetBlurEnabled turns backdrop blur on or off.
func (s *Scene) SetBlurEnabled(enabled bool) {
	p := s.blur
	p.Enabled = enabled
	_ = s.SetBlurParams(p)
}

// SetBlurRadius sets the blur radius in [0, MaxBlurRadius].
func (s *Scene) SetBlurRadius(r int) error {
	p := s.blur
	p.Radius = r
	return s.SetBlurParams(p)
}

// SetBlurPasses sets the number of blur passes in [0, MaxBlurPasses].
func (s *Scene) SetBlurPasses(n int) error {
	p := s.blur
	p.Passes = n
	return s.SetBlurParams(p)
}

// SetBlurNoise sets the blur noise in [0, 1].
func (s *Scene) SetBlurNoise(v float64) error {
	p := s.blur
	p.Noise = v
	return s.SetBlurParams(p)
}

// SetBlurBrightness sets the blur brightness in [0, 2].
func (s *Scene) SetBlurBrightness(v float64) error {
	p := s.blur
	p.Brightness = v
	return s.SetBlurParams(p)
}

// SetBlurContrast sets the blur contrast in [0, 2].
func (s *Scene) SetBlurContrast(v float64) error {
	p := s.blur
	p.Contrast = v
	return s.SetBlurParams(p)
}

// SetBlurSaturation sets the blur saturation in [0, 2].
func (s *Scene) SetBlurSaturation(v float64) error {
	p := s.blur
	p.Saturation = v
	return s.SetBlurParams(p)
}

// ResetTextures destroys every imported texture. Use it after the renderer
// lost its context; textures are re-imported lazily by the next commit.
func (s *Scene) ResetTextures() {
	s.textures.purge()
	for o := range s.allOptimizedBlurs() {
		o.blur.releaseCaches()
	}
}

// allOptimizedBlurs yields every optimized blur node, enabled or not.
func (s *Scene) allOptimizedBlurs() func(func(*Node) bool) {
	return func(yield func(*Node) bool) {
		var walk func(n *Node) bool
		walk = func(n *Node) bool {
			if n.Type == NodeTypeOptimizedBlur && !yield(n) {
				return false
			}
			for _, c := range n.children {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(s.root)
	}
}

// Destroy destroys the scene root.
func (s *Scene) Destroy() {
	s.root.Destroy()
}
