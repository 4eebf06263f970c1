package fxscene

import (
	"time"
)

// FrameStats describes one Output.Commit.
type FrameStats struct {
	Output string
	When   time.Time
	// Skipped is set when nothing needed repainting.
	Skipped       bool
	DirectScanout bool

	Entries        int
	Rects          int
	Textures       int
	Shadows        int
	Blurs          int
	BlurCaptures   int
	ImportFailures int

	// Damage is the repainted area in buffer pixels.
	Damage     Region
	DamageArea int
	Duration   time.Duration
}

// DrawCalls is the number of primitives submitted.
func (st FrameStats) DrawCalls() int {
	return st.Rects + st.Textures + st.Shadows + st.Blurs + st.BlurCaptures
}

func (o *Output) finishStats(f *frame) {
	o.lastFrame = f.stats
	o.scene.debugLog(f.stats)
	o.Events.Commit.Emit(f.stats)
}

// debugLog logs per-frame metrics. Only active when SceneOptions.Debug is
// set.
func (s *Scene) debugLog(st FrameStats) {
	if !s.opts.Debug {
		return
	}
	if st.Skipped {
		Logger().Debug("fxscene: frame skipped", "output", st.Output)
		return
	}
	Logger().Debug("fxscene: frame",
		"output", st.Output,
		"entries", st.Entries,
		"draw_calls", st.DrawCalls(),
		"blurs", st.Blurs,
		"captures", st.BlurCaptures,
		"damage", st.DamageArea,
		"scanout", st.DirectScanout,
		"took", st.Duration)
}

// highlightFadeout is how long highlighted damage stays on screen.
const highlightFadeout = 250 * time.Millisecond

type highlightRegion struct {
	region Region
	when   time.Time
}

// updateHighlights records this frame's damage for highlighting and damages
// every region still fading out, plus those that just expired so they are
// repainted without the overlay.
func (o *Output) updateHighlights(now time.Time) {
	if pending := o.ring.Current(); !pending.Empty() {
		o.highlights = append([]highlightRegion{{region: pending, when: now}}, o.highlights...)
	}
	var acc Region
	kept := make([]highlightRegion, 0, len(o.highlights))
	for _, h := range o.highlights {
		h.region = h.region.Subtract(acc)
		acc = acc.Union(h.region)
		if h.region.Empty() || now.Sub(h.when) >= highlightFadeout {
			continue
		}
		kept = append(kept, h)
	}
	o.highlights = kept
	o.ring.Add(acc)
}

// renderHighlights draws translucent red over recently damaged areas,
// fading out over highlightFadeout.
func (o *Output) renderHighlights(pass RenderPass, f *frame, now time.Time) {
	for _, h := range o.highlights {
		clip := h.region.Intersect(f.damage)
		if clip.Empty() {
			continue
		}
		alpha := 1 - float64(now.Sub(h.when))/float64(highlightFadeout)
		pass.DrawRect(RectPrimitive{
			Box:   h.region.Extents(),
			Clip:  clip,
			Color: Color{1, 0, 0, alpha * 0.5},
		})
	}
}

// debugMaxTreeDepth is the depth above which debug mode warns.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().Warn("fxscene: deep scene tree", "node", n.ID, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// debugMaxChildCount is the child count above which debug mode warns.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().Warn("fxscene: tree has many children", "node", n.ID,
			"children", len(n.children), "threshold", debugMaxChildCount)
	}
}
