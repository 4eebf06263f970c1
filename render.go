package fxscene

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// renderEntry is one node to paint on one output.
type renderEntry struct {
	node *Node
	// x, y is the node position in the layout.
	x, y int
	// visible is the node's visible region clipped to the output.
	visible Region
}

type optimizedEntry struct {
	box   Box
	cache *BlurCache
}

// frame is the state of one commit in progress.
type frame struct {
	entries   []renderEntry
	damage    Region
	bounds    Box
	blur      BlurParams
	optimized []optimizedEntry
	sampled   []*Node
	stats     FrameStats
}

// CommitOptions tune a single commit. The zero value is fine.
type CommitOptions struct {
	// Now is the frame time used for damage highlighting. Defaults to
	// time.Now.
	Now time.Time
}

// Commit composes and presents a frame if anything changed since the last
// one. When nothing needs repainting no frame is presented and frame-done is
// sent right away. Otherwise the output moves to FramePresented and further
// commits fail with ErrFramePending until HandlePresent is called.
//
// On a renderer or display failure the frame's damage is kept for the next
// attempt and the error is returned; a lost context is reported as
// ErrContextLost by the renderer.
func (o *Output) Commit(opts *CommitOptions) error {
	o.mustAlive()
	if o.state == FramePresented {
		return fmt.Errorf("commit %q: %w", o.Name(), ErrFramePending)
	}
	if o.renderer == nil {
		return fmt.Errorf("commit %q: %w", o.Name(), ErrNoRenderer)
	}
	s := o.scene
	start := time.Now()
	now := start
	if opts != nil && !opts.Now.IsZero() {
		now = opts.Now
	}
	if o.geometryChanged() {
		o.HandleModeChange()
	}

	f := &frame{
		entries: o.buildRenderList(),
		blur:    s.blur,
		stats:   FrameStats{Output: o.Name(), When: now},
	}
	rw, rh := o.display.Resolution()
	f.bounds = Box{0, 0, rw, rh}
	f.stats.Entries = len(f.entries)
	o.state = FrameVisibilityComputed

	switch s.opts.DebugDamage {
	case DebugDamageRerender:
		o.ring.AddWhole()
	case DebugDamageHighlight:
		o.updateHighlights(now)
	}

	if !o.NeedsFrame() {
		o.state = FrameIdle
		f.stats.Skipped = true
		f.stats.Duration = time.Since(start)
		o.finishStats(f)
		o.SendFrameDone(now)
		return nil
	}

	if state, n, ok := o.directScanoutCandidate(f.entries); ok {
		o.state = FrameDamageResolved
		err := o.display.Commit(state)
		if err == nil {
			o.ring.RotateBuffer(state.Buffer)
			if !o.prevScanout {
				Logger().Debug("fxscene: direct scan-out enabled", "output", o.Name())
			}
			o.prevScanout = true
			o.state = FramePresented
			f.stats.DirectScanout = true
			f.stats.Duration = time.Since(start)
			o.finishStats(f)
			n.Events.OutputSample.Emit(OutputSampleEvent{Output: o, DirectScanout: true})
			return nil
		}
		Logger().Debug("fxscene: direct scan-out rejected", "output", o.Name(), "err", err)
	}
	if o.prevScanout {
		Logger().Debug("fxscene: direct scan-out disabled", "output", o.Name())
		o.prevScanout = false
		o.ring.AddWhole()
	}

	back, err := o.display.AcquireBuffer()
	if err != nil {
		o.state = FrameIdle
		return fmt.Errorf("commit %q: acquire buffer: %w", o.Name(), err)
	}
	f.damage = o.expandBlurDamage(f, o.ring.RotateBuffer(back))
	o.state = FrameDamageResolved

	signal := o.nextSyncPoint()
	pass, err := o.renderer.BeginPass(back, PassOptions{
		Damage:     f.damage,
		Background: o.background(f),
		Signal:     signal,
	})
	if err != nil {
		return o.failFrame(f, "begin pass", err)
	}
	o.state = FramePainting
	for i := range f.entries {
		o.renderEntry(pass, f, i)
	}
	o.renderHighlights(pass, f, now)
	if err := pass.Submit(); err != nil {
		return o.failFrame(f, "submit pass", err)
	}
	if err := o.display.Commit(OutputState{Buffer: back, Damage: f.damage, Wait: signal}); err != nil {
		return o.failFrame(f, "display commit", err)
	}
	o.state = FramePresented

	f.stats.Damage = f.damage
	f.stats.DamageArea = f.damage.Area()
	f.stats.Duration = time.Since(start)
	o.finishStats(f)
	for _, n := range f.sampled {
		if !n.destroyed {
			n.Events.OutputSample.Emit(OutputSampleEvent{Output: o})
		}
	}
	return nil
}

// background returns the damage left uncovered by opaque nodes.
func (o *Output) background(f *frame) Region {
	bg := f.damage
	for _, e := range f.entries {
		opaque := e.visible.Intersect(e.node.opaqueRegion(e.x, e.y))
		for _, r := range opaque.Rects() {
			bg = bg.SubtractBox(o.boxToBuffer(r))
		}
	}
	return bg
}

func (o *Output) failFrame(f *frame, step string, err error) error {
	o.ring.Add(f.damage)
	o.state = FrameIdle
	return fmt.Errorf("commit %q: %s: %w", o.Name(), step, err)
}

func (o *Output) nextSyncPoint() SyncPoint {
	if o.timeline == nil && !o.timelineErr {
		tl, err := o.renderer.CreateTimeline()
		if err != nil {
			Logger().Warn("fxscene: timeline creation failed, presenting without sync",
				"output", o.Name(), "err", err)
			o.timelineErr = true
		}
		o.timeline = tl
	}
	if o.timeline == nil {
		return SyncPoint{}
	}
	o.timelinePoint++
	return SyncPoint{Timeline: o.timeline, Point: o.timelinePoint}
}

// buildRenderList collects the nodes of the bound tree visible on the
// output, in paint order.
func (o *Output) buildRenderList() []renderEntry {
	bound := o.Bound()
	if _, _, ok := bound.Coords(); !ok {
		return nil
	}
	s := o.scene
	box := o.layoutBox()
	px, py := bound.origin()
	var list []renderEntry
	bound.nodesInBox(box, px, py, func(n *Node, x, y int) bool {
		vis := n.visibleOn(o).IntersectBox(box)
		if vis.Empty() {
			return false
		}
		switch n.Type {
		case NodeTypeRect:
			if n.rect.color.A == 0 && !shouldBlurRect(n, s.blur) {
				return false
			}
		case NodeTypeShadow:
			if n.shadow.color.A == 0 {
				return false
			}
		case NodeTypeBuffer:
			if !n.buffer.hasContent() || n.buffer.opacity == 0 {
				return false
			}
		case NodeTypeOptimizedBlur:
			if !s.blur.Active() {
				return false
			}
		}
		list = append(list, renderEntry{node: n, x: x, y: y, visible: vis})
		return false
	})
	slices.Reverse(list)
	return list
}

// directScanoutCandidate reports whether the frame consists of a single
// buffer that can be shown without compositing.
func (o *Output) directScanoutCandidate(entries []renderEntry) (OutputState, *Node, bool) {
	s := o.scene
	if s.opts.DisableDirectScanout || s.opts.DebugDamage == DebugDamageHighlight ||
		s.opts.HighlightTransparentRegion || len(entries) != 1 {
		return OutputState{}, nil, false
	}
	e := entries[0]
	n := e.node
	if n.Type != NodeTypeBuffer {
		return OutputState{}, nil, false
	}
	b := &n.buffer
	if b.buf == nil || b.opacity != 1 || b.cornerRadius != 0 || shouldBlurBuffer(n, s.blur) {
		return OutputState{}, nil, false
	}
	if _, single := b.buf.SinglePixelColor(); single {
		return OutputState{}, nil, false
	}
	w, h := n.Size()
	if !(Box{e.x, e.y, w, h}).Equal(o.layoutBox()) || b.transform != o.display.Transform() {
		return OutputState{}, nil, false
	}
	bw, bh := b.buf.Width(), b.buf.Height()
	if b.srcBox != (FBox{}) && b.srcBox != (FBox{0, 0, float64(bw), float64(bh)}) {
		return OutputState{}, nil, false
	}
	if rw, rh := o.display.Resolution(); bw != rw || bh != rh {
		return OutputState{}, nil, false
	}
	state := OutputState{Buffer: b.buf, Damage: o.ring.Current(), DirectScanout: true, Wait: b.wait}
	if t, ok := o.display.(ScanoutTester); ok && !t.TestScanout(state) {
		return OutputState{}, nil, false
	}
	return state, n, true
}

// boxToBuffer converts a layout box to buffer pixels.
func (o *Output) boxToBuffer(b Box) Box {
	b = roundedScaleBox(b.Translate(-o.x, -o.y), o.scale())
	tw, th := o.transformedResolution()
	return TransformBox(b, o.display.Transform().Invert(), tw, th)
}

// regionToBuffer converts a layout region to buffer pixels, rounding
// outward.
func (o *Output) regionToBuffer(r Region) Region {
	r = scaleRegion(r.Translate(-o.x, -o.y), o.scale())
	tw, th := o.transformedResolution()
	return r.Transform(o.display.Transform().Invert(), tw, th)
}

func (o *Output) entryBox(e renderEntry) Box {
	w, h := e.node.Size()
	return o.boxToBuffer(Box{e.x, e.y, w, h})
}

func scaleRadius(r int, scale float64) int {
	return int(math.Round(float64(r) * scale))
}

// transformCorners maps a corner mask through the output transform.
func (o *Output) transformCorners(c CornerLocation) CornerLocation {
	t := o.display.Transform().Invert()
	if t == TransformNormal || c == CornerAll || c == CornerNone {
		return c
	}
	quads := [...]struct {
		loc CornerLocation
		box Box
	}{
		{CornerTopLeft, Box{0, 0, 1, 1}},
		{CornerTopRight, Box{1, 0, 1, 1}},
		{CornerBottomRight, Box{1, 1, 1, 1}},
		{CornerBottomLeft, Box{0, 1, 1, 1}},
	}
	var out CornerLocation
	for _, q := range quads {
		if c&q.loc == 0 {
			continue
		}
		b := TransformBox(q.box, t, 2, 2)
		for _, p := range quads {
			if p.box.X == b.X && p.box.Y == b.Y {
				out |= p.loc
			}
		}
	}
	return out
}

// blurCacheStale reports whether an optimized blur cache must be captured
// again for box.
func (o *Output) blurCacheStale(c *BlurCache, box Box) bool {
	return c == nil || !c.Valid() || c.Version != o.scene.blurVersion || c.Box != box
}

// expandBlurDamage grows damage so every blur reads freshly painted
// pixels. A blurred pixel samples up to BlurParams.Size() away, so a
// blurring node touched by damage is repainted completely along with that
// margin, and a stale optimized blur is repainted before it is captured.
func (o *Output) expandBlurDamage(f *frame, damage Region) Region {
	if !f.blur.Active() {
		return damage
	}
	size := int(math.Ceil(float64(f.blur.Size()) * o.scale()))
	for changed := true; changed; {
		changed = false
		for _, e := range f.entries {
			n := e.node
			box := o.entryBox(e)
			var need bool
			switch n.Type {
			case NodeTypeOptimizedBlur:
				need = o.blurCacheStale(n.blur.caches[o], box)
			case NodeTypeRect:
				need = shouldBlurRect(n, f.blur) && !n.rect.backdropBlurOptimized && damage.IntersectsBox(box)
			case NodeTypeBuffer:
				need = shouldBlurBuffer(n, f.blur) && !n.buffer.backdropBlurOptimized && damage.IntersectsBox(box)
			}
			if !need {
				continue
			}
			add := RegionFromBox(box).Expand(size).IntersectBox(f.bounds)
			if !add.Subtract(damage).Empty() {
				damage = damage.Union(add)
				changed = true
			}
		}
	}
	return damage
}

// renderEntry emits the primitives for f.entries[i].
func (o *Output) renderEntry(pass RenderPass, f *frame, i int) {
	e := f.entries[i]
	n := e.node
	box := o.entryBox(e)
	clip := o.regionToBuffer(e.visible).Intersect(f.damage)
	if clip.Empty() {
		return
	}
	scale := o.scale()

	switch n.Type {
	case NodeTypeRect:
		r := &n.rect
		radius := scaleRadius(r.cornerRadius, scale)
		corners := o.transformCorners(r.corners)
		if shouldBlurRect(n, f.blur) {
			o.renderBackdropBlur(pass, f, box, clip, radius, corners, r.backdropBlurOptimized, nil)
		}
		if r.color.A > 0 {
			prim := RectPrimitive{
				Box:          box,
				Clip:         clip,
				Color:        r.color,
				CornerRadius: radius,
				Corners:      corners,
			}
			if cb, ok := r.clippedBox(); ok {
				prim.Cutout = o.boxToBuffer(cb.Translate(e.x, e.y))
				prim.CutoutRadius = scaleRadius(r.clipped.CornerRadius, scale)
				prim.CutoutCorners = o.transformCorners(r.clipped.Corners)
			}
			pass.DrawRect(prim)
			f.stats.Rects++
		}

	case NodeTypeShadow:
		sh := &n.shadow
		pass.DrawShadow(ShadowPrimitive{
			Box:          box,
			Clip:         clip,
			Color:        sh.color,
			CornerRadius: scaleRadius(sh.cornerRadius, scale),
			BlurSigma:    sh.blurSigma * scale,
		})
		f.stats.Shadows++

	case NodeTypeBuffer:
		o.renderBuffer(pass, f, n, box, clip)

	case NodeTypeOptimizedBlur:
		cache := n.blur.cacheFor(o)
		if o.blurCacheStale(cache, box) {
			pass.DrawBlur(BlurPrimitive{
				Box:     box,
				Clip:    RegionFromBox(box).IntersectBox(f.bounds),
				Params:  f.blur,
				Alpha:   1,
				Cache:   cache,
				Capture: true,
			})
			cache.Box = box
			cache.Version = o.scene.blurVersion
			cache.valid = true
			f.stats.BlurCaptures++
		}
		f.optimized = append(f.optimized, optimizedEntry{box: box, cache: cache})
	}

	if o.scene.opts.HighlightTransparentRegion {
		transparent := e.visible.Subtract(n.opaqueRegion(e.x, e.y))
		if tclip := o.regionToBuffer(transparent).Intersect(f.damage); !tclip.Empty() {
			pass.DrawRect(RectPrimitive{Box: box, Clip: tclip, Color: Color{0, 1, 0, 0.3}})
		}
	}
}

func (o *Output) renderBuffer(pass RenderPass, f *frame, n *Node, box Box, clip Region) {
	b := &n.buffer
	scale := o.scale()
	radius := scaleRadius(b.cornerRadius, scale)
	corners := o.transformCorners(b.corners)

	if b.buf != nil {
		if c, ok := b.buf.SinglePixelColor(); ok {
			if shouldBlurBuffer(n, f.blur) {
				o.renderBackdropBlur(pass, f, box, clip, radius, corners, b.backdropBlurOptimized, nil)
			}
			pass.DrawRect(RectPrimitive{
				Box:          box,
				Clip:         clip,
				Color:        c.WithAlpha(c.A * b.opacity),
				CornerRadius: radius,
				Corners:      corners,
			})
			f.stats.Rects++
			f.sampled = append(f.sampled, n)
			return
		}
	}

	tex := b.texture
	if tex == nil {
		var ok bool
		if tex, ok = o.scene.textures.get(o.renderer, b.buf); !ok {
			// Import failed: the node stays blank.
			f.stats.ImportFailures++
			return
		}
	}
	prim := TexturePrimitive{
		Texture:          tex,
		SrcBox:           b.srcBox,
		DstBox:           box,
		Clip:             clip,
		Transform:        b.transform.Invert().Compose(o.display.Transform()),
		Alpha:            b.opacity,
		Filter:           b.filter,
		CornerRadius:     radius,
		Corners:          corners,
		TransferFunction: b.transferFunction,
		Primaries:        b.primaries,
		Wait:             b.wait,
	}
	if shouldBlurBuffer(n, f.blur) {
		var mask *TexturePrimitive
		if b.backdropBlurIgnoreTransparent {
			mask = &prim
		}
		o.renderBackdropBlur(pass, f, box, clip, radius, corners, b.backdropBlurOptimized, mask)
	}
	pass.DrawTexture(prim)
	f.stats.Textures++
	f.sampled = append(f.sampled, n)
}

// renderBackdropBlur blurs what is already painted under box. Nodes opted
// into the optimized path sample the nearest optimized blur below them
// instead, falling back to a live blur when there is none.
func (o *Output) renderBackdropBlur(pass RenderPass, f *frame, box Box, clip Region,
	radius int, corners CornerLocation, optimized bool, mask *TexturePrimitive) {
	prim := BlurPrimitive{
		Box:          box,
		Clip:         clip,
		Params:       f.blur,
		CornerRadius: radius,
		Corners:      corners,
		Alpha:        1,
		Mask:         mask,
	}
	if optimized {
		for i := len(f.optimized) - 1; i >= 0; i-- {
			oe := f.optimized[i]
			if _, ok := oe.box.Intersect(box); ok && oe.cache.Valid() {
				prim.Cache = oe.cache
				break
			}
		}
	}
	pass.DrawBlur(prim)
	f.stats.Blurs++
}
