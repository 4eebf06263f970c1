package fxscene

import "slices"

// update re-evaluates visibility after n changed and damages every output
// where n was or now is visible. damage, when non-nil, holds extra layout
// damage, typically the visible region n had before the change.
func (n *Node) update(damage *Region) {
	s := n.scene
	x, y, ok := n.Coords()
	if !ok {
		// Explicit damage on a disabled subtree means it was just
		// disabled.
		if damage != nil {
			n.cleanupWhenDisabled()
			s.updateRegion(*damage)
			s.damageOutputs(n, *damage)
		}
		return
	}

	visible := n.subtreeShown()
	dmg := visible
	if damage != nil {
		dmg = damage.Union(visible)
	}
	s.updateRegion(dmg.Union(n.bounds(x, y)))
	if w, h := n.Size(); n.Type != NodeTypeTree && (w <= 0 || h <= 0) && (!n.visible.Empty() || len(n.views) > 0) {
		// A collapsed footprint is never revisited by updateRegion.
		n.visible = Region{}
		n.views = nil
		n.updateOutputs(s.outputs, nil, nil)
	}
	dmg = dmg.Union(n.subtreeShown())
	s.damageOutputs(n, dmg)
}

// cleanupWhenDisabled clears the visible regions of a disabled subtree and
// makes its buffers leave their outputs.
func (n *Node) cleanupWhenDisabled() {
	if n.Type == NodeTypeTree {
		for _, c := range slices.Clone(n.children) {
			if !c.enabled || c.destroyed {
				continue
			}
			c.cleanupWhenDisabled()
		}
		return
	}
	n.visible = Region{}
	n.views = nil
	n.updateOutputs(nil, nil, nil)
}

// subtreeVisible returns the union of the scene-wide visible regions of n
// and its enabled descendants.
func (n *Node) subtreeVisible() Region {
	if !n.enabled {
		return Region{}
	}
	if n.Type != NodeTypeTree {
		return n.visible
	}
	var r Region
	for _, c := range n.children {
		r = r.Union(c.subtreeVisible())
	}
	return r
}

// subtreeShown is subtreeVisible with the visibility inside every bound
// tree added.
func (n *Node) subtreeShown() Region {
	if !n.enabled {
		return Region{}
	}
	if n.Type != NodeTypeTree {
		r := n.visible
		for _, v := range n.views {
			r = r.Union(v)
		}
		return r
	}
	var r Region
	for _, c := range n.children {
		r = r.Union(c.subtreeShown())
	}
	return r
}

// visibleIn returns n's visible region as seen through the bound tree view.
func (n *Node) visibleIn(view *Node) Region {
	if view == n.scene.root {
		return n.visible
	}
	return n.views[view]
}

func (n *Node) setVisibleIn(view *Node, r Region) {
	if view == n.scene.root {
		n.visible = r
		return
	}
	if r.Empty() {
		delete(n.views, view)
		return
	}
	if n.views == nil {
		n.views = make(map[*Node]Region)
	}
	n.views[view] = r
}

// visibleOn returns the part of n visible through the tree o is bound to,
// in layout coordinates and not clipped to the output. It is empty when n
// is outside that tree.
func (n *Node) visibleOn(o *Output) Region {
	b := o.Bound()
	if b == n.scene.root {
		return n.visible
	}
	if b != n && !b.isAncestorOf(n) {
		return Region{}
	}
	return n.views[b]
}

// subtreeVisibleOn returns the union of visibleOn for n's enabled subtree.
func (n *Node) subtreeVisibleOn(o *Output) Region {
	if !n.enabled {
		return Region{}
	}
	if n.Type != NodeTypeTree {
		return n.visibleOn(o)
	}
	var r Region
	for _, c := range n.children {
		r = r.Union(c.subtreeVisibleOn(o))
	}
	return r
}

// clearView forgets the visibility computed inside the bound tree view for
// every node under n.
func (n *Node) clearView(view *Node) {
	if n.Type == NodeTypeTree {
		for _, c := range n.children {
			c.clearView(view)
		}
		return
	}
	delete(n.views, view)
}

// bounds returns the union of the footprints in n's enabled subtree, with
// n positioned at (x, y).
func (n *Node) bounds(x, y int) Region {
	if !n.enabled {
		return Region{}
	}
	if n.Type == NodeTypeTree {
		var r Region
		for _, c := range n.children {
			r = r.Union(c.bounds(x+c.x, y+c.y))
		}
		return r
	}
	w, h := n.Size()
	return RegionFromBox(Box{x, y, w, h})
}

// opaqueRegion returns the part of n's footprint, placed at (x, y), that is
// guaranteed to be fully covered by opaque pixels.
//
// Rounded nodes contribute nothing: a rounded content rect is opaque except
// at its corners, but the conservative answer is always correct. Shadows
// and optimized blur regions are never opaque.
func (n *Node) opaqueRegion(x, y int) Region {
	w, h := n.Size()
	full := Box{x, y, w, h}
	switch n.Type {
	case NodeTypeRect:
		r := &n.rect
		if r.color.A != 1 || r.cornerRadius > 0 {
			return Region{}
		}
		opaque := RegionFromBox(full)
		if clip, ok := r.clippedBox(); ok {
			opaque = opaque.SubtractBox(clip.Translate(x, y))
		}
		return opaque
	case NodeTypeBuffer:
		b := &n.buffer
		if b.buf == nil || !b.hasContent() {
			return Region{}
		}
		if b.opacity != 1 || b.cornerRadius > 0 {
			return Region{}
		}
		if c, ok := b.buf.SinglePixelColor(); ok && !c.Opaque() {
			return Region{}
		}
		if !b.bufferIsOpaque {
			return b.opaqueRegion.IntersectBox(Box{0, 0, w, h}).Translate(x, y)
		}
		return RegionFromBox(full)
	}
	return Region{}
}

// OpaqueContribution returns the part of n's footprint, in layout
// coordinates, that occludes everything below it. It is empty for disabled
// nodes and trees.
func (n *Node) OpaqueContribution() Region {
	x, y, ok := n.Coords()
	if !ok || n.Type == NodeTypeTree {
		return Region{}
	}
	return n.opaqueRegion(x, y)
}

// updateRegion recomputes visible regions inside update. Occlusion is
// evaluated once for the whole scene and once for every tree an output is
// bound to, so nodes outside a bound tree never hide nodes inside it. Within
// a walk nodes are visited topmost first; each one sees what is left of
// update after removing the opaque parts of the nodes above it.
func (s *Scene) updateRegion(update Region) {
	if update.Empty() {
		return
	}
	var touched []*Node
	seen := make(map[*Node]bool)
	for _, view := range append([]*Node{s.root}, s.boundViews()...) {
		s.occlude(view, update, func(n *Node) {
			if !seen[n] {
				seen[n] = true
				touched = append(touched, n)
			}
		})
	}
	for _, n := range touched {
		// Enter/leave handlers may destroy nodes further down the list.
		if n.destroying || n.destroyed {
			continue
		}
		n.updateOutputs(s.outputs, nil, nil)
	}
}

// occlude runs the occlusion walk for the bound tree view inside update and
// reports every node it visited.
func (s *Scene) occlude(view *Node, update Region, visit func(n *Node)) {
	if _, _, ok := view.Coords(); !ok {
		return
	}
	type hit struct {
		node *Node
		x, y int
	}
	var hits []hit
	px, py := view.origin()
	view.nodesInBox(update.Extents(), px, py, func(c *Node, x, y int) bool {
		hits = append(hits, hit{c, x, y})
		return false
	})

	remaining := update
	calc := !s.opts.DisableVisibility
	for _, h := range hits {
		n := h.node
		if n.destroying || n.destroyed {
			continue
		}
		w, ht := n.Size()
		vis := n.visibleIn(view).Subtract(update).Union(remaining).IntersectBox(Box{h.x, h.y, w, ht})
		n.setVisibleIn(view, vis)
		if calc {
			remaining = remaining.Subtract(n.opaqueRegion(h.x, h.y))
		}
		visit(n)
	}
}

// releaseView forgets the visibility computed inside view once no output
// is bound to it.
func (s *Scene) releaseView(view *Node) {
	if view == s.root || view.destroyed {
		return
	}
	for _, o := range s.outputs {
		if o.Bound() == view {
			return
		}
	}
	view.clearView(view)
}

// unbindTree points outputs bound to the destroyed tree n back at the root.
func (s *Scene) unbindTree(n *Node) {
	var hit []*Output
	for _, o := range s.outputs {
		if o.bound == n {
			o.bound = s.root
			hit = append(hit, o)
		}
	}
	if len(hit) == 0 {
		return
	}
	s.root.updateAllOutputs(nil, nil)
	for _, o := range hit {
		o.DamageWhole()
	}
}

// boundViews returns the distinct trees other than the root that outputs
// are bound to.
func (s *Scene) boundViews() []*Node {
	var views []*Node
	for _, o := range s.outputs {
		if b := o.Bound(); b != s.root && !slices.Contains(views, b) {
			views = append(views, b)
		}
	}
	return views
}

// updateOutputs recomputes which outputs a buffer node is shown on, picks
// the primary output (largest visible area) and emits enter, leave and
// outputs-update events. ignore is excluded as if it did not exist; force
// makes an update event fire for that output even when nothing changed.
func (n *Node) updateOutputs(outputs []*Output, ignore, force *Output) {
	if n.Type != NodeTypeBuffer {
		return
	}
	b := &n.buffer
	oldPrimary := b.primaryOutput
	b.primaryOutput = nil

	var active uint64
	var list []*Output
	largest := 0
	for _, o := range outputs {
		if o == ignore || !o.enabled() {
			continue
		}
		overlap := n.visibleOn(o).IntersectBox(o.layoutBox()).Area()
		if overlap == 0 {
			continue
		}
		if overlap >= largest {
			largest = overlap
			b.primaryOutput = o
		}
		active |= 1 << o.index
		list = append(list, o)
	}

	oldActive := b.activeOutputs
	b.activeOutputs = active

	all := outputs
	if outputs == nil {
		all = n.scene.outputs
	}
	for _, o := range slices.Clone(all) {
		mask := uint64(1) << o.index
		now, before := active&mask != 0, oldActive&mask != 0
		switch {
		case now && !before:
			n.Events.OutputEnter.Emit(o)
		case !now && before:
			n.Events.OutputLeave.Emit(o)
		}
		if n.destroyed {
			return
		}
	}

	forced := force != nil && active&(1<<force.index) != 0
	if oldActive == active && !forced && oldPrimary == b.primaryOutput {
		return
	}
	n.Events.OutputsUpdate.Emit(OutputsUpdateEvent{Active: list})
}

// updateAllOutputs refreshes output bookkeeping for every buffer in n's
// subtree.
func (n *Node) updateAllOutputs(ignore, force *Output) {
	if n.Type == NodeTypeTree {
		for _, c := range slices.Clone(n.children) {
			if c.destroyed {
				continue
			}
			c.updateAllOutputs(ignore, force)
		}
		return
	}
	n.updateOutputs(n.scene.outputs, ignore, force)
}

// damageOutputs adds layout-space damage caused by a change to n to every
// output whose bound tree n can affect.
func (s *Scene) damageOutputs(n *Node, damage Region) {
	if damage.Empty() {
		return
	}
	for _, o := range s.outputs {
		if !o.affectedBy(n) {
			continue
		}
		ox, oy := o.Position()
		local := damage.Translate(-ox, -oy)
		o.damageRegion(scaleRegion(local, o.scale()))
	}
}
