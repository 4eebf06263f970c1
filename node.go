package fxscene

import (
	"iter"
	"math"
	"slices"
	"time"
)

// nodeIDCounter is a plain counter (no atomic, fxscene is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// NodeType identifies which variant a Node is.
type NodeType uint8

const (
	NodeTypeTree NodeType = iota
	NodeTypeRect
	NodeTypeShadow
	NodeTypeBuffer
	NodeTypeOptimizedBlur
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeTree:
		return "tree"
	case NodeTypeRect:
		return "rect"
	case NodeTypeShadow:
		return "shadow"
	case NodeTypeBuffer:
		return "buffer"
	case NodeTypeOptimizedBlur:
		return "optimized_blur"
	}
	return "unknown"
}

// OutputsUpdateEvent lists the outputs a buffer node is now shown on.
type OutputsUpdateEvent struct {
	Active []*Output
}

// OutputSampleEvent is emitted when an output used a buffer node's content
// for a frame.
type OutputSampleEvent struct {
	Output        *Output
	DirectScanout bool
}

// FrameDoneEvent tells the owner of a buffer node that a frame showing it was
// presented, so it may draw the next one.
type FrameDoneEvent struct {
	Output *Output
	When   time.Time
}

// Node is a scene graph element. A single flat struct is used for all node
// types; variant behaviour switches on Type. Variant setters panic when
// called on the wrong type.
//
// Every node except the scene root has a parent from creation until it is
// destroyed. Nodes are not safe for concurrent use.
type Node struct {
	ID   uint32
	Name string
	Type NodeType

	// UserData is free for the owner of the node.
	UserData any

	scene    *Scene
	parent   *Node
	children []*Node

	x, y    int
	enabled bool

	// visible is the part of the footprint not hidden by opaque nodes above,
	// in layout coordinates.
	visible Region
	// views holds the visible region inside each tree other than the root
	// that an output is bound to.
	views map[*Node]Region

	destroying bool
	destroyed  bool
	generation uint32

	Events struct {
		Destroy       Signal[*Node]
		OutputEnter   Signal[*Output]
		OutputLeave   Signal[*Output]
		OutputsUpdate Signal[OutputsUpdateEvent]
		OutputSample  Signal[OutputSampleEvent]
		FrameDone     Signal[FrameDoneEvent]
	}

	rect   rectData
	shadow shadowData
	buffer bufferData
	blur   optimizedBlurData
}

func newNode(parent *Node, t NodeType) *Node {
	if parent == nil {
		panic("fxscene: nil parent")
	}
	if parent.Type != NodeTypeTree {
		panic("fxscene: parent is not a tree")
	}
	if parent.destroyed {
		panic("fxscene: parent has been destroyed")
	}
	n := &Node{
		ID:      nextNodeID(),
		Type:    t,
		scene:   parent.scene,
		parent:  parent,
		enabled: true,
	}
	parent.children = append(parent.children, n)
	if n.scene.opts.Debug {
		debugCheckTreeDepth(n)
		debugCheckChildCount(parent)
	}
	return n
}

// CreateTree creates an empty group node as the topmost child of parent.
func CreateTree(parent *Node) *Node {
	return newNode(parent, NodeTypeTree)
}

func (n *Node) mustAlive() {
	if n.destroyed {
		panic("fxscene: use of destroyed node")
	}
}

func (n *Node) mustType(t NodeType) {
	n.mustAlive()
	if n.Type != t {
		panic("fxscene: " + t.String() + " operation on " + n.Type.String() + " node")
	}
}

// Scene returns the scene n belongs to.
func (n *Node) Scene() *Scene { return n.scene }

// Parent returns the enclosing tree, or nil for the scene root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list in paint order (last is top).
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// Enabled reports the node's own enabled flag. Use Coords to find out
// whether the node is effectively enabled.
func (n *Node) Enabled() bool { return n.enabled }

// Position returns the position relative to the parent.
func (n *Node) Position() (x, y int) { return n.x, n.y }

// Destroyed reports whether the node has been destroyed.
func (n *Node) Destroyed() bool { return n.destroyed }

// Visible returns the part of the node visible in the whole scene, in layout
// coordinates and not clipped to any output. Trees report the union of their
// descendants. Use Output.Visible for what one output shows.
func (n *Node) Visible() Region {
	return n.subtreeVisible()
}

// Size returns the footprint size. Trees have no footprint of their own.
func (n *Node) Size() (w, h int) {
	switch n.Type {
	case NodeTypeRect:
		return n.rect.width, n.rect.height
	case NodeTypeShadow:
		return n.shadow.width, n.shadow.height
	case NodeTypeBuffer:
		return n.buffer.size()
	case NodeTypeOptimizedBlur:
		return n.blur.width, n.blur.height
	}
	return 0, 0
}

// Coords returns the absolute layout position of n. It reports false if n or
// any ancestor is disabled, or n has been destroyed.
func (n *Node) Coords() (x, y int, ok bool) {
	if n.destroyed {
		return 0, 0, false
	}
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.enabled {
			return 0, 0, false
		}
		x += cur.x
		y += cur.y
	}
	return x, y, true
}

// origin returns the summed positions of n's ancestors, ignoring enabled
// flags.
func (n *Node) origin() (x, y int) {
	for cur := n.parent; cur != nil; cur = cur.parent {
		x += cur.x
		y += cur.y
	}
	return x, y
}

// isAncestorOf reports whether n is an ancestor of other.
func (n *Node) isAncestorOf(other *Node) bool {
	for cur := other.parent; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// SetEnabled enables or disables n and, through it, its subtree. Buffer
// nodes that stop being visible leave their outputs before SetEnabled
// returns; nodes that become visible enter them.
func (n *Node) SetEnabled(enabled bool) {
	n.mustAlive()
	n.setEnabled(enabled)
}

func (n *Node) setEnabled(enabled bool) {
	if n.enabled == enabled {
		return
	}
	var visible Region
	if _, _, ok := n.Coords(); ok {
		visible = n.subtreeShown()
	}
	n.enabled = enabled
	n.update(&visible)
}

// SetPosition moves n relative to its parent.
func (n *Node) SetPosition(x, y int) {
	n.mustAlive()
	if n.x == x && n.y == y {
		return
	}
	n.x, n.y = x, y
	n.update(nil)
}

func (n *Node) childIndex() int {
	if n.parent == nil {
		return -1
	}
	return slices.Index(n.parent.children, n)
}

func (n *Node) mustSibling(sibling *Node) {
	n.mustAlive()
	sibling.mustAlive()
	if n == sibling {
		panic("fxscene: node cannot be placed relative to itself")
	}
	if n.parent == nil || n.parent != sibling.parent {
		panic("fxscene: nodes are not siblings")
	}
}

// PlaceAbove moves n directly above sibling in paint order.
func (n *Node) PlaceAbove(sibling *Node) {
	n.mustSibling(sibling)
	children := n.parent.children
	i, j := n.childIndex(), sibling.childIndex()
	if i == j+1 {
		return
	}
	children = slices.Delete(children, i, i+1)
	j = slices.Index(children, sibling)
	n.parent.children = slices.Insert(children, j+1, n)
	n.update(nil)
}

// PlaceBelow moves n directly below sibling in paint order.
func (n *Node) PlaceBelow(sibling *Node) {
	n.mustSibling(sibling)
	children := n.parent.children
	i, j := n.childIndex(), sibling.childIndex()
	if i == j-1 {
		return
	}
	children = slices.Delete(children, i, i+1)
	j = slices.Index(children, sibling)
	n.parent.children = slices.Insert(children, j, n)
	n.update(nil)
}

// RaiseToTop moves n above all of its siblings.
func (n *Node) RaiseToTop() {
	n.mustAlive()
	if n.parent == nil {
		return
	}
	top := n.parent.children[len(n.parent.children)-1]
	if top == n {
		return
	}
	n.PlaceAbove(top)
}

// LowerToBottom moves n below all of its siblings.
func (n *Node) LowerToBottom() {
	n.mustAlive()
	if n.parent == nil {
		return
	}
	bottom := n.parent.children[0]
	if bottom == n {
		return
	}
	n.PlaceBelow(bottom)
}

// Reparent moves n to the top of newParent's children. The two must belong
// to the same scene and n may not become its own ancestor.
func (n *Node) Reparent(newParent *Node) {
	n.mustAlive()
	if newParent == nil {
		panic("fxscene: nil parent")
	}
	newParent.mustType(NodeTypeTree)
	if n.parent == nil {
		panic("fxscene: cannot reparent the scene root")
	}
	if newParent.scene != n.scene {
		panic("fxscene: cannot reparent across scenes")
	}
	if n.parent == newParent {
		return
	}
	if n == newParent || n.isAncestorOf(newParent) {
		panic("fxscene: node cannot become its own ancestor")
	}
	var visible Region
	if _, _, ok := n.Coords(); ok {
		visible = n.subtreeShown()
		// Outputs bound under the old parent lose n.
		n.scene.damageOutputs(n, visible)
	}
	n.dropViews()
	n.parent.removeChild(n)
	n.parent = newParent
	newParent.children = append(newParent.children, n)
	n.update(&visible)
}

// removeChild detaches child without destroying it. A fresh slice is built
// so that snapshots held by walks in progress stay intact.
func (n *Node) removeChild(child *Node) {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		if c != child {
			out = append(out, c)
		}
	}
	n.children = out
}

// Destroy destroys n and its subtree. It is a no-op on a nil node and on a
// node whose destruction is already in progress.
//
// The destroy signal fires first, while children are still alive. The scene
// root then destroys every output binding. The node is then disabled, which
// makes buffer nodes leave their outputs. Any subscriptions still attached
// to the node's signals are closed.
func (n *Node) Destroy() {
	if n == nil || n.destroying || n.destroyed {
		return
	}
	n.destroying = true
	n.Events.Destroy.Emit(n)

	s := n.scene
	if n == s.root {
		for _, o := range slices.Clone(s.outputs) {
			o.Destroy()
		}
	}
	n.setEnabled(false)

	switch n.Type {
	case NodeTypeBuffer:
		if active := n.buffer.activeOutputs; active != 0 {
			for _, o := range s.outputs {
				if active&(1<<o.index) != 0 {
					n.Events.OutputLeave.Emit(o)
				}
			}
			n.buffer.activeOutputs = 0
		}
		n.buffer.primaryOutput = nil
		n.clearContent()
	case NodeTypeOptimizedBlur:
		n.blur.releaseCaches()
	case NodeTypeTree:
		if n == s.root {
			s.textures.purge()
		}
		for _, c := range slices.Clone(n.children) {
			if c.destroying || c.destroyed {
				continue
			}
			c.Destroy()
		}
	}

	if left := n.closeSubscriptions(); left > 0 && s.opts.Debug {
		Logger().Warn("fxscene: node destroyed with open subscriptions",
			"node", n.ID, "type", n.Type.String(), "subscriptions", left)
	}

	if n.parent != nil && !n.parent.destroyed {
		n.parent.removeChild(n)
	}
	n.parent = nil
	n.children = nil
	n.visible = Region{}
	n.views = nil
	n.destroyed = true
	n.generation++
	if n.Type == NodeTypeTree && n != s.root {
		s.unbindTree(n)
	}
}

// dropViews forgets the bound tree visibility of n's subtree.
func (n *Node) dropViews() {
	n.views = nil
	for _, c := range n.children {
		c.dropViews()
	}
}

func (n *Node) closeSubscriptions() int {
	left := n.Events.OutputEnter.closeAll()
	left += n.Events.OutputLeave.closeAll()
	left += n.Events.OutputsUpdate.closeAll()
	left += n.Events.OutputSample.closeAll()
	left += n.Events.FrameDone.closeAll()
	left += n.Events.Destroy.closeAll()
	return left
}

// Buffers yields the enabled buffer nodes in n's subtree, depth first in
// paint order, with their absolute layout positions. The walk stops
// descending into nodes that are being destroyed, so the visitor may
// destroy nodes it has already seen.
func (n *Node) Buffers() iter.Seq2[*Node, Point] {
	return func(yield func(*Node, Point) bool) {
		if n.destroyed {
			return
		}
		ox, oy := n.origin()
		walkBuffers(n, ox, oy, yield)
	}
}

func walkBuffers(n *Node, lx, ly int, yield func(*Node, Point) bool) bool {
	if !n.enabled || n.destroying || n.destroyed {
		return true
	}
	lx += n.x
	ly += n.y
	switch n.Type {
	case NodeTypeBuffer:
		return yield(n, Point{lx, ly})
	case NodeTypeTree:
		for _, c := range slices.Clone(n.children) {
			if !walkBuffers(c, lx, ly, yield) {
				return false
			}
		}
	}
	return true
}

// ForEachBuffer calls fn for every enabled buffer node in n's subtree.
func (n *Node) ForEachBuffer(fn func(buf *Node, x, y int)) {
	for b, p := range n.Buffers() {
		fn(b, p.X, p.Y)
	}
}

// NodeAt returns the topmost enabled rect or buffer node in n's subtree
// under the layout point (lx, ly), along with the point in that node's
// coordinates. Buffer nodes with a PointAcceptsInput hook may refuse the
// point.
func (n *Node) NodeAt(lx, ly float64) (hit *Node, nx, ny float64) {
	box := Box{int(math.Floor(lx)), int(math.Floor(ly)), 1, 1}
	ox, oy := n.origin()
	n.nodesInBox(box, ox, oy, func(c *Node, x, y int) bool {
		rx, ry := lx-float64(x), ly-float64(y)
		switch c.Type {
		case NodeTypeShadow, NodeTypeOptimizedBlur:
			return false
		case NodeTypeBuffer:
			if fn := c.buffer.pointAcceptsInput; fn != nil && !fn(c, rx, ry) {
				return false
			}
		}
		hit, nx, ny = c, rx, ry
		return true
	})
	return hit, nx, ny
}

// nodesInBox visits the enabled leaf nodes whose footprint intersects box
// in reverse paint order (topmost first). (px, py) is the position of n's
// parent. Returning true from fn stops the walk.
func (n *Node) nodesInBox(box Box, px, py int, fn func(c *Node, x, y int) bool) bool {
	if !n.enabled || n.destroyed {
		return false
	}
	x, y := px+n.x, py+n.y
	if n.Type == NodeTypeTree {
		children := slices.Clone(n.children)
		for i := len(children) - 1; i >= 0; i-- {
			if children[i].nodesInBox(box, x, y, fn) {
				return true
			}
		}
		return false
	}
	w, h := n.Size()
	if _, ok := box.Intersect(Box{x, y, w, h}); ok {
		return fn(n, x, y)
	}
	return false
}

// NodeRef is a weak reference to a node. It resolves to nil once the node
// has been destroyed.
type NodeRef struct {
	node       *Node
	generation uint32
}

// Ref returns a weak reference to n.
func (n *Node) Ref() NodeRef {
	return NodeRef{node: n, generation: n.generation}
}

// Resolve returns the referenced node, or nil if it is gone.
func (r NodeRef) Resolve() *Node {
	if r.node == nil || r.node.destroyed || r.node.generation != r.generation {
		return nil
	}
	return r.node
}
