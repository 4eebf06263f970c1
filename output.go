package fxscene

import (
	"fmt"
	"math/bits"
	"slices"
	"time"
)

// Display is the physical output an Output binding drives.
type Display interface {
	Name() string
	// Resolution is the current mode size in pixels, before Transform.
	Resolution() (width, height int)
	Scale() float64
	Transform() Transform
	// Refresh is the refresh rate in mHz, or 0 if unknown.
	Refresh() int
	// ScheduleFrame asks for a frame event, after which the compositor
	// commits the output.
	ScheduleFrame()
	// AcquireBuffer returns the next swapchain buffer to paint into.
	AcquireBuffer() (*Buffer, error)
	// Commit presents a frame. Presentation feedback is delivered later
	// through Output.HandlePresent.
	Commit(state OutputState) error
}

// ScanoutTester is implemented by displays that can check whether a client
// buffer may be scanned out directly before committing to it.
type ScanoutTester interface {
	TestScanout(state OutputState) bool
}

// EnabledDisplay is implemented by displays that can be switched off.
// Displays without it are always enabled.
type EnabledDisplay interface {
	Enabled() bool
}

// OutputState is handed to Display.Commit.
type OutputState struct {
	Buffer *Buffer
	// Damage is the repainted area, in buffer pixels.
	Damage Region
	// DirectScanout is set when Buffer is a client buffer shown without
	// compositing.
	DirectScanout bool
	// Wait must be reached before Buffer may be scanned out.
	Wait SyncPoint
}

// PresentEvent is presentation feedback for a committed frame.
type PresentEvent struct {
	Output *Output
	When   time.Time
	// Presented is false when the frame was discarded.
	Presented bool
	// Seq is the display's frame counter, if known.
	Seq uint64
}

// FrameState is the per-output frame state machine.
type FrameState uint8

const (
	FrameIdle FrameState = iota
	FrameVisibilityComputed
	FrameDamageResolved
	FramePainting
	FramePresented
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameVisibilityComputed:
		return "visibility-computed"
	case FrameDamageResolved:
		return "damage-resolved"
	case FramePainting:
		return "painting"
	case FramePresented:
		return "presented"
	}
	return "unknown"
}

// maxOutputs is the number of bits in a buffer node's active output set.
const maxOutputs = 64

// Output binds a display to a scene. It owns the damage ring and frame
// bookkeeping for that display.
type Output struct {
	scene    *Scene
	display  Display
	renderer Renderer
	index    int
	x, y     int
	bound    *Node

	ring  *DamageRing
	state FrameState

	prevScanout bool
	highlights  []highlightRegion
	lastFrame   FrameStats

	timeline      Timeline
	timelinePoint uint64
	timelineErr   bool

	// geometry seen at the last geometry update
	geomW, geomH int
	geomScale    float64
	geomTr       Transform

	destroyed bool

	Events struct {
		Destroy Signal[*Output]
		Commit  Signal[FrameStats]
		Present Signal[PresentEvent]
	}
}

// NewOutput binds display to s, rendering with renderer. The output starts
// at layout position (0, 0) showing the whole scene, with everything
// damaged.
func NewOutput(s *Scene, display Display, renderer Renderer) (*Output, error) {
	if s.root.destroyed {
		panic("fxscene: output for destroyed scene")
	}
	free := ^s.usedIndices
	if free == 0 {
		return nil, fmt.Errorf("bind output %q: %w", display.Name(), ErrTooManyOutputs)
	}
	index := bits.TrailingZeros64(free)
	s.usedIndices |= 1 << index

	o := &Output{
		scene:    s,
		display:  display,
		renderer: renderer,
		index:    index,
		bound:    s.root,
		ring:     NewDamageRing(s.opts.DamageRingDepth),
	}
	s.outputs = append(s.outputs, o)
	o.updateGeometry(true)
	return o, nil
}

// Scene returns the scene the output belongs to.
func (o *Output) Scene() *Scene { return o.scene }

// Display returns the display collaborator.
func (o *Output) Display() Display { return o.display }

// Name returns the display name.
func (o *Output) Name() string { return o.display.Name() }

// Index returns the bit this output occupies in buffer active output sets.
func (o *Output) Index() int { return o.index }

// Renderer returns the renderer used for compositing.
func (o *Output) Renderer() Renderer { return o.renderer }

// SetRenderer replaces the renderer, for example after a context loss. All
// textures imported by the old renderer are dropped.
func (o *Output) SetRenderer(r Renderer) {
	if o.renderer == r {
		return
	}
	o.renderer = r
	o.timeline = nil
	o.timelineErr = false
	o.scene.ResetTextures()
	o.ring.Reset()
	o.scheduleFrame()
}

// State returns the frame state.
func (o *Output) State() FrameState { return o.state }

// DamageRing returns the output's damage ring.
func (o *Output) DamageRing() *DamageRing { return o.ring }

// LastFrame returns statistics about the last commit.
func (o *Output) LastFrame() FrameStats { return o.lastFrame }

// Position returns the output's position in the layout.
func (o *Output) Position() (x, y int) { return o.x, o.y }

// SetPosition moves the output in the layout.
func (o *Output) SetPosition(x, y int) {
	o.mustAlive()
	if o.x == x && o.y == y {
		return
	}
	o.x, o.y = x, y
	o.updateGeometry(false)
}

// Bind restricts the output to painting tree and its descendants. Passing
// nil binds the scene root again. Occlusion on the output is evaluated
// within the tree only, so nodes outside it neither show nor hide anything.
func (o *Output) Bind(tree *Node) {
	o.mustAlive()
	if tree == nil {
		tree = o.scene.root
	}
	tree.mustType(NodeTypeTree)
	if tree.scene != o.scene {
		panic("fxscene: bound tree belongs to another scene")
	}
	if o.bound == tree {
		return
	}
	s := o.scene
	old := o.Bound()
	o.bound = tree
	s.releaseView(old)
	if x, y, ok := tree.Coords(); ok && tree != s.root {
		s.updateRegion(tree.bounds(x, y))
	}
	s.root.updateAllOutputs(nil, nil)
	o.DamageWhole()
}

// affectedBy reports whether a change to n can alter what o shows.
func (o *Output) affectedBy(n *Node) bool {
	b := o.Bound()
	return b == o.scene.root || b == n || b.isAncestorOf(n) || n.isAncestorOf(b)
}

// Visible returns the part of n's subtree shown on o, in layout
// coordinates. Nodes outside the bound tree show nothing.
func (o *Output) Visible(n *Node) Region {
	if n.scene != o.scene {
		return Region{}
	}
	return n.subtreeVisibleOn(o).IntersectBox(o.layoutBox())
}

// Bound returns the tree the output paints.
func (o *Output) Bound() *Node {
	if o.bound == nil || o.bound.destroyed {
		return o.scene.root
	}
	return o.bound
}

func (o *Output) mustAlive() {
	if o.destroyed {
		panic("fxscene: use of destroyed output")
	}
}

func (o *Output) enabled() bool {
	if e, ok := o.display.(EnabledDisplay); ok {
		return e.Enabled()
	}
	return true
}

func (o *Output) scale() float64 {
	if s := o.display.Scale(); s > 0 {
		return s
	}
	return 1
}

// transformedResolution is the mode size after the output transform.
func (o *Output) transformedResolution() (int, int) {
	w, h := o.display.Resolution()
	if o.display.Transform().SwapsAxes() {
		return h, w
	}
	return w, h
}

// EffectiveResolution is the output size in layout units.
func (o *Output) EffectiveResolution() (int, int) {
	w, h := o.transformedResolution()
	s := o.scale()
	return int(float64(w) / s), int(float64(h) / s)
}

// LayoutBox returns the area of the layout the output shows.
func (o *Output) LayoutBox() Box {
	return o.layoutBox()
}

func (o *Output) layoutBox() Box {
	w, h := o.EffectiveResolution()
	return Box{o.x, o.y, w, h}
}

// HandleModeChange re-reads resolution, scale and transform from the
// display. Call it after the display changed any of them.
func (o *Output) HandleModeChange() {
	o.mustAlive()
	o.updateGeometry(o.display.Scale() != o.geomScale)
}

func (o *Output) updateGeometry(force bool) {
	w, h := o.display.Resolution()
	o.geomW, o.geomH = w, h
	o.geomScale = o.display.Scale()
	o.geomTr = o.display.Transform()
	o.ring.SetBounds(w, h)
	o.DamageWhole()

	var f *Output
	if force {
		f = o
	}
	o.scene.root.updateAllOutputs(nil, f)
}

// geometryChanged reports whether the display changed since the last
// geometry update without HandleModeChange being called.
func (o *Output) geometryChanged() bool {
	w, h := o.display.Resolution()
	return w != o.geomW || h != o.geomH ||
		o.display.Scale() != o.geomScale || o.display.Transform() != o.geomTr
}

// damageRegion adds damage given in scaled output-local coordinates, before
// the output transform.
func (o *Output) damageRegion(r Region) {
	if r.Empty() || o.destroyed {
		return
	}
	tw, th := o.transformedResolution()
	r = r.Transform(o.display.Transform().Invert(), tw, th)
	if o.ring.Add(r) {
		o.scheduleFrame()
	}
}

// DamageWhole damages the whole output and schedules a frame.
func (o *Output) DamageWhole() {
	o.ring.AddWhole()
	o.scheduleFrame()
}

func (o *Output) scheduleFrame() {
	if !o.destroyed {
		o.display.ScheduleFrame()
	}
}

// NeedsFrame reports whether a commit would paint anything.
func (o *Output) NeedsFrame() bool {
	return o.ring.Pending() ||
		o.scene.opts.DebugDamage == DebugDamageRerender ||
		len(o.highlights) > 0
}

// HandlePresent delivers presentation feedback for the committed frame. It
// moves the output back to FrameIdle and sends frame-done to every buffer
// whose primary output this is.
func (o *Output) HandlePresent(ev PresentEvent) {
	if o.destroyed || o.state != FramePresented {
		return
	}
	ev.Output = o
	o.state = FrameIdle
	when := ev.When
	if when.IsZero() {
		when = time.Now()
	}
	o.Events.Present.Emit(ev)
	o.SendFrameDone(when)
}

// SendFrameDone sends frame-done to every buffer in the bound tree whose
// primary output is o.
func (o *Output) SendFrameDone(when time.Time) {
	for b := range o.Bound().Buffers() {
		if b.buffer.primaryOutput == o {
			b.SendFrameDone(o, when)
		}
	}
}

// Destroy unbinds the output. Buffers shown on it leave it first.
func (o *Output) Destroy() {
	if o == nil || o.destroyed {
		return
	}
	s := o.scene
	o.Events.Destroy.Emit(o)
	s.root.updateAllOutputs(o, nil)
	for n := range s.allOptimizedBlurs() {
		n.blur.forgetOutput(o)
	}
	o.destroyed = true
	// A fresh slice keeps loops over the old one intact.
	s.outputs = slices.DeleteFunc(slices.Clone(s.outputs), func(x *Output) bool { return x == o })
	s.usedIndices &^= 1 << o.index
	s.releaseView(o.Bound())
	o.highlights = nil
	o.Events.Destroy.closeAll()
	o.Events.Commit.closeAll()
	o.Events.Present.closeAll()
}

// Destroyed reports whether the output has been unbound.
func (o *Output) Destroyed() bool { return o.destroyed }
