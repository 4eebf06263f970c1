package fxscene

import (
	"math"
	"time"
)

// Surface is a client surface shown through a SceneSurface. The compositor
// implements it on top of its protocol objects.
type Surface interface {
	// State returns the committed surface state.
	State() SurfaceState
	// Enter and Leave report outputs the surface starts or stops being
	// shown on.
	Enter(o *Output)
	Leave(o *Output)
	// FrameDone is sent when the client may draw its next frame.
	FrameDone(when time.Time)
	// SetPreferredScale advertises the buffer scale the client should use.
	SetPreferredScale(scale float64)
	// Sampled is called whenever an output painted the surface, for
	// presentation feedback.
	Sampled(o *Output, directScanout bool)
}

// SurfaceState is the committed state of a Surface.
type SurfaceState struct {
	// Buffer is the attached buffer. Nil unmaps the surface.
	Buffer *Buffer
	// Width and Height are the surface size in layout units. Zero means the
	// buffer size divided by Scale.
	Width, Height int
	// Scale is the buffer scale. Zero means 1.
	Scale float64
	// SrcBox is the viewport source crop in buffer pixels. Empty means the
	// whole buffer.
	SrcBox    FBox
	Transform Transform
	// OpaqueRegion is in surface-local layout units.
	OpaqueRegion Region
	// Damage is the changed part of Buffer in buffer pixels.
	Damage Region
	Wait   SyncPoint

	TransferFunction TransferFunction
	Primaries        Primaries
	// WantsFrame is set when the client requested a frame callback.
	WantsFrame bool
}

// SceneSurface is a buffer node that follows a client surface.
type SceneSurface struct {
	// Node is the buffer node showing the surface.
	Node    *Node
	surface Surface
	clip    Box
	subs    []*Subscription
}

// NewSceneSurface creates a buffer node for surface as the topmost child of
// parent and applies its current state.
func NewSceneSurface(parent *Node, surface Surface) *SceneSurface {
	ss := &SceneSurface{
		Node:    CreateBuffer(parent, nil),
		surface: surface,
	}
	ev := &ss.Node.Events
	ss.subs = append(ss.subs,
		ev.OutputEnter.Subscribe(func(o *Output) { surface.Enter(o) }),
		ev.OutputLeave.Subscribe(func(o *Output) { surface.Leave(o) }),
		ev.OutputsUpdate.Subscribe(ss.handleOutputsUpdate),
		ev.OutputSample.Subscribe(func(e OutputSampleEvent) { surface.Sampled(e.Output, e.DirectScanout) }),
		ev.FrameDone.Subscribe(func(e FrameDoneEvent) { surface.FrameDone(e.When) }),
	)
	ss.Commit()
	return ss
}

// Surface returns the client surface.
func (ss *SceneSurface) Surface() Surface { return ss.surface }

// SetClip restricts the surface to box, in surface-local layout units. An
// empty box removes the clip.
func (ss *SceneSurface) SetClip(box Box) {
	if ss.clip == box {
		return
	}
	ss.clip = box
	ss.Commit()
}

// Clip returns the clip box.
func (ss *SceneSurface) Clip() Box { return ss.clip }

// Commit applies the surface's current state to the node.
func (ss *SceneSurface) Commit() {
	st := ss.surface.State()
	n := ss.Node
	if st.Buffer == nil {
		n.SetBuffer(nil)
		return
	}

	scale := st.Scale
	if scale <= 0 {
		scale = 1
	}
	src := st.SrcBox
	if src.Empty() {
		src = FBox{0, 0, float64(st.Buffer.Width()), float64(st.Buffer.Height())}
	}
	w, h := st.Width, st.Height
	if w <= 0 || h <= 0 {
		bw, bh := st.Buffer.Width(), st.Buffer.Height()
		if st.Transform.SwapsAxes() {
			bw, bh = bh, bw
		}
		w = int(math.Ceil(float64(bw) / scale))
		h = int(math.Ceil(float64(bh) / scale))
	}
	opaque := st.OpaqueRegion

	if !ss.clip.Empty() {
		clip, ok := ss.clip.Intersect(Box{0, 0, w, h})
		if !ok {
			n.SetBuffer(nil)
			return
		}
		// Crop in surface orientation, then map back to buffer pixels.
		bw, bh := float64(st.Buffer.Width()), float64(st.Buffer.Height())
		t := TransformFBox(src, st.Transform, bw, bh)
		tw, th := bw, bh
		if st.Transform.SwapsAxes() {
			tw, th = bh, bw
		}
		sx := t.Width / float64(w)
		sy := t.Height / float64(h)
		t = FBox{
			X:      t.X + float64(clip.X)*sx,
			Y:      t.Y + float64(clip.Y)*sy,
			Width:  float64(clip.Width) * sx,
			Height: float64(clip.Height) * sy,
		}
		src = TransformFBox(t, st.Transform.Invert(), tw, th)
		opaque = opaque.Translate(-clip.X, -clip.Y).IntersectBox(Box{0, 0, clip.Width, clip.Height})
		w, h = clip.Width, clip.Height
	}

	n.SetSourceBox(src)
	n.SetDestSize(w, h)
	n.SetTransform(st.Transform)
	n.SetOpaqueRegion(opaque)
	n.SetTransferFunction(st.TransferFunction)
	n.SetPrimaries(st.Primaries)
	damage := st.Damage
	n.SetBufferWithOptions(st.Buffer, &BufferOptions{Damage: &damage, Wait: st.Wait})

	if st.WantsFrame {
		if o := n.PrimaryOutput(); o != nil {
			o.scheduleFrame()
		}
	}
}

// activeOutputs returns the outputs the surface is shown on.
func (ss *SceneSurface) activeOutputs() []*Output {
	n := ss.Node
	var list []*Output
	for _, o := range n.scene.outputs {
		if n.buffer.activeOutputs&(1<<o.index) != 0 {
			list = append(list, o)
		}
	}
	return list
}

// FramePacingOutput returns the active output with the highest refresh
// rate, which frame callbacks should follow. It is nil when the surface is
// not shown anywhere.
func (ss *SceneSurface) FramePacingOutput() *Output {
	var best *Output
	for _, o := range ss.activeOutputs() {
		if best == nil || o.display.Refresh() > best.display.Refresh() {
			best = o
		}
	}
	return best
}

// PreferredScale returns the largest scale among active outputs, or 1.
func (ss *SceneSurface) PreferredScale() float64 {
	scale := 1.0
	for i, o := range ss.activeOutputs() {
		if i == 0 || o.scale() > scale {
			scale = o.scale()
		}
	}
	return scale
}

func (ss *SceneSurface) handleOutputsUpdate(e OutputsUpdateEvent) {
	if len(e.Active) == 0 {
		return
	}
	scale := e.Active[0].scale()
	for _, o := range e.Active[1:] {
		scale = math.Max(scale, o.scale())
	}
	ss.surface.SetPreferredScale(scale)
}

// Destroy removes the node. The surface receives no further events.
func (ss *SceneSurface) Destroy() {
	for _, sub := range ss.subs {
		sub.Close()
	}
	ss.subs = nil
	ss.Node.Destroy()
}
