package fxscene

import (
	"math"
	"time"
)

type bufferData struct {
	buf     *Buffer
	texture Texture // set with SetTexture, owned by the caller

	srcBox              FBox
	dstWidth, dstHeight int
	transform           Transform
	opacity             float64
	cornerRadius        int
	corners             CornerLocation
	filter              FilterMode
	transferFunction    TransferFunction
	primaries           Primaries

	opaqueRegion   Region
	opaqueHint     bool
	bufferIsOpaque bool

	backdropBlur                  bool
	backdropBlurOptimized         bool
	backdropBlurIgnoreTransparent bool

	activeOutputs uint64
	primaryOutput *Output

	wait SyncPoint

	pointAcceptsInput func(n *Node, sx, sy float64) bool
}

// BufferOptions accompany a content update.
type BufferOptions struct {
	// Damage is the changed part of the new buffer, in buffer pixels. Nil
	// means the whole buffer changed.
	Damage *Region
	// Wait must be reached on the GPU before the buffer is sampled.
	Wait SyncPoint
}

// CreateBuffer creates a buffer node showing buf (which may be nil) as the
// topmost child of parent.
func CreateBuffer(parent *Node, buf *Buffer) *Node {
	n := newNode(parent, NodeTypeBuffer)
	n.buffer.opacity = 1
	n.buffer.corners = CornerAll
	if buf != nil {
		n.buffer.buf = buf.Lock()
		n.buffer.bufferIsOpaque = buf.Opaque()
	}
	n.update(nil)
	return n
}

// size returns the node footprint: the destination size if set, otherwise
// the transformed content size.
func (b *bufferData) size() (int, int) {
	if b.dstWidth > 0 && b.dstHeight > 0 {
		return b.dstWidth, b.dstHeight
	}
	var w, h int
	switch {
	case b.buf != nil:
		w, h = b.buf.Width(), b.buf.Height()
	case b.texture != nil:
		w, h = b.texture.Width(), b.texture.Height()
	default:
		return 0, 0
	}
	if b.transform.SwapsAxes() {
		w, h = h, w
	}
	return w, h
}

// contentSize returns the pixel size of the buffer or texture.
func (b *bufferData) contentSize() (int, int) {
	switch {
	case b.buf != nil:
		return b.buf.Width(), b.buf.Height()
	case b.texture != nil:
		return b.texture.Width(), b.texture.Height()
	}
	return 0, 0
}

// hasContent reports whether the node has something to paint. Nodes whose
// destination or source crop collapsed are treated as empty.
func (b *bufferData) hasContent() bool {
	if b.buf == nil && b.texture == nil {
		return false
	}
	w, h := b.size()
	if w <= 0 || h <= 0 {
		return false
	}
	return b.srcBox == (FBox{}) || !b.srcBox.Empty()
}

// effectiveSrcBox returns the source crop, defaulting to the whole content.
func (b *bufferData) effectiveSrcBox() FBox {
	if !b.srcBox.Empty() {
		return b.srcBox
	}
	w, h := b.contentSize()
	return FBox{0, 0, float64(w), float64(h)}
}

func (n *Node) clearContent() {
	b := &n.buffer
	if b.buf != nil {
		b.buf.Unlock()
		b.buf = nil
	}
	b.texture = nil
	b.wait = SyncPoint{}
}

// Buffer returns the content buffer, or nil.
func (n *Node) Buffer() *Buffer {
	n.mustType(NodeTypeBuffer)
	return n.buffer.buf
}

// Texture returns the texture set with SetTexture, or nil.
func (n *Node) Texture() Texture {
	n.mustType(NodeTypeBuffer)
	return n.buffer.texture
}

// HasContent reports whether a buffer node has anything to paint.
func (n *Node) HasContent() bool {
	n.mustType(NodeTypeBuffer)
	return n.buffer.hasContent()
}

// SetBuffer replaces the content buffer, treating all of it as damaged.
// Passing nil clears the content; the node stays in the tree but paints
// nothing and hides nothing.
func (n *Node) SetBuffer(buf *Buffer) {
	n.SetBufferWithOptions(buf, nil)
}

// SetBufferWithOptions replaces the content buffer. The previous buffer is
// unlocked. When the size and opacity of the content are unchanged only
// opts.Damage is repainted; otherwise the node is fully re-evaluated.
func (n *Node) SetBufferWithOptions(buf *Buffer, opts *BufferOptions) {
	n.mustType(NodeTypeBuffer)
	var o BufferOptions
	if opts != nil {
		o = *opts
	}
	b := &n.buffer
	if buf == nil && b.buf == nil && b.texture == nil {
		return
	}

	full := b.texture != nil
	switch {
	case buf == nil || b.buf == nil:
		full = true
	case buf.Width() != b.buf.Width() || buf.Height() != b.buf.Height():
		full = true
	case buf.Opaque() != b.buf.Opaque():
		full = true
	}

	b.wait = o.Wait
	if buf != b.buf {
		old := b.buf
		b.buf = nil
		if buf != nil {
			b.buf = buf.Lock()
		}
		if old != nil {
			old.Unlock()
		}
	}
	b.texture = nil
	b.bufferIsOpaque = b.opaqueHint || (buf != nil && buf.Opaque())

	if full || buf == nil {
		n.update(nil)
		return
	}
	n.damageContent(o.Damage)
}

// SetTexture shows tex instead of a content buffer. The caller keeps
// ownership of the texture. Passing nil clears the content.
func (n *Node) SetTexture(tex Texture) {
	n.mustType(NodeTypeBuffer)
	b := &n.buffer
	if b.texture == tex && b.buf == nil {
		return
	}
	if b.buf != nil {
		b.buf.Unlock()
		b.buf = nil
	}
	b.texture = tex
	b.wait = SyncPoint{}
	b.bufferIsOpaque = b.opaqueHint
	n.update(nil)
}

// damageContent maps buffer-local damage to every output and adds it to
// their damage rings. Only pixels currently visible are damaged.
func (n *Node) damageContent(damage *Region) {
	b := &n.buffer
	lx, ly, ok := n.Coords()
	if !ok || b.buf == nil {
		return
	}
	bw, bh := b.buf.Width(), b.buf.Height()
	full := RegionFromBox(Box{0, 0, bw, bh})
	if damage == nil {
		damage = &full
	}

	src := b.effectiveSrcBox()
	src = TransformFBox(src, b.transform, float64(bw), float64(bh))
	var scaleX, scaleY float64
	if b.dstWidth > 0 && b.dstHeight > 0 {
		scaleX = float64(b.dstWidth) / src.Width
		scaleY = float64(b.dstHeight) / src.Height
	} else {
		scaleX = float64(bw) / src.Width
		scaleY = float64(bh) / src.Height
	}

	local := damage.Transform(b.transform, bw, bh)
	srcBox := Box{
		int(math.Floor(src.X)), int(math.Floor(src.Y)),
		int(math.Ceil(src.X + src.Width - math.Floor(src.X))),
		int(math.Ceil(src.Y + src.Height - math.Floor(src.Y))),
	}
	local = local.IntersectBox(srcBox).Translate(-srcBox.X, -srcBox.Y)
	if local.Empty() {
		return
	}

	for _, o := range n.scene.outputs {
		scale := o.scale()
		sx, sy := scale*scaleX, scale*scaleY
		out := local.ScaleXY(sx, sy)
		// Upscaled content bleeds into neighbouring pixels under linear
		// filtering.
		if bigger := math.Max(sx, sy); bigger > 1 {
			out = out.Expand(int(math.Ceil(bigger / 2)))
		}
		cull := scaleRegion(n.visibleOn(o), scale).
			Translate(-int(math.Round(float64(lx)*scale)), -int(math.Round(float64(ly)*scale)))
		out = out.Intersect(cull)
		ox, oy := o.Position()
		out = out.Translate(
			int(math.Round(float64(lx-ox)*scale)),
			int(math.Round(float64(ly-oy)*scale)),
		)
		o.damageRegion(out)
	}
}

// SetBufferIsOpaque declares that the whole buffer is opaque even if its
// pixel format has alpha. Content with an alpha-less format is always
// opaque.
func (n *Node) SetBufferIsOpaque(opaque bool) {
	n.mustType(NodeTypeBuffer)
	b := &n.buffer
	b.opaqueHint = opaque
	eff := opaque || (b.buf != nil && b.buf.Opaque())
	if eff == b.bufferIsOpaque {
		return
	}
	b.bufferIsOpaque = eff
	n.update(nil)
}

// BufferIsOpaque reports whether the whole content is treated as opaque.
func (n *Node) BufferIsOpaque() bool {
	n.mustType(NodeTypeBuffer)
	return n.buffer.bufferIsOpaque
}

// SetOpaqueRegion sets the part of the content known to be opaque, in node
// coordinates. It is ignored when the whole buffer is opaque.
func (n *Node) SetOpaqueRegion(r Region) {
	n.mustType(NodeTypeBuffer)
	if n.buffer.opaqueRegion.Equal(r) {
		return
	}
	n.buffer.opaqueRegion = r
	n.update(nil)
}

// OpaqueRegion returns the opaque region hint.
func (n *Node) OpaqueRegion() Region {
	n.mustType(NodeTypeBuffer)
	return n.buffer.opaqueRegion
}

// SetSourceBox crops the content, in buffer pixels before the buffer
// transform. The zero box shows the whole buffer.
func (n *Node) SetSourceBox(box FBox) {
	n.mustType(NodeTypeBuffer)
	if n.buffer.srcBox == box {
		return
	}
	n.buffer.srcBox = box
	n.update(nil)
}

// SourceBox returns the source crop.
func (n *Node) SourceBox() FBox {
	n.mustType(NodeTypeBuffer)
	return n.buffer.srcBox
}

// SetDestSize scales the content to width×height. Zero restores the
// natural size.
func (n *Node) SetDestSize(width, height int) {
	n.mustType(NodeTypeBuffer)
	width, height = max(width, 0), max(height, 0)
	if n.buffer.dstWidth == width && n.buffer.dstHeight == height {
		return
	}
	n.buffer.dstWidth, n.buffer.dstHeight = width, height
	n.update(nil)
}

// DestSize returns the destination size set with SetDestSize.
func (n *Node) DestSize() (w, h int) {
	n.mustType(NodeTypeBuffer)
	return n.buffer.dstWidth, n.buffer.dstHeight
}

// SetTransform sets the buffer transform.
func (n *Node) SetTransform(t Transform) {
	n.mustType(NodeTypeBuffer)
	if n.buffer.transform == t {
		return
	}
	n.buffer.transform = t
	n.update(nil)
}

// Transform returns the buffer transform.
func (n *Node) Transform() Transform {
	n.mustType(NodeTypeBuffer)
	return n.buffer.transform
}

// SetOpacity sets the content opacity in [0, 1].
func (n *Node) SetOpacity(opacity float64) error {
	n.mustType(NodeTypeBuffer)
	if err := checkRange("opacity", opacity, 0, 1); err != nil {
		return err
	}
	if n.buffer.opacity == opacity {
		return nil
	}
	n.buffer.opacity = opacity
	n.update(nil)
	return nil
}

// Opacity returns the content opacity.
func (n *Node) Opacity() float64 {
	n.mustType(NodeTypeBuffer)
	return n.buffer.opacity
}

// SetFilterMode selects the sampling filter for scaled content.
func (n *Node) SetFilterMode(f FilterMode) {
	n.mustType(NodeTypeBuffer)
	if n.buffer.filter == f {
		return
	}
	n.buffer.filter = f
	n.update(nil)
}

// FilterMode returns the sampling filter.
func (n *Node) FilterMode() FilterMode {
	n.mustType(NodeTypeBuffer)
	return n.buffer.filter
}

// SetTransferFunction sets the transfer function of the content.
func (n *Node) SetTransferFunction(tf TransferFunction) {
	n.mustType(NodeTypeBuffer)
	if n.buffer.transferFunction == tf {
		return
	}
	n.buffer.transferFunction = tf
	n.update(nil)
}

// TransferFunction returns the transfer function of the content.
func (n *Node) TransferFunction() TransferFunction {
	n.mustType(NodeTypeBuffer)
	return n.buffer.transferFunction
}

// SetPrimaries sets the color primaries of the content.
func (n *Node) SetPrimaries(p Primaries) {
	n.mustType(NodeTypeBuffer)
	if n.buffer.primaries == p {
		return
	}
	n.buffer.primaries = p
	n.update(nil)
}

// Primaries returns the color primaries of the content.
func (n *Node) Primaries() Primaries {
	n.mustType(NodeTypeBuffer)
	return n.buffer.primaries
}

// SetBackdropBlurIgnoreTransparent makes the blur skip fully transparent
// content pixels.
func (n *Node) SetBackdropBlurIgnoreTransparent(ignore bool) {
	n.mustType(NodeTypeBuffer)
	if n.buffer.backdropBlurIgnoreTransparent == ignore {
		return
	}
	n.buffer.backdropBlurIgnoreTransparent = ignore
	n.update(nil)
}

// SetPointAcceptsInput installs a hook NodeAt consults with node-local
// coordinates. Nil accepts every point inside the footprint.
func (n *Node) SetPointAcceptsInput(fn func(n *Node, sx, sy float64) bool) {
	n.mustType(NodeTypeBuffer)
	n.buffer.pointAcceptsInput = fn
}

// WaitPoint returns the sync point attached to the current content.
func (n *Node) WaitPoint() SyncPoint {
	n.mustType(NodeTypeBuffer)
	return n.buffer.wait
}

// ActiveOutputs returns one bit per output index the node is shown on.
func (n *Node) ActiveOutputs() uint64 {
	n.mustType(NodeTypeBuffer)
	return n.buffer.activeOutputs
}

// PrimaryOutput returns the output showing the largest part of the node.
func (n *Node) PrimaryOutput() *Output {
	n.mustType(NodeTypeBuffer)
	return n.buffer.primaryOutput
}

// SendFrameDone tells the node's owner that a frame was presented on o.
func (n *Node) SendFrameDone(o *Output, when time.Time) {
	n.mustType(NodeTypeBuffer)
	n.Events.FrameDone.Emit(FrameDoneEvent{Output: o, When: when})
}
