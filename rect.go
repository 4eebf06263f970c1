package fxscene

// ClippedRegion is an area of a rect, relative to the rect's origin, that is
// left unpainted, optionally with rounded corners of its own. Decorations use
// it to punch a hole where the window content goes.
type ClippedRegion struct {
	Area         Box
	CornerRadius int
	Corners      CornerLocation
}

type rectData struct {
	width, height         int
	color                 Color
	cornerRadius          int
	corners               CornerLocation
	backdropBlur          bool
	backdropBlurOptimized bool
	clipped               ClippedRegion
}

// CreateRect creates a solid rectangle of size width×height as the topmost
// child of parent.
func CreateRect(parent *Node, width, height int, c Color) *Node {
	n := newNode(parent, NodeTypeRect)
	n.rect = rectData{
		width:   max(width, 0),
		height:  max(height, 0),
		color:   c,
		corners: CornerAll,
	}
	n.update(nil)
	return n
}

// SetClippedRegion sets the area left unpainted. A region that does not
// intersect the rect has no effect.
func (n *Node) SetClippedRegion(r ClippedRegion) {
	n.mustType(NodeTypeRect)
	if n.rect.clipped == r {
		return
	}
	n.rect.clipped = r
	n.update(nil)
}

// ClippedRegion returns the area left unpainted.
func (n *Node) ClippedRegion() ClippedRegion {
	n.mustType(NodeTypeRect)
	return n.rect.clipped
}

// clippedBox returns the clipped area intersected with the rect, relative to
// the rect origin.
func (r *rectData) clippedBox() (Box, bool) {
	return r.clipped.Area.Intersect(Box{0, 0, r.width, r.height})
}

// SetSize resizes a rect, shadow or optimized blur node.
func (n *Node) SetSize(width, height int) {
	n.mustAlive()
	width, height = max(width, 0), max(height, 0)
	var w, h *int
	switch n.Type {
	case NodeTypeRect:
		w, h = &n.rect.width, &n.rect.height
	case NodeTypeShadow:
		w, h = &n.shadow.width, &n.shadow.height
	case NodeTypeOptimizedBlur:
		w, h = &n.blur.width, &n.blur.height
	default:
		panic("fxscene: SetSize on " + n.Type.String() + " node")
	}
	if *w == width && *h == height {
		return
	}
	*w, *h = width, height
	if n.Type == NodeTypeOptimizedBlur {
		n.blur.invalidate()
	}
	n.update(nil)
}

// Color returns the color of a rect or shadow node.
func (n *Node) Color() Color {
	switch n.Type {
	case NodeTypeRect:
		return n.rect.color
	case NodeTypeShadow:
		return n.shadow.color
	}
	panic("fxscene: Color on " + n.Type.String() + " node")
}

// SetColor sets the color of a rect or shadow node.
func (n *Node) SetColor(c Color) {
	n.mustAlive()
	var dst *Color
	switch n.Type {
	case NodeTypeRect:
		dst = &n.rect.color
	case NodeTypeShadow:
		dst = &n.shadow.color
	default:
		panic("fxscene: SetColor on " + n.Type.String() + " node")
	}
	if *dst == c {
		return
	}
	*dst = c
	n.update(nil)
}

// CornerRadius returns the corner radius of a rect, shadow or buffer node.
func (n *Node) CornerRadius() int {
	switch n.Type {
	case NodeTypeRect:
		return n.rect.cornerRadius
	case NodeTypeShadow:
		return n.shadow.cornerRadius
	case NodeTypeBuffer:
		return n.buffer.cornerRadius
	}
	return 0
}

// SetCornerRadius rounds the corners of a rect, shadow or buffer node.
// Negative radii are rejected. A radius of 0 disables rounding.
func (n *Node) SetCornerRadius(radius int) error {
	n.mustAlive()
	if err := checkNonNegative("corner radius", radius); err != nil {
		return err
	}
	var dst *int
	switch n.Type {
	case NodeTypeRect:
		dst = &n.rect.cornerRadius
	case NodeTypeShadow:
		dst = &n.shadow.cornerRadius
	case NodeTypeBuffer:
		dst = &n.buffer.cornerRadius
	default:
		panic("fxscene: SetCornerRadius on " + n.Type.String() + " node")
	}
	if *dst == radius {
		return nil
	}
	*dst = radius
	n.update(nil)
	return nil
}

// SetCorners selects which corners of a rect or buffer node are rounded.
func (n *Node) SetCorners(c CornerLocation) {
	n.mustAlive()
	var dst *CornerLocation
	switch n.Type {
	case NodeTypeRect:
		dst = &n.rect.corners
	case NodeTypeBuffer:
		dst = &n.buffer.corners
	default:
		panic("fxscene: SetCorners on " + n.Type.String() + " node")
	}
	if *dst == c {
		return
	}
	*dst = c
	n.update(nil)
}

// Corners returns the rounded corner mask of a rect or buffer node.
func (n *Node) Corners() CornerLocation {
	switch n.Type {
	case NodeTypeRect:
		return n.rect.corners
	case NodeTypeBuffer:
		return n.buffer.corners
	}
	return CornerNone
}

// SetBackdropBlur opts a rect or buffer node in or out of blurring what is
// behind it.
func (n *Node) SetBackdropBlur(enabled bool) {
	n.mustAlive()
	var dst *bool
	switch n.Type {
	case NodeTypeRect:
		dst = &n.rect.backdropBlur
	case NodeTypeBuffer:
		dst = &n.buffer.backdropBlur
	default:
		panic("fxscene: SetBackdropBlur on " + n.Type.String() + " node")
	}
	if *dst == enabled {
		return
	}
	*dst = enabled
	n.update(nil)
}

// BackdropBlur reports whether a rect or buffer node opted into backdrop
// blur.
func (n *Node) BackdropBlur() bool {
	switch n.Type {
	case NodeTypeRect:
		return n.rect.backdropBlur
	case NodeTypeBuffer:
		return n.buffer.backdropBlur
	}
	return false
}

// SetBackdropBlurOptimized makes a rect or buffer node sample the cached
// blur of an optimized blur node instead of blurring every frame.
func (n *Node) SetBackdropBlurOptimized(enabled bool) {
	n.mustAlive()
	var dst *bool
	switch n.Type {
	case NodeTypeRect:
		dst = &n.rect.backdropBlurOptimized
	case NodeTypeBuffer:
		dst = &n.buffer.backdropBlurOptimized
	default:
		panic("fxscene: SetBackdropBlurOptimized on " + n.Type.String() + " node")
	}
	if *dst == enabled {
		return
	}
	*dst = enabled
	n.update(nil)
}
