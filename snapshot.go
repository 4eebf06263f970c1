package fxscene

import "fmt"

// Snapshot copies the subtree rooted at n into parent. Buffer nodes in the
// copy share content with the originals and hold their own lock on it, so a
// client may release or replace its buffer while the snapshot keeps showing
// the old frame, for example during a closing animation. Buffer nodes
// without content are left out.
//
// Snapshotting a buffer node without content returns ErrNoContent.
func Snapshot(n, parent *Node) (*Node, error) {
	n.mustAlive()
	parent.mustAlive()
	if n.Type == NodeTypeBuffer && !n.buffer.hasContent() {
		return nil, fmt.Errorf("snapshot node %d: %w", n.ID, ErrNoContent)
	}
	if n == parent || n.isAncestorOf(parent) {
		panic("fxscene: snapshot into its own subtree")
	}
	return snapshotNode(n, parent), nil
}

func snapshotNode(n, parent *Node) *Node {
	var c *Node
	switch n.Type {
	case NodeTypeTree:
		c = CreateTree(parent)
		for _, child := range n.children {
			if child.destroying || (child.Type == NodeTypeBuffer && !child.buffer.hasContent()) {
				continue
			}
			snapshotNode(child, c)
		}

	case NodeTypeRect:
		r := &n.rect
		c = CreateRect(parent, r.width, r.height, r.color)
		_ = c.SetCornerRadius(r.cornerRadius)
		c.SetCorners(r.corners)
		c.SetClippedRegion(r.clipped)
		c.SetBackdropBlur(r.backdropBlur)
		c.SetBackdropBlurOptimized(r.backdropBlurOptimized)

	case NodeTypeShadow:
		sh := &n.shadow
		c = CreateShadow(parent, sh.width, sh.height, sh.color)
		_ = c.SetCornerRadius(sh.cornerRadius)
		_ = c.SetBlurSigma(sh.blurSigma)

	case NodeTypeBuffer:
		b := &n.buffer
		c = CreateBuffer(parent, nil)
		cb := &c.buffer
		// Copied before the content is attached so the node is evaluated
		// once with its final geometry.
		cb.srcBox = b.srcBox
		cb.dstWidth, cb.dstHeight = b.dstWidth, b.dstHeight
		cb.transform = b.transform
		cb.opacity = b.opacity
		cb.cornerRadius = b.cornerRadius
		cb.corners = b.corners
		cb.filter = b.filter
		cb.transferFunction = b.transferFunction
		cb.primaries = b.primaries
		cb.opaqueRegion = b.opaqueRegion
		cb.opaqueHint = b.opaqueHint
		cb.backdropBlur = b.backdropBlur
		cb.backdropBlurOptimized = b.backdropBlurOptimized
		cb.backdropBlurIgnoreTransparent = b.backdropBlurIgnoreTransparent
		if b.buf != nil {
			c.SetBufferWithOptions(b.buf, &BufferOptions{Wait: b.wait})
		} else {
			c.SetTexture(b.texture)
		}

	case NodeTypeOptimizedBlur:
		c = CreateOptimizedBlur(parent, n.blur.width, n.blur.height)
	}

	c.Name = n.Name
	c.SetPosition(n.x, n.y)
	c.SetEnabled(n.enabled)
	return c
}
