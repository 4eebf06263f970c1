package fxscene

// optimizedBlurData holds one cached blur per output. A cache is reused
// until the blur parameters change, the node is resized or moved on that
// output, or the node is marked dirty.
type optimizedBlurData struct {
	width, height int
	caches        map[*Output]*BlurCache
}

// CreateOptimizedBlur creates an optimized blur node of size width×height
// as the topmost child of parent. Everything painted below it inside its
// area is blurred once and cached; rects and buffers above it with
// SetBackdropBlurOptimized sample that cache instead of blurring per frame.
func CreateOptimizedBlur(parent *Node, width, height int) *Node {
	n := newNode(parent, NodeTypeOptimizedBlur)
	n.blur.width = max(width, 0)
	n.blur.height = max(height, 0)
	n.update(nil)
	return n
}

// MarkBlurDirty forces an optimized blur node to capture its background
// again on the next frame, for example after the wallpaper behind it
// changed.
func (n *Node) MarkBlurDirty() {
	n.mustType(NodeTypeOptimizedBlur)
	n.blur.invalidate()
	n.update(nil)
}

func (b *optimizedBlurData) cacheFor(o *Output) *BlurCache {
	if b.caches == nil {
		b.caches = make(map[*Output]*BlurCache)
	}
	c, ok := b.caches[o]
	if !ok {
		c = &BlurCache{}
		b.caches[o] = c
	}
	return c
}

func (b *optimizedBlurData) invalidate() {
	for _, c := range b.caches {
		c.invalidate()
	}
}

func (b *optimizedBlurData) releaseCaches() {
	for o, c := range b.caches {
		c.release()
		delete(b.caches, o)
	}
}

func (b *optimizedBlurData) forgetOutput(o *Output) {
	if c, ok := b.caches[o]; ok {
		c.release()
		delete(b.caches, o)
	}
}
