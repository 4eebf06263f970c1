package fxscene

// Buffer is a reference-counted handle to pixel content owned by a producer
// (a client surface, an allocator, a swapchain). The scene never reads or
// writes the pixels itself; renderers interpret Source.
//
// The producer holds an implicit reference until it calls Drop. Consumers
// take additional references with Lock and give them back with Unlock. When
// the last lock goes away the Release signal fires and the producer may reuse
// the storage. Once the buffer is both dropped and unlocked the Destroy
// signal fires and the handle becomes invalid.
type Buffer struct {
	width, height int
	opaque        bool
	singlePixel   *Color

	// Source is the backend-specific pixel storage, for example an
	// *image.RGBA for the software renderer or an *ebiten.Image.
	Source any

	locks     int
	dropped   bool
	destroyed bool

	Events struct {
		Release Signal[*Buffer]
		Destroy Signal[*Buffer]
	}
}

// BufferDesc describes a new Buffer.
type BufferDesc struct {
	Width, Height int
	// Opaque marks pixel formats without an alpha channel.
	Opaque bool
	Source any
}

// NewBuffer creates a buffer handle. Width and height must be positive.
func NewBuffer(desc BufferDesc) *Buffer {
	if desc.Width <= 0 || desc.Height <= 0 {
		panic("fxscene: buffer dimensions must be positive")
	}
	return &Buffer{
		width:  desc.Width,
		height: desc.Height,
		opaque: desc.Opaque,
		Source: desc.Source,
	}
}

// NewSinglePixelBuffer creates a 1×1 buffer holding a single color. Buffer
// nodes showing it are drawn as solid rectangles and never need a texture.
func NewSinglePixelBuffer(c Color) *Buffer {
	b := NewBuffer(BufferDesc{Width: 1, Height: 1, Opaque: c.Opaque()})
	b.singlePixel = &c
	return b
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.height }

// Opaque reports whether the pixel format has no alpha channel.
func (b *Buffer) Opaque() bool { return b.opaque }

// SinglePixelColor returns the color of a single-pixel buffer.
func (b *Buffer) SinglePixelColor() (Color, bool) {
	if b.singlePixel == nil {
		return Color{}, false
	}
	return *b.singlePixel, true
}

// Locks returns the number of consumer references.
func (b *Buffer) Locks() int { return b.locks }

// Dropped reports whether the producer has given up its reference.
func (b *Buffer) Dropped() bool { return b.dropped }

// Destroyed reports whether the handle has become invalid.
func (b *Buffer) Destroyed() bool { return b.destroyed }

// Lock takes a consumer reference and returns b.
func (b *Buffer) Lock() *Buffer {
	if b.destroyed {
		panic("fxscene: lock of destroyed buffer")
	}
	b.locks++
	return b
}

// Unlock gives back a reference taken with Lock.
func (b *Buffer) Unlock() {
	if b.locks <= 0 {
		panic("fxscene: unbalanced buffer unlock")
	}
	b.locks--
	if b.locks == 0 {
		b.Events.Release.Emit(b)
	}
	b.considerDestroy()
}

// Drop gives up the producer's reference.
func (b *Buffer) Drop() {
	if b.dropped {
		return
	}
	b.dropped = true
	b.considerDestroy()
}

func (b *Buffer) considerDestroy() {
	if !b.dropped || b.locks > 0 || b.destroyed {
		return
	}
	b.destroyed = true
	b.Events.Destroy.Emit(b)
	b.Events.Release.closeAll()
	b.Events.Destroy.closeAll()
}
