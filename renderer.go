package fxscene

// Texture is renderer-owned, sampleable pixel storage. The scene imports one
// texture per content buffer and destroys it when the buffer goes away or the
// texture cache evicts it.
type Texture interface {
	Width() int
	Height() int
	Destroy()
}

// Timeline is a GPU synchronization timeline. A point on the timeline is
// signalled by whoever produces content and waited on by whoever samples it.
type Timeline interface {
	Signal(point uint64) error
	Signaled(point uint64) bool
}

// SyncPoint is a point on a timeline. The zero value means no
// synchronization is needed.
type SyncPoint struct {
	Timeline Timeline
	Point    uint64
}

// Valid reports whether p refers to a timeline.
func (p SyncPoint) Valid() bool {
	return p.Timeline != nil
}

// Renderer is the GPU capability the scene drives. Implementations must not
// block the caller; waits on sync points are recorded into the pass.
type Renderer interface {
	// ImportBuffer makes buf sampleable.
	ImportBuffer(buf *Buffer) (Texture, error)
	// BeginPass starts painting into target, typically a swapchain buffer
	// handed out by the output's display.
	BeginPass(target *Buffer, opts PassOptions) (RenderPass, error)
	// CreateTimeline creates a synchronization timeline.
	CreateTimeline() (Timeline, error)
}

// PassOptions configure a render pass.
type PassOptions struct {
	// Damage is the part of the target that is repainted, in target pixels.
	// Pixels outside it keep their previous contents.
	Damage Region
	// Background is the part of Damage no opaque node covers. Renderers
	// fill it with opaque black before any primitive is drawn.
	Background Region
	// Signal, when valid, is signalled once the pass has completed.
	Signal SyncPoint
}

// RenderPass records drawing into a target. All geometry is in target pixel
// coordinates. Every primitive carries a clip region, and renderers must not
// touch pixels outside it.
type RenderPass interface {
	DrawRect(RectPrimitive)
	DrawTexture(TexturePrimitive)
	DrawShadow(ShadowPrimitive)
	DrawBlur(BlurPrimitive)
	// Submit finishes the pass.
	Submit() error
}

// CornerLocation is a mask of the corners a corner radius applies to.
type CornerLocation uint8

const (
	CornerTopLeft CornerLocation = 1 << iota
	CornerTopRight
	CornerBottomRight
	CornerBottomLeft

	CornerNone CornerLocation = 0
	CornerAll                 = CornerTopLeft | CornerTopRight | CornerBottomRight | CornerBottomLeft
)

// FilterMode selects how textures are sampled when scaled.
type FilterMode uint8

const (
	FilterBilinear FilterMode = iota
	FilterNearest
)

// RectPrimitive is a solid, optionally rounded rectangle.
type RectPrimitive struct {
	Box          Box
	Clip         Region
	Color        Color
	CornerRadius int
	Corners      CornerLocation
	// Cutout, when non-empty, is left unpainted. CutoutRadius rounds the
	// cutout's own corners.
	Cutout        Box
	CutoutRadius  int
	CutoutCorners CornerLocation
}

// TexturePrimitive samples SrcBox of Texture into DstBox.
type TexturePrimitive struct {
	Texture Texture
	// SrcBox is in texture pixels, before Transform is applied. An empty
	// SrcBox means the whole texture.
	SrcBox           FBox
	DstBox           Box
	Clip             Region
	Transform        Transform
	Alpha            float64
	Filter           FilterMode
	CornerRadius     int
	Corners          CornerLocation
	TransferFunction TransferFunction
	Primaries        Primaries
	// Wait must be reached before the texture is sampled.
	Wait SyncPoint
}

// ShadowPrimitive is a blurred, solid-color rounded rectangle. The shape
// casting the shadow is Box inset by BlurSigma on every side; the blur
// spreads it back out to Box.
type ShadowPrimitive struct {
	Box          Box
	Clip         Region
	Color        Color
	CornerRadius int
	BlurSigma    float64
}

// BlurPrimitive blurs the already composed target contents under Box.
//
// With Cache nil the renderer snapshots the target, blurs it with Params and
// writes the result back inside Box∩Clip. With Cache set and Capture true
// the renderer stores the blurred snapshot in the cache and draws nothing.
// With Cache set and Capture false the stored result is drawn instead of
// taking a new snapshot. Mask, when set, limits the blur to the pixels the
// masking texture covers with non-zero alpha.
type BlurPrimitive struct {
	Box          Box
	Clip         Region
	Params       BlurParams
	CornerRadius int
	Corners      CornerLocation
	Alpha        float64
	Cache        *BlurCache
	Capture      bool
	Mask         *TexturePrimitive
}

// BlurCache holds a pre-blurred background for one optimized blur node on
// one output. The scene decides when it is stale; the renderer owns Data.
type BlurCache struct {
	// Box is the cached area in target pixels.
	Box Box
	// Version is the blur parameter version the cache was captured with.
	Version uint64
	// Data is renderer state, typically a texture.
	Data any

	valid bool
}

// Valid reports whether the cache holds a usable capture.
func (c *BlurCache) Valid() bool {
	return c != nil && c.valid && c.Data != nil
}

func (c *BlurCache) invalidate() {
	c.valid = false
}

func (c *BlurCache) release() {
	if d, ok := c.Data.(interface{ Destroy() }); ok {
		d.Destroy()
	}
	c.Data = nil
	c.valid = false
}
