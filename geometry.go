package fxscene

import "math"

// Point is an integer position in some coordinate space.
type Point struct {
	X, Y int
}

// Box is an integer axis-aligned rectangle. The origin is the top-left corner,
// with Y increasing downward. A box with non-positive width or height is empty.
type Box struct {
	X, Y, Width, Height int
}

// Empty reports whether b covers no pixels.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Contains reports whether the pixel (x, y) lies inside b. The right and
// bottom edges are exclusive.
func (b Box) Contains(x, y int) bool {
	if b.Empty() {
		return false
	}
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// ContainsF is Contains for fractional points.
func (b Box) ContainsF(x, y float64) bool {
	if b.Empty() {
		return false
	}
	return x >= float64(b.X) && x < float64(b.X+b.Width) &&
		y >= float64(b.Y) && y < float64(b.Y+b.Height)
}

// Intersect returns the overlap of b and o, and whether it is non-empty.
func (b Box) Intersect(o Box) (Box, bool) {
	if b.Empty() || o.Empty() {
		return Box{}, false
	}
	x1 := max(b.X, o.X)
	y1 := max(b.Y, o.Y)
	x2 := min(b.X+b.Width, o.X+o.Width)
	y2 := min(b.Y+b.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return Box{}, false
	}
	return Box{x1, y1, x2 - x1, y2 - y1}, true
}

// Translate returns b moved by (dx, dy).
func (b Box) Translate(dx, dy int) Box {
	return Box{b.X + dx, b.Y + dy, b.Width, b.Height}
}

// Equal reports whether b and o describe the same area. All empty boxes are
// equal.
func (b Box) Equal(o Box) bool {
	if b.Empty() && o.Empty() {
		return true
	}
	return b == o
}

// Area returns the number of pixels covered by b.
func (b Box) Area() int {
	if b.Empty() {
		return 0
	}
	return b.Width * b.Height
}

// FBox is a fractional rectangle, used for source crops in buffer space.
type FBox struct {
	X, Y, Width, Height float64
}

// Empty reports whether b has a non-positive dimension.
func (b FBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Equal reports whether b and o are the same box. All empty boxes are equal.
func (b FBox) Equal(o FBox) bool {
	if b.Empty() && o.Empty() {
		return true
	}
	return b == o
}

// Transform is one of the eight axis-aligned output/buffer transforms.
// The numeric values match the wayland wl_output.transform enum: bit 0 and 1
// hold the rotation in quarter turns, bit 2 the horizontal flip.
type Transform uint8

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

var transformNames = [...]string{
	"normal", "90", "180", "270",
	"flipped", "flipped-90", "flipped-180", "flipped-270",
}

// String returns the transform name as used in configuration files.
func (t Transform) String() string {
	if int(t) < len(transformNames) {
		return transformNames[t]
	}
	return "invalid"
}

// ParseTransform converts a name produced by String back to a Transform.
func ParseTransform(s string) (Transform, bool) {
	for i, name := range transformNames {
		if name == s {
			return Transform(i), true
		}
	}
	return TransformNormal, false
}

// SwapsAxes reports whether t rotates by an odd number of quarter turns.
func (t Transform) SwapsAxes() bool {
	return t&Transform90 != 0
}

// Invert returns the transform that undoes t.
func (t Transform) Invert() Transform {
	if t&Transform90 != 0 && t&TransformFlipped == 0 {
		return t ^ Transform180
	}
	return t
}

// Compose returns the transform equivalent to applying t, then o.
func (t Transform) Compose(o Transform) Transform {
	flipped := (t ^ o) & TransformFlipped
	const rotationMask = Transform90 | Transform180
	var rotated Transform
	if o&TransformFlipped != 0 {
		// A rotation followed by a flip equals a flip followed by the
		// opposite rotation.
		rotated = (o - t) & rotationMask
	} else {
		rotated = (t + o) & rotationMask
	}
	return flipped | rotated
}

// TransformBox applies t to b, where b lives in a space of size width×height
// (measured before the transform).
func TransformBox(b Box, t Transform, width, height int) Box {
	var d Box
	if t.SwapsAxes() {
		d.Width, d.Height = b.Height, b.Width
	} else {
		d.Width, d.Height = b.Width, b.Height
	}
	switch t {
	case TransformNormal:
		d.X, d.Y = b.X, b.Y
	case Transform90:
		d.X, d.Y = height-b.Y-b.Height, b.X
	case Transform180:
		d.X, d.Y = width-b.X-b.Width, height-b.Y-b.Height
	case Transform270:
		d.X, d.Y = b.Y, width-b.X-b.Width
	case TransformFlipped:
		d.X, d.Y = width-b.X-b.Width, b.Y
	case TransformFlipped90:
		d.X, d.Y = b.Y, b.X
	case TransformFlipped180:
		d.X, d.Y = b.X, height-b.Y-b.Height
	case TransformFlipped270:
		d.X, d.Y = height-b.Y-b.Height, width-b.X-b.Width
	}
	return d
}

// TransformFBox is TransformBox for fractional boxes.
func TransformFBox(b FBox, t Transform, width, height float64) FBox {
	var d FBox
	if t.SwapsAxes() {
		d.Width, d.Height = b.Height, b.Width
	} else {
		d.Width, d.Height = b.Width, b.Height
	}
	switch t {
	case TransformNormal:
		d.X, d.Y = b.X, b.Y
	case Transform90:
		d.X, d.Y = height-b.Y-b.Height, b.X
	case Transform180:
		d.X, d.Y = width-b.X-b.Width, height-b.Y-b.Height
	case Transform270:
		d.X, d.Y = b.Y, width-b.X-b.Width
	case TransformFlipped:
		d.X, d.Y = width-b.X-b.Width, b.Y
	case TransformFlipped90:
		d.X, d.Y = b.Y, b.X
	case TransformFlipped180:
		d.X, d.Y = b.X, height-b.Y-b.Height
	case TransformFlipped270:
		d.X, d.Y = height-b.Y-b.Height, width-b.X-b.Width
	}
	return d
}

// scaleBox scales b, flooring the origin and ceiling the far edge so the
// result covers every pixel touched by the fractional box.
func scaleBox(b Box, sx, sy float64) Box {
	x1 := int(math.Floor(float64(b.X) * sx))
	y1 := int(math.Floor(float64(b.Y) * sy))
	x2 := int(math.Ceil(float64(b.X+b.Width) * sx))
	y2 := int(math.Ceil(float64(b.Y+b.Height) * sy))
	return Box{x1, y1, x2 - x1, y2 - y1}
}

// roundedScaleBox scales b to the nearest pixel edges. It is used for
// geometry (where a box is drawn) as opposed to damage.
func roundedScaleBox(b Box, scale float64) Box {
	x1 := int(math.Round(float64(b.X) * scale))
	y1 := int(math.Round(float64(b.Y) * scale))
	x2 := int(math.Round(float64(b.X+b.Width) * scale))
	y2 := int(math.Round(float64(b.Y+b.Height) * scale))
	return Box{x1, y1, x2 - x1, y2 - y1}
}
