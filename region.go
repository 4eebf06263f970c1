package fxscene

import (
	"math"
	"slices"
)

// Region is a set of pixels stored as a union of disjoint, non-empty boxes.
// The zero value is the empty region. Regions are values: every operation
// returns a new Region and never modifies its receiver.
type Region struct {
	rects []Box
}

// RegionFromBox returns a region covering b.
func RegionFromBox(b Box) Region {
	if b.Empty() {
		return Region{}
	}
	return Region{rects: []Box{b}}
}

// NewRegion returns the union of the given boxes.
func NewRegion(boxes ...Box) Region {
	var r Region
	for _, b := range boxes {
		r = r.UnionBox(b)
	}
	return r
}

// Empty reports whether r covers no pixels.
func (r Region) Empty() bool {
	return len(r.rects) == 0
}

// Rects returns a copy of the disjoint boxes making up r.
func (r Region) Rects() []Box {
	return slices.Clone(r.rects)
}

// NumRects returns the number of boxes making up r.
func (r Region) NumRects() int {
	return len(r.rects)
}

// Extents returns the bounding box of r.
func (r Region) Extents() Box {
	if len(r.rects) == 0 {
		return Box{}
	}
	x1, y1 := math.MaxInt, math.MaxInt
	x2, y2 := math.MinInt, math.MinInt
	for _, b := range r.rects {
		x1 = min(x1, b.X)
		y1 = min(y1, b.Y)
		x2 = max(x2, b.X+b.Width)
		y2 = max(y2, b.Y+b.Height)
	}
	return Box{x1, y1, x2 - x1, y2 - y1}
}

// Area returns the number of pixels in r.
func (r Region) Area() int {
	a := 0
	for _, b := range r.rects {
		a += b.Area()
	}
	return a
}

// ContainsPoint reports whether the pixel (x, y) is in r.
func (r Region) ContainsPoint(x, y int) bool {
	for _, b := range r.rects {
		if b.Contains(x, y) {
			return true
		}
	}
	return false
}

// IntersectsBox reports whether r and b share at least one pixel.
func (r Region) IntersectsBox(b Box) bool {
	for _, rb := range r.rects {
		if _, ok := rb.Intersect(b); ok {
			return true
		}
	}
	return false
}

// Union returns r ∪ o.
func (r Region) Union(o Region) Region {
	if r.Empty() {
		return Region{rects: slices.Clone(o.rects)}
	}
	if o.Empty() {
		return Region{rects: slices.Clone(r.rects)}
	}
	extra := o.Subtract(r)
	out := make([]Box, 0, len(r.rects)+len(extra.rects))
	out = append(out, r.rects...)
	out = append(out, extra.rects...)
	return Region{rects: coalesce(out)}
}

// UnionBox returns r ∪ b.
func (r Region) UnionBox(b Box) Region {
	return r.Union(RegionFromBox(b))
}

// Intersect returns r ∩ o.
func (r Region) Intersect(o Region) Region {
	var out []Box
	for _, a := range r.rects {
		for _, b := range o.rects {
			if i, ok := a.Intersect(b); ok {
				out = append(out, i)
			}
		}
	}
	return Region{rects: coalesce(out)}
}

// IntersectBox returns r ∩ b.
func (r Region) IntersectBox(b Box) Region {
	var out []Box
	for _, a := range r.rects {
		if i, ok := a.Intersect(b); ok {
			out = append(out, i)
		}
	}
	return Region{rects: out}
}

// Subtract returns r − o.
func (r Region) Subtract(o Region) Region {
	cur := slices.Clone(r.rects)
	for _, s := range o.rects {
		if len(cur) == 0 {
			break
		}
		next := make([]Box, 0, len(cur))
		for _, b := range cur {
			next = appendBoxMinus(next, b, s)
		}
		cur = next
	}
	return Region{rects: coalesce(cur)}
}

// SubtractBox returns r − b.
func (r Region) SubtractBox(b Box) Region {
	return r.Subtract(RegionFromBox(b))
}

// Translate returns r moved by (dx, dy).
func (r Region) Translate(dx, dy int) Region {
	if dx == 0 && dy == 0 {
		return Region{rects: slices.Clone(r.rects)}
	}
	out := make([]Box, len(r.rects))
	for i, b := range r.rects {
		out[i] = b.Translate(dx, dy)
	}
	return Region{rects: out}
}

// Scale returns r scaled by s. Box origins are floored and far edges are
// ceiled, so no pixel touched by the exact result is lost.
func (r Region) Scale(s float64) Region {
	return r.ScaleXY(s, s)
}

// ScaleXY is Scale with independent horizontal and vertical factors.
func (r Region) ScaleXY(sx, sy float64) Region {
	if sx == 1 && sy == 1 {
		return Region{rects: slices.Clone(r.rects)}
	}
	var out Region
	for _, b := range r.rects {
		out = out.UnionBox(scaleBox(b, sx, sy))
	}
	return out
}

// Expand returns r with every box grown by d pixels on each side.
// A non-positive d returns a copy of r.
func (r Region) Expand(d int) Region {
	if d <= 0 {
		return Region{rects: slices.Clone(r.rects)}
	}
	var out Region
	for _, b := range r.rects {
		out = out.UnionBox(Box{b.X - d, b.Y - d, b.Width + 2*d, b.Height + 2*d})
	}
	return out
}

// Transform applies t to every box of r, where r lives in a space of size
// width×height before the transform.
func (r Region) Transform(t Transform, width, height int) Region {
	if t == TransformNormal {
		return Region{rects: slices.Clone(r.rects)}
	}
	out := make([]Box, len(r.rects))
	for i, b := range r.rects {
		out[i] = TransformBox(b, t, width, height)
	}
	return Region{rects: coalesce(out)}
}

// Equal reports whether r and o cover exactly the same pixels.
func (r Region) Equal(o Region) bool {
	if r.Area() != o.Area() {
		return false
	}
	return r.Subtract(o).Empty()
}

// scaleRegion scales a damage region to output pixels. On a fractional scale
// the result is grown by one pixel so rounding never under-damages.
func scaleRegion(r Region, scale float64) Region {
	out := r.Scale(scale)
	if math.Floor(scale) != scale {
		out = out.Expand(1)
	}
	return out
}

// appendBoxMinus appends the up to four pieces of b not covered by s.
func appendBoxMinus(dst []Box, b, s Box) []Box {
	i, ok := b.Intersect(s)
	if !ok {
		return append(dst, b)
	}
	bx2, by2 := b.X+b.Width, b.Y+b.Height
	ix2, iy2 := i.X+i.Width, i.Y+i.Height
	if i.Y > b.Y {
		dst = append(dst, Box{b.X, b.Y, b.Width, i.Y - b.Y})
	}
	if iy2 < by2 {
		dst = append(dst, Box{b.X, iy2, b.Width, by2 - iy2})
	}
	if i.X > b.X {
		dst = append(dst, Box{b.X, i.Y, i.X - b.X, i.Height})
	}
	if ix2 < bx2 {
		dst = append(dst, Box{ix2, i.Y, bx2 - ix2, i.Height})
	}
	return dst
}

// coalesce merges boxes that share a full edge. The input must already be
// disjoint; the merge keeps it disjoint while keeping box counts small.
func coalesce(rects []Box) []Box {
	if len(rects) < 2 {
		return rects
	}
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(rects); i++ {
			for j := i + 1; j < len(rects); j++ {
				a, b := rects[i], rects[j]
				var m Box
				switch {
				case a.X == b.X && a.Width == b.Width && a.Y+a.Height == b.Y:
					m = Box{a.X, a.Y, a.Width, a.Height + b.Height}
				case a.X == b.X && a.Width == b.Width && b.Y+b.Height == a.Y:
					m = Box{a.X, b.Y, a.Width, a.Height + b.Height}
				case a.Y == b.Y && a.Height == b.Height && a.X+a.Width == b.X:
					m = Box{a.X, a.Y, a.Width + b.Width, a.Height}
				case a.Y == b.Y && a.Height == b.Height && b.X+b.Width == a.X:
					m = Box{b.X, a.Y, a.Width + b.Width, a.Height}
				default:
					continue
				}
				rects[i] = m
				rects = append(rects[:j], rects[j+1:]...)
				merged = true
				j--
			}
		}
	}
	return rects
}
