package fxscene

import "testing"

func TestRegionUnionDisjoint(t *testing.T) {
	r := NewRegion(box(0, 0, 10, 10), box(5, 5, 10, 10))
	if got := r.Area(); got != 175 {
		t.Errorf("Area = %d, want 175", got)
	}
	if got := r.Extents(); got != box(0, 0, 15, 15) {
		t.Errorf("Extents = %v, want (0,0,15,15)", got)
	}
	rects := r.Rects()
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if _, ok := rects[i].Intersect(rects[j]); ok {
				t.Fatalf("rects %v and %v overlap", rects[i], rects[j])
			}
		}
	}
}

func TestRegionZeroAreaBoxesDropped(t *testing.T) {
	r := NewRegion(box(0, 0, 0, 10), box(0, 0, 10, 0))
	if !r.Empty() {
		t.Errorf("region of empty boxes = %v, want empty", r.Rects())
	}
}

func TestRegionCoalescesAdjacent(t *testing.T) {
	r := NewRegion(box(0, 0, 10, 10), box(10, 0, 10, 10))
	if r.NumRects() != 1 {
		t.Errorf("NumRects = %d, want 1", r.NumRects())
	}
	assertRegion(t, "union", r, box(0, 0, 20, 10))
}

func TestRegionSubtract(t *testing.T) {
	r := RegionFromBox(box(0, 0, 100, 100)).SubtractBox(box(25, 25, 50, 50))
	if got := r.Area(); got != 100*100-50*50 {
		t.Errorf("Area = %d, want %d", got, 100*100-50*50)
	}
	if r.ContainsPoint(50, 50) {
		t.Error("hole should not contain (50, 50)")
	}
	if !r.ContainsPoint(10, 10) {
		t.Error("ring should contain (10, 10)")
	}
	if !RegionFromBox(box(0, 0, 10, 10)).SubtractBox(box(-5, -5, 20, 20)).Empty() {
		t.Error("subtracting a covering box should leave nothing")
	}
}

func TestRegionIntersect(t *testing.T) {
	a := NewRegion(box(0, 0, 10, 10), box(20, 0, 10, 10))
	b := RegionFromBox(box(5, 5, 20, 20))
	assertRegion(t, "intersect", a.Intersect(b), box(5, 5, 5, 5), box(20, 5, 5, 5))
	if a.IntersectsBox(box(11, 0, 8, 10)) {
		t.Error("gap should not intersect")
	}
}

func TestRegionValueSemantics(t *testing.T) {
	a := RegionFromBox(box(0, 0, 10, 10))
	_ = a.UnionBox(box(10, 0, 10, 10))
	_ = a.SubtractBox(box(0, 0, 5, 5))
	assertRegion(t, "receiver", a, box(0, 0, 10, 10))
}

func TestRegionScale(t *testing.T) {
	tests := []struct {
		name  string
		in    Box
		scale float64
		want  Box
	}{
		{"integer", box(1, 1, 2, 2), 2, box(2, 2, 4, 4)},
		{"fractional rounds outward", box(1, 1, 1, 1), 1.5, box(1, 1, 2, 2)},
		{"identity", box(3, 4, 5, 6), 1, box(3, 4, 5, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertRegion(t, "scaled", RegionFromBox(tt.in).Scale(tt.scale), tt.want)
		})
	}
}

func TestScaleRegionFractionalExpands(t *testing.T) {
	got := scaleRegion(RegionFromBox(box(10, 10, 10, 10)), 1.5)
	// 15..30 scaled, then grown by one pixel.
	assertRegion(t, "scaled", got, box(14, 14, 17, 17))
	got = scaleRegion(RegionFromBox(box(10, 10, 10, 10)), 2)
	assertRegion(t, "integer", got, box(20, 20, 20, 20))
}

func TestRegionExpand(t *testing.T) {
	got := RegionFromBox(box(10, 10, 10, 10)).Expand(5)
	assertRegion(t, "expanded", got, box(5, 5, 20, 20))
	assertRegion(t, "zero", RegionFromBox(box(1, 1, 1, 1)).Expand(0), box(1, 1, 1, 1))
}

func TestRegionTransformRoundTrip(t *testing.T) {
	r := NewRegion(box(0, 0, 10, 5), box(30, 10, 5, 20))
	const w, h = 100, 50
	for tr := TransformNormal; tr <= TransformFlipped270; tr++ {
		t.Run(tr.String(), func(t *testing.T) {
			tw, th := w, h
			if tr.SwapsAxes() {
				tw, th = h, w
			}
			back := r.Transform(tr, w, h).Transform(tr.Invert(), tw, th)
			if !back.Equal(r) {
				t.Errorf("round trip = %v, want %v", back.Rects(), r.Rects())
			}
			if got := r.Transform(tr, w, h).Area(); got != r.Area() {
				t.Errorf("Area = %d, want %d", got, r.Area())
			}
		})
	}
}
