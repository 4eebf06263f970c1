package fxscene

import "testing"

func TestBoxIntersect(t *testing.T) {
	got, ok := box(0, 0, 10, 10).Intersect(box(5, 5, 10, 10))
	if !ok || got != box(5, 5, 5, 5) {
		t.Errorf("Intersect = %v, %v; want (5,5,5,5), true", got, ok)
	}
	if _, ok := box(0, 0, 10, 10).Intersect(box(10, 0, 10, 10)); ok {
		t.Error("touching boxes should not intersect")
	}
}

func TestTransformInvert(t *testing.T) {
	for tr := TransformNormal; tr <= TransformFlipped270; tr++ {
		if got := tr.Compose(tr.Invert()); got != TransformNormal {
			t.Errorf("%v composed with its inverse = %v, want normal", tr, got)
		}
	}
}

func TestTransformCompose(t *testing.T) {
	tests := []struct {
		a, b, want Transform
	}{
		{Transform90, Transform90, Transform180},
		{Transform90, Transform270, TransformNormal},
		{Transform180, Transform180, TransformNormal},
		{TransformFlipped, TransformFlipped, TransformNormal},
		{TransformNormal, TransformFlipped90, TransformFlipped90},
	}
	for _, tt := range tests {
		if got := tt.a.Compose(tt.b); got != tt.want {
			t.Errorf("%v ∘ %v = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTransformBox(t *testing.T) {
	b := box(10, 20, 30, 40)
	tests := []struct {
		tr   Transform
		want Box
	}{
		{TransformNormal, box(10, 20, 30, 40)},
		{Transform90, box(200-20-40, 10, 40, 30)},
		{Transform180, box(100-10-30, 200-20-40, 30, 40)},
		{Transform270, box(20, 100-10-30, 40, 30)},
		{TransformFlipped, box(100-10-30, 20, 30, 40)},
	}
	for _, tt := range tests {
		t.Run(tt.tr.String(), func(t *testing.T) {
			if got := TransformBox(b, tt.tr, 100, 200); got != tt.want {
				t.Errorf("TransformBox = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTransform(t *testing.T) {
	for tr := TransformNormal; tr <= TransformFlipped270; tr++ {
		got, ok := ParseTransform(tr.String())
		if !ok || got != tr {
			t.Errorf("ParseTransform(%q) = %v, %v", tr.String(), got, ok)
		}
	}
	if _, ok := ParseTransform("sideways"); ok {
		t.Error("unknown name should not parse")
	}
}

func TestRoundedScaleBox(t *testing.T) {
	if got := roundedScaleBox(box(1, 1, 3, 3), 1.5); got != box(2, 2, 4, 4) {
		t.Errorf("roundedScaleBox = %v, want (2,2,4,4)", got)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff000080")
	if err != nil {
		t.Fatalf("ParseColor: %v", err)
	}
	if c.R != 1 || c.G != 0 || c.B != 0 {
		t.Errorf("rgb = %v", c)
	}
	if c.A < 0.5 || c.A > 0.51 {
		t.Errorf("alpha = %v, want ~0.5", c.A)
	}
	c, err = ParseColor("00ff00")
	if err != nil || !c.Opaque() {
		t.Errorf("ParseColor(00ff00) = %v, %v; want opaque green", c, err)
	}
	if _, err := ParseColor("#abc"); err == nil {
		t.Error("short color should fail")
	}
	if got := (Color{1, 0, 0, 1}).Hex(); got != "#ff0000ff" {
		t.Errorf("Hex = %q", got)
	}
}
