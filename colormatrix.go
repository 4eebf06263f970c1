package fxscene

// ColorMatrix is a row-major 4×5 matrix applied to straight-alpha colors.
// The fifth column is an offset.
type ColorMatrix [20]float64

// IdentityColorMatrix leaves colors unchanged.
var IdentityColorMatrix = ColorMatrix{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// BrightnessMatrix scales brightness: 1 leaves colors unchanged.
func BrightnessMatrix(b float64) ColorMatrix {
	o := b - 1
	return ColorMatrix{
		1, 0, 0, 0, o,
		0, 1, 0, 0, o,
		0, 0, 1, 0, o,
		0, 0, 0, 1, 0,
	}
}

// ContrastMatrix scales contrast around mid gray: 1 is normal, 0 is gray.
func ContrastMatrix(c float64) ColorMatrix {
	t := (1 - c) / 2
	return ColorMatrix{
		c, 0, 0, 0, t,
		0, c, 0, 0, t,
		0, 0, c, 0, t,
		0, 0, 0, 1, 0,
	}
}

// SaturationMatrix mixes toward luminance: 1 is normal, 0 is grayscale.
func SaturationMatrix(s float64) ColorMatrix {
	sr := (1 - s) * 0.299
	sg := (1 - s) * 0.587
	sb := (1 - s) * 0.114
	return ColorMatrix{
		sr + s, sg, sb, 0, 0,
		sr, sg + s, sb, 0, 0,
		sr, sg, sb + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Then returns the matrix applying m first and n second.
func (m ColorMatrix) Then(n ColorMatrix) ColorMatrix {
	var out ColorMatrix
	for row := range 4 {
		for col := range 5 {
			v := 0.0
			for k := range 4 {
				v += n[row*5+k] * m[k*5+col]
			}
			if col == 4 {
				v += n[row*5+4]
			}
			out[row*5+col] = v
		}
	}
	return out
}

// Apply transforms a straight-alpha color. The result is not clamped.
func (m ColorMatrix) Apply(r, g, b, a float64) (float64, float64, float64, float64) {
	return m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4],
		m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9],
		m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14],
		m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19]
}

// ColorMatrix returns the adjustment applied to blurred pixels: brightness,
// then contrast, then saturation.
func (p BlurParams) ColorMatrix() ColorMatrix {
	return BrightnessMatrix(p.Brightness).
		Then(ContrastMatrix(p.Contrast)).
		Then(SaturationMatrix(p.Saturation))
}
