package fxscene

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs when a primitive is handed to the renderer.
type Color struct {
	R, G, B, A float64
}

var (
	ColorWhite       = Color{1, 1, 1, 1}
	ColorBlack       = Color{0, 0, 0, 1}
	ColorTransparent = Color{}
)

// Opaque reports whether c has full alpha.
func (c Color) Opaque() bool {
	return c.A >= 1
}

// Premultiplied returns c with its color channels multiplied by alpha.
func (c Color) Premultiplied() Color {
	return Color{c.R * c.A, c.G * c.A, c.B * c.A, c.A}
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// RGBA converts c to a premultiplied 8-bit color.
func (c Color) RGBA() color.RGBA {
	p := c.Premultiplied()
	return color.RGBA{
		R: uint8(clamp01(p.R)*255 + 0.5),
		G: uint8(clamp01(p.G)*255 + 0.5),
		B: uint8(clamp01(p.B)*255 + 0.5),
		A: uint8(clamp01(p.A)*255 + 0.5),
	}
}

// Hex formats c as #RRGGBBAA.
func (c Color) Hex() string {
	to := func(v float64) uint8 { return uint8(clamp01(v)*255 + 0.5) }
	return fmt.Sprintf("#%02x%02x%02x%02x", to(c.R), to(c.G), to(c.B), to(c.A))
}

// ParseColor parses a color written as #RRGGBB or #RRGGBBAA. The leading #
// is optional. Colors without an alpha component are fully opaque.
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

// MarshalText encodes c as #RRGGBBAA.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes a color in the form accepted by ParseColor.
func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TransferFunction is the electro-optical transfer function of buffer
// content.
type TransferFunction uint8

const (
	TransferFunctionSRGB TransferFunction = iota
	TransferFunctionExtLinear
	TransferFunctionST2084PQ
	TransferFunctionGamma22
	TransferFunctionBT1886
)

func (tf TransferFunction) String() string {
	switch tf {
	case TransferFunctionSRGB:
		return "srgb"
	case TransferFunctionExtLinear:
		return "ext-linear"
	case TransferFunctionST2084PQ:
		return "st2084-pq"
	case TransferFunctionGamma22:
		return "gamma22"
	case TransferFunctionBT1886:
		return "bt1886"
	}
	return "unknown"
}

// Primaries names a set of color primaries.
type Primaries uint8

const (
	PrimariesSRGB Primaries = iota
	PrimariesBT2020
)

func (p Primaries) String() string {
	switch p {
	case PrimariesSRGB:
		return "srgb"
	case PrimariesBT2020:
		return "bt2020"
	}
	return "unknown"
}

// Chromaticity is a CIE 1931 xy coordinate.
type Chromaticity struct {
	X, Y float64
}

// PrimariesCoords are the chromaticities of the red, green and blue
// primaries and the white point.
type PrimariesCoords struct {
	Red, Green, Blue, White Chromaticity
}

// Coords returns the chromaticities for p.
func (p Primaries) Coords() PrimariesCoords {
	switch p {
	case PrimariesBT2020:
		return PrimariesCoords{
			Red:   Chromaticity{0.708, 0.292},
			Green: Chromaticity{0.170, 0.797},
			Blue:  Chromaticity{0.131, 0.046},
			White: Chromaticity{0.3127, 0.3290},
		}
	default:
		return PrimariesCoords{
			Red:   Chromaticity{0.640, 0.330},
			Green: Chromaticity{0.300, 0.600},
			Blue:  Chromaticity{0.150, 0.060},
			White: Chromaticity{0.3127, 0.3290},
		}
	}
}
