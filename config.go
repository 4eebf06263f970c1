package fxscene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// EffectsConfig is the user-facing effects configuration, stored as TOML:
//
//	corner_radius = 8
//	smart_corner_radius = true
//	default_dim_inactive = 0.2
//	dim_color = "#000000ff"
//
//	[blur]
//	enabled = true
//	radius = 5
//
//	[shadow]
//	enabled = true
//	blur_sigma = 20
//	color = "#0000007f"
type EffectsConfig struct {
	Blur   BlurConfig   `toml:"blur"`
	Shadow ShadowConfig `toml:"shadow"`

	CornerRadius int `toml:"corner_radius"`
	// SmartCornerRadius drops rounded corners on a window that fills its
	// output alone.
	SmartCornerRadius bool `toml:"smart_corner_radius"`
	// DimInactive is the alpha of the dim overlay on inactive windows.
	DimInactive float64 `toml:"default_dim_inactive"`
	DimColor    Color   `toml:"dim_color"`
}

// BlurConfig is the [blur] table.
type BlurConfig struct {
	Enabled    bool    `toml:"enabled"`
	Radius     int     `toml:"radius"`
	Passes     int     `toml:"passes"`
	Noise      float64 `toml:"noise"`
	Brightness float64 `toml:"brightness"`
	Contrast   float64 `toml:"contrast"`
	Saturation float64 `toml:"saturation"`
}

// ShadowConfig is the [shadow] table.
type ShadowConfig struct {
	Enabled       bool    `toml:"enabled"`
	BlurSigma     float64 `toml:"blur_sigma"`
	Color         Color   `toml:"color"`
	InactiveColor Color   `toml:"inactive_color"`
}

// DefaultEffectsConfig returns the configuration used when no file is given.
func DefaultEffectsConfig() EffectsConfig {
	b := DefaultBlurParams()
	shadow := Color{0, 0, 0, 127.0 / 255}
	return EffectsConfig{
		Blur: BlurConfig{
			Enabled:    b.Enabled,
			Radius:     b.Radius,
			Passes:     b.Passes,
			Noise:      b.Noise,
			Brightness: b.Brightness,
			Contrast:   b.Contrast,
			Saturation: b.Saturation,
		},
		Shadow: ShadowConfig{
			BlurSigma:     20,
			Color:         shadow,
			InactiveColor: shadow,
		},
		DimColor: ColorBlack,
	}
}

// LoadEffectsConfig reads a TOML file. Keys missing from the file keep
// their defaults.
func LoadEffectsConfig(path string) (EffectsConfig, error) {
	c := DefaultEffectsConfig()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return EffectsConfig{}, fmt.Errorf("load effects config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return EffectsConfig{}, fmt.Errorf("load effects config %s: %w", path, err)
	}
	return c, nil
}

// ParseEffectsConfig decodes TOML from r. Keys missing from the input keep
// their defaults.
func ParseEffectsConfig(r io.Reader) (EffectsConfig, error) {
	c := DefaultEffectsConfig()
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return EffectsConfig{}, fmt.Errorf("parse effects config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return EffectsConfig{}, &ConfigError{Key: undecoded[0].String(), Err: errors.New("unknown key")}
	}
	if err := c.Validate(); err != nil {
		return EffectsConfig{}, fmt.Errorf("parse effects config: %w", err)
	}
	return c, nil
}

// Encode writes c as TOML.
func (c EffectsConfig) Encode(w io.Writer) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode effects config: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// BlurParams returns the blur section as scene parameters.
func (c EffectsConfig) BlurParams() BlurParams {
	return BlurParams{
		Enabled:    c.Blur.Enabled,
		Radius:     c.Blur.Radius,
		Passes:     c.Blur.Passes,
		Noise:      c.Blur.Noise,
		Brightness: c.Blur.Brightness,
		Contrast:   c.Blur.Contrast,
		Saturation: c.Blur.Saturation,
	}
}

// Validate checks every value against its allowed range. All violations are
// reported, each as a *ConfigError.
func (c EffectsConfig) Validate() error {
	var errs []error
	check := func(key string, err error) {
		if err != nil {
			errs = append(errs, &ConfigError{Key: key, Err: err})
		}
	}
	check("blur.radius", checkIntRange("blur radius", c.Blur.Radius, 0, MaxBlurRadius))
	check("blur.passes", checkIntRange("blur passes", c.Blur.Passes, 0, MaxBlurPasses))
	check("blur.noise", checkRange("blur noise", c.Blur.Noise, 0, 1))
	check("blur.brightness", checkRange("blur brightness", c.Blur.Brightness, 0, 2))
	check("blur.contrast", checkRange("blur contrast", c.Blur.Contrast, 0, 2))
	check("blur.saturation", checkRange("blur saturation", c.Blur.Saturation, 0, 2))
	check("shadow.blur_sigma", checkRange("shadow blur sigma", c.Shadow.BlurSigma, MinShadowSigma, MaxShadowSigma))
	check("corner_radius", checkNonNegative("corner radius", c.CornerRadius))
	check("default_dim_inactive", checkRange("dim inactive", c.DimInactive, 0, 1))
	return errors.Join(errs...)
}

// Set assigns a single value by its command name, as a configuration
// command would: blur, blur_radius, blur_passes, blur_noise,
// blur_brightness, blur_contrast, blur_saturation, shadows,
// shadow_blur_radius, shadow_color, shadow_inactive_color, corner_radius,
// smart_corner_radius, default_dim_inactive and dim_color. On error c is
// unchanged.
func (c *EffectsConfig) Set(key, value string) error {
	next := *c
	var err error
	switch key {
	case "blur":
		next.Blur.Enabled, err = parseBool(value)
	case "blur_radius":
		next.Blur.Radius, err = strconv.Atoi(value)
	case "blur_passes":
		next.Blur.Passes, err = strconv.Atoi(value)
	case "blur_noise":
		next.Blur.Noise, err = strconv.ParseFloat(value, 64)
	case "blur_brightness":
		next.Blur.Brightness, err = strconv.ParseFloat(value, 64)
	case "blur_contrast":
		next.Blur.Contrast, err = strconv.ParseFloat(value, 64)
	case "blur_saturation":
		next.Blur.Saturation, err = strconv.ParseFloat(value, 64)
	case "shadows":
		next.Shadow.Enabled, err = parseBool(value)
	case "shadow_blur_radius":
		var sigma int
		sigma, err = strconv.Atoi(value)
		next.Shadow.BlurSigma = float64(sigma)
	case "shadow_color":
		next.Shadow.Color, err = ParseColor(value)
	case "shadow_inactive_color":
		next.Shadow.InactiveColor, err = ParseColor(value)
	case "corner_radius":
		next.CornerRadius, err = strconv.Atoi(value)
	case "smart_corner_radius":
		next.SmartCornerRadius, err = parseBool(value)
	case "default_dim_inactive":
		next.DimInactive, err = strconv.ParseFloat(value, 64)
	case "dim_color":
		next.DimColor, err = ParseColor(value)
	default:
		return &ConfigError{Key: key, Value: value, Err: errors.New("unknown key")}
	}
	if err != nil {
		return &ConfigError{Key: key, Value: value, Err: err}
	}
	if err := next.Validate(); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			return &ConfigError{Key: key, Value: value, Err: ce.Err}
		}
		return err
	}
	*c = next
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on", "enable", "enabled":
		return true, nil
	case "no", "off", "disable", "disabled":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// Apply validates c and installs its blur parameters on s. Nothing is
// changed when validation fails.
func (c EffectsConfig) Apply(s *Scene) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.SetBlurParams(c.BlurParams())
}

// DecorationOptions returns decoration options for a window of the given
// content size following c.
func (c EffectsConfig) DecorationOptions(width, height int) DecorationOptions {
	opts := DecorationOptions{
		Width:        width,
		Height:       height,
		CornerRadius: c.CornerRadius,
		DimInactive:  c.DimInactive,
		DimColor:     c.DimColor,
	}
	if c.Shadow.Enabled {
		opts.Shadow = &DecorationShadow{
			BlurSigma:     c.Shadow.BlurSigma,
			Color:         c.Shadow.Color,
			InactiveColor: c.Shadow.InactiveColor,
		}
	}
	return opts
}
