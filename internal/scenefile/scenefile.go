// Package scenefile reads scene descriptions written in TOML and builds live
// fxscene trees from them. It backs the fxscene command and the examples.
//
// A file describes one output, the effects configuration and a node tree:
//
//	[output]
//	width = 640
//	height = 480
//	transform = "normal"
//
//	[effects]
//	corner_radius = 8
//
//	[effects.blur]
//	enabled = true
//
//	[[node]]
//	type = "rect"
//	name = "background"
//	width = 640
//	height = 480
//	color = "#202030"
//
//	[[node]]
//	type = "window"
//	name = "term"
//	x = 40
//	y = 40
//	width = 300
//	height = 200
//
//	[[node.children]]
//	type = "buffer"
//	color = "#ffffffe0"
//	width = 300
//	height = 200
package scenefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/phanxgames/fxscene"
)

// Node types accepted in the type key.
const (
	TypeTree          = "tree"
	TypeRect          = "rect"
	TypeShadow        = "shadow"
	TypeBuffer        = "buffer"
	TypeOptimizedBlur = "optimized_blur"
	TypeWindow        = "window"
)

// File is a decoded scene description.
type File struct {
	Scene   SceneSpec             `toml:"scene"`
	Output  OutputSpec            `toml:"output"`
	Effects fxscene.EffectsConfig `toml:"effects"`
	Nodes   []NodeSpec            `toml:"node"`

	// dir is the directory image paths are relative to.
	dir string
}

// SceneSpec holds scene options. Unset keys keep the fxscene defaults.
type SceneSpec struct {
	DebugDamage          string `toml:"debug_damage"`
	DisableDirectScanout bool   `toml:"disable_direct_scanout"`
	DisableVisibility    bool   `toml:"disable_visibility"`
	HighlightTransparent bool   `toml:"highlight_transparent_region"`
	DamageRingDepth      int    `toml:"damage_ring_depth"`
}

// OutputSpec describes the display the scene is shown on.
type OutputSpec struct {
	Name      string  `toml:"name"`
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	Scale     float64 `toml:"scale"`
	Transform string  `toml:"transform"`
	// Refresh is in Hz.
	Refresh float64 `toml:"refresh"`
	X       int     `toml:"x"`
	Y       int     `toml:"y"`
}

// NodeSpec describes one node and, for trees and windows, its children.
type NodeSpec struct {
	Type    string `toml:"type"`
	Name    string `toml:"name"`
	X       int    `toml:"x"`
	Y       int    `toml:"y"`
	Enabled *bool  `toml:"enabled"`

	Width  int `toml:"width"`
	Height int `toml:"height"`
	// Color fills rects and shadows; for a buffer without an image it
	// becomes a single-pixel buffer stretched to the node size.
	Color        *fxscene.Color `toml:"color"`
	CornerRadius int            `toml:"corner_radius"`
	Corners      []string       `toml:"corners"`
	BackdropBlur bool           `toml:"backdrop_blur"`
	Optimized    bool           `toml:"optimized"`

	BlurSigma float64 `toml:"blur_sigma"`

	Image     string    `toml:"image"`
	Opacity   *float64  `toml:"opacity"`
	SourceBox []float64 `toml:"source_box"`
	Transform string    `toml:"transform"`
	Filter    string    `toml:"filter"`
	Opaque    bool      `toml:"opaque"`

	// Window keys.
	BorderWidth  int            `toml:"border_width"`
	BorderColor  *fxscene.Color `toml:"border_color"`
	Inactive     bool           `toml:"inactive"`
	NoShadow     bool           `toml:"no_shadow"`
	WindowRadius *int           `toml:"window_radius"`

	Children []NodeSpec `toml:"children"`
}

// Load reads and validates a scene file. Image paths are resolved relative
// to the file.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene file: %w", err)
	}
	defer fh.Close()
	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse decodes and validates a scene description.
func Parse(r io.Reader) (*File, error) {
	f := &File{Effects: fxscene.DefaultEffectsConfig()}
	md, err := toml.NewDecoder(r).Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, &FieldError{Path: undecoded[0].String(), Err: errors.New("unknown key")}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Dir returns the directory image paths are resolved against.
func (f *File) Dir() string { return f.dir }

// SceneOptions returns the options to create the scene with.
func (f *File) SceneOptions() fxscene.SceneOptions {
	opts := fxscene.SceneOptions{
		DisableDirectScanout:       f.Scene.DisableDirectScanout,
		DisableVisibility:          f.Scene.DisableVisibility,
		HighlightTransparentRegion: f.Scene.HighlightTransparent,
		DamageRingDepth:            f.Scene.DamageRingDepth,
	}
	opts.DebugDamage, _ = fxscene.ParseDebugDamage(f.Scene.DebugDamage)
	return opts
}

// OutputTransform returns the parsed output transform.
func (o OutputSpec) OutputTransform() fxscene.Transform {
	t, _ := fxscene.ParseTransform(o.Transform)
	return t
}

// RefreshMHz returns the refresh rate in mHz, 0 when unset.
func (o OutputSpec) RefreshMHz() int {
	return int(o.Refresh*1000 + 0.5)
}

// Walk calls fn for every node spec in depth-first order, with its path.
func (f *File) Walk(fn func(path string, n *NodeSpec)) {
	var walk func(prefix string, nodes []NodeSpec)
	walk = func(prefix string, nodes []NodeSpec) {
		for i := range nodes {
			p := fmt.Sprintf("%s[%d]", prefix, i)
			fn(p, &nodes[i])
			walk(p+".children", nodes[i].Children)
		}
	}
	walk("node", f.Nodes)
}

// Count returns the number of node specs, children included.
func (f *File) Count() int {
	n := 0
	f.Walk(func(string, *NodeSpec) { n++ })
	return n
}
