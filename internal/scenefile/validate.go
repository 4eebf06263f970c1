package scenefile

import (
	"errors"
	"fmt"

	"github.com/phanxgames/fxscene"
)

// FieldError is a rejected value, located by its path in the file, for
// example "node[1].children[0].opacity".
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

var cornerNames = map[string]fxscene.CornerLocation{
	"top-left":     fxscene.CornerTopLeft,
	"top-right":    fxscene.CornerTopRight,
	"bottom-right": fxscene.CornerBottomRight,
	"bottom-left":  fxscene.CornerBottomLeft,
	"top":          fxscene.CornerTopLeft | fxscene.CornerTopRight,
	"bottom":       fxscene.CornerBottomLeft | fxscene.CornerBottomRight,
	"all":          fxscene.CornerAll,
}

// parseCorners returns the corner mask for names; no names means all
// corners.
func parseCorners(names []string) (fxscene.CornerLocation, error) {
	if len(names) == 0 {
		return fxscene.CornerAll, nil
	}
	var c fxscene.CornerLocation
	for _, name := range names {
		m, ok := cornerNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown corner %q", name)
		}
		c |= m
	}
	return c, nil
}

func parseFilter(s string) (fxscene.FilterMode, error) {
	switch s {
	case "", "bilinear":
		return fxscene.FilterBilinear, nil
	case "nearest":
		return fxscene.FilterNearest, nil
	}
	return 0, fmt.Errorf("unknown filter %q", s)
}

var errOutOfRange = fxscene.ErrOutOfRange

// Validate reports every problem in f, each as a *FieldError.
func (f *File) Validate() error {
	var errs []error
	add := func(path string, err error) {
		if err != nil {
			errs = append(errs, &FieldError{Path: path, Err: err})
		}
	}

	o := f.Output
	if o.Width <= 0 || o.Height <= 0 {
		add("output", fmt.Errorf("size %dx%d: %w", o.Width, o.Height, errOutOfRange))
	}
	if o.Scale < 0 {
		add("output.scale", fmt.Errorf("%g: %w", o.Scale, errOutOfRange))
	}
	if o.Refresh < 0 {
		add("output.refresh", fmt.Errorf("%g: %w", o.Refresh, errOutOfRange))
	}
	if _, ok := fxscene.ParseTransform(o.Transform); o.Transform != "" && !ok {
		add("output.transform", fmt.Errorf("unknown transform %q", o.Transform))
	}
	if _, ok := fxscene.ParseDebugDamage(f.Scene.DebugDamage); f.Scene.DebugDamage != "" && !ok {
		add("scene.debug_damage", fmt.Errorf("unknown mode %q", f.Scene.DebugDamage))
	}
	if f.Scene.DamageRingDepth < 0 {
		add("scene.damage_ring_depth", fmt.Errorf("%d: %w", f.Scene.DamageRingDepth, errOutOfRange))
	}
	add("effects", f.Effects.Validate())

	names := make(map[string]string)
	f.Walk(func(path string, n *NodeSpec) {
		if n.Name != "" {
			if first, ok := names[n.Name]; ok {
				add(path+".name", fmt.Errorf("%q already used by %s", n.Name, first))
			} else {
				names[n.Name] = path
			}
		}
		for _, err := range n.validate() {
			var fe *FieldError
			if errors.As(err, &fe) {
				add(path+"."+fe.Path, fe.Err)
			} else {
				add(path, err)
			}
		}
	})
	return errors.Join(errs...)
}

// validate checks one node spec, not its children. Field errors carry the
// key relative to the node.
func (n *NodeSpec) validate() []error {
	var errs []error
	field := func(key string, err error) {
		if err != nil {
			errs = append(errs, &FieldError{Path: key, Err: err})
		}
	}

	switch n.Type {
	case TypeTree, TypeRect, TypeShadow, TypeBuffer, TypeOptimizedBlur, TypeWindow:
	case "":
		field("type", errors.New("missing"))
		return errs
	default:
		field("type", fmt.Errorf("unknown node type %q", n.Type))
		return errs
	}
	if len(n.Children) > 0 && n.Type != TypeTree && n.Type != TypeWindow {
		field("children", fmt.Errorf("%s nodes cannot have children", n.Type))
	}
	if n.Width < 0 || n.Height < 0 {
		errs = append(errs, fmt.Errorf("size %dx%d: %w", n.Width, n.Height, errOutOfRange))
	}
	if n.CornerRadius < 0 {
		field("corner_radius", fmt.Errorf("%d: %w", n.CornerRadius, errOutOfRange))
	}
	if _, err := parseCorners(n.Corners); err != nil {
		field("corners", err)
	}

	switch n.Type {
	case TypeRect:
		if n.Color == nil {
			field("color", errors.New("required for rect nodes"))
		}
	case TypeShadow:
		if n.Color == nil {
			field("color", errors.New("required for shadow nodes"))
		}
		if n.BlurSigma < fxscene.MinShadowSigma || n.BlurSigma > fxscene.MaxShadowSigma {
			field("blur_sigma", &fxscene.RangeError{Field: "shadow blur sigma", Value: n.BlurSigma,
				Min: fxscene.MinShadowSigma, Max: fxscene.MaxShadowSigma})
		}
	case TypeBuffer:
		switch {
		case n.Image == "" && n.Color == nil:
			field("image", errors.New("buffer nodes need an image or a color"))
		case n.Image != "" && n.Color != nil:
			field("color", errors.New("cannot be combined with image"))
		}
		if n.Opacity != nil && (*n.Opacity < 0 || *n.Opacity > 1) {
			field("opacity", &fxscene.RangeError{Field: "opacity", Value: *n.Opacity, Min: 0, Max: 1})
		}
		if sb := n.SourceBox; len(sb) != 0 && (len(sb) != 4 || sb[2] <= 0 || sb[3] <= 0 || sb[0] < 0 || sb[1] < 0) {
			field("source_box", errors.New("want [x, y, width, height] with a positive size"))
		}
		if _, ok := fxscene.ParseTransform(n.Transform); n.Transform != "" && !ok {
			field("transform", fmt.Errorf("unknown transform %q", n.Transform))
		}
		if _, err := parseFilter(n.Filter); err != nil {
			field("filter", err)
		}
	case TypeWindow:
		if n.BorderWidth < 0 {
			field("border_width", fmt.Errorf("%d: %w", n.BorderWidth, errOutOfRange))
		}
		if n.WindowRadius != nil && *n.WindowRadius < 0 {
			field("window_radius", fmt.Errorf("%d: %w", *n.WindowRadius, errOutOfRange))
		}
	}
	return errs
}
