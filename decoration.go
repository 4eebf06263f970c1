package fxscene

import (
	"errors"
	"fmt"
)

// DecorationShadow configures the drop shadow of a Decoration.
type DecorationShadow struct {
	BlurSigma     float64
	Color         Color
	InactiveColor Color
}

// DecorationOptions describe a decorated window.
type DecorationOptions struct {
	// Width and Height are the content size.
	Width, Height int

	BorderWidth         int
	BorderColor         Color
	InactiveBorderColor Color
	CornerRadius        int
	// BackdropBlur blurs what is behind translucent borders.
	BackdropBlur bool

	// Shadow is nil for no shadow.
	Shadow *DecorationShadow

	// DimInactive is the alpha of the overlay drawn over inactive content.
	DimInactive float64
	DimColor    Color
}

func (o DecorationOptions) validate() error {
	var errs []error
	if o.Width < 0 || o.Height < 0 {
		errs = append(errs, fmt.Errorf("content size %dx%d: %w", o.Width, o.Height, ErrOutOfRange))
	}
	errs = append(errs,
		checkNonNegative("border width", o.BorderWidth),
		checkRange("dim inactive", o.DimInactive, 0, 1),
	)
	return errors.Join(errs...)
}

// Decoration is a window frame: a tree holding, bottom to top, a shadow, a
// border, the content anchor and a dim overlay. Clients attach their
// surfaces to Content.
type Decoration struct {
	// Tree is the decoration root. Move it to move the window.
	Tree *Node
	// Content is the tree client surfaces go into, at the content origin.
	Content *Node

	shadow *Node
	border *Node
	dim    *Node

	opts   DecorationOptions
	active bool
}

// NewDecoration creates a decoration as the topmost child of parent. It
// starts active. On error nothing is left in the tree.
func NewDecoration(parent *Node, opts DecorationOptions) (_ *Decoration, err error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("new decoration: %w", err)
	}
	tree := CreateTree(parent)
	defer func() {
		if err != nil {
			tree.Destroy()
		}
	}()
	d := &Decoration{
		Tree:   tree,
		opts:   opts,
		active: true,
	}

	if opts.Shadow != nil {
		d.shadow = CreateShadow(d.Tree, 0, 0, opts.Shadow.Color)
		if err := d.shadow.SetBlurSigma(opts.Shadow.BlurSigma); err != nil {
			return nil, fmt.Errorf("new decoration: %w", err)
		}
	}
	d.border = CreateRect(d.Tree, 0, 0, opts.BorderColor)
	d.border.Name = "border"
	d.border.SetBackdropBlur(opts.BackdropBlur)
	d.Content = CreateTree(d.Tree)
	d.Content.Name = "content"
	d.dim = CreateRect(d.Tree, 0, 0, opts.DimColor.WithAlpha(opts.DimInactive))
	d.dim.Name = "dim"
	d.dim.SetEnabled(false)

	if err := d.SetCornerRadius(opts.CornerRadius); err != nil {
		return nil, fmt.Errorf("new decoration: %w", err)
	}
	return d, nil
}

// layout places every part around the content size.
func (d *Decoration) layout() {
	w, h := d.opts.Width, d.opts.Height
	bw := d.opts.BorderWidth
	outer := Box{-bw, -bw, w + 2*bw, h + 2*bw}

	d.border.SetPosition(outer.X, outer.Y)
	d.border.SetSize(outer.Width, outer.Height)
	d.border.SetClippedRegion(ClippedRegion{
		Area:         Box{bw, bw, w, h},
		CornerRadius: d.opts.CornerRadius,
		Corners:      CornerAll,
	})
	d.border.SetEnabled(bw > 0)

	if d.shadow != nil {
		sb := ShadowBox(outer, d.opts.Shadow.BlurSigma)
		d.shadow.SetPosition(sb.X, sb.Y)
		d.shadow.SetSize(sb.Width, sb.Height)
	}
	d.dim.SetSize(w, h)
}

// Options returns the current options.
func (d *Decoration) Options() DecorationOptions { return d.opts }

// Active reports whether the decoration is drawn as active.
func (d *Decoration) Active() bool { return d.active }

// SetContentSize resizes the decoration around content of the given size.
func (d *Decoration) SetContentSize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("content size %dx%d: %w", width, height, ErrOutOfRange)
	}
	if d.opts.Width == width && d.opts.Height == height {
		return nil
	}
	d.opts.Width, d.opts.Height = width, height
	d.layout()
	return nil
}

// SetCornerRadius rounds the border, the shadow and the dim overlay. The
// border and shadow follow the outer edge, so they get the border width
// added.
func (d *Decoration) SetCornerRadius(radius int) error {
	if err := checkNonNegative("corner radius", radius); err != nil {
		return err
	}
	d.opts.CornerRadius = radius
	outer := radius
	if radius > 0 {
		outer += d.opts.BorderWidth
	}
	_ = d.border.SetCornerRadius(outer)
	_ = d.dim.SetCornerRadius(radius)
	if d.shadow != nil {
		_ = d.shadow.SetCornerRadius(outer)
	}
	d.layout()
	return nil
}

// SetActive switches between the active and inactive look: shadow and
// border colors change and inactive content is dimmed.
func (d *Decoration) SetActive(active bool) {
	if d.active == active {
		return
	}
	d.active = active
	if d.shadow != nil {
		if active {
			d.shadow.SetColor(d.opts.Shadow.Color)
		} else {
			d.shadow.SetColor(d.opts.Shadow.InactiveColor)
		}
	}
	if active {
		d.border.SetColor(d.opts.BorderColor)
	} else {
		d.border.SetColor(d.opts.InactiveBorderColor)
	}
	d.dim.SetEnabled(!active && d.opts.DimInactive > 0)
	d.dim.RaiseToTop()
}

// Destroy removes the decoration and everything attached to Content.
func (d *Decoration) Destroy() {
	d.Tree.Destroy()
}
