package scenefile

import (
	"fmt"
	"path/filepath"

	"github.com/phanxgames/fxscene"
)

// ImageLoader returns the content buffer for an image path. The path is
// already resolved against the scene file directory.
type ImageLoader func(path string) (*fxscene.Buffer, error)

// Built holds the nodes a Build created, by name.
type Built struct {
	// Top are the nodes created directly under the build parent, bottom to
	// top.
	Top     []*fxscene.Node
	Nodes   map[string]*fxscene.Node
	Windows map[string]*fxscene.Decoration
}

// Destroy removes every node the build created.
func (b *Built) Destroy() {
	for _, n := range b.Top {
		n.Destroy()
	}
	b.Top = nil
}

// Build applies the effects configuration to the scene of parent and
// creates the node tree under parent. Buffer nodes with an image need load;
// it may be nil when no node has one. On error nothing is left in the tree.
func (f *File) Build(parent *fxscene.Node, load ImageLoader) (_ *Built, err error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := f.Effects.Apply(parent.Scene()); err != nil {
		return nil, fmt.Errorf("apply effects: %w", err)
	}
	b := &Built{
		Nodes:   make(map[string]*fxscene.Node),
		Windows: make(map[string]*fxscene.Decoration),
	}
	defer func() {
		if err != nil {
			b.Destroy()
		}
	}()
	for i := range f.Nodes {
		n, err := f.build(b, parent, &f.Nodes[i], fmt.Sprintf("node[%d]", i), load)
		if n != nil {
			b.Top = append(b.Top, n)
		}
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// build creates spec under parent. The node is returned even on error so
// the caller can roll it back.
func (f *File) build(b *Built, parent *fxscene.Node, spec *NodeSpec, path string, load ImageLoader) (*fxscene.Node, error) {
	var (
		n        *fxscene.Node
		children *fxscene.Node
		err      error
	)
	switch spec.Type {
	case TypeTree:
		n = fxscene.CreateTree(parent)
		children = n
	case TypeRect:
		n = fxscene.CreateRect(parent, spec.Width, spec.Height, *spec.Color)
		err = applyRounding(n, spec)
		n.SetBackdropBlur(spec.BackdropBlur)
		n.SetBackdropBlurOptimized(spec.Optimized)
	case TypeShadow:
		n = fxscene.CreateShadow(parent, spec.Width, spec.Height, *spec.Color)
		if err = n.SetBlurSigma(spec.BlurSigma); err == nil {
			err = n.SetCornerRadius(spec.CornerRadius)
		}
	case TypeBuffer:
		n, err = f.buildBuffer(parent, spec, load)
	case TypeOptimizedBlur:
		n = fxscene.CreateOptimizedBlur(parent, spec.Width, spec.Height)
	case TypeWindow:
		var d *fxscene.Decoration
		d, err = fxscene.NewDecoration(parent, f.windowOptions(spec))
		if err != nil {
			return nil, &FieldError{Path: path, Err: err}
		}
		d.SetActive(!spec.Inactive)
		n, children = d.Tree, d.Content
		if spec.Name != "" {
			b.Windows[spec.Name] = d
		}
	default:
		return nil, &FieldError{Path: path + ".type", Err: fmt.Errorf("unknown node type %q", spec.Type)}
	}
	if n == nil {
		return nil, &FieldError{Path: path, Err: err}
	}
	if err != nil {
		return n, &FieldError{Path: path, Err: err}
	}

	n.Name = spec.Name
	n.SetPosition(spec.X, spec.Y)
	if spec.Enabled != nil {
		n.SetEnabled(*spec.Enabled)
	}
	if spec.Name != "" {
		b.Nodes[spec.Name] = n
	}
	for i := range spec.Children {
		if _, err := f.build(b, children, &spec.Children[i], fmt.Sprintf("%s.children[%d]", path, i), load); err != nil {
			return n, err
		}
	}
	return n, nil
}

func applyRounding(n *fxscene.Node, spec *NodeSpec) error {
	corners, err := parseCorners(spec.Corners)
	if err != nil {
		return err
	}
	n.SetCorners(corners)
	return n.SetCornerRadius(spec.CornerRadius)
}

func (f *File) buildBuffer(parent *fxscene.Node, spec *NodeSpec, load ImageLoader) (*fxscene.Node, error) {
	var buf *fxscene.Buffer
	if spec.Image != "" {
		if load == nil {
			return nil, fmt.Errorf("image %s: no image loader", spec.Image)
		}
		p := spec.Image
		if !filepath.IsAbs(p) {
			p = filepath.Join(f.dir, p)
		}
		var err error
		if buf, err = load(p); err != nil {
			return nil, err
		}
	} else {
		buf = fxscene.NewSinglePixelBuffer(*spec.Color)
	}
	n := fxscene.CreateBuffer(parent, buf)
	buf.Drop()

	if spec.Width > 0 && spec.Height > 0 {
		n.SetDestSize(spec.Width, spec.Height)
	}
	if sb := spec.SourceBox; len(sb) == 4 {
		n.SetSourceBox(fxscene.FBox{X: sb[0], Y: sb[1], Width: sb[2], Height: sb[3]})
	}
	if t, ok := fxscene.ParseTransform(spec.Transform); ok {
		n.SetTransform(t)
	}
	filter, err := parseFilter(spec.Filter)
	if err != nil {
		return n, err
	}
	n.SetFilterMode(filter)
	if spec.Opaque {
		n.SetBufferIsOpaque(true)
	}
	if spec.Opacity != nil {
		if err := n.SetOpacity(*spec.Opacity); err != nil {
			return n, err
		}
	}
	n.SetBackdropBlur(spec.BackdropBlur)
	n.SetBackdropBlurOptimized(spec.Optimized)
	return n, applyRounding(n, spec)
}

// windowOptions derives decoration options from the effects configuration
// and the window keys of spec.
func (f *File) windowOptions(spec *NodeSpec) fxscene.DecorationOptions {
	opts := f.Effects.DecorationOptions(spec.Width, spec.Height)
	opts.BorderWidth = spec.BorderWidth
	if spec.BorderColor != nil {
		opts.BorderColor = *spec.BorderColor
		opts.InactiveBorderColor = spec.BorderColor.WithAlpha(spec.BorderColor.A / 2)
	}
	if spec.WindowRadius != nil {
		opts.CornerRadius = *spec.WindowRadius
	}
	if spec.NoShadow {
		opts.Shadow = nil
	}
	opts.BackdropBlur = spec.BackdropBlur
	return opts
}
