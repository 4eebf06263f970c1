package fxscene

type shadowData struct {
	width, height int
	color         Color
	cornerRadius  int
	blurSigma     float64
}

// CreateShadow creates a drop shadow of size width×height as the topmost
// child of parent. Shadows must sit below the content they belong to; see
// ShadowBox for sizing one around content.
func CreateShadow(parent *Node, width, height int, c Color) *Node {
	n := newNode(parent, NodeTypeShadow)
	n.shadow = shadowData{
		width:  max(width, 0),
		height: max(height, 0),
		color:  c,
	}
	n.update(nil)
	return n
}

// BlurSigma returns the shadow's gaussian blur sigma.
func (n *Node) BlurSigma() float64 {
	n.mustType(NodeTypeShadow)
	return n.shadow.blurSigma
}

// SetBlurSigma sets the shadow's gaussian blur sigma, in
// [MinShadowSigma, MaxShadowSigma].
func (n *Node) SetBlurSigma(sigma float64) error {
	n.mustType(NodeTypeShadow)
	if err := checkRange("shadow blur sigma", sigma, MinShadowSigma, MaxShadowSigma); err != nil {
		return err
	}
	if n.shadow.blurSigma == sigma {
		return nil
	}
	n.shadow.blurSigma = sigma
	n.update(nil)
	return nil
}
