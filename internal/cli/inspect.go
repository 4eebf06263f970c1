package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phanxgames/fxscene"
)

func (c *CLI) inspectCommand() *cobra.Command {
	var frames int
	cmd := &cobra.Command{
		Use:   "inspect [scene.toml]",
		Short: "Print the node tree, visibility and frame statistics of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStage(args[0], c.debug())
			if err != nil {
				return err
			}
			defer st.close()
			for range max(frames, 1) {
				if err := st.commit(); err != nil {
					return fmt.Errorf("commit frame %d: %w", st.frames, err)
				}
			}
			printReport(cmd.OutOrStdout(), st)
			return nil
		},
	}
	cmd.Flags().IntVarP(&frames, "frames", "n", 1, "number of frames to commit before reporting")
	return cmd
}

func printReport(w io.Writer, st *stage) {
	o := st.output
	d := st.display
	mw, mh := d.Resolution()
	ew, eh := o.EffectiveResolution()

	printTitle(w, "Output")
	printKeyValue(w, "name", o.Name())
	printKeyValue(w, "mode", fmt.Sprintf("%dx%d", mw, mh))
	printKeyValue(w, "scale", fmt.Sprintf("%g", d.Scale()))
	printKeyValue(w, "transform", d.Transform().String())
	printKeyValue(w, "layout", fmt.Sprintf("%dx%d at %d,%d", ew, eh, o.LayoutBox().X, o.LayoutBox().Y))
	fmt.Fprintln(w)

	p := st.scene.BlurParams()
	printTitle(w, "Effects")
	printKeyValue(w, "blur", fmt.Sprintf("%v radius=%d passes=%d size=%d", p.Enabled, p.Radius, p.Passes, p.Size()))
	printKeyValue(w, "corner radius", fmt.Sprint(st.file.Effects.CornerRadius))
	fmt.Fprintln(w)

	printTitle(w, "Tree")
	printTree(w, st.output, st.scene.Root(), 0)
	fmt.Fprintln(w)

	f := o.LastFrame()
	printTitle(w, fmt.Sprintf("Frame %d", st.frames))
	if f.Skipped {
		printDetail(w, "nothing to repaint")
	} else {
		printKeyValue(w, "entries", styleNumber.Render(fmt.Sprint(f.Entries)))
		printKeyValue(w, "draw calls", styleNumber.Render(fmt.Sprint(f.DrawCalls())))
		printKeyValue(w, "blurs", fmt.Sprintf("%d (+%d captured)", f.Blurs, f.BlurCaptures))
		printKeyValue(w, "damage", fmt.Sprintf("%d px in %d rects", f.DamageArea, f.Damage.NumRects()))
		printKeyValue(w, "scanout", fmt.Sprint(f.DirectScanout))
		printKeyValue(w, "took", f.Duration.String())
	}
	if f.ImportFailures > 0 {
		fmt.Fprintln(w, "  "+styleWarning.Render(fmt.Sprintf("%d buffers failed to import", f.ImportFailures)))
	}
	rs := st.renderer.Stats()
	printDetail(w, "renderer: %d passes, %d rects, %d textures, %d shadows, %d blurs, %d imports",
		rs.Passes, rs.Rects, rs.Textures, rs.Shadows, rs.Blurs, rs.Imports)
}

// printTree prints n and its subtree, one node per line.
func printTree(w io.Writer, o *fxscene.Output, n *fxscene.Node, depth int) {
	fmt.Fprintln(w, "  "+strings.Repeat("  ", depth)+describeNode(o, n))
	for _, child := range n.Children() {
		printTree(w, o, child, depth+1)
	}
}

// describeNode is a one-line summary of n. Visible area is measured on o,
// or across the whole scene when o is nil.
func describeNode(o *fxscene.Output, n *fxscene.Node) string {
	var b strings.Builder
	b.WriteString(styleValue.Render(n.Type.String()))
	if n.Name != "" {
		b.WriteString(" " + styleNumber.Render(n.Name))
	}
	x, y := n.Position()
	var parts []string
	if n.Type != fxscene.NodeTypeTree {
		w, h := n.Size()
		parts = append(parts, fmt.Sprintf("%dx%d", w, h))
	}
	parts = append(parts, fmt.Sprintf("@%d,%d", x, y))
	if !n.Enabled() {
		parts = append(parts, "disabled")
	}
	if n.Type != fxscene.NodeTypeTree {
		visible := n.Visible()
		if o != nil {
			visible = o.Visible(n)
		}
		parts = append(parts, fmt.Sprintf("visible %dpx", visible.Area()))
		if a := n.OpaqueContribution().Area(); a > 0 {
			parts = append(parts, fmt.Sprintf("opaque %dpx", a))
		}
	}
	if n.ShouldBlur() {
		parts = append(parts, "blur")
	}
	b.WriteString(" " + styleDim.Render(strings.Join(parts, " ")))
	return b.String()
}
