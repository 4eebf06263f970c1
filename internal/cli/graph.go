package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"github.com/phanxgames/fxscene"
)

const (
	formatSVG = "svg"
	formatDOT = "dot"
)

func (c *CLI) graphCommand() *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "graph [scene.toml]",
		Short: "Draw the node tree of a scene with Graphviz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatSVG && format != formatDOT {
				return fmt.Errorf("unknown format %q: want svg or dot", format)
			}
			st, err := loadStage(args[0], c.debug())
			if err != nil {
				return err
			}
			defer st.close()
			// Visibility is settled by the first commit.
			if err := st.commit(); err != nil {
				return err
			}

			data := []byte(toDOT(st.scene.Root()))
			if format == formatSVG {
				if data, err = renderSVG(cmd.Context(), data); err != nil {
					return err
				}
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printFile(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", formatSVG, "output format: svg or dot")
	return cmd
}

// toDOT converts the node tree under root to Graphviz DOT. Disabled nodes
// are dashed, fully occluded ones grey.
func toDOT(root *fxscene.Node) string {
	var buf bytes.Buffer
	buf.WriteString("digraph scene {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n\n")

	var walk func(n *fxscene.Node)
	walk = func(n *fxscene.Node) {
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(dotAttrs(n), ", "))
		for _, child := range n.Children() {
			walk(child)
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", n.ID, child.ID)
		}
	}
	walk(root)
	buf.WriteString("}\n")
	return buf.String()
}

func dotAttrs(n *fxscene.Node) []string {
	label := n.Type.String()
	if n.Name != "" {
		label += " " + n.Name
	}
	if n.Type != fxscene.NodeTypeTree {
		w, h := n.Size()
		x, y := n.Position()
		label += fmt.Sprintf("\n%dx%d @%d,%d", w, h, x, y)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case !n.Enabled():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	case n.Type != fxscene.NodeTypeTree && n.Visible().Empty():
		attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=gray40")
	case n.ShouldBlur():
		attrs = append(attrs, "fillcolor=lightblue")
	}
	return attrs
}

// renderSVG renders a DOT graph to SVG.
func renderSVG(ctx context.Context, dot []byte) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
