package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/phanxgames/fxscene/softrender"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output string // PNG path, derived from the scene file when empty
	frames int    // frames to commit before writing
	raw    bool   // write the buffer as scanned out, without the output transform
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{frames: 1}

	cmd := &cobra.Command{
		Use:   "render [scene.toml]",
		Short: "Compose a scene file and write the display contents as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.frames < 1 {
				return fmt.Errorf("--frames must be at least 1, got %d", opts.frames)
			}
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output PNG file (default: scene name + .png)")
	cmd.Flags().IntVarP(&opts.frames, "frames", "n", opts.frames, "number of frames to commit")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "write the display buffer without applying the output transform")
	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, path string, opts renderOpts) error {
	logger := loggerFromContext(cmd.Context())
	start := time.Now()

	st, err := loadStage(path, c.debug())
	if err != nil {
		return err
	}
	defer st.close()

	for range opts.frames {
		if err := st.commit(); err != nil {
			return fmt.Errorf("commit frame %d: %w", st.frames, err)
		}
		logger.Debug("frame committed", "frame", st.frames, "damage", st.output.LastFrame().DamageArea)
	}

	img := st.display.Front()
	if !opts.raw {
		img = softrender.Oriented(img, st.display.Transform())
	}
	out := opts.output
	if out == "" {
		out = defaultOutputPath(path, ".png")
	}
	if err := softrender.WritePNG(out, img); err != nil {
		return err
	}
	logger.Infof("Rendered %d frame(s) (%s)", st.frames, time.Since(start).Round(time.Millisecond))
	printFile(cmd.OutOrStdout(), out)
	return nil
}
