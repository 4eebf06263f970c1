package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phanxgames/fxscene/internal/scenefile"
)

// errInvalid is returned by check when any file fails validation. The
// problems have already been printed.
var errInvalid = errors.New("invalid scene files")

func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [scene.toml...]",
		Short: "Validate scene files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			bad := 0
			for _, path := range args {
				f, err := scenefile.Load(path)
				if err != nil {
					bad++
					printError(w, "%s", path)
					for _, line := range splitErrors(err) {
						printDetail(w, "%s", line)
					}
					continue
				}
				printSuccess(w, "%s (%d nodes)", path, f.Count())
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d: %w", bad, len(args), errInvalid)
			}
			return nil
		},
	}
}

// splitErrors flattens joined errors into one message per problem.
func splitErrors(err error) []string {
	var out []string
	var walk func(error)
	walk = func(err error) {
		if j, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range j.Unwrap() {
				walk(e)
			}
			return
		}
		out = append(out, err.Error())
	}
	walk(err)
	return out
}
