// Package cli implements the fxscene command-line interface.
//
// The commands load TOML scene files (see package scenefile), compose them
// with the software renderer and report on the result:
//   - render: compose frames and write the display contents as PNG
//   - inspect: print the node tree, visibility and frame statistics
//   - graph: draw the node tree with Graphviz
//   - check: validate scene files
//
// All commands support --verbose (-v) for debug-level logging, which also
// turns on the per-frame diagnostics of the scene.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/phanxgames/fxscene"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var version = "dev"

// SetVersion sets the version shown by --version.
func SetVersion(v string) {
	version = v
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// debug reports whether debug logging is on.
func (c *CLI) debug() bool {
	return c.Logger.GetLevel() <= log.DebugLevel
}

// RootCommand creates the root cobra command with all subcommands
// registered. The scene library logs through the CLI logger while a
// command runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "fxscene",
		Short:        "fxscene composes scene files with blur, shadows and rounded corners",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			fxscene.SetLogger(slog.New(c.Logger))
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			fxscene.SetLogger(nil)
		},
	}

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.checkCommand())
	return root
}

// newLogger creates a logger with timestamp formatting.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
			return l
		}
	}
	return log.Default()
}
