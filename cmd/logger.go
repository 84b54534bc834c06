package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nicholasgasior/ssopipe/internal/cli"
)

// newLogger builds the slog.Logger used by the domain packages for
// human-facing output. AddSource embeds file:line on every record, the
// ssopipe equivalent of the teacher's ancestor's %(filename)s:%(lineno)d
// log format (§7). --json suppresses it entirely since JSON-mode callers
// read only the structured stdout output.
func newLogger(cmd *cobra.Command) *slog.Logger {
	cliCtx := cli.FromCommand(cmd)
	if cliCtx != nil && cliCtx.JSON {
		return slog.New(slog.NewTextHandler(nullWriter{}, nil))
	}

	level := slog.LevelWarn
	if cliCtx != nil && cliCtx.Verbose {
		level = slog.LevelInfo
	}
	if cliCtx != nil && cliCtx.Debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
}

// nullWriter discards all writes; used to silence the logger in JSON mode.
type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }
