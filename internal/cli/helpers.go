package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/framegraph/internal/logging"
	"github.com/aretw0/framegraph/pkg/domain"
)

// createLogger configures the application logger. Debug mode forces the
// debug level regardless of the configured one.
func createLogger(level string, debug bool) (*slog.Logger, error) {
	if debug {
		return logging.New(slog.LevelDebug), nil
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(lvl), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or 0 when it is not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTickStart: func(ctx context.Context, e *domain.TickEvent) {
			logger.Debug("Tick Start", "frame", e.Frame, "nodes", e.Nodes)
		},
		OnNodeExecuted: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Node Executed", "frame", e.Frame, "node_id", e.NodeID, "duration", e.Duration)
		},
		OnNodeError: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Node Error", "frame", e.Frame, "node_id", e.NodeID, "err", e.Err)
		},
		OnTickEnd: func(ctx context.Context, e *domain.TickEvent) {
			logger.Debug("Tick End", "frame", e.Frame, "failures", e.Failures, "duration", e.Duration)
		},
	}
}
