package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/internal/config"
	"github.com/aretw0/framegraph/internal/presentation/graph"
	"github.com/aretw0/framegraph/internal/presentation/tui"
	"github.com/aretw0/framegraph/internal/validator"
	"github.com/aretw0/framegraph/pkg/adapters/mcp"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/nodes"
	"github.com/aretw0/framegraph/pkg/runner"
)

// Output formats accepted by RenderGraph.
const (
	FormatMermaid  = "mermaid"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned by RenderGraph for unsupported formats.
var ErrUnknownFormat = errors.New("unknown output format")

// inspectConfigured builds the configured topology on an engine without
// collaborators and returns its view. Nothing is ticked.
func inspectConfigured(configPath string) (domain.GraphView, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return domain.GraphView{}, err
	}
	eng := framegraph.New(
		framegraph.WithTopology(cfg.Topology()),
		framegraph.WithDeps(nodes.Deps{}),
	)
	defer eng.Close()
	if err := eng.Reset(); err != nil {
		return domain.GraphView{}, fmt.Errorf("error building graph: %w", err)
	}
	return eng.Inspect()
}

// RenderGraph writes the configured graph to w in the given format.
func RenderGraph(w io.Writer, configPath, format string) error {
	view, err := inspectConfigured(configPath)
	if err != nil {
		return err
	}
	switch format {
	case FormatMermaid, "":
		_, err = io.WriteString(w, graph.GenerateMermaid(view, nil))
	case FormatMarkdown:
		_, err = io.WriteString(w, graph.GenerateMarkdown(view))
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(view)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return err
}

// Inspect renders the configured graph report for the terminal. Output that
// is not a terminal gets the raw markdown.
func Inspect(w io.Writer, configPath string) error {
	view, err := inspectConfigured(configPath)
	if err != nil {
		return err
	}
	report := graph.GenerateMarkdown(view)
	if width := terminalWidth(w); width > 0 {
		if rendered, err := tui.NewRenderer(width)(report); err == nil {
			report = rendered
		}
	}
	_, err = io.WriteString(w, report)
	return err
}

// Validate loads the configuration and checks its topology.
func Validate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return validator.ValidateTopology(cfg.Topology())
}

// MCPOptions holds the flags of the mcp command.
type MCPOptions struct {
	ConfigPath string
	Debug      bool
	Transport  string
	Port       int
}

// ServeMCP exposes a live engine over the Model Context Protocol. The engine
// is ticked in the background so get_control has something to report.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg.LogLevel, opts.Debug)
	if err != nil {
		return err
	}
	stack, err := createStack(cfg, logger, opts.Debug)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	release, err := holdLease(ctx, cancel, stack, logger)
	if err != nil {
		return err
	}
	defer release()

	r := runner.New(stack.Engine, runner.WithInterval(cfg.Interval()), runner.WithLogger(logger))
	go func() {
		if err := r.Run(ctx); err != nil {
			logger.Error("background runner stopped", "err", err)
		}
	}()

	srv := mcp.NewServer(stack.Engine, mcp.WithSnapshots(stack.Frames), mcp.WithLogger(logger))
	switch opts.Transport {
	case "stdio", "":
		logger.Info("Starting framegraph MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting framegraph MCP server (SSE)", "port", opts.Port)
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", opts.Transport)
	}
}
