package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/internal/logging"
	"github.com/aretw0/framegraph/internal/presentation/graph"
	"github.com/aretw0/framegraph/pkg/domain"
)

const (
	graphURI   = "framegraph://graph"
	mermaidURI = "framegraph://graph/mermaid"
)

// Engine defines the interface required by the MCP server to edit the graph.
type Engine interface {
	Inspect() (domain.GraphView, error)
	AddNodeAs(id domain.NodeID, variant domain.Variant, config map[string]any) (domain.NodeID, error)
	RemoveNode(id domain.NodeID) error
	Connect(src domain.NodeID, srcPort string, dst domain.NodeID, dstPort string) (domain.EdgeID, error)
	Disconnect(id domain.EdgeID) error
	Reset() error
}

// Snapshots is implemented by publishers that keep the last snapshot.
type Snapshots interface {
	Latest(ctx context.Context) (domain.Snapshot, bool, error)
}

// AddNodeArgs are the arguments of the add_node tool.
type AddNodeArgs struct {
	ID      string `json:"id,omitempty"`
	Variant string `json:"variant"`
	Config  string `json:"config,omitempty"`
}

// AddNodeResult is returned by add_node.
type AddNodeResult struct {
	ID domain.NodeID `json:"id" jsonschema_description:"ID of the inserted node"`
}

// ConnectArgs are the arguments of the connect tool.
type ConnectArgs struct {
	From     string `json:"from"`
	FromPort string `json:"from_port"`
	To       string `json:"to"`
	ToPort   string `json:"to_port"`
}

// ConnectResult is returned by connect.
type ConnectResult struct {
	EdgeID domain.EdgeID `json:"edge_id" jsonschema_description:"ID of the created edge"`
}

// Server wraps the framegraph Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	snapshots Snapshots
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

type Option func(*Server)

// WithSnapshots enables the get_control tool.
func WithSnapshots(s Snapshots) Option {
	return func(srv *Server) { srv.snapshots = s }
}

func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) { srv.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("framegraph-mcp", strings.TrimSpace(framegraph.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it down
// when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the nodes, edges and evaluation order of the live graph."),
	), s.handleGetGraph)

	s.mcpServer.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Add a node. Variants: source, face, hand, overlay, mapper, output."),
		mcp.WithString("variant", mcp.Required(), mcp.Description("Node variant")),
		mcp.WithString("id", mcp.Description("Node ID (generated when omitted)")),
		mcp.WithString("config", mcp.Description("JSON object with the node configuration")),
		mcp.WithOutputSchema[AddNodeResult](),
	), mcp.NewStructuredToolHandler(s.handleAddNode))

	s.mcpServer.AddTool(mcp.NewTool("remove_node",
		mcp.WithDescription("Remove a node and every edge touching it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node ID")),
	), s.handleRemoveNode)

	s.mcpServer.AddTool(mcp.NewTool("connect",
		mcp.WithDescription("Connect an output port to an input port of the same kind."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source node ID")),
		mcp.WithString("from_port", mcp.Required(), mcp.Description("Output port name")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target node ID")),
		mcp.WithString("to_port", mcp.Required(), mcp.Description("Input port name")),
		mcp.WithOutputSchema[ConnectResult](),
	), mcp.NewStructuredToolHandler(s.handleConnect))

	s.mcpServer.AddTool(mcp.NewTool("disconnect",
		mcp.WithDescription("Remove an edge."),
		mcp.WithString("edge_id", mcp.Required(), mcp.Description("Edge ID")),
	), s.handleDisconnect)

	s.mcpServer.AddTool(mcp.NewTool("reset_graph",
		mcp.WithDescription("Clear the graph and rebuild the configured topology."),
	), s.handleReset)

	s.mcpServer.AddTool(mcp.NewTool("get_control",
		mcp.WithDescription("Get the last published control record and trail."),
	), s.handleGetControl)
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := s.engine.Inspect()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(view)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest, args AddNodeArgs) (AddNodeResult, error) {
	variant, err := domain.ParseVariant(args.Variant)
	if err != nil {
		return AddNodeResult{}, err
	}
	var config map[string]any
	if args.Config != "" {
		if err := json.Unmarshal([]byte(args.Config), &config); err != nil {
			return AddNodeResult{}, fmt.Errorf("%w: config is not a JSON object: %w", domain.ErrInvalidNode, err)
		}
	}
	id, err := s.engine.AddNodeAs(domain.NodeID(args.ID), variant, config)
	if err != nil {
		s.logger.Warn("MCP add_node rejected", "err", err)
		return AddNodeResult{}, fmt.Errorf("add_node failed: %w", err)
	}
	return AddNodeResult{ID: id}, nil
}

func (s *Server) handleRemoveNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.RemoveNode(domain.NodeID(id)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("remove_node failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed %s", id)), nil
}

func (s *Server) handleConnect(ctx context.Context, request mcp.CallToolRequest, args ConnectArgs) (ConnectResult, error) {
	id, err := s.engine.Connect(domain.NodeID(args.From), args.FromPort, domain.NodeID(args.To), args.ToPort)
	if err != nil {
		s.logger.Warn("MCP connect rejected", "err", err)
		return ConnectResult{}, fmt.Errorf("connect failed: %w", err)
	}
	return ConnectResult{EdgeID: id}, nil
}

func (s *Server) handleDisconnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("edge_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.Disconnect(domain.EdgeID(id)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("disconnect failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("disconnected %s", id)), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.Reset(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return s.handleGetGraph(ctx, request)
}

func (s *Server) handleGetControl(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.snapshots == nil {
		return mcp.NewToolResultError("no snapshot source configured"), nil
	}
	snap, ok, err := s.snapshots.Latest(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("latest failed: %v", err)), nil
	}
	if !ok {
		return mcp.NewToolResultError("no snapshot published yet"), nil
	}
	jsonBytes, _ := json.Marshal(snap)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Current Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		view, err := s.engine.Inspect()
		if err != nil {
			return nil, fmt.Errorf("failed to inspect graph: %w", err)
		}
		jsonBytes, _ := json.Marshal(view)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(mermaidURI, "Current Graph (Mermaid)",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		view, err := s.engine.Inspect()
		if err != nil {
			return nil, fmt.Errorf("failed to inspect graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      mermaidURI,
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(view, nil),
			},
		}, nil
	})
}
