package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/image/draw"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/internal/logging"
	"github.com/aretw0/framegraph/internal/presentation/graph"
	"github.com/aretw0/framegraph/pkg/domain"
)

// Engine is the slice of framegraph.Engine the HTTP API drives.
type Engine interface {
	Inspect() (domain.GraphView, error)
	AddNodeAs(id domain.NodeID, variant domain.Variant, config map[string]any) (domain.NodeID, error)
	RemoveNode(id domain.NodeID) error
	Connect(src domain.NodeID, srcPort string, dst domain.NodeID, dstPort string) (domain.EdgeID, error)
	Disconnect(id domain.EdgeID) error
	Reset() error
}

// Server serves graph editing, the latest frame and the control stream.
type Server struct {
	Engine  Engine
	Frames  *FrameStore
	Metrics http.Handler
	Logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithFrames attaches the store that backs /frame.png, /control and /events.
func WithFrames(f *FrameStore) Option {
	return func(s *Server) { s.Frames = f }
}

// WithMetrics mounts a Prometheus handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}
	if s.Frames == nil {
		s.Frames = NewFrameStore(s.Logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Route("/graph", func(r chi.Router) {
		r.Get("/", s.GetGraph)
		r.Get("/mermaid", s.GetMermaid)
		r.Post("/nodes", s.AddNode)
		r.Delete("/nodes/{id}", s.RemoveNode)
		r.Post("/edges", s.Connect)
		r.Delete("/edges/{id}", s.Disconnect)
		r.Post("/reset", s.ResetGraph)
	})
	r.Get("/frame.png", s.GetFrame)
	r.Get("/control", s.GetControl)
	r.Get("/events", s.SubscribeEvents)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"app":     "framegraph-http",
		"version": strings.TrimSpace(framegraph.Version),
	}
	if view, err := s.Engine.Inspect(); err == nil {
		resp["graph_version"] = view.Version
		resp["nodes"] = len(view.Nodes)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetGraph handles the GET /graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	view, err := s.Engine.Inspect()
	if err != nil {
		s.fail(w, "Inspect", err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// GetMermaid handles the GET /graph/mermaid request.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	view, err := s.Engine.Inspect()
	if err != nil {
		s.fail(w, "Inspect", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(view, nil))
}

// AddNode handles the POST /graph/nodes request.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var body framegraph.NodeSpec
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("AddNode: invalid request body", "err", err)
		return
	}
	id, err := s.Engine.AddNodeAs(body.ID, body.Variant, body.Config)
	if err != nil {
		s.fail(w, "AddNode", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]domain.NodeID{"id": id})
}

// RemoveNode handles the DELETE /graph/nodes/{id} request.
func (s *Server) RemoveNode(w http.ResponseWriter, r *http.Request) {
	id := domain.NodeID(chi.URLParam(r, "id"))
	if err := s.Engine.RemoveNode(id); err != nil {
		s.fail(w, "RemoveNode", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Connect handles the POST /graph/edges request.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var body framegraph.EdgeSpec
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Connect: invalid request body", "err", err)
		return
	}
	id, err := s.Engine.Connect(body.From, body.FromPort, body.To, body.ToPort)
	if err != nil {
		s.fail(w, "Connect", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]domain.EdgeID{"id": id})
}

// Disconnect handles the DELETE /graph/edges/{id} request.
func (s *Server) Disconnect(w http.ResponseWriter, r *http.Request) {
	id := domain.EdgeID(chi.URLParam(r, "id"))
	if err := s.Engine.Disconnect(id); err != nil {
		s.fail(w, "Disconnect", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetGraph handles the POST /graph/reset request.
func (s *Server) ResetGraph(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Reset(); err != nil {
		s.fail(w, "Reset", err)
		return
	}
	s.GetGraph(w, r)
}

// GetFrame handles the GET /frame.png request. An optional width query
// parameter downscales the frame, keeping its aspect ratio.
func (s *Server) GetFrame(w http.ResponseWriter, r *http.Request) {
	snap, ok, err := s.Frames.Latest(r.Context())
	if err != nil {
		s.fail(w, "Latest", err)
		return
	}
	if !ok || snap.Image == nil {
		http.Error(w, "No frame published yet", http.StatusNotFound)
		return
	}

	var img image.Image = snap.Image
	if raw := r.URL.Query().Get("width"); raw != "" {
		width, err := strconv.Atoi(raw)
		if err != nil || width <= 0 {
			http.Error(w, "Invalid width", http.StatusBadRequest)
			return
		}
		img = scaleToWidth(snap.Image, width)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Frame", strconv.FormatUint(snap.Frame, 10))
	if err := png.Encode(w, img); err != nil {
		s.Logger.Error("GetFrame: encode failed", "err", err)
	}
}

func scaleToWidth(src *image.RGBA, width int) image.Image {
	b := src.Bounds()
	if width >= b.Dx() {
		return src
	}
	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// GetControl handles the GET /control request.
func (s *Server) GetControl(w http.ResponseWriter, r *http.Request) {
	snap, ok, err := s.Frames.Latest(r.Context())
	if err != nil {
		s.fail(w, "Latest", err)
		return
	}
	if !ok {
		http.Error(w, "No snapshot published yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// SubscribeEvents handles the GET /events request (SSE). Every published
// snapshot produces one control event.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Frames.Streams().Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: control\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEngineClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrPortNotFound),
		errors.Is(err, domain.ErrEdgeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTypeMismatch),
		errors.Is(err, domain.ErrPortOccupied),
		errors.Is(err, domain.ErrCycleDetected),
		errors.Is(err, domain.ErrSelfLoop),
		errors.Is(err, domain.ErrDuplicateNode):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidNode),
		errors.Is(err, domain.ErrInvalidPort),
		errors.Is(err, domain.ErrUnknownVariant),
		errors.Is(err, domain.ErrUnknownKind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "err", err)
	} else {
		s.Logger.Warn(op+" rejected", "err", err, "status", code)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), code)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}
