package nodes

import (
	"context"
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/aretw0/framegraph/internal/logging"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
	"github.com/aretw0/framegraph/pkg/ports"
)

// Extractor port names.
const (
	PortLandmarks = "landmarks"
	PortMetrics   = "metrics"
)

// Landmark indices and transform constants for metric derivation.
const (
	FacePrimary  = 1  // nose tip
	FaceUpperLip = 13 // inner upper lip
	FaceLowerLip = 14 // inner lower lip

	HandThumbTip = 4
	HandIndexTip = 8
	HandPrimary  = HandIndexTip

	// jaw = clamp((d - JawOffset) * JawGain)
	JawOffset = 0.01
	JawGain   = 12.0
	// pinch = clamp(1 - d * PinchGain)
	PinchGain = 8.0
)

// ExtractorConfig is the configuration bag of the face and hand variants.
type ExtractorConfig struct {
	// Async moves inference to a background worker. Ticks then publish the
	// last completed result instead of waiting for the current frame.
	Async bool `mapstructure:"async"`
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithAsync enables background inference.
func WithAsync() ExtractorOption {
	return func(e *Extractor) {
		e.async = true
	}
}

// WithExtractorLogger configures the structured logger.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// Extractor turns frames into landmarks and metrics for one modality.
//
// A nil frame or a landmarker that is not ready yet yields nil landmarks and
// nil metrics. Downstream nodes read nil metrics as "no signal".
type Extractor struct {
	modality   domain.Modality
	landmarker ports.Landmarker
	async      bool
	worker     *inferenceWorker
	logger     *slog.Logger
}

// NewExtractor creates an extractor for the face or hand modality.
func NewExtractor(m domain.Modality, lm ports.Landmarker, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		modality:   m,
		landmarker: lm,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.async && lm != nil {
		e.worker = newInferenceWorker(lm.Detect, e.logger.With("modality", m))
	}
	return e
}

func (e *Extractor) Variant() domain.Variant { return domain.Variant(e.modality) }

func (e *Extractor) Ports() []domain.PortSpec {
	return []domain.PortSpec{
		domain.In(PortFrame, domain.KindImage),
		domain.In(PortTimestamp, domain.KindNumber),
		domain.Out(PortLandmarks, domain.KindLandmarks),
		domain.Out(PortMetrics, domain.KindMetrics),
	}
}

func (e *Extractor) Config() map[string]any {
	return encodeConfig(ExtractorConfig{Async: e.async})
}

func (e *Extractor) Execute(ctx context.Context, io *graph.IO) error {
	landmarks, err := e.detect(ctx, io.Image(PortFrame), io.Number(PortTimestamp))
	if err != nil {
		return err
	}
	if err := io.Set(PortLandmarks, landmarks); err != nil {
		return err
	}
	var metrics any
	if m := Derive(e.modality, landmarks); m != nil {
		metrics = m
	}
	return io.Set(PortMetrics, metrics)
}

func (e *Extractor) detect(ctx context.Context, frame *image.RGBA, ts float64) (domain.LandmarkSetList, error) {
	if frame == nil || e.landmarker == nil || !e.landmarker.Ready() {
		return nil, nil
	}
	if e.worker == nil {
		return e.landmarker.Detect(ctx, frame, ts)
	}
	e.worker.Submit(frame, ts)
	return e.worker.Latest(), nil
}

// Stats reports background inference counters. Synchronous extractors return zeros.
func (e *Extractor) Stats() WorkerStats {
	if e.worker == nil {
		return WorkerStats{}
	}
	return e.worker.Stats()
}

// Close stops the inference worker and releases the landmarker.
func (e *Extractor) Close() error {
	if e.worker != nil {
		e.worker.Close()
	}
	if c, ok := e.landmarker.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Derive computes the metrics record for the first landmark set in the list.
// It returns nil when nothing was detected or the set lacks the needed landmarks.
func Derive(m domain.Modality, list domain.LandmarkSetList) *domain.Metrics {
	if len(list) == 0 {
		return nil
	}
	set := list[0]

	var primary, a, b int
	switch m {
	case domain.ModalityFace:
		primary, a, b = FacePrimary, FaceUpperLip, FaceLowerLip
	case domain.ModalityHand:
		primary, a, b = HandPrimary, HandThumbTip, HandIndexTip
	default:
		return nil
	}
	if len(set) <= max(primary, a, b) {
		return nil
	}

	d := distance(set[a], set[b])
	out := &domain.Metrics{
		Modality: m,
		X:        set[primary].X,
		Y:        set[primary].Y,
		Distance: d,
	}
	if m == domain.ModalityFace {
		out.Amount = clamp01((d - JawOffset) * JawGain)
	} else {
		out.Amount = clamp01(1 - d*PinchGain)
	}
	return out
}

func distance(a, b domain.Landmark) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
