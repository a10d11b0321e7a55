package nodes

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/framegraph/internal/logging"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
	"github.com/aretw0/framegraph/pkg/ports"
)

// Deps are the collaborators node constructors draw from.
// Any of them may be nil; nodes then behave as if upstream is never ready.
type Deps struct {
	Capture   ports.Capture
	Face      ports.Landmarker
	Hand      ports.Landmarker
	Publisher ports.Publisher
	Logger    *slog.Logger
	Clock     func() time.Time
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return logging.NewNop()
	}
	return d.Logger
}

func (d Deps) clock() func() time.Time {
	if d.Clock != nil {
		return d.Clock
	}
	if d.Capture != nil {
		return d.Capture.Now
	}
	return time.Now
}

// New builds a node of the given variant from its configuration bag.
func New(variant domain.Variant, config map[string]any, deps Deps) (graph.Node, error) {
	switch variant {
	case domain.VariantSource:
		return NewSource(deps.Capture, deps.clock()), nil
	case domain.VariantFace:
		return newExtractorFromConfig(domain.ModalityFace, deps.Face, config, deps)
	case domain.VariantHand:
		return newExtractorFromConfig(domain.ModalityHand, deps.Hand, config, deps)
	case domain.VariantOverlay:
		cfg := DefaultOverlayConfig()
		if err := decodeConfig(variant, config, &cfg); err != nil {
			return nil, err
		}
		return NewOverlay(cfg), nil
	case domain.VariantMapper:
		if err := decodeConfig(variant, config, &struct{}{}); err != nil {
			return nil, err
		}
		return NewMapper(), nil
	case domain.VariantOutput:
		cfg := DefaultTrailConfig()
		if err := decodeConfig(variant, config, &cfg); err != nil {
			return nil, err
		}
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		return NewOutput(deps.Publisher, cfg, deps.clock()), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownVariant, variant)
}

func newExtractorFromConfig(m domain.Modality, lm ports.Landmarker, config map[string]any, deps Deps) (graph.Node, error) {
	var cfg ExtractorConfig
	if err := decodeConfig(domain.Variant(m), config, &cfg); err != nil {
		return nil, err
	}
	opts := []ExtractorOption{WithExtractorLogger(deps.logger())}
	if cfg.Async {
		opts = append(opts, WithAsync())
	}
	return NewExtractor(m, lm, opts...), nil
}
