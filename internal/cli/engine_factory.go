package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/internal/config"
	httpAdapter "github.com/aretw0/framegraph/pkg/adapters/http"
	"github.com/aretw0/framegraph/pkg/adapters/memory"
	"github.com/aretw0/framegraph/pkg/adapters/redis"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/nodes"
	"github.com/aretw0/framegraph/pkg/observability"
	"github.com/aretw0/framegraph/pkg/ports"
)

// Stack is an engine wired to its collaborators and sinks.
type Stack struct {
	Engine  *framegraph.Engine
	Frames  *httpAdapter.FrameStore
	Metrics *observability.Metrics
	Redis   *redis.Publisher
	Capture *memory.Capture
	Face    *memory.Landmarker
	Hand    *memory.Landmarker
}

// createStack initializes an engine with the synthetic capture and scripted
// landmarkers, publishing to the frame store, metrics and (if configured) redis.
func createStack(cfg *config.Config, logger *slog.Logger, debug bool) (*Stack, error) {
	s := &Stack{
		Frames:  httpAdapter.NewFrameStore(logger),
		Metrics: observability.NewMetrics(nil),
		Capture: memory.NewCapture(cfg.Capture.Width, cfg.Capture.Height, memory.WithWarmup(cfg.Capture.Warmup)),
		Face:    memory.NewLandmarker(faceScript(), memory.Looping(), memory.WithLatency(cfg.Inference.Latency)),
		Hand:    memory.NewLandmarker(handScript(), memory.Looping(), memory.WithLatency(cfg.Inference.Latency)),
	}

	sinks := ports.Publishers{s.Frames}
	if cfg.Redis.Addr != "" {
		pub, err := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithCompression(cfg.Redis.Compress),
			redis.WithTTL(cfg.Redis.TTL),
		)
		if err != nil {
			return nil, fmt.Errorf("error initializing redis publisher: %w", err)
		}
		s.Redis = pub
		sinks = append(sinks, pub)
	}

	hooks := s.Metrics.Hooks()
	if debug {
		hooks = domain.ChainHooks(hooks, createDebugHooks(logger))
	}

	s.Engine = framegraph.New(
		framegraph.WithName("main"),
		framegraph.WithLogger(logger),
		framegraph.WithLifecycleHooks(hooks),
		framegraph.WithTopology(cfg.Topology()),
		framegraph.WithDeps(nodes.Deps{
			Capture:   s.Capture,
			Face:      s.Face,
			Hand:      s.Hand,
			Publisher: s.Metrics.Publisher(sinks),
			Logger:    logger,
		}),
	)
	if err := s.Engine.Reset(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return s, nil
}

// Close shuts the engine down, which releases the capture and landmarkers,
// then closes the redis publisher.
func (s *Stack) Close() error {
	var errs []error
	if s.Engine != nil {
		errs = append(errs, s.Engine.Close())
	}
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	return errors.Join(errs...)
}
