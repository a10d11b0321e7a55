package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/framegraph"
	"github.com/aretw0/framegraph/internal/config"
	"github.com/aretw0/framegraph/internal/presentation/tui"
	httpAdapter "github.com/aretw0/framegraph/pkg/adapters/http"
	"github.com/aretw0/framegraph/pkg/adapters/redis"
	"github.com/aretw0/framegraph/pkg/runner"
)

// leaseTTL bounds how long a crashed runner keeps the redis stream claimed.
const leaseTTL = 10 * time.Second

// RunOptions holds the flags of the run command.
type RunOptions struct {
	ConfigPath string
	Debug      bool
	Quiet      bool
	// Overrides applied after the configuration is loaded.
	HTTPAddr  string
	MaxFrames uint64
	Out       io.Writer
}

// Run loads the configuration, builds the engine and drives it until ctx is
// cancelled or the frame budget is spent.
func Run(ctx context.Context, opts RunOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.HTTPAddr != "" {
		cfg.HTTP.Addr = opts.HTTPAddr
	}
	if opts.MaxFrames > 0 {
		cfg.MaxFrames = opts.MaxFrames
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

	if cfg.HTTP.Addr != "" {
		handler := httpAdapter.NewHandler(stack.Engine,
			httpAdapter.WithFrames(stack.Frames),
			httpAdapter.WithMetrics(stack.Metrics.Handler()),
			httpAdapter.WithLogger(logger),
		)
		srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}
		go func() {
			logger.Info("HTTP server listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				cancel(fmt.Errorf("http server: %w", err))
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("HTTP server did not stop gracefully", "err", err)
			}
		}()
	}

	r := runner.New(stack.Engine,
		runner.WithInterval(cfg.Interval()),
		runner.WithMaxFrames(cfg.MaxFrames),
		runner.WithLogger(logger),
	)

	if !opts.Quiet {
		if isTerminal(opts.Out) {
			tui.PrintBanner(opts.Out, framegraph.Version)
		}
		printSystemMessage(opts.Out, "Run %s at %d fps.", r.RunID(), cfg.FPS)
		if cfg.HTTP.Addr != "" {
			printSystemMessage(opts.Out, "Serving frames on http://%s/frame.png", displayAddr(cfg.HTTP.Addr))
		}
	}

	runErr := r.Run(ctx)
	if cause := context.Cause(ctx); runErr == nil && cause != nil && !errors.Is(cause, context.Canceled) {
		runErr = cause
	}

	if !opts.Quiet {
		stats := r.Stats()
		printSystemMessage(opts.Out, "Stopped after %d frames (%d node failures, %d overruns).",
			stats.Frames, stats.NodeFailures, stats.Overruns)
	}
	return runErr
}

// holdLease claims the redis stream when the stack publishes there and keeps
// the claim alive until ctx ends. The returned func releases it.
func holdLease(ctx context.Context, cancel context.CancelCauseFunc, stack *Stack, logger *slog.Logger) (func(), error) {
	if stack.Redis == nil {
		return func() {}, nil
	}
	lease, err := stack.Redis.Claim(ctx, leaseTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to claim redis stream: %w", err)
	}
	go keepLease(ctx, cancel, lease, logger)
	return func() {
		if err := lease.Release(context.Background()); err != nil {
			logger.Warn("failed to release redis stream lease", "err", err)
		}
	}, nil
}

// keepLease renews the stream lease until ctx ends, cancelling the run if
// another writer takes over.
func keepLease(ctx context.Context, cancel context.CancelCauseFunc, lease *redis.Lease, logger *slog.Logger) {
	ticker := time.NewTicker(leaseTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lease.Renew(ctx, leaseTTL); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Error("lost redis stream lease", "err", err)
				cancel(err)
				return
			}
		}
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
