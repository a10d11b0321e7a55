package nodes

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"golang.org/x/image/draw"

	"github.com/aretw0/framegraph/pkg/domain"
)

type detectFunc func(ctx context.Context, frame *image.RGBA, timestampMs float64) (domain.LandmarkSetList, error)

// inferenceRequest owns the copy of a submitted frame. Requests are recycled:
// at most two exist per worker, one in detection and one pending or free.
type inferenceRequest struct {
	frame       scratch
	timestampMs float64
}

// WorkerStats reports the state of an extractor's background inference.
type WorkerStats struct {
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	// Drops counts submitted frames overwritten before the worker took them.
	Drops uint64 `json:"drops"`
	// Allocations counts frame buffers (re)sized to hold a submitted frame.
	Allocations uint64 `json:"allocations"`
	Pending     bool   `json:"pending"`
}

// inferenceWorker runs detection on its own goroutine behind a one-slot mailbox.
// Submit never blocks; a newer frame overwrites an unconsumed one. Latest
// returns the last completed result without waiting for work in flight.
type inferenceWorker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending *inferenceRequest
	free    *inferenceRequest
	busy    bool
	closed  bool

	result domain.LandmarkSetList
	stats  WorkerStats

	detect detectFunc
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newInferenceWorker(detect detectFunc, logger *slog.Logger) *inferenceWorker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &inferenceWorker{
		detect: detect,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.loop()
	return w
}

// Submit hands a frame to the worker. The frame is copied, so the caller may
// reuse its buffer right away. The copy lands in the buffer of the request it
// overwrites, or of the last finished one, when dimensions match.
func (w *inferenceWorker) Submit(frame *image.RGBA, timestampMs float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	req := w.pending
	switch {
	case req != nil:
		w.stats.Drops++
	case w.free != nil:
		req, w.free = w.free, nil
	default:
		req = &inferenceRequest{}
	}

	reallocs := req.frame.Reallocations()
	dst := req.frame.fit(frame.Bounds())
	if req.frame.Reallocations() != reallocs {
		w.stats.Allocations++
	}
	draw.Copy(dst, dst.Rect.Min, frame, frame.Bounds(), draw.Src, nil)
	req.timestampMs = timestampMs

	w.stats.Submitted++
	w.pending = req
	w.cond.Signal()
}

// Latest returns the most recent completed detection, or nil if none finished yet.
func (w *inferenceWorker) Latest() domain.LandmarkSetList {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

func (w *inferenceWorker) Stats() WorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.Pending = w.busy || w.pending != nil
	return s
}

func (w *inferenceWorker) loop() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for w.pending == nil && !w.closed {
			w.cond.Wait()
		}
		if w.closed {
			w.mu.Unlock()
			return
		}
		req := w.pending
		w.pending = nil
		w.busy = true
		w.mu.Unlock()

		result, err := w.detect(w.ctx, req.frame.img, req.timestampMs)

		w.mu.Lock()
		w.busy = false
		w.free = req
		if err != nil {
			w.stats.Failed++
		} else {
			w.result = result
			w.stats.Completed++
		}
		w.mu.Unlock()

		if err != nil && w.ctx.Err() == nil {
			w.logger.Warn("inference failed", "err", err)
		}
	}
}

// Close stops the worker and waits for an in-flight detection to return.
func (w *inferenceWorker) Close() {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.pending = nil
		w.cond.Broadcast()
		w.mu.Unlock()

		w.cancel()
		<-w.done
	})
}
