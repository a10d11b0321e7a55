package memory

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/aretw0/framegraph/pkg/domain"
)

// ErrScriptedFailure is returned by a Landmarker told to fail.
var ErrScriptedFailure = errors.New("scripted inference failure")

// Landmarker replays canned detections. Each Detect call returns the next
// entry of the script; the last entry repeats once the script is exhausted.
// Safe for concurrent use.
type Landmarker struct {
	mu      sync.Mutex
	script  []domain.LandmarkSetList
	calls   int
	ready   bool
	latency time.Duration
	fail    error
	closed  bool
	loop    bool
	stamps  []float64
}

// maxStamps bounds the recorded timestamps so long demo runs stay flat.
const maxStamps = 1024

// LandmarkerOption configures a Landmarker.
type LandmarkerOption func(*Landmarker)

// WithLatency delays every Detect call, honoring context cancellation.
func WithLatency(d time.Duration) LandmarkerOption {
	return func(l *Landmarker) {
		l.latency = d
	}
}

// Looping replays the script from the start once it is exhausted.
func Looping() LandmarkerOption {
	return func(l *Landmarker) {
		l.loop = true
	}
}

// NotReady starts the landmarker in the "model still loading" state.
func NotReady() LandmarkerOption {
	return func(l *Landmarker) {
		l.ready = false
	}
}

// NewLandmarker creates a landmarker that replays script.
func NewLandmarker(script []domain.LandmarkSetList, opts ...LandmarkerOption) *Landmarker {
	l := &Landmarker{script: script, ready: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Constant returns a landmarker that always detects the given sets.
func Constant(sets ...domain.LandmarkSet) *Landmarker {
	return NewLandmarker([]domain.LandmarkSetList{sets})
}

func (l *Landmarker) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready && !l.closed
}

// SetReady toggles the loaded state.
func (l *Landmarker) SetReady(ready bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ready = ready
}

// FailWith makes subsequent Detect calls return err. Nil restores normal behavior.
func (l *Landmarker) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = err
}

func (l *Landmarker) Detect(ctx context.Context, _ *image.RGBA, timestampMs float64) (domain.LandmarkSetList, error) {
	l.mu.Lock()
	latency := l.latency
	l.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	l.stamps = append(l.stamps, timestampMs)
	if len(l.stamps) > maxStamps {
		l.stamps = append(l.stamps[:0], l.stamps[len(l.stamps)-maxStamps:]...)
	}
	if l.fail != nil {
		return nil, l.fail
	}
	if len(l.script) == 0 {
		return domain.LandmarkSetList{}, nil
	}
	if l.loop {
		return l.script[(l.calls-1)%len(l.script)], nil
	}
	i := min(l.calls-1, len(l.script)-1)
	return l.script[i], nil
}

// Calls returns how many times Detect ran.
func (l *Landmarker) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// Timestamps returns the most recent timestamps passed to Detect, in call order.
func (l *Landmarker) Timestamps() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]float64(nil), l.stamps...)
}

func (l *Landmarker) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *Landmarker) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
