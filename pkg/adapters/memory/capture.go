package memory

import (
	"image"
	"image/color"
	"sync"
	"time"
)

// Capture is a synthetic frame source. It renders a moving gradient and can
// report "not ready" for a configurable number of polls, like a camera that
// is still negotiating permissions.
// Safe for concurrent use.
type Capture struct {
	mu      sync.Mutex
	frame   *image.RGBA
	warmup  int
	polls   int
	start   time.Time
	step    time.Duration
	closed  bool
	static  bool
}

// CaptureOption configures a Capture.
type CaptureOption func(*Capture)

// WithWarmup makes the first n calls to Frame report "not ready".
func WithWarmup(n int) CaptureOption {
	return func(c *Capture) {
		c.warmup = n
	}
}

// WithFrameStep advances the synthetic clock by d on every Frame call
// instead of using wall time.
func WithFrameStep(start time.Time, d time.Duration) CaptureOption {
	return func(c *Capture) {
		c.start = start
		c.step = d
	}
}

// WithStaticFrame keeps the gradient fixed instead of animating it.
func WithStaticFrame() CaptureOption {
	return func(c *Capture) {
		c.static = true
	}
}

// NewCapture creates a synthetic capture producing width x height frames.
func NewCapture(width, height int, opts ...CaptureOption) *Capture {
	c := &Capture{frame: image.NewRGBA(image.Rect(0, 0, width, height))}
	for _, opt := range opts {
		opt(c)
	}
	c.paint(0)
	return c
}

// Frame returns the current frame, or ok=false during warmup or after Close.
func (c *Capture) Frame() (*image.RGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.polls++
	if c.closed || c.polls <= c.warmup {
		return nil, false
	}
	if !c.static {
		c.paint(c.polls)
	}
	return c.frame, true
}

// Now returns the capture clock.
func (c *Capture) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step == 0 {
		return time.Now()
	}
	return c.start.Add(time.Duration(c.polls) * c.step)
}

// Close marks the device as released.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *Capture) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Capture) paint(phase int) {
	b := c.frame.Bounds()
	w, h := max(b.Dx(), 1), max(b.Dy(), 1)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c.frame.SetRGBA(x, y, color.RGBA{
				R: uint8((x + phase) * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8(phase),
				A: 0xff,
			})
		}
	}
}
