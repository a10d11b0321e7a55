package nodes

import (
	"context"
	"io"
	"time"

	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
	"github.com/aretw0/framegraph/pkg/ports"
)

// Source port names.
const (
	PortFrame     = "frame"
	PortTimestamp = "timestamp"
)

// Source polls the capture collaborator. It never blocks: while the device is
// not ready it publishes a nil frame and the current time.
type Source struct {
	capture ports.Capture
	now     func() time.Time
}

// NewSource creates a source. A nil capture is treated as never ready.
func NewSource(capture ports.Capture, now func() time.Time) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{capture: capture, now: now}
}

func (s *Source) Variant() domain.Variant { return domain.VariantSource }

func (s *Source) Ports() []domain.PortSpec {
	return []domain.PortSpec{
		domain.Out(PortFrame, domain.KindImage),
		domain.Out(PortTimestamp, domain.KindNumber),
	}
}

func (s *Source) Execute(_ context.Context, io *graph.IO) error {
	var frame any
	if s.capture != nil {
		if f, ok := s.capture.Frame(); ok && f != nil {
			frame = f
		}
	}
	if err := io.Set(PortFrame, frame); err != nil {
		return err
	}
	return io.Set(PortTimestamp, millis(s.now()))
}

// Close releases the capture device if it owns one.
func (s *Source) Close() error {
	if c, ok := s.capture.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func millis(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Millisecond)
}
