package ports

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/aretw0/framegraph/pkg/domain"
)

// Capture is the frame acquisition collaborator.
// The engine never owns the device lifecycle; it only polls.
type Capture interface {
	// Frame returns the most recent frame. ok is false while the device is
	// not ready, which is a normal state and not an error.
	Frame() (frame *image.RGBA, ok bool)

	// Now returns the capture clock used to timestamp frames.
	Now() time.Time
}

// Landmarker runs landmark inference for a single modality.
type Landmarker interface {
	// Ready reports whether the model has finished loading.
	Ready() bool

	// Detect returns one landmark set per detected subject, in normalized
	// image coordinates. timestampMs is monotonic across calls. frame may be
	// reused once Detect returns and must not be retained.
	Detect(ctx context.Context, frame *image.RGBA, timestampMs float64) (domain.LandmarkSetList, error)
}

// Publisher is the render/publish collaborator invoked by the output node.
type Publisher interface {
	Publish(ctx context.Context, snapshot domain.Snapshot) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, snapshot domain.Snapshot) error

func (f PublisherFunc) Publish(ctx context.Context, snapshot domain.Snapshot) error {
	return f(ctx, snapshot)
}

// Publishers fans a snapshot out to several publishers. Every publisher is
// called even if an earlier one fails; the errors are joined.
type Publishers []Publisher

func (ps Publishers) Publish(ctx context.Context, snapshot domain.Snapshot) error {
	var errs []error
	for _, p := range ps {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
