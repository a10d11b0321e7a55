package memory

import (
	"context"
	"image"
	"sync"

	"github.com/aretw0/framegraph/pkg/domain"
)

// Recorder implements ports.Publisher in memory, keeping every snapshot it
// receives. Images are copied because the output node hands over a buffer
// owned by the overlay.
// Safe for concurrent use.
type Recorder struct {
	mu        sync.RWMutex
	snapshots []domain.Snapshot
	limit     int
}

// NewRecorder creates a recorder. limit > 0 keeps only the newest snapshots.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Publish(_ context.Context, s domain.Snapshot) error {
	s = Clone(s)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	if r.limit > 0 && len(r.snapshots) > r.limit {
		r.snapshots = append(r.snapshots[:0], r.snapshots[len(r.snapshots)-r.limit:]...)
	}
	return nil
}

// Latest returns the most recent snapshot.
func (r *Recorder) Latest(context.Context) (domain.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.snapshots) == 0 {
		return domain.Snapshot{}, false, nil
	}
	return r.snapshots[len(r.snapshots)-1], true, nil
}

// Snapshots returns a copy of everything recorded, oldest first.
func (r *Recorder) Snapshots() []domain.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Snapshot(nil), r.snapshots...)
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snapshots)
}

// Clone deep-copies the image and trail of a snapshot.
func Clone(s domain.Snapshot) domain.Snapshot {
	if s.Image != nil {
		img := &image.RGBA{
			Pix:    append([]uint8(nil), s.Image.Pix...),
			Stride: s.Image.Stride,
			Rect:   s.Image.Rect,
		}
		s.Image = img
	}
	if s.Trail != nil {
		s.Trail = append([]domain.TrailPoint(nil), s.Trail...)
	}
	return s
}
