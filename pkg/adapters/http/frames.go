package http

import (
	"context"
	"encoding/json"
	"image"
	"log/slog"
	"sync"

	"github.com/aretw0/framegraph/internal/logging"
	"github.com/aretw0/framegraph/pkg/domain"
)

// FrameStore is a ports.Publisher that keeps the latest snapshot for the
// HTTP endpoints and pushes every control record to SSE subscribers.
type FrameStore struct {
	mu      sync.RWMutex
	latest  domain.Snapshot
	has     bool
	streams *StreamManager
}

// NewFrameStore creates an empty store with its own stream manager.
func NewFrameStore(logger *slog.Logger) *FrameStore {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FrameStore{streams: NewStreamManager(logger)}
}

// Streams exposes the control event stream.
func (f *FrameStore) Streams() *StreamManager { return f.streams }

// Publish copies the snapshot, since the image buffer belongs to the overlay
// node and is overwritten on the next tick.
func (f *FrameStore) Publish(_ context.Context, s domain.Snapshot) error {
	if s.Image != nil {
		s.Image = &image.RGBA{
			Pix:    append([]uint8(nil), s.Image.Pix...),
			Stride: s.Image.Stride,
			Rect:   s.Image.Rect,
		}
	}
	s.Trail = append([]domain.TrailPoint(nil), s.Trail...)

	f.mu.Lock()
	f.latest = s
	f.has = true
	f.mu.Unlock()

	payload, err := json.Marshal(controlEvent{RunID: s.RunID, Frame: s.Frame, Control: s.Control})
	if err != nil {
		return err
	}
	f.streams.Broadcast(string(payload))
	return nil
}

// Latest returns the most recent snapshot.
func (f *FrameStore) Latest(context.Context) (domain.Snapshot, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest, f.has, nil
}

type controlEvent struct {
	RunID   string         `json:"run_id,omitempty"`
	Frame   uint64         `json:"frame"`
	Control domain.Control `json:"control"`
}
