package tests

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/ports"
)

// Latest is implemented by publishers that keep the last snapshot they received.
type Latest interface {
	Latest(ctx context.Context) (domain.Snapshot, bool, error)
}

// PublisherContractTest is a reusable test suite that verifies if an adapter complies with ports.Publisher.
// Adapters that also implement Latest are checked for read-back.
func PublisherContractTest(t *testing.T, publisher ports.Publisher) {
	t.Helper()
	ctx := context.Background()

	frame := image.NewRGBA(image.Rect(0, 0, 4, 3))
	frame.Set(1, 1, color.RGBA{R: 255, A: 255})

	snap := domain.Snapshot{
		RunID:     "contract",
		Frame:     1,
		Timestamp: time.UnixMilli(1_700_000_000_000).UTC(),
		Image:     frame,
		Control:   domain.Control{Tilt: 0.1, Pinch: 0.84, Presence: 1, TargetX: 0.4, TargetY: 0.6},
		Trail:     []domain.TrailPoint{{X: 0.4, Y: 0.6, Life: 1}},
	}

	// 1. Publish a full snapshot
	t.Run("Publish_Full", func(t *testing.T) {
		if err := publisher.Publish(ctx, snap); err != nil {
			t.Fatalf("unexpected error publishing: %v", err)
		}
	})

	// 2. Publish without an image (source not ready)
	t.Run("Publish_NoImage", func(t *testing.T) {
		empty := snap
		empty.Frame = 2
		empty.Image = nil
		empty.Control = domain.Control{TargetX: 0.5, TargetY: 0.5}
		empty.Trail = nil
		if err := publisher.Publish(ctx, empty); err != nil {
			t.Fatalf("unexpected error publishing snapshot without image: %v", err)
		}
	})

	latest, ok := publisher.(Latest)
	if !ok {
		return
	}

	// 3. Read back the most recent snapshot
	t.Run("Latest", func(t *testing.T) {
		got, found, err := latest.Latest(ctx)
		if err != nil {
			t.Fatalf("unexpected error reading latest: %v", err)
		}
		if !found {
			t.Fatal("expected a snapshot after publishing")
		}
		if got.Frame != 2 {
			t.Errorf("expected frame 2, got %d", got.Frame)
		}
		if got.Control.Presence != 0 {
			t.Errorf("expected presence 0, got %v", got.Control.Presence)
		}
		if got.Image != nil {
			t.Errorf("expected no image, got %v", got.Image.Bounds())
		}
	})
}
