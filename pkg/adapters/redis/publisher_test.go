package redis_test

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/framegraph/pkg/adapters/redis"
	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/ports/tests"
)

func newPublisher(t *testing.T, opts ...redis.Option) (*redis.Publisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	p, err := redis.NewFromClient(client, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, mr
}

func TestRedisPublisher_Contract(t *testing.T) {
	p, _ := newPublisher(t)
	tests.PublisherContractTest(t, p)
}

func TestRedisPublisher_RoundTripsFrame(t *testing.T) {
	for _, compress := range []bool{true, false} {
		p, mr := newPublisher(t, redis.WithCompression(compress), redis.WithPrefix("cam1:"))
		ctx := context.Background()

		// A sub-image has stride padding that must not reach the wire.
		full := image.NewRGBA(image.Rect(0, 0, 8, 6))
		for y := 0; y < 6; y++ {
			for x := 0; x < 8; x++ {
				full.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 7, A: 255})
			}
		}
		sub := full.SubImage(image.Rect(2, 1, 6, 4)).(*image.RGBA)

		snap := domain.Snapshot{
			RunID:     "run-1",
			Frame:     42,
			Timestamp: time.UnixMilli(1_700_000_000_123).UTC(),
			Image:     sub,
			Control:   domain.Control{Pinch: 0.84, Presence: 1, TargetX: 0.3, TargetY: 0.7},
			Trail:     []domain.TrailPoint{{X: 0.3, Y: 0.7, Life: 1}},
		}
		require.NoError(t, p.Publish(ctx, snap))
		assert.True(t, mr.Exists("cam1:latest"))

		got, ok, err := p.Latest(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint64(42), got.Frame)
		assert.Equal(t, snap.Timestamp, got.Timestamp)
		assert.Equal(t, snap.Control, got.Control)
		assert.Equal(t, snap.Trail, got.Trail)
		require.NotNil(t, got.Image)
		assert.Equal(t, image.Rect(0, 0, 4, 3), got.Image.Bounds())
		for y := 0; y < 3; y++ {
			for x := 0; x < 4; x++ {
				assert.Equal(t, sub.RGBAAt(x+2, y+1), got.Image.RGBAAt(x, y))
			}
		}
	}
}

func TestRedisPublisher_LatestEmptyAndTTL(t *testing.T) {
	p, mr := newPublisher(t, redis.WithTTL(time.Second))
	ctx := context.Background()

	_, ok, err := p.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Publish(ctx, domain.Snapshot{Frame: 1}))
	mr.FastForward(2 * time.Second)

	_, ok, err = p.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisPublisher_Subscribe(t *testing.T) {
	p, _ := newPublisher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := p.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, domain.Snapshot{RunID: "r", Frame: 3, Control: domain.Control{Jaw: 0.48}}))

	select {
	case m := <-msgs:
		assert.Equal(t, "r", m.RunID)
		assert.Equal(t, uint64(3), m.Frame)
		assert.InDelta(t, 0.48, m.Control.Jaw, 1e-9)
	case <-ctx.Done():
		t.Fatal("timed out waiting for control message")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-msgs
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestRedisPublisher_Claim(t *testing.T) {
	p, mr := newPublisher(t)
	ctx := context.Background()

	lease, err := p.Claim(ctx, time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("framegraph:lease"))

	_, err = p.Claim(ctx, time.Minute)
	assert.ErrorIs(t, err, redis.ErrStreamClaimed)

	require.NoError(t, lease.Renew(ctx, time.Minute))
	mr.FastForward(30 * time.Second)
	assert.True(t, mr.Exists("framegraph:lease"), "renewed lease outlives its first ttl")

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("framegraph:lease"))
	assert.ErrorIs(t, lease.Renew(ctx, time.Minute), redis.ErrStreamClaimed)

	other, err := p.Claim(ctx, time.Minute)
	require.NoError(t, err)
	require.NoError(t, lease.Release(ctx))
	assert.True(t, mr.Exists("framegraph:lease"), "stale lease cannot release a newer claim")
	require.NoError(t, other.Release(ctx))
}
