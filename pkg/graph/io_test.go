package graph_test

import (
	"context"
	"image"
	"testing"

	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIO_SetValidatesPorts(t *testing.T) {
	var setErrs []error
	node := &stubNode{
		ports: []domain.PortSpec{
			domain.In("frame", domain.KindImage),
			domain.Out("metrics", domain.KindMetrics),
			domain.Out("value", domain.KindNumber),
		},
		exec: func(_ context.Context, io *graph.IO) error {
			setErrs = []error{
				io.Set("missing", 1.0),
				io.Set("frame", image.NewRGBA(image.Rect(0, 0, 1, 1))),
				io.Set("value", "seven"),
				io.Set("metrics", nil),
				io.Set("value", 3.5),
			}
			return nil
		},
	}

	g := graph.New()
	id, err := g.AddNode(node)
	require.NoError(t, err)
	runAll(t, g)

	require.Len(t, setErrs, 5)
	assert.ErrorIs(t, setErrs[0], domain.ErrPortNotFound)
	assert.ErrorIs(t, setErrs[1], domain.ErrInvalidPort)
	assert.ErrorIs(t, setErrs[2], domain.ErrTypeMismatch)
	assert.NoError(t, setErrs[3])
	assert.NoError(t, setErrs[4])

	m, _ := g.Value(id, "metrics")
	assert.Equal(t, (*domain.Metrics)(nil), m)
	v, _ := g.Value(id, "value")
	assert.Equal(t, 3.5, v)
}

func TestIO_GettersDefaultOnEmptyInputs(t *testing.T) {
	node := &stubNode{
		ports: []domain.PortSpec{
			domain.In("frame", domain.KindImage),
			domain.In("faces", domain.KindLandmarks),
			domain.In("metrics", domain.KindMetrics),
			domain.In("control", domain.KindControl),
			domain.In("n", domain.KindNumber),
		},
		exec: func(_ context.Context, io *graph.IO) error {
			assert.Nil(t, io.Image("frame"))
			assert.Nil(t, io.Landmarks("faces"))
			assert.Nil(t, io.Metrics("metrics"))
			assert.Equal(t, domain.Control{}, io.Control("control"))
			assert.Zero(t, io.Number("n"))
			assert.Zero(t, io.Number("unknown"))
			assert.False(t, io.Connected("frame"))
			return nil
		},
	}

	g := graph.New()
	_, err := g.AddNode(node)
	require.NoError(t, err)
	runAll(t, g)
}
