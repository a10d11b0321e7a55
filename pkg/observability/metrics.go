package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/framegraph/pkg/domain"
	"github.com/aretw0/framegraph/pkg/ports"
)

const namespace = "framegraph"

// Metrics holds the engine's Prometheus collectors, registered on an explicit registry.
type Metrics struct {
	registry *prometheus.Registry

	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	nodeRuns     *prometheus.CounterVec
	nodeFailures *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	frame        prometheus.Gauge

	published   prometheus.Counter
	publishErrs prometheus.Counter
	presence    prometheus.Gauge
	trailLength prometheus.Gauge
	control     *prometheus.GaugeVec
}

// NewMetrics creates the collectors. A nil registry gets a fresh one.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of graph evaluations.",
		}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of a full graph evaluation.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .016, .033, .05, .1},
		}),
		nodeRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_executions_total",
			Help:      "Total number of node executions.",
		}, []string{"node_id", "variant"}),
		nodeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_failures_total",
			Help:      "Total number of contained node failures.",
		}, []string{"node_id", "variant"}),
		nodeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Duration of node executions.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"variant"}),
		frame: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame",
			Help:      "Frame counter of the last completed tick.",
		}),
		published: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Total number of snapshots handed to publishers.",
		}),
		publishErrs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total number of failed publishes.",
		}),
		presence: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "presence",
			Help:      "1 if any modality was detected in the last published frame.",
		}),
		trailLength: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trail_length",
			Help:      "Number of points in the trail buffer.",
		}),
		control: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "control",
			Help:      "Last published control record, by field.",
		}, []string{"field"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record tick and node metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTickEnd: func(_ context.Context, e *domain.TickEvent) {
			m.ticks.Inc()
			m.tickDuration.Observe(e.Duration.Seconds())
			m.frame.Set(float64(e.Frame))
		},
		OnNodeExecuted: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeRuns.WithLabelValues(string(e.NodeID), string(e.Variant)).Inc()
			m.nodeDuration.WithLabelValues(string(e.Variant)).Observe(e.Duration.Seconds())
		},
		OnNodeError: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeRuns.WithLabelValues(string(e.NodeID), string(e.Variant)).Inc()
			m.nodeFailures.WithLabelValues(string(e.NodeID), string(e.Variant)).Inc()
		},
	}
}

// Publisher wraps next so every snapshot also updates the control gauges.
func (m *Metrics) Publisher(next ports.Publisher) ports.Publisher {
	return ports.PublisherFunc(func(ctx context.Context, s domain.Snapshot) error {
		m.published.Inc()
		m.presence.Set(s.Control.Presence)
		m.trailLength.Set(float64(len(s.Trail)))
		m.control.WithLabelValues("tilt").Set(s.Control.Tilt)
		m.control.WithLabelValues("lift").Set(s.Control.Lift)
		m.control.WithLabelValues("pinch").Set(s.Control.Pinch)
		m.control.WithLabelValues("jaw").Set(s.Control.Jaw)

		if next == nil {
			return nil
		}
		if err := next.Publish(ctx, s); err != nil {
			m.publishErrs.Inc()
			return err
		}
		return nil
	})
}
