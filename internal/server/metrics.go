package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chainbreak/chainview/pkg/observability"
)

// Metrics is the Prometheus backend for the engine's observability hooks.
// It implements both hook interfaces and is registered once at startup.
type Metrics struct {
	registry *prometheus.Registry

	LoadsTotal        *prometheus.CounterVec
	LoadDuration      prometheus.Histogram
	GraphNodes        prometheus.Gauge
	GraphEdges        prometheus.Gauge
	StateTransitions  *prometheus.CounterVec
	TicksTotal        prometheus.Counter
	SimulationAlpha   prometheus.Gauge
	DetectionsTotal   *prometheus.CounterVec
	DetectionDuration prometheus.Histogram
	Communities       prometheus.Gauge
	Modularity        prometheus.Gauge
}

// NewMetrics creates the metric set on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.LoadsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainview_graph_loads_total",
			Help: "Total graph load attempts",
		},
		[]string{"status"},
	)
	m.LoadDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chainview_graph_load_duration_seconds",
			Help:    "Graph build latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	m.GraphNodes = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "chainview_graph_nodes",
			Help: "Nodes in the currently loaded graph",
		},
	)
	m.GraphEdges = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "chainview_graph_edges",
			Help: "Edges in the currently loaded graph",
		},
	)
	m.StateTransitions = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainview_session_state_transitions_total",
			Help: "Session lifecycle transitions",
		},
		[]string{"from", "to"},
	)
	m.TicksTotal = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "chainview_simulation_ticks_total",
			Help: "Simulation steps executed",
		},
	)
	m.SimulationAlpha = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "chainview_simulation_alpha",
			Help: "Remaining simulation energy",
		},
	)
	m.DetectionsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainview_community_detections_total",
			Help: "Community detection round trips",
		},
		[]string{"status"},
	)
	m.DetectionDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chainview_community_detection_duration_seconds",
			Help:    "Detection round-trip latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	m.Communities = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "chainview_communities",
			Help: "Communities in the active overlay",
		},
	)
	m.Modularity = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "chainview_modularity",
			Help: "Modularity of the active overlay",
		},
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Register installs the metrics as the process-wide hook backend.
func (m *Metrics) Register() {
	observability.SetSessionHooks(m)
	observability.SetDetectionHooks(m)
}

// =============================================================================
// observability.SessionHooks
// =============================================================================

func (m *Metrics) OnLoadStart(context.Context, string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, _ string, nodes, edges int, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	} else {
		m.GraphNodes.Set(float64(nodes))
		m.GraphEdges.Set(float64(edges))
	}
	m.LoadsTotal.WithLabelValues(status).Inc()
	m.LoadDuration.Observe(duration.Seconds())
}

func (m *Metrics) OnStateChange(_ context.Context, _ string, from, to string) {
	m.StateTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) OnTick(_ context.Context, _ string, alpha float64) {
	m.TicksTotal.Inc()
	m.SimulationAlpha.Set(alpha)
}

// =============================================================================
// observability.DetectionHooks
// =============================================================================

func (m *Metrics) OnDetectStart(context.Context, string, int) {}

func (m *Metrics) OnDetectComplete(_ context.Context, _ string, communities int, modularity float64, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	} else {
		m.Communities.Set(float64(communities))
		m.Modularity.Set(modularity)
	}
	m.DetectionsTotal.WithLabelValues(status).Inc()
	m.DetectionDuration.Observe(duration.Seconds())
}

var (
	_ observability.SessionHooks   = (*Metrics)(nil)
	_ observability.DetectionHooks = (*Metrics)(nil)
)
