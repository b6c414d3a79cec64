package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	MindmapBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mindmap",
			Name:      "build_duration_seconds",
			Help:      "End to end mindmap build duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	MindmapSegmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mindmap",
			Name:      "segments_total",
			Help:      "Total input segments processed",
		},
	)

	MindmapNodesPerTree = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mindmap",
			Name:      "nodes_per_tree",
			Help:      "Node count of finished trees",
			Buckets:   []float64{1, 3, 7, 15, 31, 63, 127, 255},
		},
	)

	RelationshipsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mindmap",
			Name:      "relationships_total",
			Help:      "Total relationships extracted across leaf clusters",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(MindmapBuildDuration)
	prometheus.MustRegister(MindmapSegmentsTotal)
	prometheus.MustRegister(MindmapNodesPerTree)
	prometheus.MustRegister(RelationshipsTotal)
	pipelineMetricsRegistered = true
}
