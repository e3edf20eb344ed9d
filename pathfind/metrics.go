package pathfind

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathlib_searches_total",
			Help: "Total number of path searches, labeled by outcome",
		},
		[]string{"outcome", "policy"},
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pathlib_search_duration_seconds",
			Help:    "Duration of path searches in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	expandedNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pathlib_expanded_nodes",
			Help:    "Nodes expanded by grid searches",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	gridNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pathlib_grid_nodes",
			Help: "Nodes cached by the grid of the last finder that searched",
		},
	)
)
