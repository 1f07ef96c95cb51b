// Package metrics provides Prometheus metrics for the virtual file tree.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	refreshPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyvfs_refresh_passes_total",
			Help: "Total number of refresh passes by final status",
		},
		[]string{"status"},
	)

	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lazyvfs_refresh_duration_seconds",
			Help:    "Duration of refresh passes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	refreshVisitedNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lazyvfs_refresh_visited_nodes",
			Help:    "Nodes checked against the provider per refresh pass",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	changeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyvfs_change_events_total",
			Help: "Total number of change events delivered to listeners",
		},
		[]string{"kind"},
	)

	providerFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyvfs_provider_failures_total",
			Help: "Provider errors recorded per entry during refresh",
		},
		[]string{"op"},
	)

	liveNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lazyvfs_live_nodes",
			Help: "Number of valid nodes held in memory",
		},
	)

	watcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyvfs_watcher_events_total",
			Help: "Filesystem notifications received by the watcher",
		},
		[]string{"op"},
	)
)

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRefresh records a finished refresh pass.
func RecordRefresh(status string, duration time.Duration, visited int) {
	refreshPassesTotal.WithLabelValues(status).Inc()
	refreshDuration.Observe(duration.Seconds())
	refreshVisitedNodes.Observe(float64(visited))
}

// RecordEvent records a delivered change event.
func RecordEvent(kind string) {
	changeEventsTotal.WithLabelValues(kind).Inc()
}

// RecordProviderFailure records a per-entry provider error.
func RecordProviderFailure(op string) {
	providerFailuresTotal.WithLabelValues(op).Inc()
}

// AddLiveNodes adjusts the live node gauge.
func AddLiveNodes(delta int) {
	liveNodes.Add(float64(delta))
}

// RecordWatcherEvent records a raw filesystem notification.
func RecordWatcherEvent(op string) {
	watcherEventsTotal.WithLabelValues(op).Inc()
}
