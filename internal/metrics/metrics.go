// Package metrics holds the Prometheus collectors for threat rebuilds and
// overlay traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Rebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hexwar_danger_rebuilds_total",
			Help: "Completed threat cache rebuilds",
		},
		[]string{"mode"},
	)

	RebuildRefused = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hexwar_danger_rebuild_refused_total",
			Help: "Rebuilds refused for lack of a simulation token",
		},
	)

	RebuildSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hexwar_danger_rebuild_seconds",
			Help:    "Time spent rebuilding one threat cache",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	Passes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hexwar_danger_passes_total",
			Help: "Rebuild passes, counting the extra zone of control pass",
		},
	)

	KnownAttackers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hexwar_danger_known_attackers",
			Help: "Attackers seen at the last rebuild",
		},
		[]string{"faction"},
	)

	VanishedAttackers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hexwar_danger_vanished_attackers",
			Help: "Attackers remembered after moving out of sight",
		},
		[]string{"faction"},
	)

	OverlayBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hexwar_overlay_broadcasts_total",
			Help: "Overlay updates pushed to subscribers",
		},
	)
)

// ObserveRebuild records one completed rebuild of faction's cache.
func ObserveRebuild(faction int, mode string, passes, known, vanished int, took time.Duration) {
	label := strconv.Itoa(faction)
	Rebuilds.WithLabelValues(mode).Inc()
	Passes.Add(float64(passes))
	RebuildSeconds.Observe(took.Seconds())
	KnownAttackers.WithLabelValues(label).Set(float64(known))
	VanishedAttackers.WithLabelValues(label).Set(float64(vanished))
}
