// Package metrics exposes Prometheus instrumentation for the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	ActiveBridges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicerelay_active_bridges",
		Help: "Number of client connections currently bridged upstream",
	})
)

// Counters
var (
	BridgesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicerelay_bridges_total",
		Help: "Total client connections accepted",
	})
	UpstreamDialFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicerelay_upstream_dial_failures_total",
		Help: "Total failed upstream connection attempts",
	})
	UpstreamEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicerelay_upstream_events_total",
		Help: "Total upstream events received by type",
	}, []string{"type"})
	AudioBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicerelay_audio_bytes_total",
		Help: "Total audio bytes relayed by direction",
	}, []string{"direction"})
	RelayErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicerelay_relay_errors_total",
		Help: "Total relay failures by stage",
	}, []string{"stage"})
)

// Histograms
var (
	ChunkBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicerelay_chunk_bytes",
		Help:    "Size distribution of audio chunks sent upstream",
		Buckets: []float64{1600, 3200, 6400, 12800, 19200, 25600, 32000},
	})
)
