// Package metrics provides Prometheus metrics for go-hls-bitrate-audit.
//
// The tool is a single-shot CLI, so the /metrics endpoint is off by default
// and only served when an address is configured. All metrics are aggregate;
// there is no per-rendition labeling beyond the fetch kind.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// --- Run overview ---
var (
	auditInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hls_audit_info",
			Help: "Information about the audit run (value always 1)",
		},
		[]string{"version", "manifest_url"},
	)

	auditTolerancePercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hls_audit_tolerance_percent",
			Help: "Configured allowed bitrate deviation in percent",
		},
	)

	auditManifestsAnalyzedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hls_audit_manifests_analyzed_total",
			Help: "Master manifests analyzed to completion",
		},
	)

	auditAnalysisFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hls_audit_analysis_failures_total",
			Help: "Analyses aborted by a master fetch or format error",
		},
	)
)

// --- Rendition fetches ---
var (
	auditRenditionFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hls_audit_rendition_fetches_total",
			Help: "Rendition playlist fetches by kind",
		},
		[]string{"kind"}, // "video" | "audio"
	)

	auditRenditionFetchFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hls_audit_rendition_fetch_failures_total",
			Help: "Failed rendition playlist fetches by kind",
		},
		[]string{"kind"},
	)

	auditRenditionsMeasuredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hls_audit_renditions_measured_total",
			Help: "Rendition playlists run through the bitrate measurer",
		},
	)
)

// --- Audit findings ---
var (
	auditVideoRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hls_audit_video_renditions",
			Help: "Video renditions in the latest report",
		},
	)

	auditAudioRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hls_audit_audio_renditions",
			Help: "Audio renditions in the latest report",
		},
	)

	auditZeroBitrateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hls_audit_zero_bitrate_streams_total",
			Help: "Renditions whose measured bitrate was zero",
		},
	)

	auditOutOfToleranceTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hls_audit_out_of_tolerance_variants_total",
			Help: "Variant streams whose declared average bandwidth deviated beyond tolerance",
		},
	)
)

// --- Fetch latency ---
var (
	auditFetchLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "hls_audit_fetch_latency_seconds",
			Help: "Playlist fetch latency distribution",
			Buckets: []float64{
				0.005, 0.01, 0.025, 0.05, 0.075,
				0.1, 0.25, 0.5, 0.75,
				1.0, 2.5, 5.0, 10.0,
			},
		},
	)

	auditFetchLatencyP50Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hls_audit_fetch_latency_p50_seconds",
			Help: "Playlist fetch latency 50th percentile (median)",
		},
	)

	auditFetchLatencyP95Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hls_audit_fetch_latency_p95_seconds",
			Help: "Playlist fetch latency 95th percentile",
		},
	)

	auditFetchLatencyP99Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hls_audit_fetch_latency_p99_seconds",
			Help: "Playlist fetch latency 99th percentile",
		},
	)

	auditFetchLatencyMaxSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hls_audit_fetch_latency_max_seconds",
			Help: "Maximum playlist fetch latency observed",
		},
	)
)

// Collector manages all Prometheus metrics for the audit.
type Collector struct {
	version     string
	manifestURL string
}

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Version     string
	ManifestURL string
	Tolerance   float64
}

// NewCollector creates a collector on the default registry.
func NewCollector(cfg CollectorConfig) *Collector {
	return NewCollectorWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{
		version:     cfg.Version,
		manifestURL: cfg.ManifestURL,
	}

	registry.MustRegister(
		auditInfo,
		auditTolerancePercent,
		auditManifestsAnalyzedTotal,
		auditAnalysisFailuresTotal,

		auditRenditionFetchesTotal,
		auditRenditionFetchFailuresTotal,
		auditRenditionsMeasuredTotal,

		auditVideoRows,
		auditAudioRows,
		auditZeroBitrateTotal,
		auditOutOfToleranceTotal,

		auditFetchLatencySeconds,
		auditFetchLatencyP50Seconds,
		auditFetchLatencyP95Seconds,
		auditFetchLatencyP99Seconds,
		auditFetchLatencyMaxSeconds,
	)

	auditInfo.WithLabelValues(cfg.Version, cfg.ManifestURL).Set(1)
	auditTolerancePercent.Set(cfg.Tolerance)

	return c
}

// RecordRenditionFetch records one rendition fetch outcome.
// Kind is "video" or "audio".
func (c *Collector) RecordRenditionFetch(kind string, err error) {
	auditRenditionFetchesTotal.WithLabelValues(kind).Inc()
	if err != nil {
		auditRenditionFetchFailuresTotal.WithLabelValues(kind).Inc()
	}
}

// RecordMeasured records completed bitrate measurements.
func (c *Collector) RecordMeasured(count int) {
	auditRenditionsMeasuredTotal.Add(float64(count))
}

// RecordLatency records a single fetch latency observation.
func (c *Collector) RecordLatency(d time.Duration) {
	auditFetchLatencySeconds.Observe(d.Seconds())
}

// SetLatencyPercentiles publishes pre-calculated latency percentiles.
func (c *Collector) SetLatencyPercentiles(p50, p95, p99, max time.Duration) {
	auditFetchLatencyP50Seconds.Set(p50.Seconds())
	auditFetchLatencyP95Seconds.Set(p95.Seconds())
	auditFetchLatencyP99Seconds.Set(p99.Seconds())
	auditFetchLatencyMaxSeconds.Set(max.Seconds())
}

// ReportStatsUpdate holds report counts for updating metrics.
// This is a plain-int subset of the report to avoid circular imports.
type ReportStatsUpdate struct {
	VideoRows      int
	AudioRows      int
	ZeroBitrate    int
	OutOfTolerance int
}

// RecordReport updates the findings metrics from a completed analysis.
func (c *Collector) RecordReport(stats ReportStatsUpdate) {
	auditManifestsAnalyzedTotal.Inc()
	auditVideoRows.Set(float64(stats.VideoRows))
	auditAudioRows.Set(float64(stats.AudioRows))
	auditZeroBitrateTotal.Add(float64(stats.ZeroBitrate))
	auditOutOfToleranceTotal.Add(float64(stats.OutOfTolerance))
}

// RecordAnalysisFailure records a terminal master fetch or format error.
func (c *Collector) RecordAnalysisFailure() {
	auditAnalysisFailuresTotal.Inc()
}
