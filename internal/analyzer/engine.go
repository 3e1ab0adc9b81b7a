// Package analyzer orchestrates one manifest analysis end to end: master
// fetch, parse, rendition fan-out, measurement, and report construction.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/fetch"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/manifest"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/measure"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/metrics"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/report"
)

// Options configures an Engine.
type Options struct {
	// Tolerance is the allowed bitrate deviation in percent. Must be >= 0.
	Tolerance float64

	// Workers bounds the measurement pool. Zero selects the default.
	Workers int

	// Collector receives run metrics. Nil disables metric recording.
	Collector *metrics.Collector
}

// Engine runs analyses. Safe for concurrent use; each Analyze call owns its
// session state, and the published latest report is guarded by a generation
// token so a stale run can never overwrite a newer run's result.
type Engine struct {
	client    *fetch.Client
	logger    *slog.Logger
	tolerance float64
	workers   int
	collector *metrics.Collector

	mu        sync.Mutex
	nextGen   uint64
	latestGen uint64
	latest    *report.Report
}

// New creates an Engine using the given fetch client.
func New(client *fetch.Client, logger *slog.Logger, opts Options) *Engine {
	return &Engine{
		client:    client,
		logger:    logger,
		tolerance: opts.Tolerance,
		workers:   opts.Workers,
		collector: opts.Collector,
	}
}

// Analyze fetches and audits one master manifest.
//
// A master fetch or format failure is terminal and returns an error.
// Rendition-level failures degrade to zero-valued measurements and surface as
// diagnostics in the returned report. A media playlist given as the master
// yields an empty report, not an error.
func (e *Engine) Analyze(ctx context.Context, masterURL string) (*report.Report, error) {
	gen := e.beginGeneration()

	e.logger.Info("analysis_started", "url", masterURL, "tolerance_pct", e.tolerance)

	res := e.client.Fetch(ctx, masterURL)
	if res.Err != nil {
		if e.collector != nil {
			e.collector.RecordAnalysisFailure()
		}
		return nil, fmt.Errorf("fetching master playlist: %w", res.Err)
	}

	base, err := url.Parse(masterURL)
	if err != nil {
		base = nil
	}

	master, err := manifest.ParseMaster(base, string(res.Body))
	if err != nil {
		if e.collector != nil {
			e.collector.RecordAnalysisFailure()
		}
		return nil, fmt.Errorf("parsing master playlist: %w", err)
	}

	if len(master.Variants) == 0 {
		e.logger.Info("analysis_complete", "url", masterURL, "variants", 0)
		rep := &report.Report{}
		e.publish(gen, rep)
		return rep, nil
	}

	e.logger.Debug("master_parsed",
		"variants", len(master.Variants),
		"video_urls", len(master.VideoURLs),
		"audio_urls", len(master.AudioURLs))

	videoBitrates, audioBitrates := e.measureRenditions(ctx, master)

	for i := range master.Variants {
		v := &master.Variants[i]
		v.Video.RealBitrate = videoBitrates[v.Video.URL]
		v.Audio.RealBitrate = audioBitrates[v.Audio.URL]
	}

	rep := report.Build(master, e.tolerance)

	if e.collector != nil {
		e.collector.RecordReport(reportStats(rep))
	}
	e.logger.Info("analysis_complete",
		"url", masterURL,
		"variants", len(master.Variants),
		"video_rows", len(rep.Video),
		"audio_rows", len(rep.Audio),
		"diagnostics", len(rep.Log))

	e.publish(gen, rep)
	return rep, nil
}

// Latest returns the most recently published report, or nil before the first
// completed analysis.
func (e *Engine) Latest() *report.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest
}

func (e *Engine) beginGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextGen++
	return e.nextGen
}

// publish stores the report unless a newer generation already did.
func (e *Engine) publish(gen uint64, rep *report.Report) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen < e.latestGen {
		e.logger.Debug("stale_report_discarded", "generation", gen, "latest", e.latestGen)
		return
	}
	e.latestGen = gen
	e.latest = rep
}

// measureRenditions fetches and measures the video and audio URL sets as two
// independent concurrent batches.
func (e *Engine) measureRenditions(ctx context.Context, master *manifest.Master) (video, audio map[string]uint64) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		video = e.measureBatch(ctx, "video", master.VideoURLs)
	}()
	go func() {
		defer wg.Done()
		audio = e.measureBatch(ctx, "audio", master.AudioURLs)
	}()

	wg.Wait()
	return video, audio
}

func (e *Engine) measureBatch(ctx context.Context, kind string, urls []string) map[string]uint64 {
	results := e.client.FetchAll(ctx, urls)

	if e.collector != nil {
		for _, res := range results {
			e.collector.RecordRenditionFetch(kind, res.Err)
		}
	}
	for _, res := range results {
		if res.Err != nil {
			e.logger.Warn("rendition_fetch_failed", "kind", kind, "url", res.URL, "error", res.Err)
		}
	}

	bitrates := measure.MeasureAll(results, e.workers)
	if e.collector != nil {
		e.collector.RecordMeasured(len(bitrates))
	}
	return bitrates
}

func reportStats(rep *report.Report) metrics.ReportStatsUpdate {
	stats := metrics.ReportStatsUpdate{
		VideoRows: len(rep.Video),
		AudioRows: len(rep.Audio),
	}
	for _, line := range rep.Log {
		if strings.HasPrefix(line, "zero real bitrate") {
			stats.ZeroBitrate++
		} else {
			stats.OutOfTolerance++
		}
	}
	return stats
}
