// Package main provides the go-hls-bitrate-audit CLI entry point.
//
// go-hls-bitrate-audit fetches an HLS master playlist, measures the real
// average bitrate of every variant and audio rendition from EXT-X-BITRATE
// tags, and flags variants whose declared AVERAGE-BANDWIDTH deviates beyond
// a configurable tolerance.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/analyzer"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/config"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/fetch"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/logging"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/metrics"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/report"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/stats"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-hls-bitrate-audit
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("go-hls-bitrate-audit %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// When the dashboard is enabled, route logs into a ring buffer so they
	// render inside it instead of corrupting the screen.
	var logger *slog.Logger
	var logRing *logging.RingBuffer
	if cfg.TUIEnabled {
		logRing = logging.NewRingBuffer(logging.DefaultBufferedLines)
		logger = logging.NewLoggerWithWriter(logRing, "text", "info")
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	logger.Info("starting",
		"version", version,
		"manifest_url", cfg.ManifestURL,
		"deviation_pct", cfg.DeviationPct,
		"workers", cfg.Workers,
		"metrics_addr", cfg.MetricsAddr,
	)

	// Metrics are optional for a single-shot run.
	var collector *metrics.Collector
	var metricsServer *metrics.Server
	if cfg.MetricsAddr != "" {
		collector = metrics.NewCollector(metrics.CollectorConfig{
			Version:     version,
			ManifestURL: cfg.ManifestURL,
			Tolerance:   cfg.DeviationPct,
		})
		metricsServer = metrics.NewServer(cfg.MetricsAddr, logger)
		if err := metricsServer.Start(); err != nil {
			logger.Error("metrics_server_failed", "error", err)
			return 1
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			metricsServer.Shutdown(ctx)
		}()
	}

	latency := stats.NewLatencyTracker()
	client := fetch.NewClient(fetch.Config{
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		OnComplete: func(url string, elapsed time.Duration, err error) {
			latency.Observe(elapsed)
			if collector != nil {
				collector.RecordLatency(elapsed)
			}
		},
	}, logger)

	engine := analyzer.New(client, logger, analyzer.Options{
		Tolerance: cfg.DeviationPct,
		Workers:   cfg.Workers,
		Collector: collector,
	})

	if !cfg.TUIEnabled {
		printBanner(cfg)
	}

	var rep *report.Report
	var analyzeErr error
	if cfg.TUIEnabled {
		rep, analyzeErr = runWithDashboard(engine, cfg, logRing)
	} else {
		rep, analyzeErr = engine.Analyze(context.Background(), cfg.ManifestURL)
	}

	snap := latency.Snapshot()
	if collector != nil {
		collector.SetLatencyPercentiles(snap.P50, snap.P95, snap.P99, snap.Max)
	}

	if analyzeErr != nil {
		logger.Error("analysis_failed", "error", analyzeErr)
		if !cfg.TUIEnabled {
			fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", analyzeErr)
		}
		return 1
	}

	if !cfg.TUIEnabled {
		printReport(rep)
		printSummary(rep, snap)
	}

	if len(outOfToleranceLines(rep)) > 0 {
		return 2
	}
	return 0
}

// runWithDashboard runs the analysis concurrently with the Bubble Tea
// program and delivers the outcome to it.
func runWithDashboard(engine *analyzer.Engine, cfg *config.Config, logRing *logging.RingBuffer) (*report.Report, error) {
	model := tui.New(tui.Config{
		ManifestURL: cfg.ManifestURL,
		Tolerance:   cfg.DeviationPct,
		MetricsAddr: cfg.MetricsAddr,
		LogRing:     logRing,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	type outcome struct {
		rep *report.Report
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		rep, err := engine.Analyze(context.Background(), cfg.ManifestURL)
		tui.SendReport(program, rep, err)
		done <- outcome{rep: rep, err: err}
	}()

	if _, err := program.Run(); err != nil {
		return nil, fmt.Errorf("running dashboard: %w", err)
	}

	result := <-done
	return result.rep, result.err
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      go-hls-bitrate-audit                         ║")
	fmt.Println("║       HLS Manifest Bitrate Measurement and Validation             ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Manifest:    %s\n", cfg.ManifestURL)
	fmt.Printf("  Tolerance:   %.1f%%\n", cfg.DeviationPct)
	if cfg.MetricsAddr != "" {
		fmt.Printf("  Metrics:     http://%s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Println()
}

// printReport writes the rendition tables and diagnostics to stdout.
func printReport(rep *report.Report) {
	fmt.Printf("Video renditions (%d):\n", len(rep.Video))
	for i, row := range rep.Video {
		fmt.Printf("  #%d  %-12s %-10s %-8s %10d bps  %s\n",
			i+1, row.Codec, row.Resolution, row.FrameRate, row.RealBitrate, row.URL)
	}

	fmt.Printf("\nAudio renditions (%d):\n", len(rep.Audio))
	for i, row := range rep.Audio {
		fmt.Printf("  #%d  %-12s %dch %-4s %10d bps  %s\n",
			i+1, row.Codec, row.Channels, row.Language, row.RealBitrate, row.URL)
	}

	fmt.Printf("\nDiagnostics (%d):\n", len(rep.Log))
	if len(rep.Log) == 0 {
		fmt.Println("  all variant streams within tolerance")
	}
	for _, line := range rep.Log {
		fmt.Printf("  %s\n", line)
	}
}

// printSummary prints the exit summary block.
func printSummary(rep *report.Report, snap stats.LatencySnapshot) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════")
	fmt.Println("  Audit Summary")
	fmt.Println("═══════════════════════════════════════════════")
	fmt.Printf("  Video renditions:    %d\n", len(rep.Video))
	fmt.Printf("  Audio renditions:    %d\n", len(rep.Audio))
	fmt.Printf("  Out of tolerance:    %d\n", len(outOfToleranceLines(rep)))
	fmt.Printf("  Zero bitrate:        %d\n", len(rep.Log)-len(outOfToleranceLines(rep)))
	if snap.Count > 0 {
		fmt.Printf("  Fetches:             %d\n", snap.Count)
		fmt.Printf("  Fetch latency p50:   %s\n", snap.P50.Round(time.Millisecond))
		fmt.Printf("  Fetch latency p95:   %s\n", snap.P95.Round(time.Millisecond))
		fmt.Printf("  Fetch latency p99:   %s\n", snap.P99.Round(time.Millisecond))
		fmt.Printf("  Fetch latency max:   %s\n", snap.Max.Round(time.Millisecond))
	}
	fmt.Println("═══════════════════════════════════════════════")
}

func outOfToleranceLines(rep *report.Report) []string {
	var lines []string
	for _, line := range rep.Log {
		if strings.HasPrefix(line, "real bitrate out of range") {
			lines = append(lines, line)
		}
	}
	return lines
}
