package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses command-line flags and returns a Config.
func ParseFlags() (*Config, error) {
	cfg := DefaultConfig()

	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `go-hls-bitrate-audit - audit HLS manifests for misdeclared average bandwidth

Usage:
  go-hls-bitrate-audit [flags] <MASTER_PLAYLIST_URL>

Analysis Flags:
`)
		printFlagCategory([]string{"deviation", "workers"})

		fmt.Fprintf(os.Stderr, "\nNetwork:\n")
		printFlagCategory([]string{"user-agent", "timeout"})

		fmt.Fprintf(os.Stderr, "\nObservability:\n")
		printFlagCategory([]string{"metrics", "v", "log-format"})

		fmt.Fprintf(os.Stderr, "\nDashboard:\n")
		printFlagCategory([]string{"tui"})

		fmt.Fprintf(os.Stderr, `
Examples:
  # Audit with the default 10%% tolerance
  go-hls-bitrate-audit https://cdn.example.com/live/master.m3u8

  # Tighter tolerance, interactive dashboard
  go-hls-bitrate-audit -deviation 5 -tui https://cdn.example.com/live/master.m3u8

  # Expose Prometheus metrics while the audit runs
  go-hls-bitrate-audit -metrics 0.0.0.0:17091 https://cdn.example.com/live/master.m3u8

`)
	}

	// Analysis
	flag.Float64Var(&cfg.DeviationPct, "deviation", cfg.DeviationPct, "Allowed bitrate deviation in percent")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Measurement worker pool size")

	// Network
	flag.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "HTTP User-Agent header")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")

	// Observability
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address (empty = disabled)")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	// Dashboard
	flag.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Show the audit result in a terminal dashboard")

	flag.Parse()

	// Positional argument: master playlist URL
	args := flag.Args()
	if len(args) >= 1 {
		cfg.ManifestURL = args[0]
	}

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(names []string) {
	flag.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(os.Stderr, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
					fmt.Fprintf(os.Stderr, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(os.Stderr)
				return
			}
		}
	})
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	switch f.DefValue {
	case "true", "false":
		return ""
	}

	if strings.HasSuffix(f.DefValue, "s") || strings.HasSuffix(f.DefValue, "m") || strings.HasSuffix(f.DefValue, "h") {
		return "duration"
	}

	if _, err := fmt.Sscanf(f.DefValue, "%d", new(int)); err == nil {
		return "int"
	}

	return "string"
}
