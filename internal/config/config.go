// Package config provides configuration management for go-hls-bitrate-audit.
package config

import "time"

// Config holds all configuration options for the audit.
type Config struct {
	// Analysis
	ManifestURL  string  `json:"manifest_url"`
	DeviationPct float64 `json:"deviation_pct"` // allowed bitrate deviation in percent
	Workers      int     `json:"workers"`       // measurement pool size

	// Network
	UserAgent string        `json:"user_agent"`
	Timeout   time.Duration `json:"timeout"`

	// Observability
	MetricsAddr string `json:"metrics_addr"` // empty = disabled
	Verbose     bool   `json:"verbose"`
	LogFormat   string `json:"log_format"` // json, text

	// Dashboard
	TUIEnabled bool `json:"tui_enabled"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Analysis
		DeviationPct: 10.0,
		Workers:      8,

		// Network
		UserAgent: "go-hls-bitrate-audit/1.0",
		Timeout:   15 * time.Second,

		// Observability
		MetricsAddr: "", // single-shot tool, off unless asked for
		Verbose:     false,
		LogFormat:   "text",

		// Dashboard
		TUIEnabled: false,
	}
}
