package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"Debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},        // Default
		{"invalid", slog.LevelInfo}, // Default for unknown
		{"trace", slog.LevelInfo},   // Unknown level defaults to info
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := parseLevel(tc.input)
			if result != tc.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tc.input, result, tc.expected)
			}
		})
	}
}

func TestNewLogger_Formats(t *testing.T) {
	testCases := []string{"json", "text", "JSON", "TEXT", "", "invalid"}

	for _, format := range testCases {
		t.Run(format, func(t *testing.T) {
			// Should not panic
			logger := NewLogger(format, "info", false)
			if logger == nil {
				t.Error("NewLogger returned nil")
			}
		})
	}
}

func TestNewLogger_Levels(t *testing.T) {
	testCases := []string{"debug", "info", "warn", "error", "", "invalid"}

	for _, level := range testCases {
		t.Run(level, func(t *testing.T) {
			// Should not panic
			logger := NewLogger("json", level, false)
			if logger == nil {
				t.Error("NewLogger returned nil")
			}
		})
	}
}

func TestNewLoggerWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerWithWriter(&buf, "json", "info")
	logger.Info("test message", "key", "value")

	output := buf.String()

	if !strings.Contains(output, "{") || !strings.Contains(output, "}") {
		t.Errorf("Expected JSON format, got: %s", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected message in output, got: %s", output)
	}
	if !strings.Contains(output, `"key"`) {
		t.Errorf("Expected key in output, got: %s", output)
	}
	if !strings.Contains(output, `"value"`) {
		t.Errorf("Expected value in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerWithWriter(&buf, "text", "info")
	logger.Info("test message", "key", "value")

	output := buf.String()

	if !strings.Contains(output, "test message") {
		t.Errorf("Expected message in output, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("Expected key=value in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_LevelFiltering(t *testing.T) {
	t.Run("debug_logs_all", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithWriter(&buf, "text", "debug")

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		output := buf.String()
		for _, msg := range []string{"debug msg", "info msg", "warn msg", "error msg"} {
			if !strings.Contains(output, msg) {
				t.Errorf("Debug level should log %q", msg)
			}
		}
	})

	t.Run("info_filters_debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithWriter(&buf, "text", "info")

		logger.Debug("debug msg")
		logger.Info("info msg")

		output := buf.String()
		if strings.Contains(output, "debug msg") {
			t.Error("Info level should not log debug messages")
		}
		if !strings.Contains(output, "info msg") {
			t.Error("Info level should log info messages")
		}
	})

	t.Run("error_filters_warn", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithWriter(&buf, "text", "error")

		logger.Warn("warn msg")
		logger.Error("error msg")

		output := buf.String()
		if strings.Contains(output, "warn msg") {
			t.Error("Error level should not log warn messages")
		}
		if !strings.Contains(output, "error msg") {
			t.Error("Error level should log error messages")
		}
	})
}

func TestNewLoggerWithWriter_DefaultFormat(t *testing.T) {
	var buf bytes.Buffer

	// Invalid format should default to text
	logger := NewLoggerWithWriter(&buf, "invalid", "info")
	logger.Info("test message")

	output := buf.String()

	// Text format uses key=value, not JSON
	if strings.HasPrefix(strings.TrimSpace(output), "{") {
		t.Error("Default format should be text, not JSON")
	}
}

func TestSetDefault(t *testing.T) {
	// Save original default logger to restore later
	originalDefault := slog.Default()
	defer slog.SetDefault(originalDefault)

	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "text", "info")

	SetDefault(logger)

	slog.Info("from default logger")
	if !strings.Contains(buf.String(), "from default logger") {
		t.Error("SetDefault did not set the default logger")
	}
}

// RingBuffer tests

func TestRingBuffer_CapturesLoggerOutput(t *testing.T) {
	ring := NewRingBuffer(10)
	logger := NewLoggerWithWriter(ring, "text", "info")

	logger.Info("first event", "key", "value")
	logger.Info("second event")

	lines := ring.RecentLines(10)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "first event") {
		t.Errorf("lines[0] = %q", lines[0])
	}
	if !strings.Contains(lines[1], "second event") {
		t.Errorf("lines[1] = %q", lines[1])
	}
}

func TestRingBuffer_PartialWrites(t *testing.T) {
	ring := NewRingBuffer(10)

	ring.Write([]byte("half a "))
	ring.Write([]byte("line\nand more\n"))

	lines := ring.RecentLines(10)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(lines), lines)
	}
	if lines[0] != "half a line" {
		t.Errorf("lines[0] = %q, want %q", lines[0], "half a line")
	}
	if lines[1] != "and more" {
		t.Errorf("lines[1] = %q, want %q", lines[1], "and more")
	}
}

func TestRingBuffer_WrapsAround(t *testing.T) {
	ring := NewRingBuffer(5)

	for i := 0; i < 8; i++ {
		fmt.Fprintf(ring, "line%d\n", i)
	}

	lines := ring.RecentLines(5)
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5: %v", len(lines), lines)
	}
	// The oldest three lines have been overwritten.
	if lines[0] != "line3" || lines[4] != "line7" {
		t.Errorf("unexpected window: %v", lines)
	}
}

func TestRingBuffer_RecentLinesSubset(t *testing.T) {
	ring := NewRingBuffer(10)

	for i := 0; i < 5; i++ {
		fmt.Fprintf(ring, "line%d\n", i)
	}

	lines := ring.RecentLines(3)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %v", len(lines), lines)
	}
	if lines[0] != "line2" || lines[1] != "line3" || lines[2] != "line4" {
		t.Errorf("unexpected lines: %v", lines)
	}
}

func TestRingBuffer_Truncation(t *testing.T) {
	ring := NewRingBuffer(5)

	long := strings.Repeat("x", MaxLineLength+100)
	ring.Write([]byte(long + "\n"))

	lines := ring.RecentLines(1)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !strings.HasSuffix(lines[0], "...(truncated)") {
		t.Error("long line should be truncated")
	}
	if len(lines[0]) > MaxLineLength+20 {
		t.Errorf("truncated line still %d chars", len(lines[0]))
	}
}

func TestRingBuffer_Empty(t *testing.T) {
	ring := NewRingBuffer(5)
	if lines := ring.RecentLines(5); len(lines) != 0 {
		t.Errorf("empty buffer returned lines: %v", lines)
	}
}

func TestRingBuffer_Concurrent(t *testing.T) {
	ring := NewRingBuffer(20)

	done := make(chan bool)
	go func() {
		for i := 0; i < 100; i++ {
			fmt.Fprintf(ring, "concurrent line %d\n", i)
		}
		done <- true
	}()
	go func() {
		for i := 0; i < 100; i++ {
			_ = ring.RecentLines(10)
		}
		done <- true
	}()

	<-done
	<-done
}
