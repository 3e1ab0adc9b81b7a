package logging

import (
	"strings"
	"sync"
)

const (
	// MaxLineLength is the maximum length of a single log line before truncation.
	MaxLineLength = 4096

	// DefaultBufferedLines is the default ring buffer capacity.
	DefaultBufferedLines = 100
)

// RingBuffer is an io.Writer that keeps the most recent log lines in a
// circular buffer. In dashboard mode the logger writes here instead of
// stderr, so recent lines render inside the view rather than corrupting it.
type RingBuffer struct {
	mu      sync.Mutex
	lines   []string
	idx     int
	partial string
}

// NewRingBuffer creates a buffer holding up to capacity lines.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferedLines
	}
	return &RingBuffer{lines: make([]string, capacity)}
}

// Write splits p into lines and stores each completed line. A trailing
// fragment without a newline is held until the next write. Never errors.
func (b *RingBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rest := b.partial + string(p)
	for {
		line, remainder, found := strings.Cut(rest, "\n")
		if !found {
			break
		}
		b.store(line)
		rest = remainder
	}
	b.partial = rest

	return len(p), nil
}

func (b *RingBuffer) store(line string) {
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}
	b.lines[b.idx] = line
	b.idx = (b.idx + 1) % len(b.lines)
}

// RecentLines returns up to n most recent lines, oldest first.
func (b *RingBuffer) RecentLines(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.lines)
	if n > capacity {
		n = capacity
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := (b.idx - n + i + capacity) % capacity
		if b.lines[idx] != "" {
			lines = append(lines, b.lines[idx])
		}
	}
	return lines
}
