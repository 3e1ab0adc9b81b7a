package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/logging"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/manifest"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/report"
)

// TickMsg is sent periodically to refresh the elapsed clock while the
// analysis is still running.
type TickMsg time.Time

// ReportMsg delivers the finished analysis, or the terminal error that
// aborted it.
type ReportMsg struct {
	Report *report.Report
	Err    error
}

// QuitMsg signals the dashboard should exit.
type QuitMsg struct{}

// Model represents the dashboard state.
type Model struct {
	// Configuration
	manifestURL string
	tolerance   float64
	metricsAddr string

	// Current state
	rep       *report.Report
	err       error
	startTime time.Time
	done      bool

	// Diagnostic selection. Row references parsed from the selected line
	// mark the implicated table rows.
	selectedLog int

	// Recent log lines, captured instead of written to stderr
	logRing *logging.RingBuffer

	// Display options
	width  int
	height int

	quitting bool
}

// Config holds dashboard configuration.
type Config struct {
	ManifestURL string
	Tolerance   float64
	MetricsAddr string
	LogRing     *logging.RingBuffer
}

// New creates a new dashboard model.
func New(cfg Config) Model {
	return Model{
		manifestURL: cfg.ManifestURL,
		tolerance:   cfg.Tolerance,
		metricsAddr: cfg.MetricsAddr,
		logRing:     cfg.LogRing,
		startTime:   time.Now(),
		width:       80,
		height:      24,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.selectedLog > 0 {
				m.selectedLog--
			}
			return m, nil
		case "down", "j":
			if m.rep != nil && m.selectedLog < len(m.rep.Log)-1 {
				m.selectedLog++
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case ReportMsg:
		m.rep = msg.Report
		m.err = msg.Err
		m.done = true
		m.selectedLog = 0
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// tickCmd returns a command that sends a tick after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Elapsed returns the time since the analysis started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// markedRows returns the 1-based video and audio rows referenced by the
// currently selected diagnostic line (0 = none).
func (m Model) markedRows() (videoRow, audioRow int) {
	if m.rep == nil || len(m.rep.Log) == 0 || m.selectedLog >= len(m.rep.Log) {
		return 0, 0
	}
	return manifest.ParseStreamNumbers(m.rep.Log[m.selectedLog])
}

// SendReport delivers the analysis outcome to a running dashboard.
func SendReport(p *tea.Program, rep *report.Report, err error) {
	if p != nil {
		p.Send(ReportMsg{Report: rep, Err: err})
	}
}

// SendQuit sends a quit message to the dashboard.
func SendQuit(p *tea.Program) {
	if p != nil {
		p.Send(QuitMsg{})
	}
}

// formatDuration formats a duration as HH:MM:SS.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatBitrate formats bits per second with kbps/Mbps suffixes.
func formatBitrate(bps uint64) string {
	switch {
	case bps >= 1_000_000:
		return fmt.Sprintf("%.2f Mbps", float64(bps)/1_000_000)
	case bps >= 1_000:
		return fmt.Sprintf("%.1f kbps", float64(bps)/1_000)
	default:
		return fmt.Sprintf("%d bps", bps)
	}
}
