package tui

import (
	"fmt"
	"strings"
)

func (m Model) render() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("go-hls-bitrate-audit"))
	b.WriteString("\n")

	b.WriteString(RenderKeyValue("Manifest", m.manifestURL))
	b.WriteString("\n")
	b.WriteString(RenderKeyValue("Tolerance", fmt.Sprintf("%.1f%%", m.tolerance)))
	b.WriteString("\n")
	if m.metricsAddr != "" {
		b.WriteString(RenderKeyValue("Metrics", m.metricsAddr))
		b.WriteString("\n")
	}
	b.WriteString(RenderKeyValue("Elapsed", formatDuration(m.Elapsed())))
	b.WriteString("\n")

	switch {
	case !m.done:
		b.WriteString("\n")
		b.WriteString(statusWarning.Render("● analyzing..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString("\n")
		b.WriteString(statusError.Render("✗ analysis failed: " + m.err.Error()))
		b.WriteString("\n")
	default:
		m.renderReport(&b)
	}

	if m.logRing != nil {
		if lines := m.logRing.RecentLines(5); len(lines) > 0 {
			b.WriteString(sectionHeaderStyle.Render("Recent Log"))
			b.WriteString("\n")
			for _, line := range lines {
				b.WriteString(dimStyle.Render(truncate(line, m.width-2)))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString(footerStyle.Render("↑/↓ select diagnostic · q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderReport(b *strings.Builder) {
	markedVideo, markedAudio := m.markedRows()

	b.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Video Renditions (%d)", len(m.rep.Video))))
	b.WriteString("\n")
	if len(m.rep.Video) == 0 {
		b.WriteString(dimStyle.Render("  none"))
		b.WriteString("\n")
	} else {
		b.WriteString(tableHeaderStyle.Render(fmt.Sprintf("  %3s  %-12s  %-10s  %-7s  %12s  %s",
			"#", "CODEC", "RESOLUTION", "FPS", "REAL BITRATE", "URL")))
		b.WriteString("\n")
		for i, row := range m.rep.Video {
			line := fmt.Sprintf("%3d  %-12s  %-10s  %-7s  %12s  %s",
				i+1, row.Codec, row.Resolution, row.FrameRate,
				formatBitrate(row.RealBitrate), truncate(row.URL, 40))
			b.WriteString(m.renderTableRow(line, i+1 == markedVideo))
		}
	}

	b.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Audio Renditions (%d)", len(m.rep.Audio))))
	b.WriteString("\n")
	if len(m.rep.Audio) == 0 {
		b.WriteString(dimStyle.Render("  none"))
		b.WriteString("\n")
	} else {
		b.WriteString(tableHeaderStyle.Render(fmt.Sprintf("  %3s  %-12s  %2s  %-4s  %12s  %s",
			"#", "CODEC", "CH", "LANG", "REAL BITRATE", "URL")))
		b.WriteString("\n")
		for i, row := range m.rep.Audio {
			line := fmt.Sprintf("%3d  %-12s  %2d  %-4s  %12s  %s",
				i+1, row.Codec, row.Channels, row.Language,
				formatBitrate(row.RealBitrate), truncate(row.URL, 40))
			b.WriteString(m.renderTableRow(line, i+1 == markedAudio))
		}
	}

	b.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Diagnostics (%d)", len(m.rep.Log))))
	b.WriteString("\n")
	if len(m.rep.Log) == 0 {
		b.WriteString(statusOK.Render("  ✓ all variant streams within tolerance"))
		b.WriteString("\n")
	} else {
		for i, line := range m.rep.Log {
			if i == m.selectedLog {
				b.WriteString(logSelectedStyle.Render("▶ " + line))
			} else {
				b.WriteString(statusWarning.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}
}

func (m Model) renderTableRow(line string, marked bool) string {
	if marked {
		return tableRowMarkedStyle.Render("▶ "+line) + "\n"
	}
	return tableRowStyle.Render("  "+line) + "\n"
}

func truncate(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
