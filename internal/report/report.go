// Package report builds the audit result from a measured master manifest.
//
// The build runs two strictly ordered passes: the population pass fills the
// video and audio tables (and flags renditions that measured zero), then the
// deviation pass checks every variant's declared average bandwidth against
// the combined measured bitrate. Deviation diagnostics reference table rows,
// so population must complete first.
package report

import (
	"fmt"

	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/manifest"
)

// VideoRow is one entry of the video rendition table.
type VideoRow struct {
	URL         string
	Codec       string
	Resolution  string
	RealBitrate uint64
	FrameRate   string
}

// AudioRow is one entry of the audio rendition table.
type AudioRow struct {
	URL         string
	Codec       string
	Channels    uint64
	Language    string
	RealBitrate uint64
}

// Report is an immutable snapshot of one completed analysis. Log lines
// reference table rows 1-based, row 0 meaning absent.
type Report struct {
	Video []VideoRow
	Audio []AudioRow
	Log   []string
}

// Build produces the report for a parsed and measured master manifest.
// Tolerance is the allowed deviation in percent.
func Build(master *manifest.Master, tolerance float64) *Report {
	r := &Report{}

	videoRows := make(map[string]int) // URL -> 1-based row
	audioRows := make(map[string]int)

	// Population pass. Each rendition URL appears once, at its first variant
	// occurrence; a zero measurement is flagged immediately.
	for _, v := range master.Variants {
		if url := v.Video.URL; url != "" && videoRows[url] == 0 {
			r.Video = append(r.Video, VideoRow{
				URL:         url,
				Codec:       v.Video.Codec,
				Resolution:  v.Video.Resolution,
				RealBitrate: v.Video.RealBitrate,
				FrameRate:   v.Video.FrameRate,
			})
			videoRows[url] = len(r.Video)
			if v.Video.RealBitrate == 0 {
				r.Log = append(r.Log, fmt.Sprintf("zero real bitrate for video stream #%d", len(r.Video)))
			}
		}
		if url := v.Audio.URL; url != "" && audioRows[url] == 0 {
			r.Audio = append(r.Audio, AudioRow{
				URL:         url,
				Codec:       v.Audio.Codec,
				Channels:    v.Audio.Channels,
				Language:    v.Audio.Language,
				RealBitrate: v.Audio.RealBitrate,
			})
			audioRows[url] = len(r.Audio)
			if v.Audio.RealBitrate == 0 {
				r.Log = append(r.Log, fmt.Sprintf("zero real bitrate for audio stream #%d", len(r.Audio)))
			}
		}
	}

	// Deviation pass.
	for _, v := range master.Variants {
		if v.AverageBandwidth == 0 {
			continue
		}
		if inRange(v.Video.RealBitrate+v.Audio.RealBitrate, v.AverageBandwidth, tolerance) {
			continue
		}

		videoRow := videoRows[v.Video.URL]
		audioRow := audioRows[v.Audio.URL]
		switch {
		case videoRow > 0 && audioRow > 0:
			r.Log = append(r.Log, fmt.Sprintf(
				"real bitrate out of range for variant stream with video stream #%d and audio stream #%d",
				videoRow, audioRow))
		case videoRow > 0:
			r.Log = append(r.Log, fmt.Sprintf(
				"real bitrate out of range for variant stream with video stream #%d", videoRow))
		case audioRow > 0:
			r.Log = append(r.Log, fmt.Sprintf(
				"real bitrate out of range for variant stream with audio stream #%d", audioRow))
		}
	}

	return r
}

// inRange reports whether real deviates from declared by strictly less than
// tolerance percent. A deviation exactly at the tolerance is out of range.
func inRange(real, declared uint64, tolerance float64) bool {
	delta := float64(real) - float64(declared)
	if delta < 0 {
		delta = -delta
	}
	return tolerance/100 > delta/float64(declared)
}
