package manifest

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when a body's first line is not #EXTM3U.
var ErrInvalidFormat = errors.New("invalid format")

// mediaAudio is one EXT-X-MEDIA:TYPE=AUDIO entry, held until the join pass.
type mediaAudio struct {
	groupID  string
	url      string
	language string
	channels uint64
}

// ParseMaster scans a master playlist body and returns the variant entries
// and the deduplicated rendition URL sets. Relative rendition URLs are
// resolved against base (the directory of the master manifest URL).
//
// The audio-group join is resolved in a second pass after the full line
// scan, so EXT-X-MEDIA lines may appear before or after their matching
// EXT-X-STREAM-INF lines.
//
// A body whose first line is not #EXTM3U returns ErrInvalidFormat. A valid
// playlist without any EXT-X-STREAM-INF line is a media playlist and yields
// an empty Master, not an error.
func ParseMaster(base *url.URL, body string) (*Master, error) {
	lines := splitLines(body)
	if len(lines) == 0 || !IsPlaylist(lines[0]) {
		return nil, ErrInvalidFormat
	}

	m := &Master{}
	seenVideo := make(map[string]struct{})
	seenAudio := make(map[string]struct{})
	var audioEntries []mediaAudio

	for i := 1; i < len(lines); i++ {
		line := lines[i]

		if strings.Contains(line, "EXT-X-STREAM-INF") {
			avg := ExtractAttribute(line, "AVERAGE-BANDWIDTH")
			codecs := ExtractAttribute(line, "CODECS")
			audioGroup := ExtractAttribute(line, "AUDIO")
			resolution := ExtractAttribute(line, "RESOLUTION")
			bandwidth := ExtractAttribute(line, "BANDWIDTH")
			frameRate := ExtractAttribute(line, "FRAME-RATE")

			// The media URL is required: it is the following non-blank
			// line, and only when it references a sub-playlist. Entries
			// without one are dropped.
			j := nextNonBlank(lines, i+1)
			if j < 0 || !strings.Contains(lines[j], ".m3u8") {
				continue
			}
			mediaURL := resolveAgainst(base, lines[j])
			i = j

			videoCodec, audioCodec := SplitCodecsPair(codecs)
			v := VariantStream{
				AverageBandwidth: parseUint(avg),
				PeakBandwidth:    parseUint(bandwidth),
				AudioGroupID:     audioGroup,
			}
			v.Video = VideoStream{
				URL:        mediaURL,
				Codec:      ReadableCodec(videoCodec),
				Resolution: resolution,
				FrameRate:  frameRate,
			}
			if audioCodec != "" {
				v.Audio.Codec = ReadableCodec(audioCodec)
			}
			m.Variants = append(m.Variants, v)

			if _, dup := seenVideo[mediaURL]; !dup {
				seenVideo[mediaURL] = struct{}{}
				m.VideoURLs = append(m.VideoURLs, mediaURL)
			}
			continue
		}

		if strings.Contains(line, "EXT-X-MEDIA:TYPE=AUDIO") {
			uri := ExtractAttribute(line, "URI")
			audioURL := resolveAgainst(base, uri)
			audioEntries = append(audioEntries, mediaAudio{
				groupID:  ExtractAttribute(line, "GROUP-ID"),
				url:      audioURL,
				language: ExtractAttribute(line, "LANGUAGE"),
				channels: parseUint(ExtractAttribute(line, "CHANNELS")),
			})
			if _, dup := seenAudio[audioURL]; !dup {
				seenAudio[audioURL] = struct{}{}
				m.AudioURLs = append(m.AudioURLs, audioURL)
			}
		}
	}

	// Join pass: manifest order between media and stream-inf lines is not
	// guaranteed, so audio entries are reconciled onto every matching
	// variant only after the full scan.
	for _, a := range audioEntries {
		for idx := range m.Variants {
			if m.Variants[idx].AudioGroupID != a.groupID {
				continue
			}
			m.Variants[idx].Audio.URL = a.url
			m.Variants[idx].Audio.Language = a.language
			m.Variants[idx].Audio.Channels = a.channels
		}
	}

	return m, nil
}

// splitLines breaks a playlist body into lines, tolerating CRLF endings.
func splitLines(body string) []string {
	lines := strings.Split(body, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines
}

// nextNonBlank returns the index of the first non-blank line at or after
// from, or -1.
func nextNonBlank(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}

// resolveAgainst resolves ref against base, mirroring how a player resolves
// rendition URIs against the master manifest's directory. A ref that does
// not parse is returned unchanged.
func resolveAgainst(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// parseUint mirrors the lenient numeric handling of manifest attributes:
// absent or malformed values become 0.
func parseUint(s string) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
