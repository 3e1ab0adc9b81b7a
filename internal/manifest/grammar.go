// Package manifest implements text-level parsing of HLS (M3U8) playlists:
// the attribute grammar of tag lines and the master-playlist scan that
// discovers variant and audio renditions.
//
// Everything in this package is pure: no network access, no mutable state.
package manifest

import (
	"strconv"
	"strings"
)

// playlistHeader is the mandatory first line of every M3U8 playlist.
const playlistHeader = "#EXTM3U"

// IsPlaylist reports whether firstLine is the M3U8 header. The comparison is
// exact: no trimming beyond what the caller already did, no case folding.
func IsPlaylist(firstLine string) bool {
	return firstLine == playlistHeader
}

// ExtractAttribute returns the value of key within an HLS tag line, or ""
// when the key is absent.
//
// Two quirks of the attribute grammar are honored:
//
//   - A key may be the suffix of a longer key (BANDWIDTH inside
//     AVERAGE-BANDWIDTH). A match immediately preceded by '-' is such a
//     suffix and is skipped in favor of the next occurrence.
//   - The CODECS value is a quoted list that contains commas, so its
//     terminator is the two-byte sequence `",` rather than a bare comma.
//
// The byte following the key ('=' for attributes, ':' for tags like
// #EXT-X-BITRATE:2000) is skipped, so the same function serves both forms.
// Quotes are stripped from the returned value.
func ExtractAttribute(line, key string) string {
	idx := strings.Index(line, key)
	for idx > 0 && line[idx-1] == '-' {
		rest := strings.Index(line[idx+1:], key)
		if rest < 0 {
			return ""
		}
		idx += 1 + rest
	}
	if idx < 0 {
		return ""
	}

	valStart := idx + len(key) + 1
	if valStart >= len(line) {
		return ""
	}

	end := strings.Index(line[valStart:], ",")
	if key == "CODECS" {
		end = strings.Index(line[valStart:], `",`)
	}

	val := line[valStart:]
	if end >= 0 {
		val = line[valStart : valStart+end]
	}
	return strings.ReplaceAll(val, `"`, "")
}

// ReadableCodec maps a raw codec identifier (RFC 6381 style, e.g.
// "avc1.640028") to a short human-readable label by case-insensitive prefix.
// Unrecognized identifiers pass through unchanged.
func ReadableCodec(fourCC string) string {
	switch {
	case hasPrefixFold(fourCC, "avc"):
		return "AVC"
	case hasPrefixFold(fourCC, "mp4a"):
		return "AAC"
	case hasPrefixFold(fourCC, "ac-3"):
		return "AC-3"
	case hasPrefixFold(fourCC, "ec-3"):
		return "EC-3"
	}
	return fourCC
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// SplitCodecsPair splits a CODECS field into its video and audio halves.
// A field without a comma is video-only; audio comes back empty.
func SplitCodecsPair(codecs string) (video, audio string) {
	video, audio, _ = strings.Cut(codecs, ",")
	return video, audio
}

// ParseStreamNumbers extracts the two '#N' row references from a diagnostic
// log line. The first '#' begins the video row number, the next '#' the
// audio row number; each number runs to the following space or the end of
// the string. Rows are 1-based; 0 means the reference is absent.
func ParseStreamNumbers(logLine string) (videoRow, audioRow int) {
	videoRow, next := numberAfterHash(logLine, 0)
	audioRow, _ = numberAfterHash(logLine, next)
	return videoRow, audioRow
}

// numberAfterHash parses the decimal number following the first '#' at or
// after from. It returns the parsed value (0 on absence or parse failure)
// and the offset just past the number.
func numberAfterHash(s string, from int) (val, next int) {
	if from < 0 || from >= len(s) {
		return 0, len(s)
	}
	hash := strings.IndexByte(s[from:], '#')
	if hash < 0 {
		return 0, len(s)
	}
	start := from + hash + 1
	end := strings.IndexByte(s[start:], ' ')
	if end < 0 {
		end = len(s) - start
	}
	n, err := strconv.Atoi(s[start : start+end])
	if err != nil {
		return 0, start + end
	}
	return n, start + end
}
