// Package measure computes the real average bitrate of rendition playlists
// from their EXT-X-BITRATE tags.
package measure

import (
	"strconv"
	"strings"
	"sync"

	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/fetch"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/manifest"
)

// DefaultWorkers bounds the measurement pool when the caller passes zero.
const DefaultWorkers = 8

// MeasureAll computes the average bitrate for every fetched rendition body
// and returns it keyed by rendition URL.
//
// A bounded pool of workers drains the input; each item is measured with its
// own accumulator, so no state is shared until the map is assembled from the
// results channel. Failed fetches and bodies that are not playlists measure
// as zero, same as a playlist carrying no EXT-X-BITRATE tags.
func MeasureAll(results []fetch.Result, workers int) map[string]uint64 {
	if len(results) == 0 {
		return map[string]uint64{}
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(results) {
		workers = len(results)
	}

	type measured struct {
		url     string
		bitrate uint64
	}

	jobs := make(chan fetch.Result)
	out := make(chan measured, len(results))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for res := range jobs {
				out <- measured{url: res.URL, bitrate: Measure(res)}
			}
		}()
	}

	for _, res := range results {
		jobs <- res
	}
	close(jobs)
	wg.Wait()
	close(out)

	bitrates := make(map[string]uint64, len(results))
	for m := range out {
		bitrates[m.url] = m.bitrate
	}
	return bitrates
}

// Measure computes the average bitrate of one rendition playlist in bits per
// second, integer-truncated. EXT-X-BITRATE values are kilobits per second;
// the average is (sum*1000)/count. Anything unmeasurable is zero.
func Measure(res fetch.Result) uint64 {
	if res.Err != nil {
		return 0
	}

	body := string(res.Body)
	line, rest, _ := strings.Cut(body, "\n")
	if !manifest.IsPlaylist(strings.TrimRight(line, "\r")) {
		return 0
	}

	var sum, count uint64
	for rest != "" {
		line, rest, _ = strings.Cut(rest, "\n")
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, "#EXT-X-BITRATE") {
			continue
		}
		val := manifest.ExtractAttribute(line, "EXT-X-BITRATE")
		if val == "" {
			continue
		}
		kbps, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			continue
		}
		sum += kbps
		count++
	}

	if count == 0 {
		return 0
	}
	return (sum * 1000) / count
}
