package analyzer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/fetch"
	"github.com/randomizedcoder/go-hls-bitrate-audit/internal/manifest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newOriginServer serves a small two-variant stream with a shared audio
// rendition. The 720p variant declares an honest average bandwidth, the
// 1080p variant overstates it by 12.5%.
func newOriginServer(t *testing.T) *httptest.Server {
	t.Helper()

	playlists := map[string]string{
		"/master.m3u8": "#EXTM3U\n" +
			"#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID=\"aud1\",LANGUAGE=\"en\",CHANNELS=\"2\",URI=\"audio/en.m3u8\"\n" +
			"#EXT-X-STREAM-INF:AVERAGE-BANDWIDTH=1000000,BANDWIDTH=1100000,CODECS=\"avc1.4d401f,mp4a.40.2\",RESOLUTION=1280x720,FRAME-RATE=29.970,AUDIO=\"aud1\"\n" +
			"video/720p.m3u8\n" +
			"#EXT-X-STREAM-INF:AVERAGE-BANDWIDTH=2000000,BANDWIDTH=2200000,CODECS=\"avc1.640028,mp4a.40.2\",RESOLUTION=1920x1080,FRAME-RATE=29.970,AUDIO=\"aud1\"\n" +
			"video/1080p.m3u8\n",
		"/video/720p.m3u8": "#EXTM3U\n" +
			"#EXT-X-BITRATE:900\nseg0.ts\n" +
			"#EXT-X-BITRATE:900\nseg1.ts\n",
		"/video/1080p.m3u8": "#EXTM3U\n" +
			"#EXT-X-BITRATE:1700\nseg0.ts\n" +
			"#EXT-X-BITRATE:1700\nseg1.ts\n",
		"/audio/en.m3u8": "#EXTM3U\n" +
			"#EXT-X-BITRATE:50\nseg0.aac\n",
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := playlists[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, body)
	}))
}

func newTestEngine(tolerance float64) *Engine {
	client := fetch.NewClient(fetch.Config{}, discardLogger())
	return New(client, discardLogger(), Options{Tolerance: tolerance, Workers: 4})
}

func TestAnalyze_EndToEnd(t *testing.T) {
	srv := newOriginServer(t)
	defer srv.Close()

	e := newTestEngine(10.0)
	rep, err := e.Analyze(context.Background(), srv.URL+"/master.m3u8")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(rep.Video) != 2 {
		t.Fatalf("got %d video rows, want 2: %+v", len(rep.Video), rep.Video)
	}
	if len(rep.Audio) != 1 {
		t.Fatalf("got %d audio rows, want 1: %+v", len(rep.Audio), rep.Audio)
	}

	if got := rep.Video[0].RealBitrate; got != 900000 {
		t.Errorf("720p real bitrate = %d, want 900000", got)
	}
	if got := rep.Video[1].RealBitrate; got != 1700000 {
		t.Errorf("1080p real bitrate = %d, want 1700000", got)
	}
	if got := rep.Audio[0].RealBitrate; got != 50000 {
		t.Errorf("audio real bitrate = %d, want 50000", got)
	}
	if got := rep.Video[0].Codec; got != "AVC" {
		t.Errorf("video codec = %q, want AVC", got)
	}
	if got := rep.Audio[0].Language; got != "en" {
		t.Errorf("audio language = %q, want en", got)
	}

	// 720p: 900000+50000 vs 1000000 is a 5% deviation, within tolerance.
	// 1080p: 1700000+50000 vs 2000000 is a 12.5% deviation, flagged.
	expected := []string{"real bitrate out of range for variant stream with video stream #2 and audio stream #1"}
	if !reflect.DeepEqual(rep.Log, expected) {
		t.Errorf("Log = %v, want %v", rep.Log, expected)
	}
}

func TestAnalyze_MasterFetchFailure(t *testing.T) {
	srv := newOriginServer(t)
	defer srv.Close()

	e := newTestEngine(10.0)
	rep, err := e.Analyze(context.Background(), srv.URL+"/missing.m3u8")
	if err == nil {
		t.Fatal("expected error for missing master")
	}
	if rep != nil {
		t.Errorf("failed analysis returned a report: %+v", rep)
	}
	if e.Latest() != nil {
		t.Error("failed analysis must not publish a report")
	}
}

func TestAnalyze_InvalidMasterFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>not a playlist</html>")
	}))
	defer srv.Close()

	e := newTestEngine(10.0)
	_, err := e.Analyze(context.Background(), srv.URL+"/master.m3u8")
	if !errors.Is(err, manifest.ErrInvalidFormat) {
		t.Errorf("Analyze error = %v, want ErrInvalidFormat", err)
	}
}

func TestAnalyze_MediaPlaylistIsDegenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "#EXTM3U\n#EXT-X-TARGETDURATION:6\n#EXTINF:6.0,\nseg0.ts\n")
	}))
	defer srv.Close()

	e := newTestEngine(10.0)
	rep, err := e.Analyze(context.Background(), srv.URL+"/media.m3u8")
	if err != nil {
		t.Fatalf("media playlist should not error: %v", err)
	}
	if len(rep.Video) != 0 || len(rep.Audio) != 0 || len(rep.Log) != 0 {
		t.Errorf("media playlist produced a non-empty report: %+v", rep)
	}
	if e.Latest() != rep {
		t.Error("degenerate analysis should still publish its report")
	}
}

func TestAnalyze_RenditionFailureIsIsolated(t *testing.T) {
	playlists := map[string]string{
		"/master.m3u8": "#EXTM3U\n" +
			"#EXT-X-STREAM-INF:AVERAGE-BANDWIDTH=1000000,BANDWIDTH=1100000\n" +
			"good.m3u8\n" +
			"#EXT-X-STREAM-INF:AVERAGE-BANDWIDTH=2000000,BANDWIDTH=2200000\n" +
			"broken.m3u8\n",
		"/good.m3u8": "#EXTM3U\n#EXT-X-BITRATE:1000\nseg0.ts\n",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := playlists[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, body)
	}))
	defer srv.Close()

	e := newTestEngine(10.0)
	rep, err := e.Analyze(context.Background(), srv.URL+"/master.m3u8")
	if err != nil {
		t.Fatalf("rendition failure must not fail the analysis: %v", err)
	}

	if len(rep.Video) != 2 {
		t.Fatalf("got %d video rows, want 2", len(rep.Video))
	}
	if rep.Video[0].RealBitrate != 1000000 {
		t.Errorf("healthy rendition bitrate = %d, want 1000000", rep.Video[0].RealBitrate)
	}
	if rep.Video[1].RealBitrate != 0 {
		t.Errorf("broken rendition bitrate = %d, want 0", rep.Video[1].RealBitrate)
	}

	expected := []string{
		"zero real bitrate for video stream #2",
		"real bitrate out of range for variant stream with video stream #2",
	}
	if !reflect.DeepEqual(rep.Log, expected) {
		t.Errorf("Log = %v, want %v", rep.Log, expected)
	}
}

func TestAnalyze_RepeatRunsAreIdentical(t *testing.T) {
	srv := newOriginServer(t)
	defer srv.Close()

	e := newTestEngine(10.0)

	first, err := e.Analyze(context.Background(), srv.URL+"/master.m3u8")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := e.Analyze(context.Background(), srv.URL+"/master.m3u8")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated analyses differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if e.Latest() != second {
		t.Error("Latest should be the most recent run's report")
	}
}

func TestAnalyze_ToleranceBoundaryIsOutOfRange(t *testing.T) {
	// 1100000 real vs 1000000 declared is exactly the 10% tolerance.
	playlists := map[string]string{
		"/master.m3u8": "#EXTM3U\n" +
			"#EXT-X-STREAM-INF:AVERAGE-BANDWIDTH=1000000,BANDWIDTH=1200000\n" +
			"v.m3u8\n",
		"/v.m3u8": "#EXTM3U\n#EXT-X-BITRATE:1100\nseg0.ts\n",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if body, ok := playlists[r.URL.Path]; ok {
			io.WriteString(w, body)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := newTestEngine(10.0)
	rep, err := e.Analyze(context.Background(), srv.URL+"/master.m3u8")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	expected := []string{"real bitrate out of range for variant stream with video stream #1"}
	if !reflect.DeepEqual(rep.Log, expected) {
		t.Errorf("Log = %v, want %v", rep.Log, expected)
	}
}
