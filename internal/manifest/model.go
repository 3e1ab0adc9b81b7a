package manifest

// VideoStream describes the video rendition of a variant. RealBitrate stays
// 0 until measurement runs.
type VideoStream struct {
	URL         string
	Codec       string
	Resolution  string
	RealBitrate uint64 // bits per second
	FrameRate   string // as given by the manifest, not parsed
}

// AudioStream describes the audio rendition joined onto a variant via its
// group id. All fields stay zero until a matching EXT-X-MEDIA:TYPE=AUDIO
// entry is seen.
type AudioStream struct {
	URL         string
	Codec       string
	Channels    uint64
	Language    string
	RealBitrate uint64 // bits per second
}

// VariantStream is one EXT-X-STREAM-INF entry of a master playlist. Video.URL
// is always set for a successfully parsed entry; the media URL is required.
type VariantStream struct {
	AverageBandwidth uint64 // declared, bits per second; 0 when absent
	PeakBandwidth    uint64
	AudioGroupID     string

	Video VideoStream
	Audio AudioStream
}

// Master is the result of scanning a master playlist: the ordered variant
// entries plus the deduplicated, insertion-ordered rendition URL sets to
// fetch. A media playlist (no EXT-X-STREAM-INF) yields an empty Master.
type Master struct {
	Variants  []VariantStream
	VideoURLs []string
	AudioURLs []string
}
