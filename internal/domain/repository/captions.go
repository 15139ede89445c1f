package repository

import "context"

// CaptionTrack describes one platform caption track for a video.
type CaptionTrack struct {
	// LanguageCode is the BCP-47 code reported by the platform (e.g., "en").
	LanguageCode string
	// Name is the human-readable track label.
	Name string
	// AutoGenerated marks machine-produced (ASR) tracks.
	AutoGenerated bool
	// Translatable marks tracks the platform can machine-translate.
	Translatable bool
	// BaseURL is the opaque fetch URL for the track's timed text.
	BaseURL string
}

// CaptionSegment is one timed text segment of a caption track.
type CaptionSegment struct {
	Start    float64
	Duration float64
	Text     string
}

// CaptionSource lists and fetches platform captions for a video.
// Implementations should be provided by the infrastructure layer.
type CaptionSource interface {
	// ListTracks returns the caption tracks available for a video.
	// Returns ErrCaptionsUnavailable when the video has no captions,
	// whether disabled or simply absent.
	ListTracks(ctx context.Context, videoID string) ([]CaptionTrack, error)

	// FetchTrack retrieves the timed text segments of a track. A non-empty
	// translateTo requests platform machine translation into that language.
	FetchTrack(ctx context.Context, track CaptionTrack, translateTo string) ([]CaptionSegment, error)
}
