package repository

import "errors"

var (
	// ErrTranscriptNotFound is returned when no transcript is cached for a video.
	ErrTranscriptNotFound = errors.New("transcript not found")

	// ErrCaptionsUnavailable is returned when the platform has no caption
	// tracks for a video. Disabled captions and empty track lists both
	// collapse to this error.
	ErrCaptionsUnavailable = errors.New("captions unavailable")

	// ErrAudioBlocked is wrapped by AudioFetcher implementations when the
	// upstream responded with an access-denial condition rather than a
	// transient failure.
	ErrAudioBlocked = errors.New("audio download blocked by upstream")
)
