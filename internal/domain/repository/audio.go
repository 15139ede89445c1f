package repository

import "context"

// AudioFetcher downloads the best available audio-only stream for a video,
// transcoded to a fixed container, writing exactly to destPath and overwriting
// any stale file there. Calls are unreliable (rate limiting, transient network
// failures) and are expected to be wrapped in the caller's retry policy.
// Implementations wrap ErrAudioBlocked when the upstream denies access.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, videoID, destPath string) error
}
