package repository

import (
	"github.com/hszk-dev/ytranscript/internal/domain/model"
)

// EvictionFailure records a cache entry that could not be fully deleted.
type EvictionFailure struct {
	VideoID string
	Reason  string
}

// EvictionReport summarizes one eviction pass. Per-entry failures are
// collected here for the caller to log; they never abort the pass.
type EvictionReport struct {
	Kept     int
	Removed  int
	Failures []EvictionFailure
}

// TranscriptStore persists transcripts and their metadata keyed by video ID.
// Implementations should be provided by the infrastructure layer (e.g., disk cache).
type TranscriptStore interface {
	// ReadTranscript returns the stored transcript text and metadata for a video.
	// Returns ErrTranscriptNotFound if no transcript artifact exists. An entry
	// holding only a partially downloaded audio blob is not a hit.
	ReadTranscript(videoID string) (string, model.Metadata, error)

	// WriteTranscript persists a transcript. The text artifact is fully
	// written before the metadata artifact so a reader never observes
	// metadata without a corresponding transcript.
	WriteTranscript(t *model.Transcript) error

	// AudioPath returns the destination path for a video's transient audio
	// blob, creating the entry directory if absent.
	AudioPath(videoID string) (string, error)

	// RemoveAudio deletes a video's audio blob if present. Best-effort: the
	// blob is not required for correctness once a transcript exists.
	RemoveAudio(videoID string) error

	// EvictExcess keeps the maxItems most recently modified entries and
	// deletes the rest. maxItems of 0 clears every entry.
	EvictExcess(maxItems int) (EvictionReport, error)

	// Count returns the number of entry directories currently present.
	Count() (int, error)

	// Root returns the cache root directory, for status reporting.
	Root() string
}
