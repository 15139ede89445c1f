package repository

import "context"

// TranscriptionResult holds the speech engine's output for one audio file.
type TranscriptionResult struct {
	// Text is the concatenated transcript.
	Text string
	// DurationSeconds is the engine-reported audio duration, if known.
	DurationSeconds float64
	// Language is the engine-reported language, if known.
	Language string
}

// Transcriber runs speech-to-text over a local audio file.
// Implementations should be provided by the infrastructure layer.
type Transcriber interface {
	// Transcribe converts the audio at audioPath to text. One attempt per
	// request: callers do not retry transcription.
	Transcribe(ctx context.Context, audioPath string) (*TranscriptionResult, error)

	// ModelName identifies the engine model, recorded as transcript provenance.
	ModelName() string
}
