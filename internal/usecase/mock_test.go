package usecase

import (
	"context"

	"github.com/hszk-dev/ytranscript/internal/domain/model"
	"github.com/hszk-dev/ytranscript/internal/domain/repository"
)

// mockTranscriptStore provides a configurable mock for TranscriptStore.
type mockTranscriptStore struct {
	readTranscriptFn  func(videoID string) (string, model.Metadata, error)
	writeTranscriptFn func(t *model.Transcript) error
	audioPathFn       func(videoID string) (string, error)
	removeAudioFn     func(videoID string) error
	evictExcessFn     func(maxItems int) (repository.EvictionReport, error)
	countFn           func() (int, error)
}

func (m *mockTranscriptStore) ReadTranscript(videoID string) (string, model.Metadata, error) {
	if m.readTranscriptFn != nil {
		return m.readTranscriptFn(videoID)
	}
	return "", model.Metadata{}, repository.ErrTranscriptNotFound
}

func (m *mockTranscriptStore) WriteTranscript(t *model.Transcript) error {
	if m.writeTranscriptFn != nil {
		return m.writeTranscriptFn(t)
	}
	return nil
}

func (m *mockTranscriptStore) AudioPath(videoID string) (string, error) {
	if m.audioPathFn != nil {
		return m.audioPathFn(videoID)
	}
	return "/tmp/" + videoID + "/audio.m4a", nil
}

func (m *mockTranscriptStore) RemoveAudio(videoID string) error {
	if m.removeAudioFn != nil {
		return m.removeAudioFn(videoID)
	}
	return nil
}

func (m *mockTranscriptStore) EvictExcess(maxItems int) (repository.EvictionReport, error) {
	if m.evictExcessFn != nil {
		return m.evictExcessFn(maxItems)
	}
	return repository.EvictionReport{}, nil
}

func (m *mockTranscriptStore) Count() (int, error) {
	if m.countFn != nil {
		return m.countFn()
	}
	return 0, nil
}

func (m *mockTranscriptStore) Root() string {
	return "/tmp/cache"
}

// mockCaptionSource provides a configurable mock for CaptionSource.
type mockCaptionSource struct {
	listTracksFn func(ctx context.Context, videoID string) ([]repository.CaptionTrack, error)
	fetchTrackFn func(ctx context.Context, track repository.CaptionTrack, translateTo string) ([]repository.CaptionSegment, error)
}

func (m *mockCaptionSource) ListTracks(ctx context.Context, videoID string) ([]repository.CaptionTrack, error) {
	if m.listTracksFn != nil {
		return m.listTracksFn(ctx, videoID)
	}
	return nil, repository.ErrCaptionsUnavailable
}

func (m *mockCaptionSource) FetchTrack(ctx context.Context, track repository.CaptionTrack, translateTo string) ([]repository.CaptionSegment, error) {
	if m.fetchTrackFn != nil {
		return m.fetchTrackFn(ctx, track, translateTo)
	}
	return nil, nil
}

// mockAudioFetcher provides a configurable mock for AudioFetcher.
type mockAudioFetcher struct {
	fetchAudioFn func(ctx context.Context, videoID, destPath string) error
}

func (m *mockAudioFetcher) FetchAudio(ctx context.Context, videoID, destPath string) error {
	if m.fetchAudioFn != nil {
		return m.fetchAudioFn(ctx, videoID, destPath)
	}
	return nil
}

// mockTranscriber provides a configurable mock for Transcriber.
type mockTranscriber struct {
	transcribeFn func(ctx context.Context, audioPath string) (*repository.TranscriptionResult, error)
	modelName    string
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string) (*repository.TranscriptionResult, error) {
	if m.transcribeFn != nil {
		return m.transcribeFn(ctx, audioPath)
	}
	return &repository.TranscriptionResult{Text: "transcribed text"}, nil
}

func (m *mockTranscriber) ModelName() string {
	if m.modelName != "" {
		return m.modelName
	}
	return "base"
}
