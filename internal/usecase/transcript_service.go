package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/ytranscript/internal/domain/model"
	"github.com/hszk-dev/ytranscript/internal/domain/repository"
	"github.com/hszk-dev/ytranscript/internal/infrastructure/metrics"
	"github.com/hszk-dev/ytranscript/internal/retry"
	"github.com/hszk-dev/ytranscript/internal/videoid"
)

var (
	// ErrNoCaptions is returned in captions-only deployments when no usable
	// caption track exists for the video.
	ErrNoCaptions = errors.New("no captions found for video")

	// ErrAudioDownloadFailed is returned when every audio download attempt
	// failed for a reason other than an upstream block.
	ErrAudioDownloadFailed = errors.New("audio download failed")

	// ErrTranscriptionFailed is returned when the speech engine produced an
	// empty transcript or failed outright. Transcription is never retried.
	ErrTranscriptionFailed = errors.New("transcription produced no text")
)

// TranscribeOutput contains the result of a transcript request.
type TranscribeOutput struct {
	VideoID string
	Text    string
	Meta    model.Metadata
	// Cached reports whether the transcript was served from cache rather
	// than freshly computed.
	Cached bool
}

// StatusOutput describes the running deployment for the status endpoint.
type StatusOutput struct {
	CacheDir      string
	CacheItems    int
	Model         string
	CaptionsOnly  bool
	AudioFallback bool
}

// TranscriptService defines the transcript acquisition pipeline.
type TranscriptService interface {
	// Transcribe resolves url to a video key and returns its transcript:
	// cache first, then platform captions, then audio download + speech
	// recognition. Concurrent requests for the same key share one computation.
	Transcribe(ctx context.Context, url string) (*TranscribeOutput, error)

	// CachedTranscript returns the stored transcript text for a video key,
	// or repository.ErrTranscriptNotFound.
	CachedTranscript(videoID string) (string, error)

	// Status reports cache and deployment information.
	Status(ctx context.Context) (*StatusOutput, error)

	// ClearCache evicts every cache entry and returns how many were removed.
	ClearCache(ctx context.Context) (int, error)
}

// TranscriptServiceConfig holds configuration for the pipeline.
type TranscriptServiceConfig struct {
	// Language is the target transcript language.
	Language string
	// CaptionsOnly rejects videos without captions instead of falling back
	// to audio transcription.
	CaptionsOnly bool
	// EnableAudioFallback gates the download-and-transcribe path.
	EnableAudioFallback bool
	// MaxCacheItems bounds the disk cache entry count.
	MaxCacheItems int
	// MemoryCacheTTL is the TTL of the in-memory read-through layer.
	MemoryCacheTTL time.Duration
	// Retry is the audio download retry policy.
	Retry retry.Config
}

// DefaultTranscriptServiceConfig returns the default configuration.
func DefaultTranscriptServiceConfig() TranscriptServiceConfig {
	return TranscriptServiceConfig{
		Language:            "en",
		CaptionsOnly:        false,
		EnableAudioFallback: true,
		MaxCacheItems:       100,
		MemoryCacheTTL:      5 * time.Minute,
		Retry:               retry.DefaultConfig,
	}
}

type transcriptService struct {
	store       repository.TranscriptStore
	captions    repository.CaptionSource
	audio       repository.AudioFetcher
	transcriber repository.Transcriber

	sfGroup  singleflight.Group
	memCache *gocache.Cache
	cfg      TranscriptServiceConfig
}

// NewTranscriptService creates a TranscriptService. The transcriber is
// constructed once during service bootstrap and owned here for the process
// lifetime; there is no lazy model initialization.
func NewTranscriptService(
	store repository.TranscriptStore,
	captions repository.CaptionSource,
	audio repository.AudioFetcher,
	transcriber repository.Transcriber,
	cfg TranscriptServiceConfig,
) TranscriptService {
	return &transcriptService{
		store:       store,
		captions:    captions,
		audio:       audio,
		transcriber: transcriber,
		memCache:    gocache.New(cfg.MemoryCacheTTL, 2*cfg.MemoryCacheTTL),
		cfg:         cfg,
	}
}

// Transcribe implements the pipeline entry point. Requests for the same video
// key are coalesced through singleflight so concurrent first-time requests
// perform the expensive acquisition once.
func (s *transcriptService) Transcribe(ctx context.Context, url string) (*TranscribeOutput, error) {
	id, err := videoid.Extract(url)
	if err != nil {
		return nil, err
	}

	result, err, shared := s.sfGroup.Do(id, func() (any, error) {
		return s.acquire(ctx, id)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}
	return result.(*TranscribeOutput), nil
}

// acquire walks the fallback chain for one video key:
// cache hit → caption hit → (captions-only rejection) → audio download →
// transcription → persist.
func (s *transcriptService) acquire(ctx context.Context, id string) (*TranscribeOutput, error) {
	if out := s.readCached(id); out != nil {
		metrics.TranscriptRequestsTotal.WithLabelValues(string(model.SourceCache), metrics.StatusSuccess).Inc()
		return out, nil
	}

	if text, ok := s.fetchCaptions(ctx, id); ok {
		out := s.persist(id, text, model.Metadata{
			Source:   model.SourceCaptions,
			Model:    model.CaptionsModelMarker,
			Language: s.cfg.Language,
		})
		metrics.TranscriptRequestsTotal.WithLabelValues(string(model.SourceCaptions), metrics.StatusSuccess).Inc()
		return out, nil
	}

	if s.cfg.CaptionsOnly || !s.cfg.EnableAudioFallback {
		metrics.TranscriptRequestsTotal.WithLabelValues(string(model.SourceCaptions), metrics.StatusError).Inc()
		return nil, ErrNoCaptions
	}

	res, err := s.downloadAndTranscribe(ctx, id)
	if err != nil {
		metrics.TranscriptRequestsTotal.WithLabelValues(string(model.SourceSpeechModel), metrics.StatusError).Inc()
		return nil, err
	}

	out := s.persist(id, res.Text, model.Metadata{
		Source:          model.SourceSpeechModel,
		Model:           s.transcriber.ModelName(),
		DurationSeconds: res.DurationSeconds,
		Language:        res.Language,
	})
	s.evict(id)
	metrics.TranscriptRequestsTotal.WithLabelValues(string(model.SourceSpeechModel), metrics.StatusSuccess).Inc()
	return out, nil
}

// readCached checks the in-memory layer, then the disk store. Disk read
// failures other than a miss are logged and treated as a miss.
func (s *transcriptService) readCached(id string) *TranscribeOutput {
	if v, ok := s.memCache.Get(id); ok {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeMemory).Inc()
		out := v.(TranscribeOutput)
		out.Cached = true
		return &out
	}
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeMemory).Inc()

	text, meta, err := s.store.ReadTranscript(id)
	if err != nil {
		if !errors.Is(err, repository.ErrTranscriptNotFound) {
			slog.Warn("cache read failed, recomputing transcript",
				"video_id", id,
				"error", err,
			)
		}
		return nil
	}

	out := TranscribeOutput{VideoID: id, Text: text, Meta: meta, Cached: true}
	s.memCache.SetDefault(id, out)
	return &out
}

// fetchCaptions applies the caption selection policy: manual track in the
// target language, then an auto-generated one, then the first translatable
// track machine-translated. Every failure is non-fatal and falls through.
func (s *transcriptService) fetchCaptions(ctx context.Context, id string) (string, bool) {
	tracks, err := s.captions.ListTracks(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrCaptionsUnavailable) {
			slog.Warn("caption track listing failed",
				"video_id", id,
				"error", err,
			)
		}
		return "", false
	}

	type candidate struct {
		track       repository.CaptionTrack
		translateTo string
	}
	var candidates []candidate

	for _, t := range tracks {
		if t.LanguageCode == s.cfg.Language && !t.AutoGenerated {
			candidates = append(candidates, candidate{track: t})
			break
		}
	}
	for _, t := range tracks {
		if t.LanguageCode == s.cfg.Language && t.AutoGenerated {
			candidates = append(candidates, candidate{track: t})
			break
		}
	}
	if len(candidates) == 0 {
		for _, t := range tracks {
			if t.Translatable {
				candidates = append(candidates, candidate{track: t, translateTo: s.cfg.Language})
				break
			}
		}
	}

	for _, c := range candidates {
		segments, err := s.captions.FetchTrack(ctx, c.track, c.translateTo)
		if err != nil {
			slog.Warn("caption track fetch failed",
				"video_id", id,
				"language", c.track.LanguageCode,
				"error", err,
			)
			continue
		}
		if text := joinSegments(segments); text != "" {
			return text, true
		}
	}
	return "", false
}

// joinSegments concatenates caption segments: each trimmed with inner
// newlines flattened to spaces, empty segments dropped, newline separators.
// An all-whitespace result collapses to "".
func joinSegments(segments []repository.CaptionSegment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(strings.ReplaceAll(seg.Text, "\n", " "))
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

// downloadAndTranscribe runs the retry-wrapped audio fetch and a single
// transcription attempt. No cache entry is created on failure.
func (s *transcriptService) downloadAndTranscribe(ctx context.Context, id string) (*repository.TranscriptionResult, error) {
	audioPath, err := s.store.AudioPath(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioDownloadFailed, err)
	}

	err = retry.Do(ctx, s.cfg.Retry, func(ctx context.Context) error {
		return s.audio.FetchAudio(ctx, id, audioPath)
	})
	if err != nil {
		if errors.Is(err, repository.ErrAudioBlocked) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrAudioDownloadFailed, err)
	}

	res, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return nil, ErrTranscriptionFailed
	}

	// The audio blob is transient; the transcript no longer needs it.
	if err := s.store.RemoveAudio(id); err != nil {
		slog.Warn("failed to remove audio blob",
			"video_id", id,
			"error", err,
		)
	}
	return res, nil
}

// persist writes the fresh transcript to disk and the memory layer. A disk
// write failure is logged but does not fail the request: the transcript was
// already acquired and is still served.
func (s *transcriptService) persist(id, text string, meta model.Metadata) *TranscribeOutput {
	out := TranscribeOutput{VideoID: id, Text: text, Meta: meta, Cached: false}
	out.Meta.VideoID = id

	tr, err := model.NewTranscript(id, text, meta)
	if err != nil {
		slog.Error("invalid transcript not persisted",
			"video_id", id,
			"error", err,
		)
		return &out
	}
	if err := s.store.WriteTranscript(tr); err != nil {
		slog.Error("failed to persist transcript",
			"video_id", id,
			"error", err,
		)
	}
	s.memCache.SetDefault(id, out)
	return &out
}

// evict enforces the entry bound after a fresh transcription write. Cache
// hygiene is best-effort: failures are logged, never surfaced to the request.
func (s *transcriptService) evict(id string) {
	report, err := s.store.EvictExcess(s.cfg.MaxCacheItems)
	if err != nil {
		slog.Warn("cache eviction failed",
			"video_id", id,
			"error", err,
		)
		return
	}
	if report.Removed > 0 {
		metrics.EvictedEntriesTotal.Add(float64(report.Removed))
		slog.Info("evicted cache entries",
			"kept", report.Kept,
			"removed", report.Removed,
		)
	}
	for _, f := range report.Failures {
		slog.Warn("failed to evict cache entry",
			"video_id", f.VideoID,
			"reason", f.Reason,
		)
	}
}

// CachedTranscript returns the stored transcript text for a video key.
func (s *transcriptService) CachedTranscript(videoID string) (string, error) {
	text, _, err := s.store.ReadTranscript(videoID)
	return text, err
}

// Status reports cache and deployment information.
func (s *transcriptService) Status(ctx context.Context) (*StatusOutput, error) {
	count, err := s.store.Count()
	if err != nil {
		return nil, fmt.Errorf("count cache entries: %w", err)
	}
	return &StatusOutput{
		CacheDir:      s.store.Root(),
		CacheItems:    count,
		Model:         s.transcriber.ModelName(),
		CaptionsOnly:  s.cfg.CaptionsOnly,
		AudioFallback: s.cfg.EnableAudioFallback,
	}, nil
}

// ClearCache removes every cache entry and flushes the memory layer.
func (s *transcriptService) ClearCache(ctx context.Context) (int, error) {
	report, err := s.store.EvictExcess(0)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	s.memCache.Flush()
	for _, f := range report.Failures {
		slog.Warn("failed to clear cache entry",
			"video_id", f.VideoID,
			"reason", f.Reason,
		)
	}
	return report.Removed, nil
}
