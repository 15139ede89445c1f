// Package diskcache implements the transcript store as a bounded directory
// of per-video cache entries. The filesystem is the source of truth: entry
// recency is tracked by directory mtime, so the cache survives restarts with
// no separate index.
package diskcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hszk-dev/ytranscript/internal/domain/model"
	"github.com/hszk-dev/ytranscript/internal/domain/repository"
	"github.com/hszk-dev/ytranscript/internal/infrastructure/metrics"
)

const (
	transcriptFileName = "transcript.txt"
	metaFileName       = "meta.json"
	// AudioFileName is the transient audio blob inside an entry directory.
	AudioFileName = "audio.m4a"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Store is a TranscriptStore backed by one root directory with a
// subdirectory per video ID.
type Store struct {
	root string
}

// Compile-time verification that Store implements TranscriptStore.
var _ repository.TranscriptStore = (*Store)(nil)

// New creates a Store rooted at dir, creating it if absent.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) entryDir(videoID string) string {
	return filepath.Join(s.root, videoID)
}

func (s *Store) ensureEntryDir(videoID string) (string, error) {
	dir := s.entryDir(videoID)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create cache entry: %w", err)
	}
	return dir, nil
}

// ReadTranscript returns the cached transcript and metadata for videoID.
// An entry without a transcript artifact (e.g., only a mid-pipeline audio
// blob) is reported as not found.
func (s *Store) ReadTranscript(videoID string) (string, model.Metadata, error) {
	text, err := os.ReadFile(filepath.Join(s.entryDir(videoID), transcriptFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeDisk).Inc()
			return "", model.Metadata{}, repository.ErrTranscriptNotFound
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeDisk).Inc()
		return "", model.Metadata{}, fmt.Errorf("read transcript: %w", err)
	}

	meta := s.readMeta(videoID)
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeDisk).Inc()
	return string(text), meta, nil
}

// readMeta loads metadata for an entry, tolerating absent or corrupt files:
// a transcript with unreadable metadata is still served, attributed to the cache.
func (s *Store) readMeta(videoID string) model.Metadata {
	meta := model.Metadata{VideoID: videoID, Source: model.SourceCache}
	data, err := os.ReadFile(filepath.Join(s.entryDir(videoID), metaFileName))
	if err != nil {
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return model.Metadata{VideoID: videoID, Source: model.SourceCache}
	}
	return meta
}

// WriteTranscript persists the transcript text, then its metadata. Ordering
// matters: a reader must never observe metadata without a transcript.
func (s *Store) WriteTranscript(t *model.Transcript) error {
	dir, err := s.ensureEntryDir(t.VideoID)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeDisk).Inc()
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, transcriptFileName), []byte(t.Text), filePerm); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeDisk).Inc()
		return fmt.Errorf("write transcript: %w", err)
	}

	data, err := json.MarshalIndent(t.Meta, "", "  ")
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeDisk).Inc()
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metaFileName), data, filePerm); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeDisk).Inc()
		return fmt.Errorf("write metadata: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeDisk).Inc()
	return nil
}

// AudioPath returns the audio blob destination for videoID, creating the
// entry directory if needed.
func (s *Store) AudioPath(videoID string) (string, error) {
	dir, err := s.ensureEntryDir(videoID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AudioFileName), nil
}

// RemoveAudio deletes the audio blob for videoID if present.
func (s *Store) RemoveAudio(videoID string) error {
	err := os.Remove(filepath.Join(s.entryDir(videoID), AudioFileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove audio: %w", err)
	}
	return nil
}

type entryInfo struct {
	videoID string
	modTime time.Time
}

// listEntries returns all entry directories with their last-modified times.
func (s *Store) listEntries() ([]entryInfo, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache root: %w", err)
	}

	entries := make([]entryInfo, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entryInfo{videoID: de.Name(), modTime: info.ModTime()})
	}
	return entries, nil
}

// EvictExcess keeps the maxItems most recently modified entries and deletes
// the rest. Deletion failures for individual entries are collected in the
// report and do not abort the pass.
func (s *Store) EvictExcess(maxItems int) (repository.EvictionReport, error) {
	if maxItems < 0 {
		maxItems = 0
	}

	entries, err := s.listEntries()
	if err != nil {
		return repository.EvictionReport{}, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.After(entries[j].modTime)
	})

	report := repository.EvictionReport{}
	if len(entries) <= maxItems {
		report.Kept = len(entries)
		return report, nil
	}

	report.Kept = maxItems
	for _, e := range entries[maxItems:] {
		if err := os.RemoveAll(s.entryDir(e.videoID)); err != nil {
			report.Failures = append(report.Failures, repository.EvictionFailure{
				VideoID: e.videoID,
				Reason:  err.Error(),
			})
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheTypeDisk).Inc()
			continue
		}
		report.Removed++
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeDisk).Inc()
	}
	return report, nil
}

// Count returns the number of entry directories present.
func (s *Store) Count() (int, error) {
	entries, err := s.listEntries()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
