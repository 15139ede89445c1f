// Package ytdlp downloads audio-only streams using the yt-dlp CLI.
package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/uuid"

	"github.com/hszk-dev/ytranscript/internal/domain/repository"
	"github.com/hszk-dev/ytranscript/internal/infrastructure/metrics"
)

// Config holds configuration for the yt-dlp audio fetcher.
type Config struct {
	// BinaryPath is the path to the yt-dlp binary.
	// If empty, "yt-dlp" will be used (assumes it's in PATH).
	BinaryPath string

	// AudioFormat is the target container/codec for the extracted audio.
	// Default: m4a
	AudioFormat string
}

// DefaultConfig returns a Config with production-ready defaults.
func DefaultConfig() Config {
	return Config{
		BinaryPath:  "yt-dlp",
		AudioFormat: "m4a",
	}
}

// Fetcher implements AudioFetcher using the yt-dlp CLI.
type Fetcher struct {
	config Config

	// commandRunner can be swapped in tests; returns combined output.
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Compile-time verification that Fetcher implements AudioFetcher.
var _ repository.AudioFetcher = (*Fetcher)(nil)

// NewFetcher creates a yt-dlp based audio fetcher.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "yt-dlp"
	}
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = "m4a"
	}
	return &Fetcher{config: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (f *Fetcher) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	f.commandRunner = runner
}

// FetchAudio downloads the best audio-only stream for videoID, transcoded to
// the configured format, and moves it into destPath, overwriting any stale
// file there. The download lands in a uniquely named scratch file first so a
// concurrent reader never observes a torn blob at destPath.
func (f *Fetcher) FetchAudio(ctx context.Context, videoID, destPath string) error {
	watchURL := "https://www.youtube.com/watch?v=" + videoID

	scratchBase := destPath + ".dl-" + uuid.NewString()
	scratchPath := scratchBase + "." + f.config.AudioFormat

	args := f.buildArgs(watchURL, scratchBase)
	output, err := f.run(ctx, f.config.BinaryPath, args...)
	if err != nil {
		_ = os.Remove(scratchPath)
		metrics.AudioFetchAttemptsTotal.WithLabelValues(metrics.StatusError).Inc()
		if ctx.Err() != nil {
			return fmt.Errorf("audio download cancelled: %w", ctx.Err())
		}
		if isAccessDenied(string(output)) {
			return fmt.Errorf("%w: %s", repository.ErrAudioBlocked, summarize(output))
		}
		return fmt.Errorf("yt-dlp failed: %s: %w", summarize(output), err)
	}

	if err := os.Rename(scratchPath, destPath); err != nil {
		_ = os.Remove(scratchPath)
		metrics.AudioFetchAttemptsTotal.WithLabelValues(metrics.StatusError).Inc()
		return fmt.Errorf("move audio into place: %w", err)
	}

	metrics.AudioFetchAttemptsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	return nil
}

// buildArgs constructs the yt-dlp command arguments. The output template gets
// yt-dlp's extension appended, so the final scratch file is outBase.<format>.
func (f *Fetcher) buildArgs(url, outBase string) []string {
	return []string{
		"-f", "bestaudio/best",
		"--extract-audio",
		"--audio-format", f.config.AudioFormat,
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"-o", outBase + ".%(ext)s",
		url,
	}
}

func (f *Fetcher) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if f.commandRunner != nil {
		return f.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// deniedMarkers are yt-dlp output fragments indicating the upstream refused
// access, as opposed to a transient failure. Both retry identically; the
// distinction only changes the terminal error classification.
var deniedMarkers = []string{
	"HTTP Error 403",
	"Forbidden",
	"Sign in to confirm",
	"This video is private",
	"account associated with this video has been terminated",
}

func isAccessDenied(output string) bool {
	for _, marker := range deniedMarkers {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}

// summarize trims command output to a single short line for error wrapping.
func summarize(output []byte) string {
	s := strings.TrimSpace(string(output))
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		s = strings.TrimSpace(s[idx+1:])
	}
	const maxLen = 200
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	if s == "" {
		return "no output"
	}
	return s
}
