// Package whisper runs speech-to-text using the faster-whisper CLI
// (whisper-ctranslate2). The engine writes a JSON result file which is parsed
// into a plain transcript.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hszk-dev/ytranscript/internal/domain/repository"
)

// Config holds configuration for the whisper transcriber.
type Config struct {
	// BinaryPath is the path to the whisper-ctranslate2 binary.
	// If empty, "whisper-ctranslate2" will be used (assumes it's in PATH).
	BinaryPath string

	// Model is the faster-whisper model identifier.
	// Default: base
	Model string

	// Language is the fixed transcription language.
	// Default: en
	Language string

	// Device selects the compute device (auto, cpu, cuda).
	// Default: auto
	Device string

	// ComputeType selects numeric precision (int8, float16, ...).
	// Default: int8
	ComputeType string

	// BeamSize is the decoder search beam width.
	// Default: 5
	BeamSize int
}

// DefaultConfig returns a Config with production-ready defaults.
func DefaultConfig() Config {
	return Config{
		BinaryPath:  "whisper-ctranslate2",
		Model:       "base",
		Language:    "en",
		Device:      "auto",
		ComputeType: "int8",
		BeamSize:    5,
	}
}

// Transcriber implements repository.Transcriber using the faster-whisper CLI.
// Construct one instance at service bootstrap and share it; the model is
// loaded per invocation by the CLI, so the instance itself is stateless.
type Transcriber struct {
	config Config

	// commandRunner can be swapped in tests; returns combined output.
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Compile-time verification that Transcriber implements repository.Transcriber.
var _ repository.Transcriber = (*Transcriber)(nil)

// NewTranscriber creates a faster-whisper based transcriber.
func NewTranscriber(cfg Config) *Transcriber {
	def := DefaultConfig()
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = def.BinaryPath
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.Device == "" {
		cfg.Device = def.Device
	}
	if cfg.ComputeType == "" {
		cfg.ComputeType = def.ComputeType
	}
	if cfg.BeamSize == 0 {
		cfg.BeamSize = def.BeamSize
	}
	return &Transcriber{config: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Transcriber) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	t.commandRunner = runner
}

// ModelName returns the configured model identifier.
func (t *Transcriber) ModelName() string {
	return t.config.Model
}

// engineResult is the JSON document the CLI writes next to the audio file.
type engineResult struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe runs the engine over audioPath and returns the concatenated
// segment text. One attempt only; callers treat an empty result as fatal.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (*repository.TranscriptionResult, error) {
	outDir, err := os.MkdirTemp("", "whisper-")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	args := t.buildArgs(audioPath, outDir)
	if output, err := t.run(ctx, t.config.BinaryPath, args...); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("transcription cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("whisper failed: %s: %w", firstLine(output), err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	resultPath := filepath.Join(outDir, baseName+".json")

	data, err := os.ReadFile(resultPath)
	if err != nil {
		return nil, fmt.Errorf("read engine output: %w", err)
	}
	var res engineResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode engine output: %w", err)
	}

	parts := make([]string, 0, len(res.Segments))
	var duration float64
	for _, seg := range res.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
		if seg.End > duration {
			duration = seg.End
		}
	}

	return &repository.TranscriptionResult{
		Text:            strings.Join(parts, " "),
		DurationSeconds: duration,
		Language:        res.Language,
	}, nil
}

// buildArgs constructs the CLI arguments: fixed language, VAD filtering on,
// fixed beam width, JSON output into outDir.
func (t *Transcriber) buildArgs(audioPath, outDir string) []string {
	return []string{
		audioPath,
		"--model", t.config.Model,
		"--language", t.config.Language,
		"--device", t.config.Device,
		"--compute_type", t.config.ComputeType,
		"--beam_size", strconv.Itoa(t.config.BeamSize),
		"--vad_filter", "True",
		"--output_format", "json",
		"--output_dir", outDir,
	}
}

func (t *Transcriber) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if t.commandRunner != nil {
		return t.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

func firstLine(output []byte) string {
	s := strings.TrimSpace(string(output))
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if s == "" {
		return "no output"
	}
	return s
}
