package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"BinaryPath", cfg.BinaryPath, "whisper-ctranslate2"},
		{"Model", cfg.Model, "base"},
		{"Language", cfg.Language, "en"},
		{"Device", cfg.Device, "auto"},
		{"ComputeType", cfg.ComputeType, "int8"},
		{"BeamSize", cfg.BeamSize, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, expected %v", tt.got, tt.expected)
			}
		})
	}
}

func TestTranscriber_BuildArgs(t *testing.T) {
	tr := NewTranscriber(Config{Model: "small", Device: "cpu"})
	args := tr.buildArgs("/cache/abcDEF12345/audio.m4a", "/tmp/out")

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"/cache/abcDEF12345/audio.m4a",
		"--model small",
		"--language en",
		"--device cpu",
		"--beam_size 5",
		"--vad_filter True",
		"--output_format json",
		"--output_dir /tmp/out",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected args to contain %q, got %q", want, joined)
		}
	}
}

func TestTranscriber_Transcribe(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "audio.m4a")
	if err := os.WriteFile(audioPath, []byte("fake audio"), 0644); err != nil {
		t.Fatalf("failed to write audio: %v", err)
	}

	tr := NewTranscriber(Config{})
	tr.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		var outDir string
		for i, a := range args {
			if a == "--output_dir" && i+1 < len(args) {
				outDir = args[i+1]
			}
		}
		if outDir == "" {
			t.Fatal("no --output_dir argument passed")
		}
		result := `{
			"text": " hello world this is a test",
			"language": "en",
			"segments": [
				{"start": 0.0, "end": 2.5, "text": " hello world "},
				{"start": 2.5, "end": 4.0, "text": "  this is a test"},
				{"start": 4.0, "end": 4.2, "text": "   "}
			]
		}`
		return nil, os.WriteFile(filepath.Join(outDir, "audio.json"), []byte(result), 0644)
	})

	res, err := tr.Transcribe(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "hello world this is a test" {
		t.Errorf("expected trimmed segments joined by spaces, got %q", res.Text)
	}
	if res.DurationSeconds != 4.2 {
		t.Errorf("expected duration 4.2, got %v", res.DurationSeconds)
	}
	if res.Language != "en" {
		t.Errorf("expected language en, got %q", res.Language)
	}
}

func TestTranscriber_TranscribeEmptySegments(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "audio.m4a")
	if err := os.WriteFile(audioPath, []byte("fake audio"), 0644); err != nil {
		t.Fatalf("failed to write audio: %v", err)
	}

	tr := NewTranscriber(Config{})
	tr.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		for i, a := range args {
			if a == "--output_dir" && i+1 < len(args) {
				result := `{"text": "", "language": "en", "segments": [{"start": 0, "end": 1, "text": "   "}]}`
				return nil, os.WriteFile(filepath.Join(args[i+1], "audio.json"), []byte(result), 0644)
			}
		}
		t.Fatal("no --output_dir argument passed")
		return nil, nil
	})

	res, err := tr.Transcribe(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "" {
		t.Errorf("expected empty text, got %q", res.Text)
	}
}

func TestTranscriber_TranscribeEngineFailure(t *testing.T) {
	tr := NewTranscriber(Config{})
	tr.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("RuntimeError: CUDA out of memory"), errors.New("exit status 1")
	})

	_, err := tr.Transcribe(context.Background(), "/nonexistent/audio.m4a")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "whisper failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTranscriber_ModelName(t *testing.T) {
	tr := NewTranscriber(Config{Model: "large-v3"})
	if tr.ModelName() != "large-v3" {
		t.Errorf("expected large-v3, got %q", tr.ModelName())
	}
}
