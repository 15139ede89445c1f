package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	Audio    AudioConfig
	Whisper  WhisperConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	Port        int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	// The audio fallback path downloads and transcribes synchronously, so
	// the write timeout has to cover whole-video processing.
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"15m"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type CacheConfig struct {
	Dir       string        `envconfig:"CACHE_DIR" default:"./cache"`
	MaxItems  int           `envconfig:"CACHE_MAX_ITEMS" default:"100"`
	MemoryTTL time.Duration `envconfig:"CACHE_MEMORY_TTL" default:"5m"`
}

type AudioConfig struct {
	YtdlpPath string `envconfig:"YTDLP_PATH" default:"yt-dlp"`
	Format    string `envconfig:"AUDIO_FORMAT" default:"m4a"`
}

type WhisperConfig struct {
	BinaryPath  string `envconfig:"WHISPER_PATH" default:"whisper-ctranslate2"`
	Model       string `envconfig:"WHISPER_MODEL" default:"base"`
	Device      string `envconfig:"WHISPER_DEVICE" default:"auto"`
	ComputeType string `envconfig:"WHISPER_COMPUTE_TYPE" default:"int8"`
}

type PipelineConfig struct {
	Language      string `envconfig:"TRANSCRIPT_LANGUAGE" default:"en"`
	CaptionsOnly  bool   `envconfig:"CAPTIONS_ONLY" default:"false"`
	AudioFallback bool   `envconfig:"AUDIO_FALLBACK" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
