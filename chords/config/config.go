package config

import (
	"fmt"
	"os"
	"time"

	"github.com/RyanBlaney/sonido-chords/logging"
	"gopkg.in/yaml.v3"
)

// EnvLogLevel overrides Config.LogLevel when set
const EnvLogLevel = "SONIDO_LOG_LEVEL"

// Config is the full analysis configuration, loadable from YAML
type Config struct {
	LogLevel  string          `yaml:"log_level" json:"log_level"`
	Chroma    ChromaConfig    `yaml:"chroma" json:"chroma"`
	Frames    FramesConfig    `yaml:"frames" json:"frames"`
	Alignment AlignmentConfig `yaml:"alignment" json:"alignment"`
	Smoothing SmoothingConfig `yaml:"smoothing" json:"smoothing"`
	Decoder   DecoderConfig   `yaml:"decoder" json:"decoder"`
}

// ChromaConfig configures chromagram extraction
type ChromaConfig struct {
	FFTSize    int     `yaml:"fft_size" json:"fft_size"`
	HopLength  int     `yaml:"hop_length" json:"hop_length"`
	TuningFreq float64 `yaml:"tuning_freq" json:"tuning_freq"` // A4 in Hz
}

// FramesConfig configures the frame table
type FramesConfig struct {
	PadSentinels bool    `yaml:"pad_sentinels" json:"pad_sentinels"`
	Seed         *uint64 `yaml:"seed,omitempty" json:"seed,omitempty"` // nil draws a fresh seed per run
}

// AlignmentConfig configures annotation alignment
type AlignmentConfig struct {
	MarkBoundaries bool `yaml:"mark_boundaries" json:"mark_boundaries"`
}

// SmoothingConfig configures beat-synchronous smoothing
type SmoothingConfig struct {
	BeatsPerCluster int `yaml:"beats_per_cluster" json:"beats_per_cluster"`
}

// DecoderConfig configures audio file decoding
type DecoderConfig struct {
	TargetSampleRate int           `yaml:"target_sample_rate" json:"target_sample_rate"` // 0 keeps the source rate
	FFmpegPath       string        `yaml:"ffmpeg_path" json:"ffmpeg_path"`
	FFprobePath      string        `yaml:"ffprobe_path" json:"ffprobe_path"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Chroma: ChromaConfig{
			FFTSize:    4096,
			HopLength:  1024,
			TuningFreq: 440.0,
		},
		Frames: FramesConfig{
			PadSentinels: true,
		},
		Alignment: AlignmentConfig{
			MarkBoundaries: true,
		},
		Smoothing: SmoothingConfig{
			BeatsPerCluster: 1,
		},
		Decoder: DecoderConfig{
			TargetSampleRate: 0,
			FFmpegPath:       "ffmpeg",
			FFprobePath:      "ffprobe",
			Timeout:          30 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Chroma.FFTSize < 2 {
		return fmt.Errorf("chroma.fft_size must be at least 2, got %d", c.Chroma.FFTSize)
	}
	if c.Chroma.HopLength <= 0 {
		return fmt.Errorf("chroma.hop_length must be positive, got %d", c.Chroma.HopLength)
	}
	if c.Chroma.TuningFreq <= 0 {
		return fmt.Errorf("chroma.tuning_freq must be positive, got %g", c.Chroma.TuningFreq)
	}
	if c.Smoothing.BeatsPerCluster < 1 {
		return fmt.Errorf("smoothing.beats_per_cluster must be at least 1, got %d", c.Smoothing.BeatsPerCluster)
	}
	if c.Decoder.TargetSampleRate < 0 {
		return fmt.Errorf("decoder.target_sample_rate must not be negative, got %d", c.Decoder.TargetSampleRate)
	}
	if c.Decoder.Timeout < 0 {
		return fmt.Errorf("decoder.timeout must not be negative, got %s", c.Decoder.Timeout)
	}
	return nil
}

// Level returns the parsed log level
func (c *Config) Level() logging.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = val
	}
}
