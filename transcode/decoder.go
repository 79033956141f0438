package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-chords/logging"
)

var ErrNoSamples = errors.New("no audio samples decoded")

// AudioData is a decoded, mono-downmixed signal
type AudioData struct {
	PCM        []float64     `json:"-"` // mono samples in [-1, 1]
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"` // channel count of the source before downmix
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source"`
	Codec      string        `json:"codec"`
}

// Seconds returns the signal duration in seconds
func (a *AudioData) Seconds() float64 {
	if a.SampleRate <= 0 {
		return 0
	}
	return float64(len(a.PCM)) / float64(a.SampleRate)
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"` // 0 keeps the source rate
	FFmpegPath       string        `json:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout"` // per ffmpeg/ffprobe invocation, 0 for none
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 0,
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          30 * time.Second,
	}
}

// Decoder reads audio files into mono float64 signals. PCM WAV files are
// read natively; everything else, and WAV files that need resampling, go
// through ffmpeg.
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}
}

// DecodeFile decodes the audio file at path
func (d *Decoder) DecodeFile(ctx context.Context, path string) (*AudioData, error) {
	logger := d.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": path,
	})
	logger.Debug("Starting audio file decode")

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		audioData, err := d.decodeWAVFile(path)
		switch {
		case err == nil && d.needsResample(audioData.SampleRate):
			logger.Debug("WAV sample rate differs from target, using ffmpeg", logging.Fields{
				"source_rate": audioData.SampleRate,
				"target_rate": d.config.TargetSampleRate,
			})
		case err == nil:
			logger.Debug("Decoded WAV natively", logging.Fields{
				"samples":     len(audioData.PCM),
				"sample_rate": audioData.SampleRate,
				"channels":    audioData.Channels,
			})
			return audioData, nil
		case errors.Is(err, ErrUnsupportedWAV):
			logger.Debug("WAV encoding not handled natively, using ffmpeg", logging.Fields{
				"reason": err.Error(),
			})
		default:
			return nil, err
		}
	}

	return d.decodeWithFFmpeg(ctx, path, logger)
}

func (d *Decoder) needsResample(sourceRate int) bool {
	return d.config.TargetSampleRate > 0 && d.config.TargetSampleRate != sourceRate
}

func (d *Decoder) decodeWAVFile(path string) (*AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	audioData, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	audioData.Source = path
	return audioData, nil
}

func durationOf(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
