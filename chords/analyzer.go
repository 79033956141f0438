// Package chords turns decoded audio into chroma frame tables, aligns them
// with chord annotations and smooths chord predictions by beat.
package chords

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/RyanBlaney/sonido-chords/algorithms/chroma"
	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/chords/annotation"
	"github.com/RyanBlaney/sonido-chords/chords/config"
	"github.com/RyanBlaney/sonido-chords/chords/frames"
	"github.com/RyanBlaney/sonido-chords/chords/smoothing"
	"github.com/RyanBlaney/sonido-chords/logging"
	"github.com/RyanBlaney/sonido-chords/transcode"
)

// Analyzer runs the analysis stages over a decoded signal
type Analyzer struct {
	config   *config.Config
	smoother *smoothing.Smoother
	logger   logging.Logger
}

// NewAnalyzer creates an analyzer. A nil config uses config.Default().
func NewAnalyzer(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Analyzer{
		config:   cfg,
		smoother: smoothing.NewSmoother(nil),
		logger: logging.WithFields(logging.Fields{
			"component": "chord_analyzer",
		}),
	}
}

// WithBeatTracker replaces the beat tracker used by Smooth
func (a *Analyzer) WithBeatTracker(tracker smoothing.BeatTracker) *Analyzer {
	a.smoother = smoothing.NewSmoother(tracker)
	return a
}

// Config returns the analyzer configuration
func (a *Analyzer) Config() *config.Config {
	return a.config
}

// Decode reads an audio file with the configured decoder settings
func (a *Analyzer) Decode(ctx context.Context, path string) (*transcode.AudioData, error) {
	dc := a.config.Decoder
	decoder := transcode.NewDecoder(&transcode.DecoderConfig{
		TargetSampleRate: dc.TargetSampleRate,
		FFmpegPath:       dc.FFmpegPath,
		FFprobePath:      dc.FFprobePath,
		Timeout:          dc.Timeout,
	})
	return decoder.DecodeFile(ctx, path)
}

// Spectrum returns the one-sided magnitude spectrum of the whole signal
func (a *Analyzer) Spectrum(audio *transcode.AudioData) (*spectral.Spectrum, error) {
	spec, err := spectral.MagnitudeSpectrum(audio.PCM, audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("magnitude spectrum: %w", err)
	}
	a.logger.Debug("Computed magnitude spectrum", logging.Fields{
		"bins":        len(spec.Frequencies),
		"sample_rate": audio.SampleRate,
	})
	return spec, nil
}

// TimeFrequency returns the band-limited short-time magnitude map
func (a *Analyzer) TimeFrequency(audio *transcode.AudioData) (*spectral.TimeFrequency, error) {
	tf, err := spectral.TimeFrequencyMap(audio.PCM, audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("time-frequency map: %w", err)
	}
	a.logger.Debug("Computed time-frequency map", logging.Fields{
		"bins":        len(tf.Frequencies),
		"frames":      len(tf.Times),
		"window_size": tf.WindowSize,
		"hop_size":    tf.HopSize,
	})
	return tf, nil
}

// Chromagram returns the 12 x N chromagram of the signal
func (a *Analyzer) Chromagram(audio *transcode.AudioData) ([][]float64, error) {
	cc := a.config.Chroma
	extractor, err := chroma.NewChromaSTFT(audio.SampleRate, cc.FFTSize, cc.HopLength, cc.TuningFreq)
	if err != nil {
		return nil, err
	}

	chromagram, err := extractor.Compute(audio.PCM)
	if err != nil {
		return nil, fmt.Errorf("chromagram: %w", err)
	}

	a.logger.Debug("Computed chromagram", logging.Fields{
		"frames":     len(chromagram[0]),
		"fft_size":   cc.FFTSize,
		"hop_length": cc.HopLength,
	})
	return chromagram, nil
}

// FrameTable computes the chromagram and lays it out as timed frames.
// Sentinel rows are added when the config asks for them.
func (a *Analyzer) FrameTable(audio *transcode.AudioData) (*frames.Table, error) {
	chromagram, err := a.Chromagram(audio)
	if err != nil {
		return nil, err
	}

	fps, frameDuration, err := frames.FrameRate(chromagram, len(audio.PCM), audio.SampleRate)
	if err != nil {
		return nil, err
	}

	var src rand.Source
	if seed := a.config.Frames.Seed; seed != nil {
		src = rand.NewPCG(*seed, *seed)
	}

	table, err := frames.Build(chromagram, frameDuration, a.config.Frames.PadSentinels, src)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Built frame table", logging.Fields{
		"frames":            table.Len(),
		"frames_per_second": fps,
		"sentinels":         a.config.Frames.PadSentinels,
	})
	return table, nil
}

// Align labels every frame of table with the annotation active at its start
func (a *Analyzer) Align(table *frames.Table, annotations annotation.Table) ([]string, error) {
	labels, err := annotation.Align(table.Starts(), annotations, a.config.Alignment.MarkBoundaries)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Aligned annotations", logging.Fields{
		"frames":      len(labels),
		"annotations": len(annotations),
	})
	return labels, nil
}

// Smooth replaces predicted labels, one per frame of table, with the
// majority label of each beat cluster
func (a *Analyzer) Smooth(table *frames.Table, audio *transcode.AudioData, predicted []string) (*smoothing.Result, error) {
	return a.smoother.Smooth(table.Ends(), audio.PCM, audio.SampleRate, predicted, a.config.Smoothing.BeatsPerCluster)
}
