package temporal

import (
	"fmt"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/algorithms/windowing"
)

// Onset envelope analysis parameters
const (
	OnsetFFTSize   = 2048
	OnsetHopLength = 512
	onsetTopDB     = 80.0
)

// OnsetDetection computes onset strength envelopes
type OnsetDetection struct {
	spectralFlux *spectral.SpectralFlux
	stft         *spectral.STFT
	window       *windowing.Hann
	fftSize      int
	hopLength    int
}

// NewOnsetDetection creates an onset detector with a 2048-point FFT and 512-sample hop
func NewOnsetDetection() *OnsetDetection {
	return &OnsetDetection{
		spectralFlux: spectral.NewSpectralFlux(),
		stft:         spectral.NewSTFT(),
		window:       windowing.NewPeriodicHann(OnsetFFTSize),
		fftSize:      OnsetFFTSize,
		hopLength:    OnsetHopLength,
	}
}

// HopLength returns the envelope hop in samples
func (od *OnsetDetection) HopLength() int {
	return od.hopLength
}

// Strength returns the onset strength envelope of signal: the mean positive
// log-power spectral flux per centred frame. Frame t is centred on sample
// t*HopLength(), so the envelope has 1 + len(signal)/HopLength() values.
func (od *OnsetDetection) Strength(signal []float64, sampleRate int) ([]float64, error) {
	if len(signal) == 0 {
		return []float64{}, nil
	}

	edge := od.fftSize / 2
	padded := make([]float64, len(signal)+2*edge)
	copy(padded[edge:], signal)

	stftResult, err := od.stft.ComputeWithWindow(padded, od.fftSize, od.hopLength, sampleRate, od.window)
	if err != nil {
		return nil, fmt.Errorf("onset stft: %w", err)
	}

	db := spectral.PowerToDB(stftResult.Power(), onsetTopDB)
	return od.spectralFlux.ComputeMeanPositive(db), nil
}
