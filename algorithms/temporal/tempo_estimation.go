package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"gonum.org/v1/gonum/floats"
)

// Tempo search range and prior
const (
	MinTempo   = 30.0
	MaxTempo   = 320.0
	PriorTempo = 120.0
)

// TempoEstimation estimates a global tempo from an onset envelope
type TempoEstimation struct {
	fft        *spectral.FFT
	startBPM   float64
	stdOctaves float64
}

// NewTempoEstimation creates a tempo estimator with a log-normal prior
// centred on 120 BPM and one octave wide
func NewTempoEstimation() *TempoEstimation {
	return &TempoEstimation{
		fft:        spectral.NewFFT(),
		startBPM:   PriorTempo,
		stdOctaves: 1.0,
	}
}

// EstimatePeriod returns the beat period in envelope frames maximising the
// prior-weighted autocorrelation of envelope, and the matching BPM.
// It returns 0, 0 when no lag in the tempo range has positive correlation.
func (te *TempoEstimation) EstimatePeriod(envelope []float64, framesPerSecond float64) (int, float64) {
	if len(envelope) < 3 || framesPerSecond <= 0 {
		return 0, 0
	}

	minLag := max(1, int(math.Floor(60*framesPerSecond/MaxTempo)))
	maxLag := min(len(envelope)-1, int(math.Ceil(60*framesPerSecond/MinTempo)))
	if minLag > maxLag {
		return 0, 0
	}

	autocorr := te.calculateAutocorrelation(envelope, maxLag+1)

	bestLag := 0
	bestScore := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		bpm := 60 * framesPerSecond / float64(lag)
		if bpm < MinTempo || bpm > MaxTempo {
			continue
		}
		z := (math.Log2(bpm) - math.Log2(te.startBPM)) / te.stdOctaves
		score := autocorr[lag] * math.Exp(-0.5*z*z)
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return 0, 0
	}
	return bestLag, 60 * framesPerSecond / float64(bestLag)
}

// calculateAutocorrelation calculates the unbiased autocorrelation for
// lags [0, maxLag), normalised so lag 0 is 1. The lag sums come from the
// inverse FFT of the power spectrum of the zero-padded signal.
func (te *TempoEstimation) calculateAutocorrelation(signal []float64, maxLag int) []float64 {
	n := len(signal)
	maxLag = min(maxLag, n)
	if maxLag <= 0 {
		return []float64{}
	}

	size := 1
	for size < 2*n-1 {
		size <<= 1
	}
	padded := make([]float64, size)
	copy(padded, signal)

	spectrum := te.fft.Compute(padded)
	for k, v := range spectrum {
		spectrum[k] = complex(real(v)*real(v)+imag(v)*imag(v), 0)
	}
	sums := te.fft.ComputeInverseReal(spectrum)

	autocorr := make([]float64, maxLag)
	for lag := range maxLag {
		autocorr[lag] = sums[lag] / float64(n-lag)
	}

	if autocorr[0] > 0 {
		floats.Scale(1/autocorr[0], autocorr)
	}

	return autocorr
}
