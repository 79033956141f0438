package spectral

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SpectralFlux measures frame-to-frame spectral change
type SpectralFlux struct{}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// ComputeMeanPositive returns, for every frame of a Time x Frequency
// spectrogram, the mean of the positive bin increases over the previous
// frame. The result has one value per frame; frame 0 is always 0.
func (sf *SpectralFlux) ComputeMeanPositive(spectrogram [][]float64) []float64 {
	flux := make([]float64, len(spectrogram))

	for t := 1; t < len(spectrogram); t++ {
		bins := len(spectrogram[t])
		if bins == 0 {
			continue
		}
		sum := 0.0
		for f := range bins {
			if diff := spectrogram[t][f] - spectrogram[t-1][f]; diff > 0 {
				sum += diff
			}
		}
		flux[t] = sum / float64(bins)
	}

	return flux
}

// PowerToDB converts a power spectrogram to decibels relative to its
// maximum, clipped topDB below the peak. Input is not modified.
func PowerToDB(power [][]float64, topDB float64) [][]float64 {
	const amin = 1e-10

	peak := amin
	for _, frame := range power {
		if len(frame) > 0 {
			peak = math.Max(peak, floats.Max(frame))
		}
	}
	ref := 10 * math.Log10(peak)

	db := make([][]float64, len(power))
	for t, frame := range power {
		db[t] = make([]float64, len(frame))
		for f, p := range frame {
			db[t][f] = math.Max(10*math.Log10(math.Max(p, amin))-ref, -topDB)
		}
	}
	return db
}
