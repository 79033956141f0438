package spectral

import (
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-chords/algorithms/windowing"
	"gonum.org/v1/gonum/floats"
)

// Band limits and analysis window of the time-frequency map
const (
	AnalysisWindowMs = 24.0
	BandMinHz        = 700.0
	BandMaxHz        = 3000.0
)

// Spectrum is a one-sided magnitude spectrum
type Spectrum struct {
	Frequencies []float64 `json:"frequencies"` // Hz, bin k = k*sampleRate/N
	Amplitudes  []float64 `json:"amplitudes"`  // |X[k]| / (N/2)
}

// TimeFrequency is a band-limited STFT magnitude map
type TimeFrequency struct {
	Frequencies []float64   `json:"frequencies"` // Hz, strictly inside (BandMinHz, BandMaxHz)
	Times       []float64   `json:"times"`       // seconds, spanning the signal duration
	Magnitude   [][]float64 `json:"magnitude"`   // Frequency x Time
	WindowSize  int         `json:"window_size"`
	HopSize     int         `json:"hop_size"`
}

// MagnitudeSpectrum computes the non-negative half of the DFT of signal.
// An odd-length signal loses its last sample so the bins split evenly at Nyquist.
func MagnitudeSpectrum(signal []float64, sampleRate int) (*Spectrum, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	n := len(signal) - len(signal)%2
	half := n / 2
	result := &Spectrum{
		Frequencies: make([]float64, half),
		Amplitudes:  make([]float64, half),
	}
	if n == 0 {
		return result, nil
	}

	transform := NewFFT().Compute(signal[:n])
	for k := range half {
		result.Frequencies[k] = float64(k) * float64(sampleRate) / float64(n)
		result.Amplitudes[k] = cmplx.Abs(transform[k])
	}
	floats.Scale(1/float64(half), result.Amplitudes)

	return result, nil
}

// TimeFrequencyMap computes a ~24 ms Hann STFT of signal restricted to the
// 700-3000 Hz band. Frames overlap by half a window and the signal is
// zero-padded by half a window at both ends, then at the tail so the last
// frame is complete. Magnitudes are scaled by the window sum.
func TimeFrequencyMap(signal []float64, sampleRate int) (*TimeFrequency, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if len(signal) == 0 {
		return &TimeFrequency{}, nil
	}

	windowSize := max(1, int(math.Round(AnalysisWindowMs*float64(sampleRate)/1000)))
	windowSize = min(windowSize, len(signal))
	hopSize := windowSize - windowSize/2

	padded := padBoundary(signal, windowSize, hopSize)
	window := windowing.NewPeriodicHann(windowSize)

	stft, err := NewSTFT().ComputeWithWindow(padded, windowSize, hopSize, sampleRate, window)
	if err != nil {
		return nil, err
	}

	scale := window.Sum()
	if scale == 0 {
		scale = 1
	}

	var bins []int
	var freqs []float64
	for k := range stft.FreqBins {
		f := float64(k) * float64(sampleRate) / float64(windowSize)
		if f > BandMinHz && f < BandMaxHz {
			bins = append(bins, k)
			freqs = append(freqs, f)
		}
	}

	magnitude := make([][]float64, len(bins))
	for i, k := range bins {
		row := make([]float64, stft.TimeFrames)
		for t := range stft.TimeFrames {
			row[t] = stft.Magnitude[t][k] / scale
		}
		magnitude[i] = row
	}

	duration := float64(len(signal)) / float64(sampleRate)

	return &TimeFrequency{
		Frequencies: freqs,
		Times:       linspace(0, duration, stft.TimeFrames),
		Magnitude:   magnitude,
		WindowSize:  windowSize,
		HopSize:     hopSize,
	}, nil
}

// padBoundary surrounds signal with windowSize/2 zeros and extends the tail
// so that (len-windowSize) is a multiple of hopSize
func padBoundary(signal []float64, windowSize, hopSize int) []float64 {
	edge := windowSize / 2
	length := len(signal) + 2*edge
	if rem := (length - windowSize) % hopSize; rem != 0 {
		length += hopSize - rem
	}

	padded := make([]float64, length)
	copy(padded[edge:], signal)
	return padded
}

func linspace(start, end float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, end)
}
