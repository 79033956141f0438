package chroma

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/algorithms/windowing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NumPitchClasses is the fixed number of chroma rows
const NumPitchClasses = 12

// PitchClasses is the canonical row order of every chromagram
var PitchClasses = [NumPitchClasses]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Default extraction parameters
const (
	DefaultFFTSize    = 4096
	DefaultHopLength  = 1024
	DefaultTuningFreq = 440.0
)

// smallest normal float64; columns with a smaller norm are left untouched
const tinyNorm = 2.2250738585072014e-308

var ErrEmptySignal = errors.New("empty signal")

// ChromaSTFT computes chromagrams from a power spectrogram.
//
// Frames are centred: the signal is zero-padded by half an FFT on each
// side, so a signal of L samples yields 1 + L/hop frames. Each FFT bin is
// spread over neighbouring pitch classes by a Gaussian filter bank folded
// into one octave and weighted towards the middle of the keyboard.
type ChromaSTFT struct {
	sampleRate int
	fftSize    int
	hopLength  int
	tuningFreq float64 // A4 frequency
	stft       *spectral.STFT
	window     *windowing.Hann
	filterBank *mat.Dense // NumPitchClasses x (fftSize/2+1)
}

// NewChromaSTFT creates a chroma extractor with explicit parameters
func NewChromaSTFT(sampleRate, fftSize, hopLength int, tuningFreq float64) (*ChromaSTFT, error) {
	if sampleRate <= 0 {
		return nil, spectral.ErrInvalidSampleRate
	}
	if fftSize < 2 || hopLength <= 0 {
		return nil, fmt.Errorf("invalid chroma parameters: fft size %d, hop %d", fftSize, hopLength)
	}
	if tuningFreq <= 0 {
		return nil, fmt.Errorf("tuning frequency must be positive, got %g", tuningFreq)
	}

	return &ChromaSTFT{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		hopLength:  hopLength,
		tuningFreq: tuningFreq,
		stft:       spectral.NewSTFT(),
		window:     windowing.NewPeriodicHann(fftSize),
		filterBank: FilterBank(sampleRate, fftSize, tuningFreq),
	}, nil
}

// NewChromaSTFTDefault uses a 4096-point FFT, 1024-sample hop and A4=440Hz
func NewChromaSTFTDefault(sampleRate int) (*ChromaSTFT, error) {
	return NewChromaSTFT(sampleRate, DefaultFFTSize, DefaultHopLength, DefaultTuningFreq)
}

// HopLength returns the hop between frames in samples
func (cs *ChromaSTFT) HopLength() int {
	return cs.hopLength
}

// Compute returns a NumPitchClasses x N chromagram of signal with every
// column L2-normalised.
func (cs *ChromaSTFT) Compute(signal []float64) ([][]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}

	edge := cs.fftSize / 2
	padded := make([]float64, len(signal)+2*edge)
	copy(padded[edge:], signal)

	stftResult, err := cs.stft.ComputeWithWindow(padded, cs.fftSize, cs.hopLength, cs.sampleRate, cs.window)
	if err != nil {
		return nil, fmt.Errorf("chroma stft: %w", err)
	}

	frames := stftResult.TimeFrames
	bins := stftResult.FreqBins

	// Time x Frequency power, used transposed as Frequency x Time
	power := mat.NewDense(frames, bins, nil)
	for t, row := range stftResult.Power() {
		power.SetRow(t, row)
	}

	var projected mat.Dense
	projected.Mul(cs.filterBank, power.T())

	chromagram := make([][]float64, NumPitchClasses)
	for c := range NumPitchClasses {
		chromagram[c] = mat.Row(nil, c, &projected)
	}

	column := make([]float64, NumPitchClasses)
	for t := range frames {
		for c := range NumPitchClasses {
			column[c] = chromagram[c][t]
		}
		norm := floats.Norm(column, 2)
		if norm <= tinyNorm {
			continue
		}
		for c := range NumPitchClasses {
			chromagram[c][t] /= norm
		}
	}

	return chromagram, nil
}

// DominantPitchClass returns the index of the strongest pitch class per frame
func DominantPitchClass(chromagram [][]float64) []int {
	if len(chromagram) == 0 {
		return []int{}
	}

	dominant := make([]int, len(chromagram[0]))
	for t := range dominant {
		best := 0
		for c := 1; c < len(chromagram); c++ {
			if chromagram[c][t] > chromagram[best][t] {
				best = c
			}
		}
		dominant[t] = best
	}
	return dominant
}
