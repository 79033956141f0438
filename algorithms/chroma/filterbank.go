package chroma

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	centerOctave = 5.0
	octaveWidth  = 2.0
)

// FilterBank builds the NumPitchClasses x (fftSize/2+1) matrix that maps a
// power spectrum onto pitch classes, rows ordered C..B.
func FilterBank(sampleRate, fftSize int, tuningFreq float64) *mat.Dense {
	const n = float64(NumPitchClasses)

	// fractional chroma position of every FFT bin, counted from A0
	a0 := tuningFreq / 16
	position := make([]float64, fftSize)
	for i := 1; i < fftSize; i++ {
		freq := float64(i) * float64(sampleRate) / float64(fftSize)
		position[i] = n * math.Log2(freq/a0)
	}
	// DC gets a position 1.5 octaves below the first bin
	position[0] = position[1] - 1.5*n

	binWidth := make([]float64, fftSize)
	for i := 0; i < fftSize-1; i++ {
		binWidth[i] = math.Max(position[i+1]-position[i], 1)
	}
	binWidth[fftSize-1] = 1

	halfChroma := math.Round(n / 2)
	weights := make([][]float64, NumPitchClasses)
	for c := range weights {
		weights[c] = make([]float64, fftSize)
		for i := range fftSize {
			d := position[i] - float64(c)
			d = positiveMod(d+halfChroma+10*n, n) - halfChroma
			x := 2 * d / binWidth[i]
			weights[c][i] = math.Exp(-0.5 * x * x)
		}
	}

	column := make([]float64, NumPitchClasses)
	for i := range fftSize {
		for c := range column {
			column[c] = weights[c][i]
		}
		norm := floats.Norm(column, 2)

		octave := (position[i]/n - centerOctave) / octaveWidth
		gain := math.Exp(-0.5 * octave * octave)
		if norm > tinyNorm {
			gain /= norm
		}
		for c := range column {
			weights[c][i] *= gain
		}
	}

	// rows were counted from A; rotate so C comes first
	const shift = 3
	bins := fftSize/2 + 1
	bank := mat.NewDense(NumPitchClasses, bins, nil)
	for c := range NumPitchClasses {
		bank.SetRow(c, weights[(c+shift)%NumPitchClasses][:bins])
	}

	return bank
}

func positiveMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
