package spectral

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-chords/algorithms/windowing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 8000

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestMagnitudeSpectrumShape(t *testing.T) {
	for _, n := range []int{2, 64, 100, 1000} {
		spec, err := MagnitudeSpectrum(sine(440, testSampleRate, n), testSampleRate)
		require.NoError(t, err)

		require.Len(t, spec.Frequencies, n/2)
		require.Len(t, spec.Amplitudes, n/2)
		assert.Equal(t, 0.0, spec.Frequencies[0])
		assert.Less(t, spec.Frequencies[len(spec.Frequencies)-1], float64(testSampleRate)/2)
		for i := 1; i < len(spec.Frequencies); i++ {
			assert.Greater(t, spec.Frequencies[i], spec.Frequencies[i-1])
		}
	}
}

func TestMagnitudeSpectrumOddLengthTruncates(t *testing.T) {
	spec, err := MagnitudeSpectrum(make([]float64, 101), testSampleRate)
	require.NoError(t, err)

	assert.Len(t, spec.Amplitudes, 50)
	assert.InDelta(t, float64(testSampleRate)/100, spec.Frequencies[1], 1e-9)
}

func TestMagnitudeSpectrumPeakAmplitude(t *testing.T) {
	// 1000 Hz sits exactly on bin 125 for N=1000 at 8 kHz
	spec, err := MagnitudeSpectrum(sine(1000, testSampleRate, 1000), testSampleRate)
	require.NoError(t, err)

	assert.InDelta(t, 1000.0, spec.Frequencies[125], 1e-9)
	assert.InDelta(t, 1.0, spec.Amplitudes[125], 1e-6)
	assert.InDelta(t, 0.0, spec.Amplitudes[40], 1e-6)
}

func TestMagnitudeSpectrumEmpty(t *testing.T) {
	spec, err := MagnitudeSpectrum(nil, testSampleRate)
	require.NoError(t, err)
	assert.Empty(t, spec.Frequencies)
	assert.Empty(t, spec.Amplitudes)

	spec, err = MagnitudeSpectrum([]float64{1}, testSampleRate)
	require.NoError(t, err)
	assert.Empty(t, spec.Amplitudes)
}

func TestMagnitudeSpectrumInvalidRate(t *testing.T) {
	_, err := MagnitudeSpectrum([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}

func TestTimeFrequencyMapBandAndTimes(t *testing.T) {
	signal := sine(1500, testSampleRate, testSampleRate) // one second
	tf, err := TimeFrequencyMap(signal, testSampleRate)
	require.NoError(t, err)

	// round(24 * 8000 / 1000) = 192 samples, hop 96
	assert.Equal(t, 192, tf.WindowSize)
	assert.Equal(t, 96, tf.HopSize)

	require.NotEmpty(t, tf.Frequencies)
	for _, f := range tf.Frequencies {
		assert.Greater(t, f, BandMinHz)
		assert.Less(t, f, BandMaxHz)
	}
	require.Len(t, tf.Magnitude, len(tf.Frequencies))

	// 8000 + 2*96 = 8192, tail-padded to 8256 -> (8256-192)/96 + 1 frames
	assert.Len(t, tf.Times, 85)
	assert.Equal(t, 0.0, tf.Times[0])
	assert.InDelta(t, 1.0, tf.Times[len(tf.Times)-1], 1e-12)
	for _, row := range tf.Magnitude {
		assert.Len(t, row, len(tf.Times))
	}
}

func TestTimeFrequencyMapPeakAtToneFrequency(t *testing.T) {
	signal := sine(1500, testSampleRate, testSampleRate)
	tf, err := TimeFrequencyMap(signal, testSampleRate)
	require.NoError(t, err)

	mid := len(tf.Times) / 2
	best := 0
	for i := range tf.Magnitude {
		if tf.Magnitude[i][mid] > tf.Magnitude[best][mid] {
			best = i
		}
	}
	assert.InDelta(t, 1500.0, tf.Frequencies[best], float64(testSampleRate)/192)
	// a unit sine scaled by the window sum peaks near 0.5
	assert.InDelta(t, 0.5, tf.Magnitude[best][mid], 0.05)
}

func TestTimeFrequencyMapEmpty(t *testing.T) {
	tf, err := TimeFrequencyMap(nil, testSampleRate)
	require.NoError(t, err)
	assert.Empty(t, tf.Times)

	_, err = TimeFrequencyMap([]float64{1}, -1)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}

func TestSTFTRejectsShortSignal(t *testing.T) {
	_, err := NewSTFT().ComputeWithWindow(make([]float64, 10), 16, 4, testSampleRate, nil)
	assert.Error(t, err)
}

func TestSTFTFrameCount(t *testing.T) {
	res, err := NewSTFT().ComputeWithWindow(make([]float64, 1024), 256, 128, testSampleRate, nil)
	require.NoError(t, err)

	assert.Equal(t, 7, res.TimeFrames)
	assert.Equal(t, 129, res.FreqBins)
	assert.Len(t, res.Power(), 7)
}

func TestSTFTRejectsMismatchedWindow(t *testing.T) {
	_, err := NewSTFT().ComputeWithWindow(make([]float64, 1024), 256, 128, testSampleRate, windowing.NewPeriodicHann(128))
	assert.Error(t, err)

	_, err = NewSTFT().ComputeWithWindow(make([]float64, 1024), 256, 128, testSampleRate, windowing.NewPeriodicHann(256))
	assert.NoError(t, err)
}
