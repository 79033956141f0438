package temporal

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-chords/algorithms/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

const testSampleRate = 22050

// clickTrack places a short decaying 1 kHz burst every interval samples
func clickTrack(n, interval int) []float64 {
	out := make([]float64, n)
	burst := testSampleRate / 50
	for start := 0; start < n; start += interval {
		for i := 0; i < burst && start+i < n; i++ {
			decay := math.Exp(-float64(i) / float64(burst/5))
			out[start+i] = decay * math.Sin(2*math.Pi*1000*float64(i)/testSampleRate)
		}
	}
	return out
}

func TestOnsetStrengthLength(t *testing.T) {
	od := NewOnsetDetection()

	env, err := od.Strength(make([]float64, 10000), testSampleRate)
	require.NoError(t, err)
	assert.Len(t, env, 1+10000/OnsetHopLength)

	env, err = od.Strength(nil, testSampleRate)
	require.NoError(t, err)
	assert.Empty(t, env)
}

func TestOnsetStrengthPeaksAtClicks(t *testing.T) {
	od := NewOnsetDetection()
	interval := 22 * OnsetHopLength

	env, err := od.Strength(clickTrack(8*testSampleRate, interval), testSampleRate)
	require.NoError(t, err)

	// the envelope right around the third click beats the gap between clicks
	click := 2 * interval / OnsetHopLength
	peak := math.Max(env[click], math.Max(env[click-1], env[click+1]))
	assert.Greater(t, peak, env[click+11])
}

func TestEstimatePeriodFindsClickSpacing(t *testing.T) {
	od := NewOnsetDetection()
	env, err := od.Strength(clickTrack(8*testSampleRate, 22*OnsetHopLength), testSampleRate)
	require.NoError(t, err)

	period, bpm := NewTempoEstimation().EstimatePeriod(env, float64(testSampleRate)/OnsetHopLength)

	assert.InDelta(t, 22, period, 1)
	assert.InDelta(t, 117.5, bpm, 6)
}

func TestEstimatePeriodDegenerate(t *testing.T) {
	te := NewTempoEstimation()

	period, bpm := te.EstimatePeriod([]float64{1, 2}, 43)
	assert.Zero(t, period)
	assert.Zero(t, bpm)

	period, _ = te.EstimatePeriod(make([]float64, 200), 43)
	assert.Zero(t, period)
}

func TestTrackClickTrack(t *testing.T) {
	interval := 22 * OnsetHopLength
	beats, err := NewBeatTracker().Track(clickTrack(8*testSampleRate, interval), testSampleRate)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(beats), 8)

	gaps := make([]float64, len(beats)-1)
	for i := range gaps {
		gaps[i] = beats[i+1] - beats[i]
		assert.Greater(t, gaps[i], 0.0)
	}

	want := float64(interval) / testSampleRate
	assert.InDelta(t, want, stats.Median(gaps), 0.03)
}

func TestTrackSilenceHasNoBeats(t *testing.T) {
	beats, err := NewBeatTracker().Track(make([]float64, 4*testSampleRate), testSampleRate)
	require.NoError(t, err)
	assert.Empty(t, beats)
}

func TestTrackInvalidRate(t *testing.T) {
	_, err := NewBeatTracker().Track([]float64{1}, 0)
	assert.Error(t, err)
}

func TestConvolveSame(t *testing.T) {
	out := convolveSame([]float64{0, 0, 1, 0, 0}, []float64{1, 2, 3})
	assert.Equal(t, []float64{0, 1, 2, 3, 0}, out)
}

func TestTrimBeatsDropsWeakEdges(t *testing.T) {
	local := make([]float64, 100)
	beats := []int{0, 20, 40, 60, 80}
	local[20], local[40], local[60] = 10, 10, 10

	trimmed := trimBeats(local, beats)

	assert.Equal(t, []int{20, 40, 60}, trimmed)
}

func TestAutocorrelationMatchesDirectSum(t *testing.T) {
	signal := []float64{1, 3, -2, 0.5, 4, -1, 2}
	got := NewTempoEstimation().calculateAutocorrelation(signal, 5)
	require.Len(t, got, 5)

	want := make([]float64, 5)
	for lag := range want {
		sum := 0.0
		for i := 0; i+lag < len(signal); i++ {
			sum += signal[i] * signal[i+lag]
		}
		want[lag] = sum / float64(len(signal)-lag)
	}
	floats.Scale(1/want[0], want)

	assert.InDeltaSlice(t, want, got, 1e-9)
}

func TestTrimWindowIsSymmetricHann(t *testing.T) {
	assert.Equal(t, 5, trimWindow.Size())
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5, 0}, trimWindow.Coefficients(), 1e-12)
}
