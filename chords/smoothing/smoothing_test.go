package smoothing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	beats []float64
	err   error
	calls int
}

func (f *fakeTracker) Track(signal []float64, sampleRate int) ([]float64, error) {
	f.calls++
	return f.beats, f.err
}

func TestClusterThresholds(t *testing.T) {
	beats := []float64{0.4, 1, 2, 3}

	assert.Equal(t, []float64{0, 2, 4, 6}, ClusterThresholds(beats, 1))
	assert.Equal(t, []float64{0, 4, 8, 12}, ClusterThresholds(beats, 2))
	assert.Equal(t, []float64{0.4, 1, 2, 3}, beats)
}

func TestDigitize(t *testing.T) {
	thresholds := []float64{0, 2, 4}
	values := []float64{0, 1.9, 2, 3.5, 4, 10}

	assert.Equal(t, []int{1, 1, 2, 2, 3, 3}, Digitize(values, thresholds))
	assert.Equal(t, []int{0}, Digitize([]float64{-1}, thresholds))
}

func TestSmoothMajorityPerCluster(t *testing.T) {
	// thresholds become 0, 2, 4
	tracker := &fakeTracker{beats: []float64{0.3, 1, 2}}
	ends := []float64{0.5, 1, 1.5, 2.5, 3, 3.5, 4.5}
	predicted := []string{"C", "G", "C", "F", "F", "Am", "E"}

	res, err := NewSmoother(tracker).Smooth(ends, nil, 22050, predicted, 1)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 1, 2, 2, 2, 3}, res.Clusters)
	assert.Equal(t, []string{"C", "C", "C", "F", "F", "F", "E"}, res.Labels)
	assert.Equal(t, map[int]string{1: "C", 2: "F", 3: "E"}, res.Majority)
	assert.Equal(t, []float64{0, 2, 4}, res.BeatTimes)
	assert.Equal(t, 1, tracker.calls)
}

func TestSmoothSameClusterSameLabel(t *testing.T) {
	tracker := &fakeTracker{beats: []float64{0, 0.5, 1, 1.5}}
	ends := make([]float64, 40)
	predicted := make([]string, 40)
	names := []string{"C", "G", "Am", "F", "G"}
	for i := range ends {
		ends[i] = float64(i+1) * 0.1
		predicted[i] = names[(i*7)%len(names)]
	}

	res, err := NewSmoother(tracker).Smooth(ends, nil, 22050, predicted, 1)
	require.NoError(t, err)

	byCluster := map[int]string{}
	for i, c := range res.Clusters {
		if prev, ok := byCluster[c]; ok {
			assert.Equal(t, prev, res.Labels[i])
		}
		byCluster[c] = res.Labels[i]
	}
	assert.Len(t, res.Labels, len(ends))
}

func TestSmoothTieBreakIsStable(t *testing.T) {
	tracker := &fakeTracker{beats: []float64{0}}

	a, err := NewSmoother(tracker).Smooth([]float64{1, 2}, nil, 22050, []string{"G", "C"}, 1)
	require.NoError(t, err)
	b, err := NewSmoother(tracker).Smooth([]float64{1, 2}, nil, 22050, []string{"C", "G"}, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "C"}, a.Labels)
	assert.Equal(t, a.Labels, b.Labels)
}

func TestSmoothBeatsPerClusterWidensClusters(t *testing.T) {
	tracker := &fakeTracker{beats: []float64{0, 1, 2}}
	ends := []float64{1, 3, 5}

	one, err := NewSmoother(tracker).Smooth(ends, nil, 22050, []string{"a", "b", "c"}, 1)
	require.NoError(t, err)
	two, err := NewSmoother(tracker).Smooth(ends, nil, 22050, []string{"a", "b", "c"}, 2)
	require.NoError(t, err)

	// thresholds 0,2,4 vs 0,4,8
	assert.Equal(t, []int{1, 2, 3}, one.Clusters)
	assert.Equal(t, []int{1, 1, 2}, two.Clusters)
}

func TestSmoothNoBeats(t *testing.T) {
	_, err := NewSmoother(&fakeTracker{}).Smooth([]float64{1}, nil, 22050, []string{"C"}, 1)
	assert.ErrorIs(t, err, ErrNoBeats)
}

func TestSmoothInputErrors(t *testing.T) {
	tracker := &fakeTracker{beats: []float64{0}}

	_, err := NewSmoother(tracker).Smooth([]float64{1, 2}, nil, 22050, []string{"C"}, 1)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = NewSmoother(tracker).Smooth([]float64{1}, nil, 22050, []string{"C"}, 0)
	assert.ErrorIs(t, err, ErrBeatsPerCluster)

	boom := errors.New("boom")
	_, err = NewSmoother(&fakeTracker{err: boom}).Smooth([]float64{1}, nil, 22050, []string{"C"}, 1)
	assert.ErrorIs(t, err, boom)
}

func TestNewSmootherDefaultsTracker(t *testing.T) {
	s := NewSmoother(nil)
	assert.NotNil(t, s.tracker)
}

func TestSmoothRejectsBadBeatTimes(t *testing.T) {
	tests := []struct {
		name  string
		beats []float64
	}{
		{"descending", []float64{0, 3, 1, 2}},
		{"nan", []float64{0, math.NaN(), 2}},
		{"infinite", []float64{0, 1, math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ends := []float64{0.5, 1, 1.5, 2.5}
			predicted := []string{"C", "C", "G", "G"}

			res, err := NewSmoother(&fakeTracker{beats: tt.beats}).Smooth(ends, nil, 22050, predicted, 1)
			assert.ErrorIs(t, err, ErrBeatOrder)
			assert.Nil(t, res)
		})
	}
}
