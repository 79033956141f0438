// Package smoothing replaces per-frame chord predictions with the
// majority label of the beat cluster each frame falls into.
package smoothing

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/RyanBlaney/sonido-chords/algorithms/stats"
	"github.com/RyanBlaney/sonido-chords/algorithms/temporal"
	"github.com/RyanBlaney/sonido-chords/logging"
)

// beatTimeScale multiplies beat times, together with beats per cluster,
// before clustering
const beatTimeScale = 2.0

var (
	ErrNoBeats         = errors.New("no beats detected: insufficient rhythmic content")
	ErrLengthMismatch  = errors.New("predicted labels do not match frame count")
	ErrBeatsPerCluster = errors.New("beats per cluster must be at least 1")
	ErrBeatOrder       = errors.New("beat times must be finite and ascending")
)

// BeatTracker finds beat times, in seconds, in a signal
type BeatTracker interface {
	Track(signal []float64, sampleRate int) ([]float64, error)
}

// Smoother clusters frames by beat and votes within each cluster
type Smoother struct {
	tracker BeatTracker
	logger  logging.Logger
}

// NewSmoother creates a smoother. A nil tracker uses temporal.BeatTracker.
func NewSmoother(tracker BeatTracker) *Smoother {
	if tracker == nil {
		tracker = temporal.NewBeatTracker()
	}
	return &Smoother{
		tracker: tracker,
		logger: logging.WithFields(logging.Fields{
			"component": "beat_smoother",
		}),
	}
}

// Result holds the smoothed labels and the clustering behind them
type Result struct {
	Labels    []string       `json:"labels"`
	Clusters  []int          `json:"clusters"`   // cluster id per frame
	Majority  map[int]string `json:"majority"`   // label per cluster id
	BeatTimes []float64      `json:"beat_times"` // scaled cluster thresholds
}

// Smooth tracks beats in signal and returns one label per frame end time:
// the most common predicted label among frames in the same beat cluster.
func (s *Smoother) Smooth(ends []float64, signal []float64, sampleRate int, predicted []string, beatsPerCluster int) (*Result, error) {
	if len(predicted) != len(ends) {
		return nil, fmt.Errorf("%w: %d labels, %d frames", ErrLengthMismatch, len(predicted), len(ends))
	}
	if beatsPerCluster < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrBeatsPerCluster, beatsPerCluster)
	}

	beats, err := s.tracker.Track(signal, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("beat tracking: %w", err)
	}
	if len(beats) == 0 {
		s.logger.Warn("Beat tracker returned no beats", logging.Fields{
			"samples":     len(signal),
			"sample_rate": sampleRate,
		})
		return nil, ErrNoBeats
	}

	if err := checkBeats(beats); err != nil {
		return nil, err
	}

	thresholds := ClusterThresholds(beats, beatsPerCluster)
	clusters := Digitize(ends, thresholds)
	majority := stats.GroupModes(clusters, predicted)

	labels := make([]string, len(clusters))
	for i, c := range clusters {
		labels[i] = majority[c]
	}

	s.logger.Debug("Smoothed predictions by beat", logging.Fields{
		"frames":            len(ends),
		"beats":             len(beats),
		"clusters":          len(majority),
		"beats_per_cluster": beatsPerCluster,
	})

	return &Result{
		Labels:    labels,
		Clusters:  clusters,
		Majority:  majority,
		BeatTimes: thresholds,
	}, nil
}

func checkBeats(beats []float64) error {
	for i, b := range beats {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return fmt.Errorf("%w: beat %d at %g", ErrBeatOrder, i, b)
		}
	}
	if !sort.Float64sAreSorted(beats) {
		return fmt.Errorf("%w: %v", ErrBeatOrder, beats)
	}
	return nil
}

// ClusterThresholds scales beat times by 2*beatsPerCluster and pins the
// first threshold to 0. Input is not modified.
func ClusterThresholds(beatTimes []float64, beatsPerCluster int) []float64 {
	scale := beatTimeScale * float64(beatsPerCluster)
	thresholds := make([]float64, len(beatTimes))
	for i, b := range beatTimes {
		thresholds[i] = b * scale
	}
	if len(thresholds) > 0 {
		thresholds[0] = 0
	}
	return thresholds
}

// Digitize assigns each value the number of thresholds that are <= it.
// thresholds must be ascending.
func Digitize(values, thresholds []float64) []int {
	bins := make([]int, len(values))
	for i, v := range values {
		bins[i] = sort.Search(len(thresholds), func(j int) bool { return thresholds[j] > v })
	}
	return bins
}
