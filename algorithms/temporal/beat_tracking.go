package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
	"github.com/RyanBlaney/sonido-chords/algorithms/stats"
	"github.com/RyanBlaney/sonido-chords/algorithms/windowing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultTightness penalises beat intervals that stray from the tempo period
const DefaultTightness = 100.0

// BeatTracker places beats with dynamic programming over an onset
// strength envelope: every frame scores its local onset strength plus the
// best earlier beat between half and two periods back, penalised by the
// squared log-ratio of the gap to the period.
type BeatTracker struct {
	onsets    *OnsetDetection
	tempo     *TempoEstimation
	tightness float64
}

// NewBeatTracker creates a beat tracker with the default tightness
func NewBeatTracker() *BeatTracker {
	return &BeatTracker{
		onsets:    NewOnsetDetection(),
		tempo:     NewTempoEstimation(),
		tightness: DefaultTightness,
	}
}

// Track returns the beat times of signal in seconds, ascending.
// An empty result means the signal has no usable rhythmic content.
func (bt *BeatTracker) Track(signal []float64, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, spectral.ErrInvalidSampleRate
	}

	frames, err := bt.TrackFrames(signal, sampleRate)
	if err != nil {
		return nil, err
	}

	hop := float64(bt.onsets.HopLength())
	times := make([]float64, len(frames))
	for i, f := range frames {
		times[i] = float64(f) * hop / float64(sampleRate)
	}
	return times, nil
}

// TrackFrames returns beat positions as onset-envelope frame indices
func (bt *BeatTracker) TrackFrames(signal []float64, sampleRate int) ([]int, error) {
	envelope, err := bt.onsets.Strength(signal, sampleRate)
	if err != nil {
		return nil, err
	}
	if len(envelope) < 2 || floats.Max(envelope) <= 0 {
		return []int{}, nil
	}

	framesPerSecond := float64(sampleRate) / float64(bt.onsets.HopLength())
	period, _ := bt.tempo.EstimatePeriod(envelope, framesPerSecond)
	if period == 0 {
		return []int{}, nil
	}

	return bt.trackEnvelope(envelope, period), nil
}

func (bt *BeatTracker) trackEnvelope(envelope []float64, period int) []int {
	std := stat.StdDev(envelope, nil)
	if std <= 0 {
		return []int{}
	}
	normalized := make([]float64, len(envelope))
	floats.ScaleTo(normalized, 1/std, envelope)

	localScore := convolveSame(normalized, gaussianKernel(period))
	backlink, cumScore := bt.dynamicProgram(localScore, period)

	beats := []int{lastBeat(cumScore)}
	for backlink[beats[len(beats)-1]] >= 0 {
		beats = append(beats, backlink[beats[len(beats)-1]])
	}
	for i, j := 0, len(beats)-1; i < j; i, j = i+1, j-1 {
		beats[i], beats[j] = beats[j], beats[i]
	}

	return trimBeats(localScore, beats)
}

func (bt *BeatTracker) dynamicProgram(localScore []float64, period int) ([]int, []float64) {
	n := len(localScore)
	backlink := make([]int, n)
	cumScore := make([]float64, n)

	// candidate predecessors lie between 2 periods and half a period back
	farthest := 2 * period
	nearest := max(1, int(math.Round(float64(period)/2)))

	penalty := make([]float64, farthest-nearest+1)
	for k := range penalty {
		gap := float64(farthest - k)
		l := math.Log(gap / float64(period))
		penalty[k] = -bt.tightness * l * l
	}

	scoreFloor := 0.01 * floats.Max(localScore)
	firstBeat := true

	for i := range n {
		bestScore := math.Inf(-1)
		bestPrev := -1
		for k := range penalty {
			prev := i - farthest + k
			score := penalty[k]
			if prev >= 0 {
				score += cumScore[prev]
			}
			if score > bestScore {
				bestScore = score
				bestPrev = prev
			}
		}

		cumScore[i] = localScore[i] + bestScore

		if firstBeat && localScore[i] < scoreFloor {
			backlink[i] = -1
		} else {
			backlink[i] = bestPrev
			firstBeat = false
		}
	}

	return backlink, cumScore
}

// lastBeat picks the last local maximum of the cumulative score that is
// above half the median of all local maxima
func lastBeat(cumScore []float64) int {
	n := len(cumScore)
	isMax := make([]bool, n)
	var peaks []float64
	for i := range n {
		left := i == 0 || cumScore[i] > cumScore[i-1]
		right := i == n-1 || cumScore[i] >= cumScore[i+1]
		if i > 0 && left && right {
			isMax[i] = true
			peaks = append(peaks, cumScore[i])
		}
	}

	if len(peaks) == 0 {
		return floats.MaxIdx(cumScore)
	}

	threshold := 0.5 * stats.Median(peaks)
	for i := n - 1; i >= 0; i-- {
		if isMax[i] && cumScore[i] > threshold {
			return i
		}
	}
	return floats.MaxIdx(cumScore)
}

// trimWindow smooths beat strengths before edge trimming
var trimWindow = windowing.NewHann(5, true)

// trimBeats drops weak leading and trailing beats: those whose smoothed
// local score is at or below half the RMS of the smoothed scores
func trimBeats(localScore []float64, beats []int) []int {
	if len(beats) == 0 {
		return beats
	}

	atBeats := make([]float64, len(beats))
	for i, b := range beats {
		atBeats[i] = localScore[b]
	}
	smooth := convolveSame(atBeats, trimWindow.Coefficients())

	sumSq := 0.0
	for _, v := range smooth {
		sumSq += v * v
	}
	threshold := 0.5 * math.Sqrt(sumSq/float64(len(smooth)))

	start := 0
	for start < len(smooth) && smooth[start] <= threshold {
		start++
	}
	end := len(smooth)
	for end > start && smooth[end-1] <= threshold {
		end--
	}
	if start >= end {
		return beats
	}
	return beats[start:end]
}

func gaussianKernel(period int) []float64 {
	kernel := make([]float64, 2*period+1)
	for i := range kernel {
		x := float64(i-period) * 32 / float64(period)
		kernel[i] = math.Exp(-0.5 * x * x)
	}
	return kernel
}

// convolveSame returns the centre len(x) samples of the full convolution
func convolveSame(x, kernel []float64) []float64 {
	out := make([]float64, len(x))
	offset := (len(kernel) - 1) / 2
	for i := range x {
		sum := 0.0
		for k, w := range kernel {
			j := i + offset - k
			if j >= 0 && j < len(x) {
				sum += x[j] * w
			}
		}
		out[i] = sum
	}
	return out
}
