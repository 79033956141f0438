// Package frames turns a chromagram into a time-stamped frame table.
package frames

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/RyanBlaney/sonido-chords/algorithms/chroma"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sentinel row parameters
const (
	StartSentinelMean = 0.0
	EndSentinelMean   = -1.0
	SentinelStdDev    = 0.01
	// EndSentinelGap separates the end sentinel from the last real frame, in seconds
	EndSentinelGap = 0.01
)

var (
	ErrEmptyInput    = errors.New("empty input")
	ErrShape         = errors.New("chromagram must have 12 rows of equal length")
	ErrFrameDuration = errors.New("frame duration must be positive and finite")
	ErrNotContiguous = errors.New("frames are not contiguous")
)

// Kind tells real frames from boundary sentinels
type Kind int

const (
	Regular Kind = iota
	StartSentinel
	EndSentinel
)

func (k Kind) String() string {
	switch k {
	case Regular:
		return "regular"
	case StartSentinel:
		return "start"
	case EndSentinel:
		return "end"
	default:
		return "unknown"
	}
}

// Frame is one row of the table: pitch-class energies in chroma.PitchClasses
// order plus the frame's time interval in seconds
type Frame struct {
	Chroma [chroma.NumPitchClasses]float64 `json:"chroma"`
	Start  float64                         `json:"start"`
	End    float64                         `json:"end"`
	Kind   Kind                            `json:"kind"`
}

// Table is a time-ordered sequence of frames
type Table struct {
	Frames []Frame `json:"frames"`
}

// Len returns the number of rows including sentinels
func (t *Table) Len() int {
	return len(t.Frames)
}

// Starts returns the start time of every row
func (t *Table) Starts() []float64 {
	out := make([]float64, len(t.Frames))
	for i, f := range t.Frames {
		out[i] = f.Start
	}
	return out
}

// Ends returns the end time of every row
func (t *Table) Ends() []float64 {
	out := make([]float64, len(t.Frames))
	for i, f := range t.Frames {
		out[i] = f.End
	}
	return out
}

// CheckContiguous verifies that each regular frame ends where the next
// regular frame starts
func (t *Table) CheckContiguous() error {
	prev := -1
	for i, f := range t.Frames {
		if f.Kind != Regular {
			continue
		}
		if prev >= 0 && t.Frames[prev].End != f.Start {
			return fmt.Errorf("%w: row %d ends at %g, row %d starts at %g",
				ErrNotContiguous, prev, t.Frames[prev].End, i, f.Start)
		}
		prev = i
	}
	return nil
}

// Build transposes a 12 x N chromagram into N frames of frameDuration
// seconds each. With padSentinels a synthetic start row (energies drawn
// from N(0, 0.01), start = end = 0) is prepended and a synthetic end row
// (energies from N(-1, 0.01), start = end = last end + 0.01) appended.
// src drives the sentinel draws; nil uses a time-seeded generator.
func Build(chromagram [][]float64, frameDuration float64, padSentinels bool, src rand.Source) (*Table, error) {
	if len(chromagram) != chroma.NumPitchClasses {
		return nil, fmt.Errorf("%w: got %d rows", ErrShape, len(chromagram))
	}
	if !(frameDuration > 0) || math.IsInf(frameDuration, 1) {
		return nil, fmt.Errorf("%w: %g", ErrFrameDuration, frameDuration)
	}

	n := len(chromagram[0])
	for c, row := range chromagram {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, c, len(row), n)
		}
	}
	if padSentinels && n == 0 {
		return nil, fmt.Errorf("%w: cannot place sentinels around zero frames", ErrEmptyInput)
	}

	capacity := n
	if padSentinels {
		capacity += 2
	}
	rows := make([]Frame, 0, capacity)

	if padSentinels {
		if src == nil {
			src = rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())
		}
		rows = append(rows, sentinel(StartSentinel, StartSentinelMean, 0, src))
	}

	for i := range n {
		var f Frame
		for c := range chroma.NumPitchClasses {
			f.Chroma[c] = chromagram[c][i]
		}
		// end of frame i is computed like start of frame i+1 so rows tile exactly
		f.Start = float64(i) * frameDuration
		f.End = float64(i+1) * frameDuration
		rows = append(rows, f)
	}

	if padSentinels {
		at := rows[len(rows)-1].End + EndSentinelGap
		rows = append(rows, sentinel(EndSentinel, EndSentinelMean, at, src))
	}

	return &Table{Frames: rows}, nil
}

func sentinel(kind Kind, mean, at float64, src rand.Source) Frame {
	dist := distuv.Normal{Mu: mean, Sigma: SentinelStdDev, Src: src}
	f := Frame{Start: at, End: at, Kind: kind}
	for c := range f.Chroma {
		f.Chroma[c] = dist.Rand()
	}
	return f
}
