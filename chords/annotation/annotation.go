// Package annotation aligns chord annotations to chromagram frames.
package annotation

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Boundary labels written over the first and last frame
const (
	StartLabel = "<START>"
	EndLabel   = "<END>"
)

var (
	ErrEmptyAnnotations   = errors.New("annotation table is empty")
	ErrUnsorted           = errors.New("annotation table is not sorted by start time")
	ErrNonFiniteStart     = errors.New("annotation start time is not a finite number")
	ErrNoMatchingInterval = errors.New("no annotation interval starts at or before frame")
)

// Entry labels the interval from Start to the next entry's Start
// (or to infinity for the last entry)
type Entry struct {
	Start float64 `json:"start"`
	Label string  `json:"label"`
}

// Table is a chord annotation sorted ascending by Start
type Table []Entry

// Validate checks the table is non-empty, has finite start times and is
// sorted by start time
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyAnnotations
	}
	for i, e := range t {
		if math.IsNaN(e.Start) || math.IsInf(e.Start, 0) {
			return fmt.Errorf("%w: entry %d starts at %g", ErrNonFiniteStart, i, e.Start)
		}
	}
	for i := 1; i < len(t); i++ {
		if t[i].Start < t[i-1].Start {
			return fmt.Errorf("%w: entry %d starts at %g after entry %d at %g",
				ErrUnsorted, i, t[i].Start, i-1, t[i-1].Start)
		}
	}
	return nil
}

// Lookup returns the index of the last entry whose start is <= at.
// The table must already be valid.
func (t Table) Lookup(at float64) (int, error) {
	if math.IsNaN(at) {
		return -1, fmt.Errorf("%w: t=NaN", ErrNoMatchingInterval)
	}
	// first entry strictly after at; the one before it is the match
	idx := sort.Search(len(t), func(i int) bool { return t[i].Start > at }) - 1
	if idx < 0 {
		return -1, fmt.Errorf("%w: t=%g precedes first annotation at %g", ErrNoMatchingInterval, at, t[0].Start)
	}
	return idx, nil
}

// LabelAt returns the label covering time at
func (t Table) LabelAt(at float64) (string, error) {
	idx, err := t.Lookup(at)
	if err != nil {
		return "", err
	}
	return t[idx].Label, nil
}

// Align labels each frame start with the annotation interval containing it.
// With markBoundaries the first label becomes StartLabel and then the last
// becomes EndLabel, whatever the lookup produced.
func Align(starts []float64, table Table, markBoundaries bool) ([]string, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	labels := make([]string, len(starts))
	for i, at := range starts {
		label, err := table.LabelAt(at)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		labels[i] = label
	}

	if markBoundaries && len(labels) > 0 {
		labels[0] = StartLabel
		labels[len(labels)-1] = EndLabel
	}

	return labels, nil
}
