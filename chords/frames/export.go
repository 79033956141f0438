package frames

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/RyanBlaney/sonido-chords/algorithms/chroma"
)

// CSVHeader is the column layout written by WriteCSV
func CSVHeader() []string {
	header := make([]string, 0, chroma.NumPitchClasses+2)
	header = append(header, chroma.PitchClasses[:]...)
	return append(header, "start", "end")
}

// WriteCSV writes one line per row, pitch classes first then start and end.
// labels, when non-nil, adds a trailing "label" column and must match the row count.
func (t *Table) WriteCSV(w io.Writer, labels []string) error {
	if labels != nil && len(labels) != len(t.Frames) {
		return fmt.Errorf("got %d labels for %d rows", len(labels), len(t.Frames))
	}

	cw := csv.NewWriter(w)

	header := CSVHeader()
	if labels != nil {
		header = append(header, "label")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i, f := range t.Frames {
		for c, v := range f.Chroma {
			record[c] = formatFloat(v)
		}
		record[chroma.NumPitchClasses] = formatFloat(f.Start)
		record[chroma.NumPitchClasses+1] = formatFloat(f.End)
		if labels != nil {
			record[chroma.NumPitchClasses+2] = labels[i]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
