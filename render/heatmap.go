// Package render draws analysis matrices as grayscale PNG heatmaps.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrEmptyMatrix = errors.New("nothing to render: empty matrix")

// Heatmap builds a grayscale image of a rows x cols matrix. Column j maps
// to x = j and row 0 is drawn at the bottom, so a frequency x time map
// reads with time left to right and low frequencies at the bottom.
// Brightness is linear in the value relative to the matrix maximum;
// negative values are drawn black.
func Heatmap(matrix [][]float64) (*image.Gray, error) {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil, ErrEmptyMatrix
	}

	rows, cols := len(matrix), len(matrix[0])
	peak := 0.0
	for i, row := range matrix {
		if len(row) != cols {
			return nil, fmt.Errorf("ragged matrix: row %d has %d columns, want %d", i, len(row), cols)
		}
		peak = math.Max(peak, floats.Max(row))
	}

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	if peak == 0 {
		return img, nil
	}

	for i, row := range matrix {
		y := rows - 1 - i
		for j, v := range row {
			intensity := math.Floor(255 * math.Max(v, 0) / peak)
			img.SetGray(j, y, color.Gray{Y: uint8(intensity)})
		}
	}
	return img, nil
}

// WritePNG encodes the heatmap of matrix as PNG
func WritePNG(w io.Writer, matrix [][]float64) error {
	img, err := Heatmap(matrix)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
