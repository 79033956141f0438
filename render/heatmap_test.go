package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeatmapOrientationAndScale(t *testing.T) {
	img, err := Heatmap([][]float64{
		{0, 1, 2},
		{4, -1, 0},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	// row 0 is the bottom line of the image
	assert.Equal(t, uint8(0), img.GrayAt(0, 1).Y)
	assert.Equal(t, uint8(63), img.GrayAt(1, 1).Y)
	assert.Equal(t, uint8(127), img.GrayAt(2, 1).Y)
	assert.Equal(t, uint8(255), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), img.GrayAt(1, 0).Y)
}

func TestHeatmapAllZero(t *testing.T) {
	img, err := Heatmap([][]float64{{0, 0}, {0, 0}})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), img.GrayAt(1, 1).Y)
}

func TestHeatmapErrors(t *testing.T) {
	_, err := Heatmap(nil)
	assert.ErrorIs(t, err, ErrEmptyMatrix)

	_, err = Heatmap([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestWritePNGDecodes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, [][]float64{{1, 2, 3, 4}}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
}
