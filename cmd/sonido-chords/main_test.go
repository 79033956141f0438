package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeToneWAV(t *testing.T, dir string) string {
	t.Helper()
	const sampleRate = 22050
	path := filepath.Join(dir, "tone.wav")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	data := make([]int, sampleRate/2)
	for i := range data {
		data[i] = int(8000 * math.Sin(2*math.Pi*440*float64(i)/sampleRate))
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestAlignCommand(t *testing.T) {
	dir := t.TempDir()
	wavPath := writeToneWAV(t, dir)
	labPath := filepath.Join(dir, "song.lab")
	require.NoError(t, os.WriteFile(labPath, []byte("0.0 0.25 A\n0.25 0.5 E\n"), 0o644))
	outPath := filepath.Join(dir, "aligned.csv")

	rootCmd.SetArgs([]string{"align", wavPath, "--annotations", labPath, "--output", outPath})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	records := readCSV(t, outPath)
	header := records[0]
	assert.Equal(t, []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B", "start", "end", "label"}, header)

	// 11025 samples, hop 1024: 11 centred frames between two sentinel rows
	require.Len(t, records, 14)
	assert.Equal(t, "<START>", records[1][14])
	assert.Equal(t, "A", records[2][14])
	assert.Equal(t, "E", records[12][14])
	assert.Equal(t, "<END>", records[13][14])
}

func TestParsePredictions(t *testing.T) {
	labels, err := parsePredictions(strings.NewReader("C\n\n  G \nAm\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "G", "Am"}, labels)
}

func TestWriteMatrixCSV(t *testing.T) {
	var buf bytes.Buffer
	err := writeMatrixCSV(&buf, "frequency", []string{"750", "800"}, []float64{0, 0.5}, [][]float64{{1, 2}, {3, 4.5}})
	require.NoError(t, err)
	assert.Equal(t, "frequency,0,0.5\n750,1,2\n800,3,4.5\n", buf.String())
}

func TestWriteChromaCSVAddsDominantRow(t *testing.T) {
	chromagram := make([][]float64, 12)
	for c := range chromagram {
		chromagram[c] = []float64{0, 0}
	}
	chromagram[0][0] = 1 // C
	chromagram[9][1] = 1 // A

	var buf bytes.Buffer
	require.NoError(t, writeChromaCSV(&buf, []float64{0, 0.5}, chromagram))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 14)
	assert.Equal(t, []string{"pitch_class", "0", "0.5"}, records[0])
	assert.Equal(t, []string{"dominant", "C", "A"}, records[13])
}
