package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/RyanBlaney/sonido-chords/algorithms/chroma"
	"github.com/RyanBlaney/sonido-chords/logging"
	"github.com/RyanBlaney/sonido-chords/render"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(spectrumCmd)
	rootCmd.AddCommand(stftCmd)
	rootCmd.AddCommand(chromaCmd)
}

var spectrumCmd = &cobra.Command{
	Use:   "spectrum <audio>",
	Short: "Magnitude spectrum of the whole signal",
	Long:  `Writes frequency,amplitude rows for the non-negative half of the DFT.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, audio, err := load(cmd, args[0])
		if err != nil {
			return err
		}
		spec, err := analyzer.Spectrum(audio)
		if err != nil {
			return err
		}

		return withOutput(func(w io.Writer) error {
			cw := csv.NewWriter(w)
			if err := cw.Write([]string{"frequency", "amplitude"}); err != nil {
				return err
			}
			for k, f := range spec.Frequencies {
				if err := cw.Write([]string{formatFloat(f), formatFloat(spec.Amplitudes[k])}); err != nil {
					return err
				}
			}
			cw.Flush()
			return cw.Error()
		})
	},
}

var stftCmd = &cobra.Command{
	Use:   "stft <audio>",
	Short: "Band-limited (700-3000 Hz) short-time magnitude map",
	Long:  `Writes one row per frequency bin with one magnitude column per frame time.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, audio, err := load(cmd, args[0])
		if err != nil {
			return err
		}
		tf, err := analyzer.TimeFrequency(audio)
		if err != nil {
			return err
		}

		if err := writeHeatmap(tf.Magnitude); err != nil {
			return err
		}

		rowNames := make([]string, len(tf.Frequencies))
		for i, f := range tf.Frequencies {
			rowNames[i] = formatFloat(f)
		}
		return withOutput(func(w io.Writer) error {
			return writeMatrixCSV(w, "frequency", rowNames, tf.Times, tf.Magnitude)
		})
	},
}

var chromaCmd = &cobra.Command{
	Use:   "chroma <audio>",
	Short: "12-bin chromagram",
	Long:  `Writes one row per pitch class (C first) with one energy column per frame time,
followed by a "dominant" row naming the strongest pitch class of each frame.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, audio, err := load(cmd, args[0])
		if err != nil {
			return err
		}
		chromagram, err := analyzer.Chromagram(audio)
		if err != nil {
			return err
		}

		if err := writeHeatmap(chromagram); err != nil {
			return err
		}

		hop := float64(analyzer.Config().Chroma.HopLength)
		times := make([]float64, len(chromagram[0]))
		for i := range times {
			times[i] = float64(i) * hop / float64(audio.SampleRate)
		}
		return withOutput(func(w io.Writer) error {
			return writeChromaCSV(w, times, chromagram)
		})
	},
}

// writeMatrixCSV writes a header of column times and one line per named row
func writeMatrixCSV(w io.Writer, corner string, rowNames []string, times []float64, matrix [][]float64) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(times)+1)
	header = append(header, corner)
	for _, t := range times {
		header = append(header, formatFloat(t))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, row := range matrix {
		record := make([]string, 0, len(row)+1)
		record = append(record, rowNames[i])
		for _, v := range row {
			record = append(record, formatFloat(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// writeChromaCSV writes the chromagram matrix and a trailing dominant pitch class row
func writeChromaCSV(w io.Writer, times []float64, chromagram [][]float64) error {
	if err := writeMatrixCSV(w, "pitch_class", chroma.PitchClasses[:], times, chromagram); err != nil {
		return err
	}

	dominant := chroma.DominantPitchClass(chromagram)
	record := make([]string, 0, len(dominant)+1)
	record = append(record, "dominant")
	for _, c := range dominant {
		record = append(record, chroma.PitchClasses[c])
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(record); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeHeatmap(matrix [][]float64) error {
	if pngPath == "" {
		return nil
	}

	f, err := os.Create(pngPath)
	if err != nil {
		return fmt.Errorf("failed to create png file: %w", err)
	}
	if err := render.WritePNG(f, matrix); err != nil {
		f.Close()
		return fmt.Errorf("failed to render heatmap: %w", err)
	}
	logging.Debug("Wrote heatmap", logging.Fields{"file": pngPath})
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
