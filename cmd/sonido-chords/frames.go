package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-chords/chords/annotation"
	"github.com/RyanBlaney/sonido-chords/chords/frames"
	"github.com/spf13/cobra"
)

var (
	padSentinels    bool
	seed            uint64
	annotationsPath string
	markBoundaries  bool
	predictionsPath string
	beatsPerCluster int
)

func init() {
	for _, cmd := range []*cobra.Command{framesCmd, alignCmd, smoothCmd} {
		cmd.Flags().BoolVar(&padSentinels, "sentinels", true,
			"Add synthetic start and end rows around the frames (--sentinels=false to disable)")
		cmd.Flags().Uint64Var(&seed, "seed", 0,
			"Seed for sentinel energies. A fresh seed is drawn when unset.")
		rootCmd.AddCommand(cmd)
	}

	alignCmd.Flags().StringVarP(&annotationsPath, "annotations", "a", "",
		"Chord annotations: .lab (start end label) or .csv (start,label)")
	alignCmd.Flags().BoolVar(&markBoundaries, "mark-boundaries", true,
		"Label the first frame <START> and the last <END> (--mark-boundaries=false to disable)")
	_ = alignCmd.MarkFlagRequired("annotations")

	smoothCmd.Flags().StringVarP(&predictionsPath, "predictions", "p", "",
		"Predicted chord labels, one per line, one per frame")
	smoothCmd.Flags().IntVarP(&beatsPerCluster, "beats-per-cluster", "b", 1,
		"Beats grouped into each smoothing cluster")
	_ = smoothCmd.MarkFlagRequired("predictions")
}

// applyFrameFlags copies explicitly set flags over the loaded config
func applyFrameFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("sentinels") {
		cfg.Frames.PadSentinels = padSentinels
	}
	if flags.Changed("seed") {
		s := seed
		cfg.Frames.Seed = &s
	}
	if flags.Changed("mark-boundaries") {
		cfg.Alignment.MarkBoundaries = markBoundaries
	}
	if flags.Changed("beats-per-cluster") {
		cfg.Smoothing.BeatsPerCluster = beatsPerCluster
	}
}

var framesCmd = &cobra.Command{
	Use:   "frames <audio>",
	Short: "Chroma frame table with start and end times",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFrameFlags(cmd)
		analyzer, audio, err := load(cmd, args[0])
		if err != nil {
			return err
		}
		table, err := analyzer.FrameTable(audio)
		if err != nil {
			return err
		}
		return withOutput(func(w io.Writer) error {
			return table.WriteCSV(w, nil)
		})
	},
}

var alignCmd = &cobra.Command{
	Use:   "align <audio>",
	Short: "Frame table labelled with the annotation active at each frame start",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFrameFlags(cmd)
		annotations, err := readAnnotations(annotationsPath)
		if err != nil {
			return err
		}

		analyzer, audio, err := load(cmd, args[0])
		if err != nil {
			return err
		}
		table, err := analyzer.FrameTable(audio)
		if err != nil {
			return err
		}
		labels, err := analyzer.Align(table, annotations)
		if err != nil {
			return err
		}
		return withOutput(func(w io.Writer) error {
			return table.WriteCSV(w, labels)
		})
	},
}

var smoothCmd = &cobra.Command{
	Use:   "smooth <audio>",
	Short: "Replace per-frame predictions with the majority label of each beat cluster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFrameFlags(cmd)
		predicted, err := readPredictions(predictionsPath)
		if err != nil {
			return err
		}

		analyzer, audio, err := load(cmd, args[0])
		if err != nil {
			return err
		}
		table, err := analyzer.FrameTable(audio)
		if err != nil {
			return err
		}
		result, err := analyzer.Smooth(table, audio, predicted)
		if err != nil {
			return err
		}
		return withOutput(func(w io.Writer) error {
			return writeSmoothed(w, table, predicted, result.Labels, result.Clusters)
		})
	},
}

func readAnnotations(path string) (annotation.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotations: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return annotation.ParseCSV(f)
	}
	return annotation.ParseLab(f)
}

func readPredictions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open predictions: %w", err)
	}
	defer f.Close()

	return parsePredictions(f)
}

// parsePredictions reads one label per non-blank line
func parsePredictions(r io.Reader) ([]string, error) {
	var labels []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}
	return labels, nil
}

func writeSmoothed(w io.Writer, table *frames.Table, predicted, smoothed []string, clusters []int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start", "end", "predicted", "label", "cluster"}); err != nil {
		return err
	}
	for i, f := range table.Frames {
		record := []string{
			formatFloat(f.Start),
			formatFloat(f.End),
			predicted[i],
			smoothed[i],
			strconv.Itoa(clusters[i]),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
