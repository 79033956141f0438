package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/RyanBlaney/sonido-chords/chords"
	"github.com/RyanBlaney/sonido-chords/chords/config"
	"github.com/RyanBlaney/sonido-chords/logging"
	"github.com/RyanBlaney/sonido-chords/transcode"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	outputPath string
	pngPath    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "sonido-chords",
	Short:         "Chroma frames, chord alignment and beat smoothing for audio files",
	SilenceErrors: true,
	SilenceUsage:  true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		logger := logging.NewStderrLogger()
		logger.SetLevel(cfg.Level())
		if verbose {
			logger.SetLevel(logging.DebugLevel)
		}
		logging.SetGlobalLogger(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"YAML configuration file. Defaults are used when empty.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show debug output")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "",
		"Write CSV output to this file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&pngPath, "png", "",
		"Also render a heatmap PNG to this file (stft and chroma only)")
}

// Execute runs the root command until ctx is done, reporting errors on stderr
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sonido-chords:", err)
	}
	return err
}

// load decodes the audio argument with an analyzer built from the loaded config
func load(cmd *cobra.Command, path string) (*chords.Analyzer, *transcode.AudioData, error) {
	analyzer := chords.NewAnalyzer(cfg)
	audio, err := analyzer.Decode(cmd.Context(), path)
	if err != nil {
		return nil, nil, err
	}
	logging.Info("Decoded audio", logging.Fields{
		"file":        path,
		"samples":     len(audio.PCM),
		"sample_rate": audio.SampleRate,
		"channels":    audio.Channels,
	})
	return analyzer, audio, nil
}

// withOutput hands write the --output file, or stdout when unset
func withOutput(write func(w io.Writer) error) error {
	if outputPath == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
