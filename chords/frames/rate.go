package frames

import (
	"fmt"

	"github.com/RyanBlaney/sonido-chords/algorithms/spectral"
)

// FrameRate derives the chromagram frame rate from the number of columns
// and the signal duration: frames per second and seconds per frame.
func FrameRate(chromagram [][]float64, signalLen, sampleRate int) (framesPerSecond, frameDuration float64, err error) {
	if sampleRate <= 0 {
		return 0, 0, spectral.ErrInvalidSampleRate
	}
	if len(chromagram) == 0 || len(chromagram[0]) == 0 {
		return 0, 0, fmt.Errorf("%w: chromagram has no frames", ErrEmptyInput)
	}
	if signalLen <= 0 {
		return 0, 0, fmt.Errorf("%w: signal has no samples", ErrEmptyInput)
	}

	duration := float64(signalLen) / float64(sampleRate)
	framesPerSecond = float64(len(chromagram[0])) / duration
	return framesPerSecond, 1 / framesPerSecond, nil
}
