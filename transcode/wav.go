package transcode

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

var ErrUnsupportedWAV = errors.New("unsupported WAV encoding")

// DecodeWAV reads an integer PCM WAV stream and downmixes it to mono
// float64 samples in [-1, 1]
func DecodeWAV(r io.ReadSeeker) (*AudioData, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedWAV, decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, ErrNoSamples
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedWAV, bitDepth)
	}
	fullScale := float64(int64(1) << (bitDepth - 1))
	// 8-bit WAV samples are unsigned
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(buf.Data) / channels
	pcm := make([]float64, frames)
	for i := range frames {
		sum := 0
		for c := range channels {
			sum += buf.Data[i*channels+c] - offset
		}
		pcm[i] = float64(sum) / float64(channels) / fullScale
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: buf.Format.SampleRate,
		Channels:   channels,
		Duration:   durationOf(frames, buf.Format.SampleRate),
		Codec:      fmt.Sprintf("pcm_s%dle", bitDepth),
	}, nil
}
