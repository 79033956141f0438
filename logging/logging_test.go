package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriterLoggerFormatsFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf).WithFields(Fields{"component": "chroma"})

	logger.Info("computed", Fields{"frames": 12, "bins": 4096})

	assert.Equal(t, "[INFO] computed bins=4096 component=chroma frames=12\n", buf.String())
}

func TestWriterLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.SetLevel(DebugLevel)
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "[DEBUG] shown")
}

func TestErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)

	logger.Error(errors.New("boom"), "decode failed")

	assert.Equal(t, "[ERROR] decode failed: boom\n", buf.String())
}

func TestWithContextPicksUpFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithFields(context.Background(), Fields{"file": "song.wav"})

	NewWriterLogger(&buf).WithContext(ctx).Info("start")

	assert.Equal(t, "[INFO] start file=song.wav\n", buf.String())
}

func TestSetGlobalLoggerNilFallsBackToNoOp(t *testing.T) {
	prev := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(prev) })

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
}
