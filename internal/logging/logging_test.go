package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/snowstem/internal/logging"
)

func TestSetup_TextToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := logging.Setup(logging.Config{Level: "info", Output: &buf})
	require.NoError(t, err)
	defer cleanup()

	logger.Debug("hidden")
	logger.Info("stem_pass_complete", slog.Int("tokens", 3))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=stem_pass_complete")
	assert.Contains(t, out, "tokens=3")
}

func TestSetup_JSONAndFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "snowstem.log")

	logger, cleanup, err := logging.Setup(logging.Config{
		Level:    "debug",
		Format:   "json",
		FilePath: path,
		Output:   &buf,
	})
	require.NoError(t, err)

	logger.Debug("stemmer resolved", slog.String("language", "english"))
	cleanup()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stemmer resolved", entry["msg"])
	assert.Equal(t, "english", entry["language"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
}

func TestSetup_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snowstem.log")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0644))

	logger, cleanup, err := logging.Setup(logging.Config{FilePath: path, Output: &bytes.Buffer{}})
	require.NoError(t, err)
	logger.Info("next")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "previous\n")
	assert.Contains(t, string(data), "msg=next")
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.LevelFromString(tt.in))
		})
	}
}

func TestDiscard(t *testing.T) {
	assert.False(t, logging.Discard().Enabled(context.Background(), slog.LevelError))
}
