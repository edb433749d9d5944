package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroscope-selfcheck/internal/domain"
)

func TestNew_JSON(t *testing.T) {
	logger := New(domain.LoggingConfig{Level: "debug", Format: "json", Output: "stderr"})

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.Equal(t, os.Stderr, logger.Out)

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.WithField("driver", "sqlite").Info("Opened storage backends")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Opened storage backends", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "sqlite", entry["driver"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_Defaults(t *testing.T) {
	logger := New(domain.LoggingConfig{Level: "loud"})

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
	assert.Equal(t, os.Stdout, logger.Out)
}
