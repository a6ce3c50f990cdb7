package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevels(t *testing.T) {
	testCases := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		"DEBUG":   logrus.DebugLevel,
		"info":    logrus.InfoLevel,
		"warn":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for level, expected := range testCases {
		assert.Equal(t, expected, NewLogger(level, "text").GetLevel(), level)
	}
}

func TestJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "info", "json")
	log.WithField("source", "a.jpg").Info("decoded bitmap")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "a.jpg", entry["source"])
	assert.Equal(t, "decoded bitmap", entry["msg"])
}

func TestTextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "warn", "text")
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
