package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("text", false, &buf)

	logger.Debug("hidden")
	logger.Info("edit dispatched", "field", "summary")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `msg="edit dispatched"`)
	assert.Contains(t, out, "field=summary")
}

func TestSetupLoggerJSONDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("json", true, &buf)

	logger.Debug("request", "nonce", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "abc", entry["nonce"])
}

func TestOpenFileCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "editor.log")
	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	SetupLogger("text", false, f).Info("hello")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	require.NotNil(t, logger)
	logger.Error("dropped", "field", "summary")
}
