package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Configure(&buf, level))
	t.Cleanup(func() { _ = Configure(os.Stderr, "info") })
	return &buf
}

func TestKeyValuePairs(t *testing.T) {
	buf := capture(t, "debug")

	Info("Upstream fetched", "path", "/vps-setup.sh", "status", 200, "took", 3*time.Millisecond, "err", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Upstream fetched", entry["message"])
	assert.Equal(t, "/vps-setup.sh", entry["path"])
	assert.EqualValues(t, 200, entry["status"])
	assert.Equal(t, "3ms", entry["took"])
	assert.Equal(t, "boom", entry["err"])
}

func TestOddArgumentCount(t *testing.T) {
	buf := capture(t, "info")

	Warn("dangling", "key")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "!MISSING", entry["key"])
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, "warn")

	Debug("hidden")
	Info("hidden")
	assert.Zero(t, buf.Len())

	Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	err := Configure(os.Stderr, "loud")
	assert.Error(t, err)
}
