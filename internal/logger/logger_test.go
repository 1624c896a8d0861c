package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" WARN "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
	assert.Equal(t, "WARN", WARN.String())
}

func TestTextOutputAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: INFO, Output: &buf})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Component("cache").Info("purged", F("entries", 3))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "purged | component=cache entries=3")
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: DEBUG, Output: &buf, Format: FormatJSON})
	require.NoError(t, err)

	l.WithFields(F("user_id", "u1")).Error("failed", F("error", errors.New("boom")))

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "failed", rec["msg"])
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "u1", rec["user_id"])
	assert.Equal(t, "boom", rec["error"])
}

func TestWithFieldsDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: INFO, Output: &buf})
	require.NoError(t, err)

	_ = l.WithFields(F("a", 1))
	l.Info("plain")
	assert.NotContains(t, buf.String(), "a=1")
}

func TestFileRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "irontime.log")
	l, err := New(Config{Level: INFO, FilePath: path, MaxSize: 64, MaxBackups: 2})
	require.NoError(t, err)
	defer l.Close()

	for i := 0; i < 5; i++ {
		l.Info(strings.Repeat("x", 40))
	}

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err, "size limit triggers a backup")
}

func TestDiscard(t *testing.T) {
	d := Discard()
	d.Error("nothing")
	assert.NoError(t, d.Close())
}
