package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdgdesk/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	l.Info("info message")
	assert.Contains(t, buf.String(), "level=info")
	assert.Contains(t, buf.String(), "info message")
	buf.Reset()

	l.Warn("warn message")
	assert.Contains(t, buf.String(), "level=warning")
	buf.Reset()

	l.Error("error message")
	assert.Contains(t, buf.String(), "level=error")
	buf.Reset()

	l.Infof("formatted %s", "message")
	assert.Contains(t, buf.String(), "formatted message")
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	original := logger
	Configure(WithOutput(&buf))
	defer func() { logger = original }()

	SetDebug(false)
	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetDebug(true)
	Debugf("shown %d", 2)
	assert.Contains(t, buf.String(), "level=debug")
	assert.Contains(t, buf.String(), "shown 2")

	SetDebug(false)
}

func TestStructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	l.With(F("key1", "value1"), F("key2", 123)).Info("structured message")
	output := buf.String()
	assert.Contains(t, output, "structured message")
	assert.Contains(t, output, "key1=value1")
	assert.Contains(t, output, "key2=123")
	buf.Reset()

	l.With(F("key1", "value1")).With(F("key2", 123)).Info("chained fields")
	output = buf.String()
	assert.Contains(t, output, "key1=value1")
	assert.Contains(t, output, "key2=123")
}

func TestJSONLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithJSON())

	l.With(F("file", "foo.desktop")).Info("json message")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "json message", entry["message"])
	assert.Equal(t, "foo.desktop", entry["file"])
	assert.Contains(t, entry, "timestamp")
}

func TestLogWithError(t *testing.T) {
	var buf bytes.Buffer
	original := logger
	Configure(WithOutput(&buf))
	defer func() { logger = original }()

	fileErr := errors.NewFileError("cannot open", "/usr/share/applications/foo.desktop", errors.FileAccessDenied, fmt.Errorf("permission denied"))
	LogWithError(fileErr).Warn("skipping file")
	output := buf.String()
	assert.Contains(t, output, "skipping file")
	assert.Contains(t, output, "path=/usr/share/applications/foo.desktop")
	assert.Contains(t, output, fmt.Sprintf("error_kind=%d", errors.FileAccessDenied))
	buf.Reset()

	configErr := errors.NewConfigError("bad value", "icon_size", errors.InvalidConfig, nil)
	LogWithError(configErr).Error("config rejected")
	assert.Contains(t, buf.String(), "param=icon_size")
	buf.Reset()

	LogWithError(nil).Error("nil error test")
	assert.Contains(t, buf.String(), "error=<nil>")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xdgdesk.log")
	l := NewLogger(WithFile(path))
	l.Info("file test message")
	require.NoError(t, l.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "file test message")
}

func TestConfigureClosesPreviousFile(t *testing.T) {
	saved := logger
	defer func() { logger = saved }()

	path := filepath.Join(t.TempDir(), "xdgdesk.log")
	Configure(WithFile(path))
	first := logger
	require.NotNil(t, first.file)
	Info("before reconfigure")

	Configure(WithOutput(io.Discard))
	assert.Nil(t, first.file)
	assert.NotSame(t, first, logger)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "before reconfigure")
}
