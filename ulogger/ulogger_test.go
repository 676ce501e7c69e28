package ulogger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroLoggerJSON(t *testing.T) {
	var buf bytes.Buffer

	logger := ulogger.New("engine", ulogger.WithWriter(&buf), ulogger.WithPretty(false), ulogger.WithLevel("DEBUG"))
	logger.Infof("best header %d", 42)

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, "info", decoded["level"])
	assert.Equal(t, "best header 42", decoded["message"])
	assert.Equal(t, "engine", decoded["service"])
}

func TestZeroLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	logger := ulogger.New("engine", ulogger.WithWriter(&buf), ulogger.WithPretty(false), ulogger.WithLevel("WARN"))
	assert.Equal(t, ulogger.LevelWarn, logger.LogLevel())

	logger.Infof("dropped")
	assert.Empty(t, buf.String())

	logger.Warnf("kept")
	assert.Contains(t, buf.String(), "kept")

	logger.SetLogLevel("debug")
	assert.Equal(t, ulogger.LevelDebug, logger.LogLevel())
}

func TestZeroLoggerNewKeepsWriter(t *testing.T) {
	var buf bytes.Buffer

	parent := ulogger.New("parent", ulogger.WithWriter(&buf), ulogger.WithPretty(false))
	child := parent.New("child")
	child.Infof("hello")

	assert.Contains(t, buf.String(), `"service":"child"`)
}

func TestPrettyLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := ulogger.New("store", ulogger.WithWriter(&buf))
	logger.Errorf("boom %s", "x")

	out := buf.String()
	assert.Contains(t, out, "store")
	assert.Contains(t, out, "boom x")
	assert.Contains(t, out, "ERROR")
}

func TestTestLogger(t *testing.T) {
	var logger ulogger.Logger = ulogger.TestLogger{}

	logger.Fatalf("does not exit")
	assert.Equal(t, logger, logger.New("x"))
}
