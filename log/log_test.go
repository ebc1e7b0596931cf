package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogrusTaggedOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	require.NoError(t, Setup(Config{Backend: BackendLogrus, Level: "debug", Format: "json"}))

	logger := NewLogger("pool")
	logger.With("fn", "get-k").Infof("called %d", 1)

	out := buf.String()
	assert.Contains(t, out, `"tag":"pool"`)
	assert.Contains(t, out, `"fn":"get-k"`)
	assert.Contains(t, out, "called 1")
	assert.Same(t, logger, NewLogger("pool"))
}

func TestSetupRejectsUnknown(t *testing.T) {
	assert.Error(t, Setup(Config{Backend: "syslog"}))
	assert.Error(t, Setup(Config{Backend: BackendLogrus, Level: "loud"}))
}

func TestSetupRebindsLoggers(t *testing.T) {
	logger := NewLogger("dashboard").(*proxy)
	require.NoError(t, Setup(Config{Backend: BackendZap, Level: "error"}))
	_, isZap := logger.logger().(*zapLogger)
	assert.True(t, isZap)

	require.NoError(t, Setup(Config{Backend: BackendLogrus}))
	_, isLogrus := logger.logger().(*logrusLogger)
	assert.True(t, isLogrus)
}
