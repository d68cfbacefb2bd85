package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLogger_WritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLogger(newZapCore(&buf, "info"))

	log.With("module", "sessions").Info(context.Background(), "login ok", "account_id", "a-1")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, `"msg":"login ok"`)
	assert.Contains(t, out, `"module":"sessions"`)
	assert.Contains(t, out, `"account_id":"a-1"`)
	assert.Contains(t, out, `"level":"info"`)
}

func TestZapLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLogger(newZapCore(&buf, "warn"))

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")
	log.Error(context.Background(), "also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestNew_SelectsImplementation(t *testing.T) {
	var buf bytes.Buffer

	l, err := New("json", "info", &buf)
	require.NoError(t, err)
	assert.IsType(t, &SlogLogger{}, l)

	l, err = New("text", "debug", &buf)
	require.NoError(t, err)
	assert.IsType(t, &SlogLogger{}, l)

	l, err = New("zap", "info", &buf)
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	_, err = New("xml", "info", &buf)
	require.Error(t, err)
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("json", "info", &buf)
	require.NoError(t, err)

	l.Info(context.Background(), "hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
