package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ZapWritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("zap", "debug", &buf)
	require.NoError(t, err)

	log.With("component", "agent").Info(context.Background(), "snapshot activated", "version", "v2")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "snapshot activated", line["msg"])
	assert.Equal(t, "agent", line["component"])
	assert.Equal(t, "v2", line["version"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_ZapRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("zap", "warn", &buf)
	require.NoError(t, err)

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNew_SlogFormats(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("text", "info", &buf)
	require.NoError(t, err)
	log.Debug(context.Background(), "dropped")
	log.Info(context.Background(), "kept", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.True(t, strings.Contains(out, "msg=kept") && strings.Contains(out, "k=v"), out)

	buf.Reset()
	log, err = New("json", "info", &buf)
	require.NoError(t, err)
	log.Info(context.Background(), "kept")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New("xml", "info", &bytes.Buffer{})
	require.Error(t, err)
}

func TestDiscard_DoesNotPanic(t *testing.T) {
	log := Discard()
	log.With("a", 1).Error(context.Background(), "nothing")
}
