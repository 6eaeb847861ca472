package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/hybridrag/pkg/config"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = !enabled
	t.Cleanup(func() { color.NoColor = prev })
}

func TestColorHandlerFormatsAttributes(t *testing.T) {
	withColor(t, false)
	var buf bytes.Buffer
	log := slog.New(NewColorHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.With("component", "search").WithGroup("query").Info("processing query",
		"question", "What do lions eat?", "top_k", 5, slog.Group("weights", "semantic", 0.5))

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "INFO  processing query")
	assert.Contains(t, line, "component=search")
	assert.Contains(t, line, `query.question="What do lions eat?"`)
	assert.Contains(t, line, "query.top_k=5")
	assert.Contains(t, line, "query.weights.semantic=0.5")
}

func TestColorHandlerLevels(t *testing.T) {
	withColor(t, false)
	var buf bytes.Buffer
	log := slog.New(NewColorHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN  shown")
}

func TestColorHandlerColors(t *testing.T) {
	withColor(t, true)

	tests := []struct {
		name  string
		level slog.Level
		msg   string
		code  string
	}{
		{name: "error is red", level: slog.LevelError, msg: "query failed", code: "\x1b[31m"},
		{name: "warn is yellow", level: slog.LevelWarn, msg: "generation failed", code: "\x1b[33m"},
		{name: "store write is green", level: slog.LevelInfo, msg: "Persisting entries", code: "\x1b[32m"},
		{name: "plain info", level: slog.LevelInfo, msg: "processing query", code: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(NewColorHandler(&buf, nil))
			log.Log(context.Background(), tt.level, tt.msg)

			if tt.code == "" {
				assert.NotContains(t, buf.String(), "\x1b[")
				return
			}
			assert.True(t, strings.HasPrefix(buf.String(), tt.code), "got %q", buf.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	log.Debug("hello", "k", "v")
	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	New(config.LogConfig{Level: "info", Format: "text"}, &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
