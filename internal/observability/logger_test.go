package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	for _, cfg := range []LoggingConfig{
		{Level: "info", Format: "json", Output: "stdout"},
		{Level: "debug", Format: "console", Output: "stdout"},
		{Level: "warn", Format: "pretty", Output: "stderr", AddSource: true},
	} {
		t.Run(cfg.Format, func(t *testing.T) {
			logger := NewLogger(cfg)
			assert.Equal(t, parseLevel(cfg.Level), logger.GetLevel())
			assert.Equal(t, parseLevel(cfg.Level), zerolog.GlobalLevel())
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"Warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"fatal":   zerolog.FatalLevel,
		"PANIC":   zerolog.PanicLevel,
		" info ":  zerolog.InfoLevel,
		"unknown": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, parseLevel(input))
		})
	}
}

func TestContextHelpers(t *testing.T) {
	t.Run("search", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithSearchContext(zerolog.New(&buf), "graph neural networks", "translated")
		logger.Info().Msg("search started")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "graph neural networks", entry["query"])
		assert.Equal(t, "translated", entry["strategy"])
	})

	t.Run("researcher", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithResearcherContext(zerolog.New(&buf), "Ada Lovelace", "University of London")
		logger.Warn().Msg("stage failed")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "Ada Lovelace", entry["researcher"])
		assert.Equal(t, "University of London", entry["institution"])
	})

	t.Run("task", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithTaskContext(zerolog.New(&buf), "task-9")
		logger.Info().Msg("polling")

		assert.Equal(t, "task-9", decodeLine(t, &buf)["task_id"])
	})
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithRequestContextFull(context.Background(), RequestContext{RequestID: "req-1", RunID: "run-1"})

	enriched := LoggerFromContext(ctx, zerolog.New(&buf))
	enriched = WithSearchContext(enriched, "quantum", "default_category")
	enriched.Info().Msg("chained context")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.NotContains(t, entry, "correlation_id")
	assert.Equal(t, "quantum", entry["query"])
}
