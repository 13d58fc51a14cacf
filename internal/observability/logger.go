package observability

import (
	"cmp"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig mirrors the logging config section.
type LoggingConfig struct {
	// Level is trace, debug, info, warn, error, fatal or panic.
	Level string
	// Format is json, or console/pretty for human-readable output.
	Format string
	// Output is stdout or stderr.
	Output     string
	AddSource  bool
	TimeFormat string
}

// NewLogger builds the process logger and sets the zerolog global level to
// match. Unknown levels fall back to info.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = cmp.Or(cfg.TimeFormat, time.RFC3339)

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	lc := zerolog.New(logWriter(cfg)).Level(level).With().Timestamp()
	if cfg.AddSource {
		lc = lc.Caller()
	}
	return lc.Logger()
}

func logWriter(cfg LoggingConfig) io.Writer {
	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		return zerolog.ConsoleWriter{Out: out, TimeFormat: zerolog.TimeFieldFormat}
	default:
		return out
	}
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// WithSearchContext tags a logger with the query being searched and the
// attempt strategy.
func WithSearchContext(logger zerolog.Logger, query, strategy string) zerolog.Logger {
	return logger.With().Str("query", query).Str("strategy", strategy).Logger()
}

// WithResearcherContext tags a logger with the researcher being enriched.
func WithResearcherContext(logger zerolog.Logger, name, institution string) zerolog.Logger {
	return logger.With().Str("researcher", name).Str("institution", institution).Logger()
}

// WithTaskContext tags a logger with a browser automation task.
func WithTaskContext(logger zerolog.Logger, taskID string) zerolog.Logger {
	return logger.With().Str("task_id", taskID).Logger()
}

// LoggerFromContext adds the request identifiers found in ctx to logger.
func LoggerFromContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	rc := RequestContextFromContext(ctx)
	lc := logger.With()
	for _, f := range [...]struct{ key, value string }{
		{"request_id", rc.RequestID},
		{"correlation_id", rc.CorrelationID},
		{"run_id", rc.RunID},
	} {
		if f.value != "" {
			lc = lc.Str(f.key, f.value)
		}
	}
	return lc.Logger()
}
