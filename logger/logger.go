package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

// Output formats selected by LOG_FORMAT
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	// Default is the process-wide logger
	Default *Logger
)

// Init configures Default from LOG_LEVEL, LOG_FORMAT and
// TRACKER_ENVIRONMENT and writes to stdout
func Init() {
	level := getLogLevel()
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	Default = New(os.Stdout, getLogFormat(), level)
	Default.Info().
		Str("level", level.String()).
		Str("format", getLogFormat()).
		Msg("Logger initialized")
}

// New creates a logger writing to w in the given format
func New(w io.Writer, format string, level zerolog.Level) *Logger {
	if format != FormatJSON {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return &Logger{logger: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func isProduction() bool {
	return os.Getenv("TRACKER_ENVIRONMENT") == "production"
}

// getLogLevel defaults to info in production and debug elsewhere
func getLogLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if isProduction() {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// getLogFormat defaults to json in production and console elsewhere
func getLogFormat() string {
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case FormatJSON:
		return FormatJSON
	case FormatConsole:
		return FormatConsole
	}
	if isProduction() {
		return FormatJSON
	}
	return FormatConsole
}

// WithContext returns the logger stored in ctx, falling back to l
func (l *Logger) WithContext(ctx context.Context) *Logger {
	ctxLogger := zerolog.Ctx(ctx)
	if ctxLogger == nil || ctxLogger.GetLevel() == zerolog.Disabled {
		return l
	}
	return &Logger{logger: ctxLogger.With().Logger()}
}

// ToContext stores the logger in ctx
func (l *Logger) ToContext(ctx context.Context) context.Context {
	return l.logger.WithContext(ctx)
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	newLogger := l.logger.With()
	for k, v := range fields {
		newLogger = newLogger.Interface(k, v)
	}
	return &Logger{logger: newLogger.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Fatal returns a fatal event
func (l *Logger) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

func defaultLogger() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}

// Info logs an info message on the default logger
func Info(format string, v ...interface{}) {
	defaultLogger().Info().Msgf(format, v...)
}

// Warn logs a warning on the default logger
func Warn(format string, v ...interface{}) {
	defaultLogger().Warn().Msgf(format, v...)
}

// IsDebugEnabled reports whether debug events are emitted
func IsDebugEnabled() bool {
	return defaultLogger().logger.GetLevel() <= zerolog.DebugLevel &&
		zerolog.GlobalLevel() <= zerolog.DebugLevel
}

// ForComponent creates a logger tagged with a component name
func ForComponent(name string) *Logger {
	return defaultLogger().WithField("component", name)
}

// ForFetcher creates a logger for a page fetcher
func ForFetcher(fetcherName string) *Logger {
	return ForComponent("fetcher").WithField("fetcher", fetcherName)
}

// ForProduct creates a logger carrying the product URL
func ForProduct(url string) *Logger {
	return ForComponent("crawler").WithField("product_url", url)
}

// ForWorker creates a logger for the worker
func ForWorker() *Logger { return ForComponent("worker") }

// ForStore creates a logger for the series store
func ForStore() *Logger { return ForComponent("store") }

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger { return ForComponent("publisher") }

// ForCache creates a logger for the cache
func ForCache() *Logger { return ForComponent("cache") }

// ForReport creates a logger for report rendering and archiving
func ForReport() *Logger { return ForComponent("report") }
