package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/user/vidsz/pkg/ports"
)

// LogrusConfig holds configuration options for the logrus logger.
type LogrusConfig struct {
	Level ports.LogLevel
	// Format is "text" (default) or "json".
	Format          string
	Output          io.Writer
	TimestampFormat string
}

// LogrusLogger implements ports.Logger with structured logrus entries.
// Messages are formatted but not translated.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrus creates a logrus backed logger. Output defaults to stderr.
func NewLogrus(cfg LogrusConfig) *LogrusLogger {
	ll := logrus.New()

	timestampFormat := cfg.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = "2006-01-02 15:04:05.999"
	}
	if cfg.Format == "json" {
		ll.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	} else {
		ll.SetFormatter(&logrus.TextFormatter{TimestampFormat: timestampFormat, FullTimestamp: true})
	}

	switch {
	case cfg.Level == ports.LevelQuiet:
		ll.SetOutput(io.Discard)
	case cfg.Output != nil:
		ll.SetOutput(cfg.Output)
	default:
		ll.SetOutput(os.Stderr)
	}
	ll.SetLevel(logrusLevel(cfg.Level))

	return &LogrusLogger{entry: logrus.NewEntry(ll)}
}

func (l *LogrusLogger) Debug(msg string, args ...interface{}) {
	l.entry.Debug(format(msg, args))
}

func (l *LogrusLogger) Info(msg string, args ...interface{}) {
	l.entry.Info(format(msg, args))
}

func (l *LogrusLogger) Warn(msg string, args ...interface{}) {
	l.entry.Warn(format(msg, args))
}

func (l *LogrusLogger) Error(msg string, args ...interface{}) {
	l.entry.Error(format(msg, args))
}

// WithComponent returns a logger that adds a "component" field.
func (l *LogrusLogger) WithComponent(component string) ports.Logger {
	return &LogrusLogger{entry: l.entry.WithField("component", component)}
}

// logrusLevel maps ports.LogLevel to logrus.Level
func logrusLevel(level ports.LogLevel) logrus.Level {
	switch level {
	case ports.LevelDebug:
		return logrus.DebugLevel
	case ports.LevelInfo:
		return logrus.InfoLevel
	case ports.LevelWarn:
		return logrus.WarnLevel
	case ports.LevelError, ports.LevelQuiet:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func format(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

var _ ports.Logger = (*LogrusLogger)(nil)
