package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/user/vidsz/pkg/ports"
)

// ZapConfig holds configuration options for the zap logger.
type ZapConfig struct {
	Level ports.LogLevel
	// Output defaults to stderr.
	Output io.Writer
	// Console selects the human readable encoder instead of JSON.
	Console bool
}

// ZapLogger implements ports.Logger with zap.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZap creates a zap backed logger.
func NewZap(cfg ZapConfig) *ZapLogger {
	if cfg.Level == ports.LevelQuiet {
		return &ZapLogger{logger: zap.NewNop()}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if cfg.Console {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), zap.NewAtomicLevelAt(zapLevel(cfg.Level)))
	return &ZapLogger{logger: zap.New(core)}
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.logger.Debug(format(msg, args))
}

func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.logger.Info(format(msg, args))
}

func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.logger.Warn(format(msg, args))
}

func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.logger.Error(format(msg, args))
}

// WithComponent returns a logger that adds a "component" field.
func (l *ZapLogger) WithComponent(component string) ports.Logger {
	return &ZapLogger{logger: l.logger.With(zap.String("component", component))}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func zapLevel(level ports.LogLevel) zapcore.Level {
	switch level {
	case ports.LevelDebug:
		return zapcore.DebugLevel
	case ports.LevelWarn:
		return zapcore.WarnLevel
	case ports.LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

var _ ports.Logger = (*ZapLogger)(nil)
