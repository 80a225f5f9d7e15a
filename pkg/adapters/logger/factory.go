package logger

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/user/vidsz/pkg/ports"
)

// Formats accepted by New.
const (
	FormatConsole = "console"
	FormatText    = "text"
	FormatJSON    = "json"
	FormatZap     = "zap"
)

// ErrUnknownFormat is returned for unsupported log formats.
var ErrUnknownFormat = errors.New("logger: unknown format")

// Options selects and configures a logger.
type Options struct {
	Level  ports.LogLevel
	Format string
	// File, when set, receives the log output with size based rotation.
	// The console format writes plain text lines to a file.
	File string
}

// New builds the logger described by opts.
func New(opts Options) (ports.Logger, error) {
	if opts.Level == ports.LevelQuiet {
		return NewNoop(), nil
	}

	var out io.Writer
	if opts.File != "" {
		out = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
	}

	switch opts.Format {
	case "", FormatConsole:
		if out != nil {
			return NewLogrus(LogrusConfig{Level: opts.Level, Format: FormatText, Output: out}), nil
		}
		return NewConsole(opts.Level), nil
	case FormatText, FormatJSON:
		return NewLogrus(LogrusConfig{Level: opts.Level, Format: opts.Format, Output: out}), nil
	case FormatZap:
		return NewZap(ZapConfig{Level: opts.Level, Output: out}), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
}
