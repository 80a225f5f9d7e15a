// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/user/vidsz/pkg/adapters/ffmpegbackend"
	"github.com/user/vidsz/pkg/adapters/logger"
	"github.com/user/vidsz/pkg/adapters/smartbackend"
	"github.com/user/vidsz/pkg/ports"
	"github.com/user/vidsz/pkg/vidsz"
)

// EnvPrefix prefixes environment overrides (VIDSZ_BACKEND, ...).
const EnvPrefix = "VIDSZ"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid value")

// Config represents the full configuration for vidsz.
type Config struct {
	// Backend
	Backend     string  `yaml:"backend"`
	FFmpegPath  string  `yaml:"ffmpeg_path"`
	FFprobePath string  `yaml:"ffprobe_path"`
	Preset      string  `yaml:"preset"`
	ImageFPS    float64 `yaml:"image_fps"`

	// Reading
	BatchSize    int  `yaml:"batch_size"`
	DynamicBatch bool `yaml:"dynamic_batch"`

	// Writing
	Codec   string `yaml:"codec"`
	Quality int    `yaml:"quality"`
	Bitrate int    `yaml:"bitrate"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`

	// Debug
	DebugDir string `yaml:"debug_dir"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Backend:  smartbackend.BackendFFmpeg,
		Preset:   "fast",
		ImageFPS: 30.0,

		BatchSize: 1,

		LogLevel:  "info",
		LogFormat: logger.FormatConsole,
	}
}

// LoadFromFile loads configuration from a YAML file over Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from VIDSZ_* environment variables, named
// after the YAML keys (VIDSZ_BATCH_SIZE, VIDSZ_FFMPEG_PATH, ...).
func (c *Config) ApplyEnv() {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	set := func(key string) bool { return v.GetString(key) != "" }

	strs := map[string]*string{
		"backend":      &c.Backend,
		"ffmpeg_path":  &c.FFmpegPath,
		"ffprobe_path": &c.FFprobePath,
		"preset":       &c.Preset,
		"codec":        &c.Codec,
		"log_level":    &c.LogLevel,
		"log_format":   &c.LogFormat,
		"log_file":     &c.LogFile,
		"debug_dir":    &c.DebugDir,
	}
	for key, dst := range strs {
		if set(key) {
			*dst = v.GetString(key)
		}
	}

	ints := map[string]*int{
		"batch_size": &c.BatchSize,
		"quality":    &c.Quality,
		"bitrate":    &c.Bitrate,
	}
	for key, dst := range ints {
		if set(key) {
			*dst = v.GetInt(key)
		}
	}

	if set("image_fps") {
		c.ImageFPS = v.GetFloat64("image_fps")
	}
	if set("dynamic_batch") {
		c.DynamicBatch = v.GetBool("dynamic_batch")
	}
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	if err := smartbackend.CheckDefault(c.Backend); err != nil {
		return fmt.Errorf("%w: backend: %v", ErrInvalid, err)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be at least 1, got %d", ErrInvalid, c.BatchSize)
	}
	if c.Quality < 0 || c.Quality > 63 {
		return fmt.Errorf("%w: quality must be 0-63, got %d", ErrInvalid, c.Quality)
	}
	if c.Bitrate < 0 {
		return fmt.Errorf("%w: bitrate must not be negative, got %d", ErrInvalid, c.Bitrate)
	}
	if c.ImageFPS < 0 {
		return fmt.Errorf("%w: image_fps must not be negative, got %v", ErrInvalid, c.ImageFPS)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "quiet":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	switch c.LogFormat {
	case logger.FormatConsole, logger.FormatText, logger.FormatJSON, logger.FormatZap:
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalid, c.LogFormat)
	}
	return nil
}

// Logger builds the configured logger.
func (c Config) Logger() (ports.Logger, error) {
	return logger.New(logger.Options{
		Level:  ports.ParseLogLevel(c.LogLevel),
		Format: c.LogFormat,
		File:   c.LogFile,
	})
}

// MediaBackend builds the routing backend the sessions use.
func (c Config) MediaBackend(log ports.Logger) *smartbackend.Backend {
	return smartbackend.New(smartbackend.Options{
		Default: c.Backend,
		FFmpeg: ffmpegbackend.Options{
			FFmpegPath:  c.FFmpegPath,
			FFprobePath: c.FFprobePath,
			Preset:      c.Preset,
			Logger:      log,
		},
		ImageFPS: c.ImageFPS,
		Logger:   log,
	})
}

// ReaderOptions converts Config to vidsz.ReaderOptions.
func (c Config) ReaderOptions(backend ports.MediaBackend, log ports.Logger) vidsz.ReaderOptions {
	return vidsz.ReaderOptions{
		BatchSize:    c.BatchSize,
		DynamicBatch: c.DynamicBatch,
		Backend:      backend,
		Logger:       log,
	}
}

// WriterOptions converts Config to vidsz.WriterOptions.
func (c Config) WriterOptions(backend ports.MediaBackend, log ports.Logger) vidsz.WriterOptions {
	return vidsz.WriterOptions{
		Codec:   c.Codec,
		Quality: c.Quality,
		Bitrate: c.Bitrate,
		Backend: backend,
		Logger:  log,
	}
}
