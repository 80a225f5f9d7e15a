// Package main provides the CLI entry point for vidsz.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vidsz/pkg/adapters/smartbackend"
	"github.com/user/vidsz/pkg/config"
	"github.com/user/vidsz/pkg/ports"
)

var version = "dev"

// Flag categories
const (
	catBackend = "Backend"
	catLogging = "Logging"
	catOutput  = "Output"
	catReading = "Reading"
	catDebug   = "Debug"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %v", err))
		os.Exit(1)
	}
}

// newApp builds the command tree. Output goes to stdout and errOut.
func newApp(stdout, errOut io.Writer) *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, l10n.F("vidsz version %s", c.App.Version))
	}

	return &cli.App{
		Name:            "vidsz",
		Usage:           l10n.T("Read, write and copy video frames in batches"),
		Description:     l10n.T("vidsz copies frames between video files, image sequences, capture devices and synthetic sources."),
		Version:         version,
		Writer:          stdout,
		ErrWriter:       errOut,
		HideHelpCommand: true,
		Flags:           globalFlags(),
		Commands: []*cli.Command{
			infoCommand(),
			copyCommand(),
			backendsCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.PathFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   l10n.T("YAML configuration file"),
		},
		&cli.StringFlag{
			Name:     "backend",
			Aliases:  []string{"b"},
			Usage:    l10n.T("Default media backend (ffmpeg, opencv, vidio)"),
			Category: l10n.T(catBackend),
		},
		&cli.PathFlag{
			Name:     "ffmpeg-path",
			Usage:    l10n.T("Path to ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)"),
			Category: l10n.T(catBackend),
		},
		&cli.PathFlag{
			Name:     "ffprobe-path",
			Usage:    l10n.T("Path to ffprobe executable (falls back to FFPROBE_PATH env, then PATH)"),
			Category: l10n.T(catBackend),
		},
		&cli.Float64Flag{
			Name:     "image-fps",
			Usage:    l10n.T("Frame rate reported for image sequences"),
			Category: l10n.T(catBackend),
		},
		&cli.StringFlag{
			Name:     "log-level",
			Aliases:  []string{"l"},
			Usage:    l10n.T("Log level (debug, info, warn, error)"),
			Category: l10n.T(catLogging),
		},
		&cli.StringFlag{
			Name:     "log-format",
			Usage:    l10n.T("Log format (console, text, json, zap)"),
			Category: l10n.T(catLogging),
		},
		&cli.PathFlag{
			Name:     "log-file",
			Usage:    l10n.T("Write logs to a rotated file instead of the console"),
			Category: l10n.T(catLogging),
		},
		&cli.BoolFlag{
			Name:     "quiet",
			Aliases:  []string{"q"},
			Usage:    l10n.T("Suppress all log output"),
			Category: l10n.T(catLogging),
		},
	}
}

// env bundles what every command needs.
type env struct {
	cfg     config.Config
	log     ports.Logger
	backend *smartbackend.Backend
}

// loadEnv resolves configuration in increasing precedence: defaults,
// the YAML file, VIDSZ_* environment variables, command line flags.
func loadEnv(c *cli.Context) (*env, error) {
	cfg := config.Defaults()
	if path := c.Path("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	cfg.ApplyEnv()

	strs := map[string]*string{
		"backend":      &cfg.Backend,
		"ffmpeg-path":  &cfg.FFmpegPath,
		"ffprobe-path": &cfg.FFprobePath,
		"log-level":    &cfg.LogLevel,
		"log-format":   &cfg.LogFormat,
		"log-file":     &cfg.LogFile,
		"codec":        &cfg.Codec,
		"debug-dir":    &cfg.DebugDir,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	ints := map[string]*int{
		"batch-size": &cfg.BatchSize,
		"quality":    &cfg.Quality,
		"bitrate":    &cfg.Bitrate,
	}
	for name, dst := range ints {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	if c.IsSet("image-fps") {
		cfg.ImageFPS = c.Float64("image-fps")
	}
	if c.IsSet("dynamic-batch") {
		cfg.DynamicBatch = c.Bool("dynamic-batch")
	}
	if c.Bool("quiet") {
		cfg.LogLevel = ports.LevelQuiet.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:     cfg,
		log:     log,
		backend: cfg.MediaBackend(log),
	}, nil
}

// sourceArg returns the single positional source argument.
func sourceArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s", l10n.T("exactly one source argument is required"))
	}
	return c.Args().First(), nil
}
