package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vidsz/pkg/adapters/filesink"
	"github.com/user/vidsz/pkg/adapters/ggrenderer"
	"github.com/user/vidsz/pkg/adapters/nullsink"
	"github.com/user/vidsz/pkg/adapters/osfilesystem"
	"github.com/user/vidsz/pkg/ports"
	"github.com/user/vidsz/pkg/summarizer"
	"github.com/user/vidsz/pkg/vidsz"
)

func copyCommand() *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     l10n.T("Copy frames from a source to a destination"),
		ArgsUsage: "<source>",
		Description: l10n.T("Reads the source in batches and writes every frame to the destination. " +
			"Size and frame rate are inherited from the source unless overridden."),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    l10n.T("Destination path (default: <source>_out<ext>)"),
				Category: l10n.T(catOutput),
			},
			&cli.StringFlag{
				Name:     "ext",
				Usage:    l10n.T("Container extension used to pick the codec"),
				Category: l10n.T(catOutput),
			},
			&cli.StringFlag{
				Name:     "codec",
				Usage:    l10n.T("Codec name passed to the backend"),
				Category: l10n.T(catOutput),
			},
			&cli.Float64Flag{
				Name:     "fps",
				Usage:    l10n.T("Destination frame rate"),
				Category: l10n.T(catOutput),
			},
			&cli.IntFlag{
				Name:     "quality",
				Usage:    l10n.T("Video quality (CRF 0-63, lower is better)"),
				Category: l10n.T(catOutput),
			},
			&cli.IntFlag{
				Name:     "bitrate",
				Usage:    l10n.T("Target bitrate in kbps"),
				Category: l10n.T(catOutput),
			},
			&cli.IntFlag{
				Name:     "batch-size",
				Usage:    l10n.T("Frames per read"),
				Category: l10n.T(catReading),
			},
			&cli.BoolFlag{
				Name:     "dynamic-batch",
				Usage:    l10n.T("Keep a short final batch instead of discarding it"),
				Category: l10n.T(catReading),
			},
			&cli.IntFlag{
				Name:     "max-frames",
				Usage:    l10n.T("Stop after writing this many frames (0 = unlimited)"),
				Category: l10n.T(catReading),
			},
			&cli.PathFlag{
				Name:     "summary",
				Usage:    l10n.T("Output execution summary to file (Markdown format)"),
				Category: l10n.T(catOutput),
			},
			&cli.PathFlag{
				Name:     "debug-dir",
				Usage:    l10n.T("Directory for debug output"),
				Category: l10n.T(catDebug),
			},
			&cli.IntFlag{
				Name:     "debug-every",
				Value:    30,
				Usage:    l10n.T("Save every Nth frame to the debug directory"),
				Category: l10n.T(catDebug),
			},
		},
		Action: runCopy,
	}
}

// copyStats is what a copy produced.
type copyStats struct {
	written int
	batches int
}

func runCopy(c *cli.Context) error {
	source, err := sourceArg(c)
	if err != nil {
		return err
	}
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := osfilesystem.New()
	sink, err := debugSink(e.cfg.DebugDir, fs)
	if err != nil {
		return err
	}

	ropts := e.cfg.ReaderOptions(e.backend, e.log)
	wopts := e.cfg.WriterOptions(e.backend, e.log)
	wopts.Name = c.String("output")
	wopts.Ext = c.String("ext")
	wopts.FPS = c.Float64("fps")

	var (
		stats   copyStats
		summary *summarizer.Summary
	)
	start := time.Now()

	err = vidsz.WithReader(source, ropts, func(r *vidsz.Reader) error {
		return vidsz.WithWriter(r, wopts, func(w *vidsz.Writer) error {
			e.log.Info("Copying %s to %s", r.Name(), w.Name())
			e.log.Info("Source: %dx%d @ %.2f fps, %s backend", r.Width(), r.Height(), r.FPS(), r.Backend())
			e.log.Info("Destination: %dx%d @ %.2f fps, %s backend", w.Width(), w.Height(), w.FPS(), w.Info().Backend)

			if err := saveInfo(sink, r.Info(), w.Info()); err != nil {
				return err
			}

			var err error
			stats, err = copyFrames(ctx, r, w, copyLimits{
				maxFrames:  c.Int("max-frames"),
				debugEvery: c.Int("debug-every"),
			}, sink, e.log)
			summary = buildSummary(r, w, e, c.Int("max-frames"), stats, time.Since(start))
			return err
		})
	})
	if err != nil {
		e.log.Error("Copy failed: %v", err)
		return err
	}

	summary.Result.FileSize = fileSize(summary.Target.Name)
	e.log.Info("Wrote %d frames to %s in %s", stats.written, summary.Target.Name,
		summary.Result.Elapsed.Round(time.Millisecond))

	if path := c.Path("summary"); path != "" {
		if err := writeSummary(path, summary, fs); err != nil {
			e.log.Error("Failed to write summary: %s", err)
			return err
		}
		e.log.Info("Summary saved to %s", path)
	}
	return nil
}

type copyLimits struct {
	maxFrames  int
	debugEvery int
}

// copyFrames writes r into w batch by batch. Cancelling ctx stops the
// copy after the current batch without error.
func copyFrames(ctx context.Context, r *vidsz.Reader, w *vidsz.Writer, lim copyLimits, sink ports.DebugSink, log ports.Logger) (copyStats, error) {
	var stats copyStats
	limitReached := func() bool {
		if lim.maxFrames > 0 && stats.written >= lim.maxFrames {
			log.Info("Reached frame limit of %d", lim.maxFrames)
			return true
		}
		return false
	}

	it := r.Iter()
	for !limitReached() && it.Next() {
		for _, frame := range it.Batch() {
			if limitReached() {
				return stats, nil
			}
			if err := w.Write(frame); err != nil {
				return stats, err
			}
			if sink.Enabled() && lim.debugEvery > 0 && stats.written%lim.debugEvery == 0 {
				if err := sink.SaveFrame(stats.written, frame); err != nil {
					return stats, fmt.Errorf("save debug frame: %w", err)
				}
			}
			stats.written++
		}
		stats.batches++

		select {
		case <-ctx.Done():
			log.Warn("Interrupted, finishing current batch...")
			return stats, nil
		default:
		}
	}
	return stats, it.Err()
}

func debugSink(dir string, fs ports.FileSystem) (ports.DebugSink, error) {
	if dir == "" {
		return nullsink.New(), nil
	}
	if err := fs.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("create debug directory: %w", err)
	}
	return filesink.New(dir, fs, ggrenderer.New()), nil
}

func saveInfo(sink ports.DebugSink, src vidsz.ReaderInfo, dst vidsz.WriterInfo) error {
	if !sink.Enabled() {
		return nil
	}
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return err
	}
	if err := sink.SaveSourceJSON(data); err != nil {
		return fmt.Errorf("save source info: %w", err)
	}
	data, err = json.MarshalIndent(dst, "", "  ")
	if err != nil {
		return err
	}
	if err := sink.SaveTargetJSON(data); err != nil {
		return fmt.Errorf("save target info: %w", err)
	}
	return nil
}

func buildSummary(r *vidsz.Reader, w *vidsz.Writer, e *env, maxFrames int, stats copyStats, elapsed time.Duration) *summarizer.Summary {
	return summarizer.NewBuilder().
		WithSource(summarizer.StreamInfo{
			Name:    r.Name(),
			Backend: r.Backend(),
			Width:   r.Width(),
			Height:  r.Height(),
			FPS:     r.FPS(),
			Frames:  r.TotalFrames(),
			Codec:   r.Codec(),
		}).
		WithTarget(summarizer.StreamInfo{
			Name:    w.Name(),
			Backend: w.Info().Backend,
			Width:   w.Width(),
			Height:  w.Height(),
			FPS:     w.FPS(),
			Codec:   w.Codec(),
			Ext:     w.Ext(),
		}).
		WithSettings(summarizer.Settings{
			BatchSize:    r.BatchSize(),
			DynamicBatch: r.DynamicBatch(),
			MaxFrames:    maxFrames,
			Quality:      e.cfg.Quality,
			Bitrate:      e.cfg.Bitrate,
		}).
		WithResult(summarizer.Result{
			FramesRead:    r.FrameCount(),
			FramesWritten: stats.written,
			Batches:       stats.batches,
			Elapsed:       elapsed,
		}).
		Build()
}

func writeSummary(path string, s *summarizer.Summary, fs ports.FileSystem) error {
	formatter := summarizer.NewMarkdownFormatter(
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	return summarizer.NewWriter(formatter, fs).Write(path, s)
}

// fileSize returns the size of a single file destination, 0 otherwise.
func fileSize(path string) int64 {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return 0
	}
	return st.Size()
}
