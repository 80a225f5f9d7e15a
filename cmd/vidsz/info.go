package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/user/vidsz/pkg/adapters/cvbackend"
	"github.com/user/vidsz/pkg/adapters/ffmpegbackend"
	"github.com/user/vidsz/pkg/adapters/mp4probe"
	"github.com/user/vidsz/pkg/adapters/smartbackend"
	"github.com/user/vidsz/pkg/vidsz"
)

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     l10n.T("Show the properties of a source"),
		ArgsUsage: "<source>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: l10n.T("Output format (text, yaml)"),
			},
			&cli.BoolFlag{
				Name:  "count",
				Usage: l10n.T("Decode the whole source to count its frames"),
			},
			&cli.BoolFlag{
				Name:  "probe",
				Usage: l10n.T("Also read the MP4 container headers"),
			},
		},
		Action: runInfo,
	}
}

// containerInfo is the header level view of an MP4 file.
type containerInfo struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
	Frames int     `yaml:"frames"`
	Codec  string  `yaml:"codec"`
}

type infoReport struct {
	Source    vidsz.ReaderInfo `yaml:"source"`
	Container *containerInfo   `yaml:"container,omitempty"`
}

func runInfo(c *cli.Context) error {
	source, err := sourceArg(c)
	if err != nil {
		return err
	}
	format := c.String("format")
	if format != "text" && format != "yaml" {
		return fmt.Errorf("%s", l10n.F("unknown format %q", format))
	}
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	var report infoReport
	err = vidsz.WithReader(source, e.cfg.ReaderOptions(e.backend, e.log), func(r *vidsz.Reader) error {
		if c.Bool("count") {
			for {
				if _, err := r.ReadFrame(); err != nil {
					if errors.Is(err, io.EOF) {
						break
					}
					return err
				}
			}
		}
		report.Source = r.Info()
		return nil
	})
	if err != nil {
		return err
	}

	if c.Bool("probe") && isMP4(source) {
		info, err := mp4probe.ProbeFile(source)
		if err != nil && !errors.Is(err, mp4probe.ErrNoTiming) {
			return err
		}
		report.Container = &containerInfo{
			Width:  info.Width,
			Height: info.Height,
			FPS:    info.FPS,
			Frames: info.FrameCount,
			Codec:  info.Codec,
		}
	}

	out := c.App.Writer
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}

	fmt.Fprintln(out, report.Source.String())
	if ci := report.Container; ci != nil {
		fmt.Fprintln(out, l10n.F("container: %dx%d @ %.2f fps, %d frames, %s",
			ci.Width, ci.Height, ci.FPS, ci.Frames, ci.Codec))
	}
	return nil
}

func isMP4(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".m4v", ".mov":
		return true
	}
	return false
}

func backendsCommand() *cli.Command {
	return &cli.Command{
		Name:   "backends",
		Usage:  l10n.T("List media backends and whether they are usable"),
		Action: runBackends,
	}
}

func runBackends(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	ffmpegPath, ffmpegErr := ffmpegbackend.FindFFmpeg(e.cfg.FFmpegPath)
	status := func(ok bool, detail string) string {
		if !ok {
			return l10n.T("unavailable")
		}
		if detail != "" {
			return l10n.T("available") + " (" + detail + ")"
		}
		return l10n.T("available")
	}

	rows := []struct {
		name   string
		status string
	}{
		{smartbackend.BackendFFmpeg, status(ffmpegErr == nil, ffmpegPath)},
		{smartbackend.BackendOpenCV, status(cvbackend.Compiled, "")},
		{smartbackend.BackendVidio, status(ffmpegErr == nil, "")},
		{smartbackend.BackendImageSeq, status(true, "")},
		{smartbackend.BackendMJPEG, status(true, "")},
		{smartbackend.BackendSynthetic, status(true, "")},
	}

	out := c.App.Writer
	for _, r := range rows {
		mark := " "
		if r.name == e.backend.Default() {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-10s %s\n", mark, r.name, r.status)
	}
	return nil
}
