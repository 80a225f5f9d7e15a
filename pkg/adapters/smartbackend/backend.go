// Package smartbackend provides a media backend that routes every source
// and destination to the backend able to serve it.
package smartbackend

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/vidsz/pkg/adapters/cvbackend"
	"github.com/user/vidsz/pkg/adapters/ffmpegbackend"
	"github.com/user/vidsz/pkg/adapters/ggrenderer"
	"github.com/user/vidsz/pkg/adapters/imageseq"
	"github.com/user/vidsz/pkg/adapters/logger"
	"github.com/user/vidsz/pkg/adapters/mjpegavi"
	"github.com/user/vidsz/pkg/adapters/osfilesystem"
	"github.com/user/vidsz/pkg/adapters/synthetic"
	"github.com/user/vidsz/pkg/adapters/vidiobackend"
	"github.com/user/vidsz/pkg/ports"
)

// Backend names accepted as Options.Default.
const (
	BackendFFmpeg    = "ffmpeg"
	BackendOpenCV    = "opencv"
	BackendVidio     = "vidio"
	BackendImageSeq  = "imageseq"
	BackendMJPEG     = "mjpeg"
	BackendSynthetic = "synthetic"
)

// ErrUnknownBackend is returned for backend names that are not registered.
var ErrUnknownBackend = errors.New("smartbackend: unknown backend")

// Names lists the backends that can serve as the default.
func Names() []string {
	return []string{BackendFFmpeg, BackendOpenCV, BackendVidio}
}

// CheckDefault validates a default backend name. Empty selects ffmpeg.
func CheckDefault(name string) error {
	if name == "" {
		return nil
	}
	for _, n := range Names() {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownBackend, name, strings.Join(Names(), ", "))
}

// Options configures the smart backend behavior.
type Options struct {
	// Default serves files and devices not claimed by a specialised
	// backend: "ffmpeg" (default), "opencv" or "vidio".
	Default string
	// FFmpeg configures the ffmpeg backend.
	FFmpeg ffmpegbackend.Options
	// ImageFPS is the frame rate reported for image sequences.
	ImageFPS float64
	// DisableFallback keeps .avi destinations on the default backend
	// even when ffmpeg is missing.
	DisableFallback bool
	// FS is used by image sequences. Defaults to the OS file system.
	FS ports.FileSystem
	// Logger is used to log routing decisions and fallback warnings.
	Logger ports.Logger
}

// Backend implements ports.MediaBackend by delegation.
type Backend struct {
	opts     Options
	log      ports.Logger
	backends map[string]ports.MediaBackend
	fs       ports.FileSystem

	ffmpegAvailable func() bool
}

// New creates a new smart backend. An unknown Default is reported with a
// warning and replaced by ffmpeg.
func New(opts Options) *Backend {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	if opts.FS == nil {
		opts.FS = osfilesystem.New()
	}
	if err := CheckDefault(opts.Default); err != nil {
		opts.Logger.Warn("%v, using %s", err, BackendFFmpeg)
		opts.Default = ""
	}
	if opts.Default == "" {
		opts.Default = BackendFFmpeg
	}
	if opts.FFmpeg.Logger == nil {
		opts.FFmpeg.Logger = opts.Logger
	}

	renderer := ggrenderer.New()
	b := &Backend{
		opts: opts,
		log:  opts.Logger.WithComponent("smart"),
		fs:   opts.FS,
		backends: map[string]ports.MediaBackend{
			BackendFFmpeg: ffmpegbackend.New(opts.FFmpeg),
			BackendOpenCV: cvbackend.New(cvbackend.Options{Logger: opts.Logger}),
			BackendVidio:  vidiobackend.New(vidiobackend.Options{Logger: opts.Logger}),
			BackendImageSeq: imageseq.New(imageseq.Options{
				FPS:      opts.ImageFPS,
				FS:       opts.FS,
				Renderer: renderer,
				Logger:   opts.Logger,
			}),
			BackendMJPEG:     mjpegavi.New(mjpegavi.Options{Renderer: renderer, Logger: opts.Logger}),
			BackendSynthetic: synthetic.New(synthetic.Options{Renderer: renderer, Logger: opts.Logger}),
		},
	}
	b.ffmpegAvailable = func() bool {
		_, err := ffmpegbackend.FindFFmpeg(opts.FFmpeg.FFmpegPath)
		return err == nil
	}
	return b
}

// Name implements ports.MediaBackend.
func (b *Backend) Name() string {
	return "smart"
}

// Default returns the name of the fallback backend for files and devices.
func (b *Backend) Default() string {
	return b.opts.Default
}

// SourceBackend returns the name of the backend that opens name.
//
// The selection flow:
//   - synth:// URLs: synthetic
//   - printf patterns, globs, directories and still images: imageseq
//   - anything else: the default backend
func (b *Backend) SourceBackend(name string) string {
	switch {
	case synthetic.IsSynthetic(name):
		return BackendSynthetic
	case imageseq.IsPattern(name), imageseq.IsImage(name):
		return BackendImageSeq
	}
	if isDir, err := b.fs.IsDir(name); err == nil && isDir {
		return BackendImageSeq
	}
	return b.opts.Default
}

// SinkBackend returns the name of the backend that writes path.
//
// The selection flow:
//   - synth:// URLs: synthetic (frames are discarded)
//   - still image extensions other than .gif: imageseq
//   - .avi with codec "mjpeg": mjpeg
//   - .avi when the default is ffmpeg and ffmpeg is missing: mjpeg, unless
//     fallback is disabled
//   - anything else: the default backend
func (b *Backend) SinkBackend(path string, opts ports.SinkOptions) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case synthetic.IsSynthetic(path):
		return BackendSynthetic
	case imageseq.IsImage(path) && ext != ".gif":
		return BackendImageSeq
	case ext == ".avi" && opts.Codec == mjpegavi.Codec:
		return BackendMJPEG
	case ext == ".avi" && b.opts.Default == BackendFFmpeg && !b.opts.DisableFallback && !b.ffmpegAvailable():
		b.log.Warn("ffmpeg not available, writing %s as Motion-JPEG", path)
		return BackendMJPEG
	}
	return b.opts.Default
}

// OpenSource implements ports.MediaBackend.
func (b *Backend) OpenSource(name string) (ports.MediaSource, error) {
	kind := b.SourceBackend(name)
	b.log.Debug("Routing source %s to %s", name, kind)

	src, err := b.backends[kind].OpenSource(name)
	if err != nil {
		return nil, err
	}
	return &routedSource{MediaSource: src, backend: kind}, nil
}

// OpenSink implements ports.MediaBackend.
func (b *Backend) OpenSink(path string, opts ports.SinkOptions) (ports.MediaSink, error) {
	kind := b.SinkBackend(path, opts)
	b.log.Debug("Routing destination %s to %s", path, kind)
	if kind == BackendMJPEG {
		opts.Codec = mjpegavi.Codec
	}

	sink, err := b.backends[kind].OpenSink(path, opts)
	if err != nil {
		return nil, err
	}
	return &routedSink{MediaSink: sink, backend: kind, codec: ports.SinkCodec(sink, opts.Codec)}, nil
}

type routedSource struct {
	ports.MediaSource
	backend string
}

func (r *routedSource) Backend() string { return r.backend }

type routedSink struct {
	ports.MediaSink
	backend string
	codec   string
}

func (r *routedSink) Backend() string { return r.backend }
func (r *routedSink) Codec() string   { return r.codec }

// Ensure Backend implements ports.MediaBackend
var _ ports.MediaBackend = (*Backend)(nil)
