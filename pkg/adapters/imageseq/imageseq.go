// Package imageseq implements ports.MediaBackend over numbered still image
// files. A sequence is named by a printf pattern ("frames/%05d.png"), a
// glob ("frames/*.png"), a directory or a single image file.
package imageseq

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/user/vidsz/pkg/adapters/ggrenderer"
	"github.com/user/vidsz/pkg/adapters/logger"
	"github.com/user/vidsz/pkg/adapters/osfilesystem"
	"github.com/user/vidsz/pkg/ports"
)

var (
	// ErrUnsupportedSource is returned when a name does not resolve to any image.
	ErrUnsupportedSource = errors.New("imageseq: no images match source")

	// ErrUnsupportedFormat is returned for extensions that cannot be written.
	ErrUnsupportedFormat = errors.New("imageseq: unsupported image format")

	// ErrClosed is returned when a closed source or sink is used.
	ErrClosed = errors.New("imageseq: stream closed")
)

// DefaultFPS is reported by sources when Options.FPS is unset. Still
// images carry no timing.
const DefaultFPS = 30.0

// maxStartIndex bounds the search for the first file of a printf pattern.
const maxStartIndex = 4

// Options configures the backend.
type Options struct {
	FPS      float64
	FS       ports.FileSystem
	Renderer ports.Renderer
	Logger   ports.Logger
}

// Backend reads and writes image sequences.
type Backend struct {
	opts Options
	fs   ports.FileSystem
	r    ports.Renderer
	log  ports.Logger
}

// New creates a new image sequence backend.
func New(opts Options) *Backend {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.FS == nil {
		opts.FS = osfilesystem.New()
	}
	if opts.Renderer == nil {
		opts.Renderer = ggrenderer.New()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	return &Backend{
		opts: opts,
		fs:   opts.FS,
		r:    opts.Renderer,
		log:  opts.Logger.WithComponent("imageseq"),
	}
}

// Name implements ports.MediaBackend.
func (b *Backend) Name() string {
	return "imageseq"
}

// IsPattern reports whether name is a printf pattern or a glob.
func IsPattern(name string) bool {
	return strings.Contains(name, "%") || strings.ContainsAny(name, "*?[")
}

// IsImage reports whether name has a still image extension.
func IsImage(name string) bool {
	_, ok := ports.ImageFormatFromPath(name)
	return ok
}

// OpenSource implements ports.MediaBackend.
func (b *Backend) OpenSource(name string) (ports.MediaSource, error) {
	files, err := b.resolve(name)
	if err != nil {
		return nil, err
	}

	first, err := b.decode(files[0])
	if err != nil {
		return nil, err
	}
	bounds := first.Bounds()

	info := ports.StreamInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		FPS:        b.opts.FPS,
		FrameCount: len(files),
		Codec:      codecOf(files[0]),
	}
	b.log.Debug("Opened %d images from %s at %dx%d", len(files), name, info.Width, info.Height)

	return &source{backend: b, files: files, info: info}, nil
}

// OpenSink implements ports.MediaBackend. A path without a printf verb
// gets a five digit counter inserted before its extension.
func (b *Backend) OpenSink(path string, opts ports.SinkOptions) (ports.MediaSink, error) {
	format, ok := ports.ImageFormatFromPath(path)
	if !ok || format == ports.FormatWebP {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	pattern := SinkPattern(path)
	if err := b.fs.MkdirAll(filepath.Dir(pattern)); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	b.log.Debug("Writing %s images to %s", format, pattern)
	return &sink{
		backend: b,
		pattern: pattern,
		format:  format,
		quality: opts.JPEGQuality(90),
	}, nil
}

// SinkPattern returns the printf pattern frames written to path use.
func SinkPattern(path string) string {
	if strings.Contains(path, "%") {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_%05d" + ext
}

// resolve expands name into an ordered list of image files.
func (b *Backend) resolve(name string) ([]string, error) {
	var files []string
	var err error

	switch {
	case strings.Contains(name, "%"):
		files, err = b.expandPrintf(name)
	case strings.ContainsAny(name, "*?["):
		files, err = b.fs.Glob(name)
		files = onlyImages(files)
	default:
		var isDir bool
		isDir, err = b.fs.IsDir(name)
		if err == nil && isDir {
			files, err = b.fs.Glob(filepath.Join(name, "*"))
			files = onlyImages(files)
		} else if err == nil {
			var exists bool
			exists, err = b.fs.Exists(name)
			if exists && IsImage(name) {
				files = []string{name}
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, name)
	}
	return files, nil
}

// expandPrintf walks a numbered pattern from its first existing index
// until the first gap.
func (b *Backend) expandPrintf(pattern string) ([]string, error) {
	start := -1
	for i := 0; i <= maxStartIndex; i++ {
		ok, err := b.fs.Exists(fmt.Sprintf(pattern, i))
		if err != nil {
			return nil, err
		}
		if ok {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, nil
	}

	var files []string
	for i := start; ; i++ {
		name := fmt.Sprintf(pattern, i)
		ok, err := b.fs.Exists(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		files = append(files, name)
	}
	return files, nil
}

func onlyImages(names []string) []string {
	var out []string
	for _, n := range names {
		if IsImage(n) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func codecOf(name string) string {
	f, _ := ports.ImageFormatFromPath(name)
	return f.String()
}

// Ensure Backend implements ports.MediaBackend
var _ ports.MediaBackend = (*Backend)(nil)
