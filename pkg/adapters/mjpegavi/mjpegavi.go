// Package mjpegavi writes Motion-JPEG AVI files without external tools.
// It only provides sinks.
package mjpegavi

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/icza/mjpeg"

	"github.com/user/vidsz/pkg/adapters/ggrenderer"
	"github.com/user/vidsz/pkg/adapters/logger"
	"github.com/user/vidsz/pkg/ports"
)

// Codec is the codec name that selects this backend.
const Codec = "mjpeg"

var (
	// ErrUnsupportedSource is returned by OpenSource; AVI files are write-only here.
	ErrUnsupportedSource = errors.New("mjpegavi: reading is not supported")

	// ErrUnsupportedFormat is returned for destinations other than .avi.
	ErrUnsupportedFormat = errors.New("mjpegavi: destination must be .avi")

	// ErrClosed is returned when a closed sink is used.
	ErrClosed = errors.New("mjpegavi: sink closed")
)

// Options configures the backend.
type Options struct {
	Renderer ports.Renderer
	Logger   ports.Logger
}

// Backend creates Motion-JPEG AVI sinks.
type Backend struct {
	r   ports.Renderer
	log ports.Logger
}

// New creates a new Motion-JPEG backend.
func New(opts Options) *Backend {
	if opts.Renderer == nil {
		opts.Renderer = ggrenderer.New()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	return &Backend{r: opts.Renderer, log: opts.Logger.WithComponent("mjpeg")}
}

// Name implements ports.MediaBackend.
func (b *Backend) Name() string {
	return "mjpeg"
}

// OpenSource implements ports.MediaBackend.
func (b *Backend) OpenSource(name string) (ports.MediaSource, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, name)
}

// OpenSink implements ports.MediaBackend. AVI headers carry an integer
// frame rate; fractional rates are rounded.
func (b *Backend) OpenSink(path string, opts ports.SinkOptions) (ports.MediaSink, error) {
	if strings.ToLower(filepath.Ext(path)) != ".avi" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}

	fps := int32(max(math.Round(opts.FPS), 1))
	aw, err := mjpeg.New(path, int32(opts.Width), int32(opts.Height), fps)
	if err != nil {
		return nil, fmt.Errorf("create avi: %w", err)
	}
	b.log.Debug("Writing Motion-JPEG %s at %dx%d @ %d fps", path, opts.Width, opts.Height, fps)

	return &sink{
		aw:      aw,
		r:       b.r,
		quality: opts.JPEGQuality(85),
	}, nil
}

type sink struct {
	aw      mjpeg.AviWriter
	r       ports.Renderer
	quality int

	mu     sync.Mutex
	frames int
	closed bool
}

func (s *sink) WriteFrame(img *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	data, err := s.r.EncodeImage(img, ports.FormatJPEG, s.quality)
	if err != nil {
		return err
	}
	if err := s.aw.AddFrame(data); err != nil {
		return fmt.Errorf("add frame: %w", err)
	}
	s.frames++
	return nil
}

// Close writes the AVI index. It is safe to call more than once.
func (s *sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.aw.Close()
}

// Ensure Backend implements ports.MediaBackend
var _ ports.MediaBackend = (*Backend)(nil)
