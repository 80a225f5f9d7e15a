// Package vidiobackend implements ports.MediaBackend on top of the Vidio
// library, which drives ffmpeg itself and exchanges RGBA frame buffers.
package vidiobackend

import (
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"sync"

	vidio "github.com/AlexEidt/Vidio"

	"github.com/user/vidsz/pkg/adapters/logger"
	"github.com/user/vidsz/pkg/ports"
)

// ErrClosed is returned when a closed source or sink is used.
var ErrClosed = errors.New("vidiobackend: stream closed")

// Options configures the backend.
type Options struct {
	Logger ports.Logger
}

// Backend opens Vidio videos, cameras and writers.
type Backend struct {
	log ports.Logger
}

// New creates a new Vidio backend.
func New(opts Options) *Backend {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	return &Backend{log: opts.Logger.WithComponent("vidio")}
}

// Name implements ports.MediaBackend.
func (b *Backend) Name() string {
	return "vidio"
}

// frameReader is the part of vidio.Video and vidio.Camera we use.
type frameReader interface {
	Read() bool
	FrameBuffer() []byte
}

// OpenSource implements ports.MediaBackend. Non-negative integers open a
// camera.
func (b *Backend) OpenSource(name string) (ports.MediaSource, error) {
	if idx, err := strconv.Atoi(name); err == nil && idx >= 0 {
		cam, err := vidio.NewCamera(idx)
		if err != nil {
			return nil, fmt.Errorf("open camera %d: %w", idx, err)
		}
		info := ports.StreamInfo{
			Width:  cam.Width(),
			Height: cam.Height(),
			FPS:    cam.FPS(),
			Codec:  cam.Codec(),
		}
		b.log.Debug("Opened camera %d at %dx%d", idx, info.Width, info.Height)
		return &source{r: cam, closer: func() { cam.Close() }, info: info}, nil
	}

	video, err := vidio.NewVideo(name)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	info := ports.StreamInfo{
		Width:      video.Width(),
		Height:     video.Height(),
		FPS:        video.FPS(),
		FrameCount: video.Frames(),
		Codec:      video.Codec(),
	}
	b.log.Debug("Opened %s at %dx%d @ %.2f fps", name, info.Width, info.Height, info.FPS)
	return &source{r: video, closer: func() { video.Close() }, info: info}, nil
}

// OpenSink implements ports.MediaBackend. Quality is passed to Vidio on
// its 0 (best) to 1 scale.
func (b *Backend) OpenSink(path string, opts ports.SinkOptions) (ports.MediaSink, error) {
	vopts := &vidio.Options{
		FPS:     opts.FPS,
		Codec:   opts.Codec,
		Bitrate: opts.Bitrate * 1000,
	}
	if opts.Quality > 0 && opts.Quality <= 63 {
		vopts.Quality = float64(opts.Quality) / 63
	}

	w, err := vidio.NewVideoWriter(path, opts.Width, opts.Height, vopts)
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}
	b.log.Debug("Writing %s at %dx%d @ %.2f fps", path, opts.Width, opts.Height, opts.FPS)
	return &sink{w: w, width: opts.Width, height: opts.Height}, nil
}

type source struct {
	r      frameReader
	closer func()
	info   ports.StreamInfo

	mu     sync.Mutex
	closed bool
}

func (s *source) Info() ports.StreamInfo {
	return s.info
}

// ReadFrame copies the next frame out of Vidio's reused buffer.
func (s *source) ReadFrame() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if !s.r.Read() {
		return nil, io.EOF
	}
	img := image.NewRGBA(image.Rect(0, 0, s.info.Width, s.info.Height))
	copy(img.Pix, s.r.FrameBuffer())
	return img, nil
}

func (s *source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.closer()
	}
	return nil
}

type sink struct {
	w      *vidio.VideoWriter
	width  int
	height int

	mu     sync.Mutex
	closed bool
}

func (s *sink) WriteFrame(img *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.w.Write(packed(img, s.width, s.height)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (s *sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.w.Close()
	}
	return nil
}

// packed returns the pixels of img without row padding.
func packed(img *image.RGBA, width, height int) []byte {
	rowLen := width * 4
	if img.Stride == rowLen && img.Rect.Min == (image.Point{}) {
		return img.Pix[:rowLen*height]
	}
	buf := make([]byte, 0, rowLen*height)
	for y := 0; y < height; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		buf = append(buf, img.Pix[off:off+rowLen]...)
	}
	return buf
}

// Ensure Backend implements ports.MediaBackend
var _ ports.MediaBackend = (*Backend)(nil)
