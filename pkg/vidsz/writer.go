package vidsz

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/user/vidsz/pkg/adapters/logger"
	"github.com/user/vidsz/pkg/adapters/smartbackend"
	"github.com/user/vidsz/pkg/ports"
)

// WriterOptions configures a Writer. Set fields override values
// inherited from a reader, which override the library defaults.
type WriterOptions struct {
	Name    string  // Destination path
	Ext     string  // Container extension, overrides the one in Name for codec choice
	Width   int     // Frame width
	Height  int     // Frame height
	FPS     float64 // Frame rate
	Codec   string  // Backend codec name
	Quality int     // CRF value: 0-63 (lower is higher quality)
	Bitrate int     // Target bitrate in kbps

	// Backend creates the sink. Defaults to the smart backend.
	Backend ports.MediaBackend

	// Logger receives debug output. Defaults to a no-op logger.
	Logger ports.Logger
}

func (o WriterOptions) config() WriterConfig {
	return WriterConfig{
		Name:    o.Name,
		Ext:     o.Ext,
		Width:   o.Width,
		Height:  o.Height,
		FPS:     o.FPS,
		Codec:   o.Codec,
		Quality: o.Quality,
		Bitrate: o.Bitrate,
	}
}

// WriterInfo is a printable snapshot of a Writer.
type WriterInfo struct {
	Name       string  `json:"name" yaml:"name"`
	Width      int     `json:"width" yaml:"width"`
	Height     int     `json:"height" yaml:"height"`
	FPS        float64 `json:"fps" yaml:"fps"`
	Ext        string  `json:"ext" yaml:"ext"`
	Codec      string  `json:"codec" yaml:"codec"`
	Backend    string  `json:"backend" yaml:"backend"`
	FrameCount int     `json:"frame_count" yaml:"frame_count"`
	Seconds    float64 `json:"seconds" yaml:"seconds"`
	Minutes    float64 `json:"minutes" yaml:"minutes"`
}

// BatchSource is anything that yields batches until io.EOF, such as a *Reader.
type BatchSource interface {
	Read() (Batch, error)
}

// Writer encodes frames into one sink. Its encoding parameters are fixed
// when it is created. A Writer is not safe for concurrent use.
type Writer struct {
	cfg     WriterConfig
	backend string
	sink    ports.MediaSink
	log     ports.Logger

	frameCount int
	released   bool
}

// NewWriter creates the destination and returns a Writer for it.
// When reader is non-nil its size, frame rate and a derived name are
// used for every field opts leaves unset.
func NewWriter(reader *Reader, opts WriterOptions) (*Writer, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	if opts.Backend == nil {
		opts.Backend = smartbackend.New(smartbackend.Options{Logger: opts.Logger})
	}

	cfg, err := MergeWriterConfig(
		DefaultWriterConfig(),
		InheritedWriterConfig(reader),
		opts.config(),
	).resolve()
	if err != nil {
		return nil, err
	}

	sink, err := opts.Backend.OpenSink(cfg.Name, ports.SinkOptions{
		Width:   cfg.Width,
		Height:  cfg.Height,
		FPS:     cfg.FPS,
		Codec:   cfg.Codec,
		Ext:     cfg.Ext,
		Quality: cfg.Quality,
		Bitrate: cfg.Bitrate,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSinkUnavailable, cfg.Name, err)
	}

	cfg.Codec = ports.SinkCodec(sink, cfg.Codec)
	w := &Writer{
		cfg:     cfg,
		backend: ports.BackendName(opts.Backend, sink),
		sink:    sink,
		log:     opts.Logger.WithComponent("writer"),
	}
	w.log.Debug("Opened %s with %s backend: %dx%d @ %.2f fps (%s)",
		cfg.Name, w.backend, cfg.Width, cfg.Height, cfg.FPS, cfg.Codec)
	return w, nil
}

// WithWriter opens a Writer, passes it to fn and releases it when fn
// returns or panics.
func WithWriter(reader *Reader, opts WriterOptions, fn func(w *Writer) error) (err error) {
	w, err := NewWriter(reader, opts)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := w.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(w)
}

// IsOpen reports whether the Writer accepts frames.
func (w *Writer) IsOpen() bool {
	return !w.released
}

// Write encodes one frame. The frame must match the configured size;
// a mismatch returns ErrFrameShapeMismatch and leaves the sink untouched.
func (w *Writer) Write(frame image.Image) error {
	if w.released {
		return ErrSessionClosed
	}
	if frame == nil {
		return fmt.Errorf("%w: nil frame", ErrFrameShapeMismatch)
	}
	b := frame.Bounds()
	if b.Dx() != w.cfg.Width || b.Dy() != w.cfg.Height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrFrameShapeMismatch, b.Dx(), b.Dy(), w.cfg.Width, w.cfg.Height)
	}
	if err := w.sink.WriteFrame(toRGBA(frame)); err != nil {
		return fmt.Errorf("write frame %d to %s: %w", w.frameCount, w.cfg.Name, err)
	}
	w.frameCount++
	return nil
}

// WriteBatch writes every frame of batch in order.
func (w *Writer) WriteBatch(batch Batch) error {
	for _, frame := range batch {
		if err := w.Write(frame); err != nil {
			return err
		}
	}
	return nil
}

// WriteAll writes frames in order, stopping at the first error.
func (w *Writer) WriteAll(frames []image.Image) error {
	for _, frame := range frames {
		if err := w.Write(frame); err != nil {
			return err
		}
	}
	return nil
}

// WriteFrom drains src until io.EOF and returns the number of frames written.
func (w *Writer) WriteFrom(src BatchSource) (int, error) {
	written := 0
	for {
		batch, err := src.Read()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		for _, frame := range batch {
			if err := w.Write(frame); err != nil {
				return written, err
			}
			written++
		}
	}
}

// Release finalizes the sink. It is safe to call more than once.
func (w *Writer) Release() error {
	if w.released {
		return nil
	}
	w.released = true
	w.log.Debug("Released %s after %d frames", w.cfg.Name, w.frameCount)
	if err := w.sink.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", w.cfg.Name, err)
	}
	return nil
}

// Name returns the destination path.
func (w *Writer) Name() string { return w.cfg.Name }

// Width returns the configured frame width.
func (w *Writer) Width() int { return w.cfg.Width }

// Height returns the configured frame height.
func (w *Writer) Height() int { return w.cfg.Height }

// FPS returns the configured frame rate.
func (w *Writer) FPS() float64 { return w.cfg.FPS }

// Ext returns the container extension used to pick the codec.
func (w *Writer) Ext() string { return w.cfg.Ext }

// Codec returns the codec the sink writes.
func (w *Writer) Codec() string { return w.cfg.Codec }

// Config returns the resolved configuration.
func (w *Writer) Config() WriterConfig { return w.cfg }

// FrameCount returns the number of frames written.
func (w *Writer) FrameCount() int { return w.frameCount }

// Seconds returns FrameCount expressed in seconds of video.
func (w *Writer) Seconds() float64 {
	return float64(w.frameCount) / w.cfg.FPS
}

// Minutes returns FrameCount expressed in minutes of video.
func (w *Writer) Minutes() float64 {
	return w.Seconds() / 60.0
}

// Info returns a snapshot for display.
func (w *Writer) Info() WriterInfo {
	return WriterInfo{
		Name:       w.cfg.Name,
		Width:      w.cfg.Width,
		Height:     w.cfg.Height,
		FPS:        w.cfg.FPS,
		Ext:        w.cfg.Ext,
		Codec:      w.cfg.Codec,
		Backend:    w.backend,
		FrameCount: w.frameCount,
		Seconds:    w.Seconds(),
		Minutes:    w.Minutes(),
	}
}

// String implements fmt.Stringer.
func (w *Writer) String() string {
	return w.Info().String()
}

// String implements fmt.Stringer.
func (i WriterInfo) String() string {
	return fmt.Sprintf("{name: %s, width: %d, height: %d, fps: %.2f, backend: %s, ext: %s, codec: %s, frame_count: %d, seconds: %.2f}",
		i.Name, i.Width, i.Height, i.FPS, i.Backend, i.Ext, i.Codec, i.FrameCount, i.Seconds)
}
