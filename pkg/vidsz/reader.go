// Package vidsz provides batched, iterable access to video frames on top of
// a pluggable media backend.
//
// A Reader decodes frames from a source one at a time or in fixed-size
// batches; a Writer encodes frames into a sink whose settings may be
// inherited from a Reader. Both open their stream eagerly and must be
// released, either explicitly or through WithReader / WithWriter.
package vidsz

import (
	"errors"
	"fmt"
	"image"
	"io"
	"iter"

	"github.com/user/vidsz/pkg/adapters/logger"
	"github.com/user/vidsz/pkg/adapters/smartbackend"
	"github.com/user/vidsz/pkg/ports"
)

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// BatchSize is the number of frames returned per Read. Values below 1 mean 1.
	BatchSize int

	// DynamicBatch lets the final batch be shorter than BatchSize.
	// When false an incomplete final batch is discarded.
	DynamicBatch bool

	// Width, Height and FPS replace the native values in Info and String only.
	Width  int
	Height int
	FPS    float64

	// Backend opens the source. Defaults to the smart backend.
	Backend ports.MediaBackend

	// Logger receives debug output. Defaults to a no-op logger.
	Logger ports.Logger
}

// ReaderInfo is a printable snapshot of a Reader.
type ReaderInfo struct {
	Name        string  `json:"name" yaml:"name"`
	Width       int     `json:"width" yaml:"width"`
	Height      int     `json:"height" yaml:"height"`
	FPS         float64 `json:"fps" yaml:"fps"`
	TotalFrames int     `json:"total_frames" yaml:"total_frames"`
	Codec       string  `json:"codec" yaml:"codec"`
	Backend     string  `json:"backend" yaml:"backend"`
	FrameCount  int     `json:"frame_count" yaml:"frame_count"`
	Seconds     float64 `json:"seconds" yaml:"seconds"`
	Minutes     float64 `json:"minutes" yaml:"minutes"`
}

// Reader is a stateful cursor over the frames of one source.
// A Reader is not safe for concurrent use.
type Reader struct {
	name    string
	backend string
	source  ports.MediaSource
	stream  ports.StreamInfo
	opts    ReaderOptions
	log     ports.Logger

	batchSize  int
	frameCount int
	eof        bool
	released   bool
}

// NewReader opens source and returns a Reader positioned at its first frame.
func NewReader(source string, opts ReaderOptions) (*Reader, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	if opts.Backend == nil {
		opts.Backend = smartbackend.New(smartbackend.Options{Logger: opts.Logger})
	}

	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	src, err := opts.Backend.OpenSource(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, source, err)
	}

	r := &Reader{
		name:      source,
		backend:   ports.BackendName(opts.Backend, src),
		source:    src,
		stream:    src.Info(),
		opts:      opts,
		log:       opts.Logger.WithComponent("reader"),
		batchSize: batchSize,
	}

	r.log.Debug("Opened %s with %s backend: %dx%d @ %.2f fps",
		source, r.backend, r.stream.Width, r.stream.Height, r.stream.FPS)
	return r, nil
}

// WithReader opens a Reader, passes it to fn and releases it when fn
// returns or panics.
func WithReader(source string, opts ReaderOptions, fn func(r *Reader) error) (err error) {
	r, err := NewReader(source, opts)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := r.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(r)
}

// IsOpen reports whether further frames may be available.
// It turns false at end of stream or on Release and stays false.
func (r *Reader) IsOpen() bool {
	return !r.released && !r.eof
}

// ReadFrame returns the next frame, ignoring the batch size.
// It returns io.EOF at end of stream.
func (r *Reader) ReadFrame() (*image.RGBA, error) {
	if r.released {
		return nil, ErrSessionClosed
	}
	return r.next()
}

// Read returns the next batch of frames. With a batch size of 1 the batch
// holds exactly one frame.
//
// At end of stream Read returns io.EOF. If the stream ends partway through
// a batch, the partial batch is returned when DynamicBatch is set and
// discarded otherwise; the discarded frames still count as consumed.
func (r *Reader) Read() (Batch, error) {
	if r.released {
		return nil, ErrSessionClosed
	}
	if r.eof {
		return nil, io.EOF
	}

	batch := make(Batch, 0, r.batchSize)
	for len(batch) < r.batchSize {
		frame, err := r.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		batch = append(batch, frame)
	}

	if len(batch) == r.batchSize {
		return batch, nil
	}
	if r.opts.DynamicBatch && len(batch) > 0 {
		return batch, nil
	}
	if len(batch) > 0 {
		r.log.Debug("Discarded %d frames of incomplete batch", len(batch))
	}
	return nil, io.EOF
}

// ReadAll drains the remaining stream into a slice of batches.
func (r *Reader) ReadAll() ([]Batch, error) {
	var batches []Batch
	for {
		batch, err := r.Read()
		if errors.Is(err, io.EOF) {
			return batches, nil
		}
		if err != nil {
			return batches, err
		}
		batches = append(batches, batch)
	}
}

// All returns a single-use sequence over the remaining batches.
// A read error is yielded once and ends the sequence.
func (r *Reader) All() iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		for {
			batch, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(batch, nil) {
				return
			}
		}
	}
}

// Iter returns an Iterator resuming from the current position.
func (r *Reader) Iter() *Iterator {
	return &Iterator{reader: r}
}

// Release closes the source. It is safe to call more than once.
func (r *Reader) Release() error {
	if r.released {
		return nil
	}
	r.released = true
	r.log.Debug("Released %s after %d frames", r.name, r.frameCount)
	if err := r.source.Close(); err != nil {
		return fmt.Errorf("close source %s: %w", r.name, err)
	}
	return nil
}

func (r *Reader) next() (*image.RGBA, error) {
	if r.eof {
		return nil, io.EOF
	}
	frame, err := r.source.ReadFrame()
	if errors.Is(err, io.EOF) {
		r.eof = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read frame %d of %s: %w", r.frameCount, r.name, err)
	}
	r.frameCount++
	return frame, nil
}

// Name returns the source name the Reader was opened with.
func (r *Reader) Name() string { return r.name }

// Width returns the native frame width.
func (r *Reader) Width() int { return r.stream.Width }

// Height returns the native frame height.
func (r *Reader) Height() int { return r.stream.Height }

// FPS returns the native frame rate.
func (r *Reader) FPS() float64 { return r.stream.FPS }

// TotalFrames returns the frame count reported by the backend, 0 if unknown.
func (r *Reader) TotalFrames() int { return r.stream.FrameCount }

// Codec returns the codec name reported by the backend.
func (r *Reader) Codec() string { return r.stream.Codec }

// Backend returns the name of the backend serving the source.
func (r *Reader) Backend() string { return r.backend }

// BatchSize returns the effective batch size.
func (r *Reader) BatchSize() int { return r.batchSize }

// DynamicBatch reports whether the final batch may be short.
func (r *Reader) DynamicBatch() bool { return r.opts.DynamicBatch }

// FrameCount returns the number of frames consumed from the source so far.
func (r *Reader) FrameCount() int { return r.frameCount }

// Seconds returns FrameCount expressed in seconds of video.
func (r *Reader) Seconds() float64 {
	if r.stream.FPS <= 0 {
		return 0
	}
	return float64(r.frameCount) / r.stream.FPS
}

// Minutes returns FrameCount expressed in minutes of video.
func (r *Reader) Minutes() float64 {
	return r.Seconds() / 60.0
}

// Info returns a snapshot for display. Width, height and fps overrides
// from ReaderOptions take the place of the native values here.
func (r *Reader) Info() ReaderInfo {
	info := ReaderInfo{
		Name:        r.name,
		Width:       r.stream.Width,
		Height:      r.stream.Height,
		FPS:         r.stream.FPS,
		TotalFrames: r.stream.FrameCount,
		Codec:       r.stream.Codec,
		Backend:     r.backend,
		FrameCount:  r.frameCount,
		Seconds:     r.Seconds(),
		Minutes:     r.Minutes(),
	}
	if r.opts.Width > 0 {
		info.Width = r.opts.Width
	}
	if r.opts.Height > 0 {
		info.Height = r.opts.Height
	}
	if r.opts.FPS > 0 {
		info.FPS = r.opts.FPS
	}
	return info
}

// String implements fmt.Stringer.
func (r *Reader) String() string {
	return r.Info().String()
}

// String implements fmt.Stringer.
func (i ReaderInfo) String() string {
	return fmt.Sprintf("{name: %s, width: %d, height: %d, fps: %.2f, backend: %s, frame_count: %d, seconds: %.2f, minutes: %.2f}",
		i.Name, i.Width, i.Height, i.FPS, i.Backend, i.FrameCount, i.Seconds, i.Minutes)
}

// Iterator walks the remaining batches of a Reader.
//
//	it := r.Iter()
//	for it.Next() {
//		process(it.Batch())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	reader *Reader
	batch  Batch
	err    error
	done   bool
}

// Next advances to the next batch and reports whether one is available.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	batch, err := it.reader.Read()
	if err != nil {
		it.done = true
		it.batch = nil
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		return false
	}
	it.batch = batch
	return true
}

// Batch returns the batch read by the last successful Next.
func (it *Iterator) Batch() Batch {
	return it.batch
}

// Err returns the first non-EOF error met by Next.
func (it *Iterator) Err() error {
	return it.err
}
