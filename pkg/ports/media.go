package ports

import (
	"image"
)

// StreamInfo describes the native properties of an opened stream.
type StreamInfo struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int    // Total frames, 0 when the backend cannot tell
	Codec      string // Codec name as reported by the backend, may be empty
}

// MediaSource is an open handle to a decodable stream.
type MediaSource interface {
	// Info returns the stream properties captured at open time.
	Info() StreamInfo

	// ReadFrame decodes the next frame.
	// It returns io.EOF once the stream is exhausted.
	ReadFrame() (*image.RGBA, error)

	// Close releases the underlying handle.
	Close() error
}

// MediaSink is an open handle to an encodable stream.
type MediaSink interface {
	// WriteFrame encodes one frame. The frame size matches SinkOptions.
	WriteFrame(img *image.RGBA) error

	// Close flushes pending data and finalizes the container.
	Close() error
}

// SinkOptions configures a sink at open time.
type SinkOptions struct {
	Width   int
	Height  int
	FPS     float64
	Codec   string // Backend specific codec name, empty for the backend default
	Ext     string // Container extension including the dot (".mp4")
	Quality int    // CRF value: 0-63 (lower is higher quality), 0 for default
	Bitrate int    // Target bitrate in kbps, 0 for default
}

// MediaBackend opens sources and sinks. It is the only collaborator
// the reader and writer sessions talk to.
type MediaBackend interface {
	// Name identifies the backend ("ffmpeg", "opencv", ...).
	Name() string

	// OpenSource opens a source for decoding. The name is a path,
	// a device index or a backend specific locator.
	OpenSource(name string) (MediaSource, error)

	// OpenSink creates a sink for encoding at path.
	OpenSink(path string, opts SinkOptions) (MediaSink, error)
}

// JPEGQuality maps a 0-63 CRF style quality onto the 1-100 JPEG scale.
// Zero selects def.
func (o SinkOptions) JPEGQuality(def int) int {
	if o.Quality <= 0 || o.Quality > 63 {
		return def
	}
	return max(100-o.Quality*100/63, 1)
}

// Routed is implemented by streams opened through a backend that
// delegates to another one.
type Routed interface {
	// Backend names the backend actually serving the stream.
	Backend() string
}

// BackendName returns the name of the backend serving stream, which was
// opened by b.
func BackendName(b MediaBackend, stream any) string {
	if r, ok := stream.(Routed); ok {
		return r.Backend()
	}
	return b.Name()
}

// Encoded is implemented by sinks that report the codec they actually
// write, which may differ from the one requested.
type Encoded interface {
	Codec() string
}

// SinkCodec returns the codec written by sink, or requested when the
// sink does not report one.
func SinkCodec(sink MediaSink, requested string) string {
	if e, ok := sink.(Encoded); ok && e.Codec() != "" {
		return e.Codec()
	}
	return requested
}
