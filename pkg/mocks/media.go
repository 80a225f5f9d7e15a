package mocks

import (
	"image"
	"image/color"
	"io"

	"github.com/user/vidsz/pkg/ports"
)

// MediaBackend is an in-memory implementation of ports.MediaBackend.
// Sources produce Frames synthetic frames; sinks record what they receive.
type MediaBackend struct {
	Stream ports.StreamInfo // Properties reported by every source
	Frames int              // Frames produced by every source

	OpenSourceFunc func(name string) (ports.MediaSource, error)
	OpenSinkFunc   func(path string, opts ports.SinkOptions) (ports.MediaSink, error)

	// Recorded calls for verification
	OpenedSources []string
	Sources       []*MediaSource
	Sinks         []*MediaSink
}

// NewMediaBackend returns a backend whose sources yield frames of the given
// size and rate.
func NewMediaBackend(width, height int, fps float64, frames int) *MediaBackend {
	return &MediaBackend{
		Stream: ports.StreamInfo{
			Width:      width,
			Height:     height,
			FPS:        fps,
			FrameCount: frames,
			Codec:      "mock",
		},
		Frames: frames,
	}
}

func (m *MediaBackend) Name() string {
	return "mock"
}

func (m *MediaBackend) OpenSource(name string) (ports.MediaSource, error) {
	m.OpenedSources = append(m.OpenedSources, name)
	if m.OpenSourceFunc != nil {
		return m.OpenSourceFunc(name)
	}
	src := &MediaSource{Stream: m.Stream, Remaining: m.Frames}
	m.Sources = append(m.Sources, src)
	return src, nil
}

func (m *MediaBackend) OpenSink(path string, opts ports.SinkOptions) (ports.MediaSink, error) {
	if m.OpenSinkFunc != nil {
		return m.OpenSinkFunc(path, opts)
	}
	sink := &MediaSink{Path: path, Options: opts}
	m.Sinks = append(m.Sinks, sink)
	return sink, nil
}

// MediaSource is an in-memory ports.MediaSource.
type MediaSource struct {
	Stream    ports.StreamInfo
	Remaining int

	// ReadErr, when set, is returned by the next ReadFrame instead of a frame.
	ReadErr error

	Reads      int
	CloseCalls int
}

func (s *MediaSource) Info() ports.StreamInfo {
	return s.Stream
}

// ReadFrame returns a frame whose first pixel encodes its index in R and G.
func (s *MediaSource) ReadFrame() (*image.RGBA, error) {
	if s.ReadErr != nil {
		err := s.ReadErr
		s.ReadErr = nil
		return nil, err
	}
	if s.Remaining <= 0 {
		return nil, io.EOF
	}
	img := image.NewRGBA(image.Rect(0, 0, s.Stream.Width, s.Stream.Height))
	if len(img.Pix) > 0 {
		img.SetRGBA(0, 0, color.RGBA{R: uint8(s.Reads), G: uint8(s.Reads >> 8), A: 255})
	}
	s.Remaining--
	s.Reads++
	return img, nil
}

func (s *MediaSource) Close() error {
	s.CloseCalls++
	return nil
}

// MediaSink is an in-memory ports.MediaSink.
type MediaSink struct {
	Path    string
	Options ports.SinkOptions

	WriteFrameFunc func(img *image.RGBA) error
	CloseFunc      func() error

	Frames     []*image.RGBA
	CloseCalls int
}

func (s *MediaSink) WriteFrame(img *image.RGBA) error {
	if s.WriteFrameFunc != nil {
		if err := s.WriteFrameFunc(img); err != nil {
			return err
		}
	}
	s.Frames = append(s.Frames, img)
	return nil
}

func (s *MediaSink) Close() error {
	s.CloseCalls++
	if s.CloseFunc != nil {
		return s.CloseFunc()
	}
	return nil
}

var (
	_ ports.MediaBackend = (*MediaBackend)(nil)
	_ ports.MediaSource  = (*MediaSource)(nil)
	_ ports.MediaSink    = (*MediaSink)(nil)
)
