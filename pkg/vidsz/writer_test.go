package vidsz

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/user/vidsz/pkg/adapters/smartbackend"
	"github.com/user/vidsz/pkg/mocks"
	"github.com/user/vidsz/pkg/ports"
)

func newTestWriter(t *testing.T, opts WriterOptions) (*Writer, *mocks.MediaBackend) {
	t.Helper()
	backend := mocks.NewMediaBackend(0, 0, 0, 0)
	opts.Backend = backend
	w, err := NewWriter(nil, opts)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	return w, backend
}

func TestNewWriter_InheritsFromReader(t *testing.T) {
	r, backend := newTestReader(t, 30, 1, false)

	w, err := NewWriter(r, WriterOptions{Backend: backend})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	if len(backend.Sinks) != 1 {
		t.Fatalf("expected sink to be opened eagerly")
	}
	sink := backend.Sinks[0]
	if sink.Path != "clip_out.mp4" {
		t.Errorf("Path = %q, want clip_out.mp4", sink.Path)
	}
	want := ports.SinkOptions{Width: 4, Height: 3, FPS: 2, Codec: "libx264", Ext: ".mp4"}
	if sink.Options != want {
		t.Errorf("Options = %+v, want %+v", sink.Options, want)
	}
	if w.Name() != "clip_out.mp4" || w.Width() != 4 || w.Height() != 3 || w.FPS() != 2 {
		t.Errorf("unexpected writer properties: %s", w)
	}
	if w.Ext() != ".mp4" || w.Codec() != "libx264" {
		t.Errorf("Ext/Codec = %s/%s", w.Ext(), w.Codec())
	}
}

func TestNewWriter_ExplicitOverridesInherited(t *testing.T) {
	r, backend := newTestReader(t, 30, 1, false)

	w, err := NewWriter(r, WriterOptions{
		Name:    "copy.avi",
		FPS:     10,
		Quality: 20,
		Bitrate: 800,
		Backend: backend,
	})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	opts := backend.Sinks[0].Options
	if backend.Sinks[0].Path != "copy.avi" {
		t.Errorf("Path = %q", backend.Sinks[0].Path)
	}
	if opts.FPS != 10 {
		t.Errorf("FPS = %v, want explicit 10", opts.FPS)
	}
	if opts.Width != 4 || opts.Height != 3 {
		t.Errorf("size = %dx%d, want inherited 4x3", opts.Width, opts.Height)
	}
	if opts.Codec != "mpeg4" || opts.Ext != ".avi" {
		t.Errorf("Codec/Ext = %s/%s", opts.Codec, opts.Ext)
	}
	if opts.Quality != 20 || opts.Bitrate != 800 {
		t.Errorf("Quality/Bitrate = %d/%d", opts.Quality, opts.Bitrate)
	}
	if w.Config().FPS != 10 {
		t.Errorf("Config().FPS = %v", w.Config().FPS)
	}
}

func TestNewWriter_ExplicitOnly(t *testing.T) {
	w, backend := newTestWriter(t, WriterOptions{Name: "out.webm", Width: 8, Height: 6})

	if w.FPS() != DefaultFPS {
		t.Errorf("FPS = %v, want default %v", w.FPS(), DefaultFPS)
	}
	if backend.Sinks[0].Options.Codec != "libvpx-vp9" {
		t.Errorf("Codec = %q", backend.Sinks[0].Options.Codec)
	}
	if w.Info().Backend != "mock" {
		t.Errorf("Backend = %q", w.Info().Backend)
	}
}

func TestNewWriter_ExtOverridesName(t *testing.T) {
	w, _ := newTestWriter(t, WriterOptions{Name: "out.bin", Ext: "MKV", Width: 8, Height: 6, FPS: 5})
	if w.Ext() != ".mkv" || w.Codec() != "libx264" {
		t.Errorf("Ext/Codec = %s/%s", w.Ext(), w.Codec())
	}
}

func TestNewWriter_SinkUnavailable(t *testing.T) {
	tests := []struct {
		name string
		opts WriterOptions
	}{
		{"no destination", WriterOptions{Width: 8, Height: 6}},
		{"no size", WriterOptions{Name: "out.mp4"}},
		{"bad extension", WriterOptions{Name: "out.xyz", Width: 8, Height: 6}},
		{"no extension", WriterOptions{Name: "out", Width: 8, Height: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := mocks.NewMediaBackend(0, 0, 0, 0)
			tt.opts.Backend = backend
			_, err := NewWriter(nil, tt.opts)
			if !errors.Is(err, ErrSinkUnavailable) {
				t.Errorf("expected ErrSinkUnavailable, got %v", err)
			}
			if len(backend.Sinks) != 0 {
				t.Error("no sink should be opened for an invalid configuration")
			}
		})
	}
}

func TestNewWriter_BackendFailure(t *testing.T) {
	backend := mocks.NewMediaBackend(0, 0, 0, 0)
	cause := errors.New("permission denied")
	backend.OpenSinkFunc = func(path string, opts ports.SinkOptions) (ports.MediaSink, error) {
		return nil, cause
	}

	_, err := NewWriter(nil, WriterOptions{Name: "/ro/out.mp4", Width: 8, Height: 6, Backend: backend})
	if !errors.Is(err, ErrSinkUnavailable) || !errors.Is(err, cause) {
		t.Errorf("expected ErrSinkUnavailable wrapping the cause, got %v", err)
	}
}

// encodedSink reports a codec other than the one requested.
type encodedSink struct {
	*mocks.MediaSink
	codec string
}

func (s encodedSink) Codec() string { return s.codec }

func TestNewWriter_ReportsSinkCodec(t *testing.T) {
	backend := mocks.NewMediaBackend(0, 0, 0, 0)
	backend.OpenSinkFunc = func(path string, opts ports.SinkOptions) (ports.MediaSink, error) {
		return encodedSink{MediaSink: &mocks.MediaSink{Path: path, Options: opts}, codec: "mjpeg"}, nil
	}

	w, err := NewWriter(nil, WriterOptions{Name: "out.avi", Width: 8, Height: 6, Backend: backend})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer w.Release()

	if w.Codec() != "mjpeg" {
		t.Errorf("Codec = %q, want mjpeg", w.Codec())
	}
	if w.Info().Codec != "mjpeg" {
		t.Errorf("Info().Codec = %q, want mjpeg", w.Info().Codec)
	}
	if !strings.Contains(w.String(), "mjpeg") {
		t.Errorf("String() = %q, want the written codec", w.String())
	}
}

func TestWriter_Write(t *testing.T) {
	w, backend := newTestWriter(t, WriterOptions{Name: "out.mp4", Width: 4, Height: 3, FPS: 2})

	frame := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for i := 0; i < 5; i++ {
		if err := w.Write(frame); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if len(backend.Sinks[0].Frames) != 5 {
		t.Errorf("sink received %d frames, want 5", len(backend.Sinks[0].Frames))
	}
	if w.FrameCount() != 5 {
		t.Errorf("FrameCount = %d, want 5", w.FrameCount())
	}
	if math.Abs(w.Seconds()-2.5) > 1e-9 {
		t.Errorf("Seconds = %v, want 2.5", w.Seconds())
	}
}

func TestWriter_WriteConvertsImages(t *testing.T) {
	w, backend := newTestWriter(t, WriterOptions{Name: "out.mp4", Width: 2, Height: 2})

	src := image.NewNRGBA(image.Rect(10, 10, 12, 12))
	src.SetNRGBA(10, 10, color.NRGBA{R: 200, A: 255})
	if err := w.Write(src); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got := backend.Sinks[0].Frames[0]
	if got.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Errorf("frame bounds = %v, want origin-anchored", got.Bounds())
	}
	if got.RGBAAt(0, 0).R != 200 {
		t.Errorf("pixel not preserved: %v", got.RGBAAt(0, 0))
	}
}

func TestWriter_ShapeMismatch(t *testing.T) {
	w, backend := newTestWriter(t, WriterOptions{Name: "out.mp4", Width: 4, Height: 3})

	tests := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 3, 4)),
		image.NewRGBA(image.Rect(0, 0, 5, 3)),
		nil,
	}
	for _, frame := range tests {
		if err := w.Write(frame); !errors.Is(err, ErrFrameShapeMismatch) {
			t.Errorf("expected ErrFrameShapeMismatch, got %v", err)
		}
	}
	if len(backend.Sinks[0].Frames) != 0 {
		t.Error("mismatched frames reached the sink")
	}
	if w.FrameCount() != 0 {
		t.Errorf("FrameCount = %d, want 0", w.FrameCount())
	}
	if !w.IsOpen() {
		t.Error("a shape mismatch must not close the writer")
	}

	if err := w.Write(image.NewRGBA(image.Rect(0, 0, 4, 3))); err != nil {
		t.Errorf("valid write after mismatch failed: %v", err)
	}
}

func TestWriter_WriteError(t *testing.T) {
	w, backend := newTestWriter(t, WriterOptions{Name: "out.mp4", Width: 4, Height: 3})
	cause := errors.New("broken pipe")
	backend.Sinks[0].WriteFrameFunc = func(img *image.RGBA) error { return cause }

	err := w.Write(image.NewRGBA(image.Rect(0, 0, 4, 3)))
	if !errors.Is(err, cause) {
		t.Errorf("expected sink error, got %v", err)
	}
	if w.FrameCount() != 0 {
		t.Errorf("FrameCount = %d, want 0", w.FrameCount())
	}
}

func TestWriter_WriteBatchAndAll(t *testing.T) {
	w, backend := newTestWriter(t, WriterOptions{Name: "out.mp4", Width: 4, Height: 3})

	batch := Batch{
		image.NewRGBA(image.Rect(0, 0, 4, 3)),
		image.NewRGBA(image.Rect(0, 0, 4, 3)),
	}
	if err := w.WriteBatch(batch); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}

	frames := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 4, 3)),
		image.NewRGBA(image.Rect(0, 0, 1, 1)),
		image.NewRGBA(image.Rect(0, 0, 4, 3)),
	}
	if err := w.WriteAll(frames); !errors.Is(err, ErrFrameShapeMismatch) {
		t.Errorf("expected WriteAll to stop at the mismatched frame, got %v", err)
	}
	if len(backend.Sinks[0].Frames) != 3 {
		t.Errorf("sink received %d frames, want 3", len(backend.Sinks[0].Frames))
	}
}

func TestWriter_WriteFromReader(t *testing.T) {
	r, backend := newTestReader(t, 30, 8, true)
	w, err := NewWriter(r, WriterOptions{Backend: backend})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	n, err := w.WriteFrom(r)
	if err != nil {
		t.Fatalf("WriteFrom failed: %v", err)
	}
	if n != 30 || w.FrameCount() != 30 {
		t.Errorf("wrote %d frames (FrameCount %d), want 30", n, w.FrameCount())
	}
	for i, f := range backend.Sinks[0].Frames {
		if int(f.Pix[0]) != i {
			t.Fatalf("frame %d out of order", i)
		}
	}
}

type failingSource struct {
	batches int
	err     error
}

func (s *failingSource) Read() (Batch, error) {
	if s.batches == 0 {
		return nil, s.err
	}
	s.batches--
	return Batch{image.NewRGBA(image.Rect(0, 0, 4, 3))}, nil
}

func TestWriter_WriteFromError(t *testing.T) {
	w, _ := newTestWriter(t, WriterOptions{Name: "out.mp4", Width: 4, Height: 3})
	cause := errors.New("source died")

	n, err := w.WriteFrom(&failingSource{batches: 2, err: cause})
	if !errors.Is(err, cause) {
		t.Errorf("expected source error, got %v", err)
	}
	if n != 2 {
		t.Errorf("wrote %d frames before the error, want 2", n)
	}

	n, err = w.WriteFrom(&failingSource{batches: 1, err: io.EOF})
	if err != nil || n != 1 {
		t.Errorf("WriteFrom = %d, %v", n, err)
	}
}

func TestWriter_Release(t *testing.T) {
	w, backend := newTestWriter(t, WriterOptions{Name: "out.mp4", Width: 4, Height: 3})

	if err := w.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := w.Release(); err != nil {
		t.Fatalf("second Release failed: %v", err)
	}
	if backend.Sinks[0].CloseCalls != 1 {
		t.Errorf("sink closed %d times, want 1", backend.Sinks[0].CloseCalls)
	}
	if w.IsOpen() {
		t.Error("released writer reports open")
	}
	if err := w.Write(image.NewRGBA(image.Rect(0, 0, 4, 3))); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Write after Release: expected ErrSessionClosed, got %v", err)
	}
	if err := w.WriteBatch(Batch{image.NewRGBA(image.Rect(0, 0, 4, 3))}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("WriteBatch after Release: expected ErrSessionClosed, got %v", err)
	}
}

func TestWriter_ReleaseError(t *testing.T) {
	w, backend := newTestWriter(t, WriterOptions{Name: "out.mp4", Width: 4, Height: 3})
	cause := errors.New("moov atom not written")
	backend.Sinks[0].CloseFunc = func() error { return cause }

	if err := w.Release(); !errors.Is(err, cause) {
		t.Errorf("expected finalize error, got %v", err)
	}
	if err := w.Release(); err != nil {
		t.Errorf("second Release should not fail, got %v", err)
	}
}

func TestWithWriter(t *testing.T) {
	backend := mocks.NewMediaBackend(0, 0, 0, 0)
	opts := WriterOptions{Name: "out.mp4", Width: 4, Height: 3, Backend: backend}

	err := WithWriter(nil, opts, func(w *Writer) error {
		return w.Write(image.NewRGBA(image.Rect(0, 0, 4, 3)))
	})
	if err != nil {
		t.Fatalf("WithWriter failed: %v", err)
	}
	if backend.Sinks[0].CloseCalls != 1 {
		t.Errorf("sink closed %d times, want 1", backend.Sinks[0].CloseCalls)
	}

	cause := errors.New("stop")
	err = WithWriter(nil, opts, func(w *Writer) error { return cause })
	if !errors.Is(err, cause) {
		t.Errorf("expected scope error, got %v", err)
	}
	if backend.Sinks[1].CloseCalls != 1 {
		t.Errorf("sink closed %d times, want 1", backend.Sinks[1].CloseCalls)
	}
}

func TestWithWriter_ReleasesOnPanic(t *testing.T) {
	backend := mocks.NewMediaBackend(0, 0, 0, 0)
	opts := WriterOptions{Name: "out.mp4", Width: 4, Height: 3, Backend: backend}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = WithWriter(nil, opts, func(w *Writer) error { panic("boom") })
	}()

	if backend.Sinks[0].CloseCalls != 1 {
		t.Errorf("sink closed %d times, want 1", backend.Sinks[0].CloseCalls)
	}
}

func TestWriter_String(t *testing.T) {
	w, _ := newTestWriter(t, WriterOptions{Name: "out.gif", Width: 4, Height: 3, FPS: 10})
	s := w.String()
	for _, want := range []string{"name: out.gif", "ext: .gif", "codec: gif", "backend: mock", "frame_count: 0"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestRoundTrip_ImageSequence(t *testing.T) {
	fs := mocks.NewFileSystem()
	backend := smartbackend.New(smartbackend.Options{ImageFPS: 2, FS: fs})

	src, err := NewReader("synth://solid?width=16&height=12&fps=2&frames=30", ReaderOptions{Backend: backend})
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer src.Release()
	if src.Backend() != smartbackend.BackendSynthetic {
		t.Errorf("source backend = %q", src.Backend())
	}

	var written int
	err = WithWriter(src, WriterOptions{Name: "out/frame_%05d.png", Backend: backend}, func(w *Writer) error {
		if w.Info().Backend != smartbackend.BackendImageSeq {
			t.Errorf("sink backend = %q", w.Info().Backend)
		}
		var err error
		written, err = w.WriteFrom(src)
		return err
	})
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if written != 30 {
		t.Fatalf("wrote %d frames, want 30", written)
	}

	var frames []Batch
	err = WithReader("out/frame_%05d.png", ReaderOptions{Backend: backend}, func(r *Reader) error {
		if r.Width() != 16 || r.Height() != 12 || r.FPS() != 2 {
			t.Errorf("reopened stream is %dx%d @ %v", r.Width(), r.Height(), r.FPS())
		}
		var err error
		frames, err = r.ReadAll()
		return err
	})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if len(frames) != 30 {
		t.Errorf("reopened %d frames, want 30", len(frames))
	}
	for i, b := range frames {
		if got := b[0].RGBAAt(0, 0).R; int(got) != i {
			t.Fatalf("frame %d decoded with marker %d", i, got)
		}
	}
}
