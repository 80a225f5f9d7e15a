package imageseq

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/user/vidsz/pkg/adapters/ggrenderer"
	"github.com/user/vidsz/pkg/mocks"
	"github.com/user/vidsz/pkg/ports"
)

func frame(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func newTestBackend(fs *mocks.FileSystem) *Backend {
	return New(Options{FPS: 12, FS: fs})
}

func writeFrames(t *testing.T, b *Backend, path string, n, w, h int) {
	t.Helper()
	sink, err := b.OpenSink(path, ports.SinkOptions{Width: w, Height: h, FPS: 12})
	if err != nil {
		t.Fatalf("OpenSink failed: %v", err)
	}
	for i := 0; i < n; i++ {
		if err := sink.WriteFrame(frame(w, h, uint8(i*40))); err != nil {
			t.Fatalf("WriteFrame %d failed: %v", i, err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func countFrames(t *testing.T, src ports.MediaSource) int {
	t.Helper()
	n := 0
	for {
		_, err := src.ReadFrame()
		if errors.Is(err, io.EOF) {
			return n
		}
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		n++
	}
}

func TestBackend_RoundTrip(t *testing.T) {
	fs := mocks.NewFileSystem()
	b := newTestBackend(fs)

	writeFrames(t, b, "out/frame.png", 5, 16, 8)

	if _, ok := fs.GetFile("out/frame_00000.png"); !ok {
		t.Fatal("expected out/frame_00000.png to be written")
	}
	if _, ok := fs.GetFile("out/frame_00004.png"); !ok {
		t.Fatal("expected out/frame_00004.png to be written")
	}

	sources := []string{"out/frame_%05d.png", "out/*.png", "out"}
	for _, name := range sources {
		t.Run(name, func(t *testing.T) {
			src, err := b.OpenSource(name)
			if err != nil {
				t.Fatalf("OpenSource failed: %v", err)
			}
			defer src.Close()

			info := src.Info()
			if info.Width != 16 || info.Height != 8 {
				t.Errorf("expected 16x8, got %dx%d", info.Width, info.Height)
			}
			if info.FPS != 12 {
				t.Errorf("expected fps 12, got %v", info.FPS)
			}
			if info.FrameCount != 5 {
				t.Errorf("expected 5 frames, got %d", info.FrameCount)
			}
			if info.Codec != "png" {
				t.Errorf("expected codec png, got %s", info.Codec)
			}
			if got := countFrames(t, src); got != 5 {
				t.Errorf("expected to read 5 frames, got %d", got)
			}
		})
	}
}

func TestBackend_PixelsSurvivePNG(t *testing.T) {
	fs := mocks.NewFileSystem()
	b := newTestBackend(fs)
	writeFrames(t, b, "seq/%03d.png", 3, 4, 4)

	src, err := b.OpenSource("seq/%03d.png")
	if err != nil {
		t.Fatalf("OpenSource failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		img, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		if got := img.RGBAAt(1, 1).R; got != uint8(i*40) {
			t.Errorf("frame %d: expected R=%d, got %d", i, i*40, got)
		}
	}
}

func TestBackend_PrintfStartsAtOne(t *testing.T) {
	fs := mocks.NewFileSystem()
	r := ggrenderer.New()
	for i := 1; i <= 3; i++ {
		data, err := r.EncodeImage(frame(8, 8, 0), ports.FormatPNG, 0)
		if err != nil {
			t.Fatal(err)
		}
		fs.WriteFile(fmt.Sprintf("img%d.png", i), data)
	}
	// Gap after 3
	data, _ := r.EncodeImage(frame(8, 8, 0), ports.FormatPNG, 0)
	fs.WriteFile("img5.png", data)

	b := newTestBackend(fs)
	src, err := b.OpenSource("img%d.png")
	if err != nil {
		t.Fatalf("OpenSource failed: %v", err)
	}
	if got := countFrames(t, src); got != 3 {
		t.Errorf("expected 3 frames, got %d", got)
	}
}

func TestBackend_ScalesMismatchedImages(t *testing.T) {
	fs := mocks.NewFileSystem()
	r := ggrenderer.New()
	a, _ := r.EncodeImage(frame(10, 10, 0), ports.FormatPNG, 0)
	c, _ := r.EncodeImage(frame(20, 5, 0), ports.FormatJPEG, 90)
	fs.WriteFile("mix/a.png", a)
	fs.WriteFile("mix/b.jpg", c)

	b := newTestBackend(fs)
	src, err := b.OpenSource("mix/*")
	if err != nil {
		t.Fatalf("OpenSource failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		img, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
			t.Errorf("frame %d: expected 10x10, got %v", i, img.Bounds())
		}
	}
}

func TestBackend_SingleFile(t *testing.T) {
	fs := mocks.NewFileSystem()
	data, _ := ggrenderer.New().EncodeImage(frame(6, 6, 0), ports.FormatBMP, 0)
	fs.WriteFile("still.bmp", data)

	src, err := newTestBackend(fs).OpenSource("still.bmp")
	if err != nil {
		t.Fatalf("OpenSource failed: %v", err)
	}
	if got := countFrames(t, src); got != 1 {
		t.Errorf("expected 1 frame, got %d", got)
	}
}

func TestBackend_OpenSourceErrors(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFile("notes.txt", []byte("hello"))
	b := newTestBackend(fs)

	for _, name := range []string{"missing_%04d.png", "nothing/*.png", "missing.png", "notes.txt"} {
		if _, err := b.OpenSource(name); !errors.Is(err, ErrUnsupportedSource) {
			t.Errorf("OpenSource(%q): expected ErrUnsupportedSource, got %v", name, err)
		}
	}
}

func TestBackend_OpenSinkUnsupported(t *testing.T) {
	b := newTestBackend(mocks.NewFileSystem())
	for _, path := range []string{"out.webp", "out.mp4"} {
		if _, err := b.OpenSink(path, ports.SinkOptions{Width: 4, Height: 4, FPS: 1}); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("OpenSink(%q): expected ErrUnsupportedFormat, got %v", path, err)
		}
	}
}

func TestBackend_ClosedStreams(t *testing.T) {
	fs := mocks.NewFileSystem()
	b := newTestBackend(fs)

	sink, err := b.OpenSink("c.png", ports.SinkOptions{Width: 2, Height: 2, FPS: 1})
	if err != nil {
		t.Fatal(err)
	}
	sink.WriteFrame(frame(2, 2, 0))
	sink.Close()
	if err := sink.WriteFrame(frame(2, 2, 0)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	src, err := b.OpenSource("c_%05d.png")
	if err != nil {
		t.Fatal(err)
	}
	src.Close()
	if _, err := src.ReadFrame(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSinkPattern(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"out/frame.png", "out/frame_%05d.png"},
		{"out/%03d.jpg", "out/%03d.jpg"},
		{"a.b/shot.tiff", "a.b/shot_%05d.tiff"},
	}
	for _, tt := range tests {
		if got := SinkPattern(tt.path); got != tt.want {
			t.Errorf("SinkPattern(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsPattern(t *testing.T) {
	tests := map[string]bool{
		"frames/%05d.png": true,
		"frames/*.png":    true,
		"frame?.png":      true,
		"clip.mp4":        false,
		"0":               false,
	}
	for name, want := range tests {
		if got := IsPattern(name); got != want {
			t.Errorf("IsPattern(%q) = %v, want %v", name, got, want)
		}
	}
}
