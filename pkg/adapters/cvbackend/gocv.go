//go:build gocv

package cvbackend

import (
	"fmt"
	"image"
	"io"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"

	"github.com/user/vidsz/pkg/ports"
)

// Compiled reports whether OpenCV support is built in.
const Compiled = true

// OpenSource implements ports.MediaBackend. Non-negative integers open a
// capture device.
func (b *Backend) OpenSource(name string) (ports.MediaSource, error) {
	var vc *gocv.VideoCapture
	var err error
	if idx, convErr := strconv.Atoi(name); convErr == nil && idx >= 0 {
		vc, err = gocv.VideoCaptureDevice(idx)
	} else {
		vc, err = gocv.VideoCaptureFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, name, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", ErrOpenFailed, name)
	}

	info := ports.StreamInfo{
		Width:      int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(vc.Get(gocv.VideoCaptureFrameHeight)),
		FPS:        vc.Get(gocv.VideoCaptureFPS),
		FrameCount: max(int(vc.Get(gocv.VideoCaptureFrameCount)), 0),
		Codec:      vc.CodecString(),
	}
	b.log.Debug("Opened %s at %dx%d @ %.2f fps", name, info.Width, info.Height, info.FPS)

	return &source{vc: vc, mat: gocv.NewMat(), rgba: gocv.NewMat(), info: info}, nil
}

// OpenSink implements ports.MediaBackend. The codec follows the
// extension; SinkOptions.Codec is used when it is a four character code.
func (b *Backend) OpenSink(path string, opts ports.SinkOptions) (ports.MediaSink, error) {
	codec := FourCC(path)
	if len(opts.Codec) == 4 {
		codec = opts.Codec
	}
	vw, err := gocv.VideoWriterFile(path, codec, opts.FPS, opts.Width, opts.Height, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, err)
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, fmt.Errorf("%w: %s", ErrOpenFailed, path)
	}
	b.log.Debug("Writing %s with %s at %dx%d @ %.2f fps", path, codec, opts.Width, opts.Height, opts.FPS)
	return &sink{vw: vw}, nil
}

type source struct {
	vc   *gocv.VideoCapture
	mat  gocv.Mat
	rgba gocv.Mat
	info ports.StreamInfo

	mu     sync.Mutex
	closed bool
}

func (s *source) Info() ports.StreamInfo {
	return s.info
}

func (s *source) ReadFrame() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if !s.vc.Read(&s.mat) || s.mat.Empty() {
		return nil, io.EOF
	}

	gocv.CvtColor(s.mat, &s.rgba, gocv.ColorBGRToRGBA)
	img, err := s.rgba.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst, nil
}

func (s *source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	s.rgba.Close()
	return s.vc.Close()
}

type sink struct {
	vw *gocv.VideoWriter

	mu     sync.Mutex
	closed bool
}

func (s *sink) WriteFrame(img *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	rgba, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	return s.vw.Write(bgr)
}

func (s *sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.vw.Close()
}
