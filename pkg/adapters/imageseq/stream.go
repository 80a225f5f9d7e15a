package imageseq

import (
	"fmt"
	"image"
	"io"
	"sync"

	"golang.org/x/image/draw"

	"github.com/user/vidsz/pkg/ports"
)

type source struct {
	backend *Backend
	files   []string
	info    ports.StreamInfo

	mu     sync.Mutex
	next   int
	closed bool
}

func (s *source) Info() ports.StreamInfo {
	return s.info
}

// ReadFrame decodes the next file. Images whose size differs from the
// first are scaled to it.
func (s *source) ReadFrame() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.next >= len(s.files) {
		return nil, io.EOF
	}

	name := s.files[s.next]
	img, err := s.backend.decode(name)
	if err != nil {
		return nil, err
	}
	s.next++

	b := img.Bounds()
	if b.Dx() != s.info.Width || b.Dy() != s.info.Height {
		s.backend.log.Debug("Scaling %s from %dx%d to %dx%d", name, b.Dx(), b.Dy(), s.info.Width, s.info.Height)
		return s.backend.r.ResizeImage(img, s.info.Width, s.info.Height), nil
	}
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst, nil
}

func (s *source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (b *Backend) decode(name string) (image.Image, error) {
	data, err := b.fs.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	img, err := b.r.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return img, nil
}

type sink struct {
	backend *Backend
	pattern string
	format  ports.ImageFormat
	quality int

	mu     sync.Mutex
	index  int
	closed bool
}

func (s *sink) WriteFrame(img *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	data, err := s.backend.r.EncodeImage(img, s.format, s.quality)
	if err != nil {
		return err
	}
	name := fmt.Sprintf(s.pattern, s.index)
	if err := s.backend.fs.WriteFile(name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	s.index++
	return nil
}

func (s *sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
