package ffmpegbackend

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"

	"github.com/user/vidsz/pkg/ports"
)

// source decodes frames from an ffmpeg process writing raw RGBA to stdout.
type source struct {
	info ports.StreamInfo

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	stderr stderrBuffer
	closed bool

	// done is set once stdout is drained and the process has been
	// reaped. err holds its failure, if any.
	done bool
	err  error
}

func startSource(ffmpegPath string, input []string, info ports.StreamInfo) (*source, error) {
	args := []string{"-v", "error", "-nostdin"}
	args = append(args, input...)
	args = append(args,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)

	s := &source{info: info}
	s.cmd = exec.Command(ffmpegPath, args...)
	s.cmd.Stderr = &s.stderr

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	s.stdout = stdout
	s.reader = bufio.NewReaderSize(stdout, info.Width*info.Height*4)

	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return s, nil
}

func (s *source) Info() ports.StreamInfo {
	return s.info
}

// ReadFrame reads exactly one frame worth of bytes. A truncated trailing
// frame is treated as end of stream when ffmpeg exits cleanly; a
// non-zero exit is reported on this and every later call.
func (s *source) ReadFrame() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrNotInitialized
	}
	if s.done {
		return nil, s.endErr()
	}

	img := image.NewRGBA(image.Rect(0, 0, s.info.Width, s.info.Height))
	_, err := io.ReadFull(s.reader, img.Pix)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		s.wait()
		return nil, s.endErr()
	}
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return img, nil
}

// wait reaps the process after stdout reached EOF.
func (s *source) wait() {
	s.done = true
	if err := s.cmd.Wait(); err != nil {
		s.err = fmt.Errorf("%w: %w\nstderr: %s", ErrDecodeFailed, err, s.stderr.String())
	}
}

func (s *source) endErr() error {
	if s.err != nil {
		return s.err
	}
	return io.EOF
}

// Close stops the decoder. A process still running is killed; its exit
// status is then not an error.
func (s *source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.done {
		return nil
	}
	s.done = true
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.stdout.Close()
	s.cmd.Wait()
	return nil
}
