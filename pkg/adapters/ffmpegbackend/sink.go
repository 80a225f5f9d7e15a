package ffmpegbackend

import (
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/user/vidsz/pkg/ports"
)

// crfCodecs accept -crf on a 0-51 (x264/x265) or 0-63 (vp9) scale.
var crfCodecs = map[string]int{
	"libx264":    51,
	"libx265":    51,
	"libvpx-vp9": 63,
}

// sink encodes frames by piping raw RGBA into an ffmpeg process.
type sink struct {
	path   string
	width  int
	height int

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr stderrBuffer
	closed bool
}

func startSink(ffmpegPath, path string, opts ports.SinkOptions, preset string) (*sink, error) {
	args := []string{
		"-y",             // Overwrite output
		"-v", "error",    // Only report errors
		"-f", "rawvideo", // Input format
		"-pix_fmt", "rgba", // Input pixel format
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height), // Input size
		"-r", fmt.Sprintf("%.3f", opts.FPS), // Input frame rate
		"-i", "pipe:0", // Read from stdin
	}
	args = append(args, codecArgs(opts, preset)...)
	args = append(args, path)

	s := &sink{path: path, width: opts.Width, height: opts.Height}
	s.cmd = exec.Command(ffmpegPath, args...)
	s.cmd.Stderr = &s.stderr

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	s.stdin = stdin

	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return s, nil
}

// codecArgs builds the output encoding arguments.
func codecArgs(opts ports.SinkOptions, preset string) []string {
	var args []string
	if opts.Codec != "" {
		args = append(args, "-c:v", opts.Codec)
	}

	switch opts.Codec {
	case "libx264", "libx265":
		args = append(args, "-preset", preset, "-pix_fmt", "yuv420p")
	case "gif", "png":
	default:
		args = append(args, "-pix_fmt", "yuv420p")
	}

	if maxCRF, ok := crfCodecs[opts.Codec]; ok {
		if opts.Quality > 0 && opts.Quality <= 63 {
			// Convert our 0-63 scale to the codec's CRF range
			crf := opts.Quality * maxCRF / 63
			args = append(args, "-crf", fmt.Sprintf("%d", crf))
		} else if opts.Codec != "libvpx-vp9" {
			args = append(args, "-crf", "23") // Default quality
		}
	}

	if opts.Bitrate > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", opts.Bitrate))
	}

	if opts.Ext == ".mp4" || opts.Ext == ".mov" || opts.Ext == ".m4v" {
		args = append(args, "-movflags", "+faststart")
	}
	return args
}

func (s *sink) WriteFrame(img *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotInitialized
	}
	if err := writeRGBA(s.stdin, img, s.width, s.height); err != nil {
		// ffmpeg usually exited; reap it so stderr is complete.
		s.closed = true
		s.stdin.Close()
		s.cmd.Wait()
		os.Remove(s.path)
		return fmt.Errorf("failed to write frame: %w\nstderr: %s", err, s.stderr.String())
	}
	return nil
}

// Close signals end of input and waits for ffmpeg to finalize the file.
func (s *sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		os.Remove(s.path)
		return fmt.Errorf("ffmpeg encoding failed: %w\nstderr: %s", err, s.stderr.String())
	}
	return nil
}

// writeRGBA writes the width x height pixels of img row by row unless
// its buffer is already tightly packed.
func writeRGBA(w io.Writer, img *image.RGBA, width, height int) error {
	rowLen := width * 4
	if img.Stride == rowLen && len(img.Pix) >= rowLen*height {
		_, err := w.Write(img.Pix[:rowLen*height])
		return err
	}
	for y := 0; y < height; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		if _, err := w.Write(img.Pix[off : off+rowLen]); err != nil {
			return err
		}
	}
	return nil
}
