// Package ffmpegbackend implements ports.MediaBackend with ffmpeg and
// ffprobe running as external processes. Frames cross the process
// boundary as raw RGBA over stdin/stdout pipes.
package ffmpegbackend

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/user/vidsz/pkg/adapters/logger"
	"github.com/user/vidsz/pkg/ports"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg cannot be located.
	ErrFFmpegNotFound = errors.New("ffmpegbackend: ffmpeg not found in PATH")

	// ErrFFprobeNotFound is returned when ffprobe cannot be located.
	ErrFFprobeNotFound = errors.New("ffmpegbackend: ffprobe not found in PATH")

	// ErrProbeFailed is returned when stream properties cannot be determined.
	ErrProbeFailed = errors.New("ffmpegbackend: probe failed")

	// ErrDecodeFailed is returned when the decoder exits with an error.
	ErrDecodeFailed = errors.New("ffmpegbackend: ffmpeg decode failed")

	// ErrNotInitialized is returned when a closed source or sink is used.
	ErrNotInitialized = errors.New("ffmpegbackend: stream not open")
)

// Options configures the backend.
type Options struct {
	// FFmpegPath overrides ffmpeg lookup.
	FFmpegPath string
	// FFprobePath overrides ffprobe lookup.
	FFprobePath string
	// Preset is the x264/x265 encoding preset. Defaults to "fast".
	Preset string
	Logger ports.Logger
}

// Backend opens ffmpeg decode and encode processes.
type Backend struct {
	opts Options
	log  ports.Logger
}

// New creates a new ffmpeg backend. Executables are looked up lazily
// when a stream is opened.
func New(opts Options) *Backend {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	if opts.Preset == "" {
		opts.Preset = "fast"
	}
	return &Backend{
		opts: opts,
		log:  opts.Logger.WithComponent("ffmpeg"),
	}
}

// Name implements ports.MediaBackend.
func (b *Backend) Name() string {
	return "ffmpeg"
}

// OpenSource implements ports.MediaBackend.
func (b *Backend) OpenSource(name string) (ports.MediaSource, error) {
	ffmpegPath, err := FindFFmpeg(b.opts.FFmpegPath)
	if err != nil {
		return nil, err
	}

	input := inputArgs(name)
	if !isDeviceIndex(name) {
		if _, err := os.Stat(name); err != nil {
			return nil, fmt.Errorf("stat source: %w", err)
		}
	}

	info, err := b.probe(name, input)
	if err != nil {
		return nil, err
	}
	b.log.Debug("Probed %s: %dx%d @ %.2f fps, %d frames, %s",
		name, info.Width, info.Height, info.FPS, info.FrameCount, info.Codec)

	return startSource(ffmpegPath, input, info)
}

// OpenSink implements ports.MediaBackend.
func (b *Backend) OpenSink(path string, opts ports.SinkOptions) (ports.MediaSink, error) {
	ffmpegPath, err := FindFFmpeg(b.opts.FFmpegPath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if st, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	} else if !st.IsDir() {
		return nil, fmt.Errorf("output directory: %s is not a directory", dir)
	}

	b.log.Debug("Encoding %s with %s at %dx%d @ %.2f fps", path, opts.Codec, opts.Width, opts.Height, opts.FPS)
	return startSink(ffmpegPath, path, opts, b.opts.Preset)
}

// IsAvailable checks if ffmpeg and ffprobe are available on the system.
func IsAvailable() bool {
	if _, err := FindFFmpeg(""); err != nil {
		return false
	}
	_, err := FindFFprobe("", "")
	return err == nil
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) custom path, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg(custom string) (string, error) {
	return findExecutable("ffmpeg", custom, "FFMPEG_PATH", ErrFFmpegNotFound)
}

// FindFFprobe searches for ffprobe. An ffprobe next to ffmpegPath wins
// over the PATH lookup.
func FindFFprobe(custom, ffmpegPath string) (string, error) {
	if custom == "" && os.Getenv("FFPROBE_PATH") == "" && ffmpegPath != "" {
		sibling := filepath.Join(filepath.Dir(ffmpegPath), executableName("ffprobe"))
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}
	return findExecutable("ffprobe", custom, "FFPROBE_PATH", ErrFFprobeNotFound)
}

func findExecutable(name, custom, envVar string, notFound error) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", notFound, custom)
	}

	if envPath := os.Getenv(envVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: %s %s not found", notFound, envVar, envPath)
	}

	execName := executableName(name)
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonDirs []string
	switch runtime.GOOS {
	case "windows":
		commonDirs = []string{
			`C:\ffmpeg\bin`,
			`C:\Program Files\ffmpeg\bin`,
			`C:\Program Files (x86)\ffmpeg\bin`,
		}
	case "darwin":
		commonDirs = []string{"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin"}
	default:
		commonDirs = []string{"/usr/bin", "/usr/local/bin", "/opt/homebrew/bin", "/snap/bin"}
	}

	for _, dir := range commonDirs {
		p := filepath.Join(dir, execName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", notFound
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// Ensure Backend implements ports.MediaBackend
var _ ports.MediaBackend = (*Backend)(nil)
