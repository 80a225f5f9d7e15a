package vidsz

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultFPS is used when neither the caller nor a reader supplies a frame rate.
const DefaultFPS = 30.0

// DefaultExt is appended to derived destination names that have no extension.
const DefaultExt = ".mp4"

// rawCodec is reported for destinations without a container.
const rawCodec = "rawvideo"

// outputSuffix is appended to a source's base name to derive a destination.
const outputSuffix = "_out"

// extCodecs maps container extensions to the codec used when none is configured.
var extCodecs = map[string]string{
	".mp4":  "libx264",
	".m4v":  "libx264",
	".mov":  "libx264",
	".mkv":  "libx264",
	".avi":  "mpeg4",
	".webm": "libvpx-vp9",
	".gif":  "gif",
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
}

// WriterConfig holds the encoding parameters of a Writer.
// Zero values mean "not set".
type WriterConfig struct {
	Name    string
	Ext     string
	Width   int
	Height  int
	FPS     float64
	Codec   string
	Quality int
	Bitrate int
}

// DefaultWriterConfig returns the library defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{FPS: DefaultFPS}
}

// InheritedWriterConfig derives a configuration from an open reader:
// its native size and frame rate, and "<base>_out<ext>" as destination.
func InheritedWriterConfig(r *Reader) WriterConfig {
	if r == nil {
		return WriterConfig{}
	}
	return WriterConfig{
		Name:   DerivedOutputName(r.Name()),
		Width:  r.Width(),
		Height: r.Height(),
		FPS:    r.FPS(),
	}
}

// DerivedOutputName returns the default destination for a source name.
// Device indices and URL-like sources have no usable base name and map
// to "vidsz_out.mp4".
func DerivedOutputName(source string) string {
	if _, err := strconv.Atoi(source); err == nil || strings.Contains(source, "://") {
		return "vidsz" + outputSuffix + DefaultExt
	}
	clean := filepath.Clean(source)
	ext := filepath.Ext(clean)
	base := strings.TrimSuffix(clean, ext)
	if ext == "" {
		ext = DefaultExt
	}
	return base + outputSuffix + ext
}

// MergeWriterConfig layers configurations in increasing precedence:
// every set field of a later layer replaces the one below it.
// Called as MergeWriterConfig(defaults, inherited, explicit).
func MergeWriterConfig(layers ...WriterConfig) WriterConfig {
	var out WriterConfig
	for _, l := range layers {
		if l.Name != "" {
			out.Name = l.Name
		}
		if l.Ext != "" {
			out.Ext = l.Ext
		}
		if l.Width > 0 {
			out.Width = l.Width
		}
		if l.Height > 0 {
			out.Height = l.Height
		}
		if l.FPS > 0 {
			out.FPS = l.FPS
		}
		if l.Codec != "" {
			out.Codec = l.Codec
		}
		if l.Quality > 0 {
			out.Quality = l.Quality
		}
		if l.Bitrate > 0 {
			out.Bitrate = l.Bitrate
		}
	}
	return out
}

// resolve fills the extension and codec and validates the result.
func (c WriterConfig) resolve() (WriterConfig, error) {
	if c.Name == "" {
		return c, fmt.Errorf("%w: no destination: give a reader or a name", ErrSinkUnavailable)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return c, fmt.Errorf("%w: invalid frame size %dx%d", ErrSinkUnavailable, c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return c, fmt.Errorf("%w: invalid frame rate %.2f", ErrSinkUnavailable, c.FPS)
	}

	ext := c.Ext
	if ext == "" {
		ext = filepath.Ext(c.Name)
	}
	if strings.Contains(c.Name, "://") && ext == "" {
		// Stream locators carry no container; frames pass through raw.
		if c.Codec == "" {
			c.Codec = rawCodec
		}
		return c, nil
	}
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Ext = ext

	if c.Codec == "" {
		codec, ok := extCodecs[ext]
		if !ok {
			return c, fmt.Errorf("%w: unsupported extension %q", ErrSinkUnavailable, ext)
		}
		c.Codec = codec
	}
	return c, nil
}
