// Package synthetic generates test pattern streams.
//
// Sources are named by URL:
//
//	synth://bars?width=320&height=240&fps=30&frames=90
//
// The "bars" pattern draws a horizontal gradient, a bar moving one step per
// frame, the frame index, a border and a progress line along the bottom. The "solid" pattern fills each frame with a
// color encoding its index (R = i & 0xff, G = i >> 8 & 0xff). Sinks accept
// any synth:// path and discard what they are given.
package synthetic

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/atomic"

	"github.com/user/vidsz/pkg/adapters/ggrenderer"
	"github.com/user/vidsz/pkg/adapters/logger"
	"github.com/user/vidsz/pkg/ports"
)

// Scheme prefixes every synthetic stream name.
const Scheme = "synth://"

const (
	PatternBars  = "bars"
	PatternSolid = "solid"
)

// Defaults for omitted query parameters.
const (
	DefaultWidth  = 320
	DefaultHeight = 240
	DefaultFPS    = 30.0
	DefaultFrames = 30
)

var (
	// ErrInvalidSource is returned for malformed synth:// names.
	ErrInvalidSource = errors.New("synthetic: invalid source")

	// ErrClosed is returned when a closed stream is used.
	ErrClosed = errors.New("synthetic: stream closed")
)

// Params describes a generated stream.
type Params struct {
	Pattern string
	Width   int
	Height  int
	FPS     float64
	Frames  int
}

// IsSynthetic reports whether name is a synth:// URL.
func IsSynthetic(name string) bool {
	return strings.HasPrefix(name, Scheme)
}

// ParseName parses a synth:// source name.
func ParseName(name string) (Params, error) {
	p := Params{
		Pattern: PatternBars,
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		FPS:     DefaultFPS,
		Frames:  DefaultFrames,
	}
	if !IsSynthetic(name) {
		return p, fmt.Errorf("%w: %s", ErrInvalidSource, name)
	}
	u, err := url.Parse(name)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	if u.Host != "" {
		p.Pattern = u.Host
	}
	if p.Pattern != PatternBars && p.Pattern != PatternSolid {
		return p, fmt.Errorf("%w: unknown pattern %q", ErrInvalidSource, p.Pattern)
	}

	q := u.Query()
	ints := []struct {
		key string
		dst *int
	}{
		{"width", &p.Width},
		{"height", &p.Height},
		{"frames", &p.Frames},
	}
	for _, f := range ints {
		v := q.Get(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, fmt.Errorf("%w: %s=%s", ErrInvalidSource, f.key, v)
		}
		*f.dst = n
	}
	if v := q.Get("fps"); v != "" {
		fps, err := strconv.ParseFloat(v, 64)
		if err != nil || fps <= 0 {
			return p, fmt.Errorf("%w: fps=%s", ErrInvalidSource, v)
		}
		p.FPS = fps
	}
	return p, nil
}

// Options configures the backend.
type Options struct {
	Renderer ports.Renderer
	Logger   ports.Logger
}

// Backend generates synthetic sources and discarding sinks.
type Backend struct {
	r   ports.Renderer
	log ports.Logger
}

// New creates a new synthetic backend.
func New(opts Options) *Backend {
	if opts.Renderer == nil {
		opts.Renderer = ggrenderer.New()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	return &Backend{r: opts.Renderer, log: opts.Logger.WithComponent("synthetic")}
}

// Name implements ports.MediaBackend.
func (b *Backend) Name() string {
	return "synthetic"
}

// OpenSource implements ports.MediaBackend.
func (b *Backend) OpenSource(name string) (ports.MediaSource, error) {
	p, err := ParseName(name)
	if err != nil {
		return nil, err
	}
	b.log.Debug("Generating %s %dx%d @ %.2f fps, %d frames", p.Pattern, p.Width, p.Height, p.FPS, p.Frames)
	return &source{r: b.r, params: p}, nil
}

// OpenSink implements ports.MediaBackend.
func (b *Backend) OpenSink(path string, opts ports.SinkOptions) (ports.MediaSink, error) {
	if !IsSynthetic(path) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSource, path)
	}
	return &Discard{}, nil
}

type source struct {
	r      ports.Renderer
	params Params

	mu     sync.Mutex
	index  int
	closed bool
}

func (s *source) Info() ports.StreamInfo {
	return ports.StreamInfo{
		Width:      s.params.Width,
		Height:     s.params.Height,
		FPS:        s.params.FPS,
		FrameCount: s.params.Frames,
		Codec:      s.params.Pattern,
	}
}

func (s *source) ReadFrame() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.index >= s.params.Frames {
		return nil, io.EOF
	}
	img := Draw(s.r, s.params, s.index)
	s.index++
	return img, nil
}

func (s *source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Draw renders frame i of the stream p.
func Draw(r ports.Renderer, p Params, i int) *image.RGBA {
	if p.Pattern == PatternSolid {
		return r.CreateCanvas(p.Width, p.Height, SolidColor(i)).ToImage()
	}

	w, h := p.Width, p.Height
	c := r.CreateCanvas(w, h, color.Black)

	const band = 4
	for x := 0; x < w; x += band {
		v := uint8(x * 255 / w)
		c.DrawRect(x, 0, band, h, color.RGBA{R: v, G: 64, B: 255 - v, A: 255})
	}

	barW := max(w/16, 2)
	step := max(w/int(max(p.FPS, 1)), 1)
	x := (i * step) % w
	c.DrawRect(x, 0, barW, h, color.White)

	gray := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	c.DrawRectStroke(0, 0, w, h, gray, 1)
	if p.Frames > 0 {
		c.DrawLine(0, h-2, (i+1)*w/p.Frames, h-2, color.White, 2)
	}

	c.DrawText(strconv.Itoa(i), w/2, h/2, ports.TextStyle{
		FontSize: 13,
		Color:    color.RGBA{R: 255, G: 255, A: 255},
		Align:    ports.AlignCenter,
	})
	return c.ToImage()
}

// SolidColor is the fill of frame i in the solid pattern.
func SolidColor(i int) color.RGBA {
	return color.RGBA{R: uint8(i & 0xff), G: uint8(i >> 8 & 0xff), A: 255}
}

// Discard is a sink that counts and drops frames.
type Discard struct {
	frames atomic.Int64
	closed atomic.Bool
}

func (d *Discard) WriteFrame(img *image.RGBA) error {
	if d.closed.Load() {
		return ErrClosed
	}
	d.frames.Inc()
	return nil
}

// Frames returns the number of frames written.
func (d *Discard) Frames() int {
	return int(d.frames.Load())
}

func (d *Discard) Close() error {
	d.closed.Store(true)
	return nil
}

// Ensure Backend implements ports.MediaBackend
var _ ports.MediaBackend = (*Backend)(nil)
