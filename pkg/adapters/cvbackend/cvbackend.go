// Package cvbackend implements ports.MediaBackend with OpenCV through gocv.
//
// OpenCV is a cgo dependency, so the backend is only compiled with the
// "gocv" build tag. Without it every open fails with ErrBackendNotCompiled.
package cvbackend

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/user/vidsz/pkg/adapters/logger"
	"github.com/user/vidsz/pkg/ports"
)

var (
	// ErrBackendNotCompiled is returned when the binary was built without gocv.
	ErrBackendNotCompiled = errors.New("cvbackend: built without the gocv tag")

	// ErrOpenFailed is returned when OpenCV cannot open a capture or writer.
	ErrOpenFailed = errors.New("cvbackend: open failed")

	// ErrClosed is returned when a closed source or sink is used.
	ErrClosed = errors.New("cvbackend: stream closed")
)

// fourccs maps container extensions to the writer codec.
var fourccs = map[string]string{
	".avi": "DIVX",
	".mkv": "X264",
	".mp4": "mp4v",
	".m4v": "mp4v",
	".mov": "mp4v",
}

// FourCC returns the OpenCV writer codec for path. Unknown extensions
// fall back to mp4v.
func FourCC(path string) string {
	if c, ok := fourccs[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}
	return "mp4v"
}

// Options configures the backend.
type Options struct {
	Logger ports.Logger
}

// Backend opens OpenCV captures and writers.
type Backend struct {
	log ports.Logger
}

// New creates a new OpenCV backend.
func New(opts Options) *Backend {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	return &Backend{log: opts.Logger.WithComponent("opencv")}
}

// Name implements ports.MediaBackend.
func (b *Backend) Name() string {
	return "opencv"
}

// Ensure Backend implements ports.MediaBackend
var _ ports.MediaBackend = (*Backend)(nil)
