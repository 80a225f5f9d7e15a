//go:build !gocv

package cvbackend

import (
	"github.com/user/vidsz/pkg/ports"
)

// Compiled reports whether OpenCV support is built in.
const Compiled = false

// OpenSource implements ports.MediaBackend.
func (b *Backend) OpenSource(name string) (ports.MediaSource, error) {
	return nil, ErrBackendNotCompiled
}

// OpenSink implements ports.MediaBackend.
func (b *Backend) OpenSink(path string, opts ports.SinkOptions) (ports.MediaSink, error) {
	return nil, ErrBackendNotCompiled
}
