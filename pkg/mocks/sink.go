package mocks

import (
	"image"
	"sync"

	"github.com/user/vidsz/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	SourceJSON []byte
	TargetJSON []byte
	Frames     map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled: enabled,
		Frames:  make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveSourceJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourceJSON = data
	return nil
}

func (m *DebugSink) SaveTargetJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TargetJSON = data
	return nil
}

func (m *DebugSink) SaveFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[index] = img
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
