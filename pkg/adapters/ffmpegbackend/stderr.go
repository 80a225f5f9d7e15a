package ffmpegbackend

import (
	"bytes"
	"sync"
)

// stderrBuffer collects process stderr. exec copies into it from its own
// goroutine, so reads and writes share a lock.
type stderrBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *stderrBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *stderrBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
