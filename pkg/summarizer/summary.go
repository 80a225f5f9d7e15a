package summarizer

import (
	"time"

	"github.com/google/uuid"
)

// Summary contains all data collected during a copy run.
type Summary struct {
	// Metadata
	RunID       string
	GeneratedAt time.Time

	// Source and destination streams
	Source StreamInfo
	Target StreamInfo

	// Session settings
	Settings Settings

	// Copy results
	Result Result
}

// StreamInfo describes one end of the copy.
type StreamInfo struct {
	Name    string
	Backend string
	Width   int
	Height  int
	FPS     float64
	Frames  int // 0 when unknown
	Codec   string
	Ext     string
}

// Settings contains the session configuration.
type Settings struct {
	BatchSize    int
	DynamicBatch bool
	MaxFrames    int // 0 = unlimited
	Quality      int // 0 = backend default
	Bitrate      int // kbps, 0 = backend default
}

// Result contains what the copy produced.
type Result struct {
	FramesRead    int
	FramesWritten int
	Batches       int
	Elapsed       time.Duration
	FileSize      int64 // 0 when the destination is not a single file
}

// Discarded returns the frames read but not written.
func (r Result) Discarded() int {
	return max(r.FramesRead-r.FramesWritten, 0)
}

// NewSummary creates a new Summary with a fresh run ID and the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets source stream information.
func (b *Builder) WithSource(info StreamInfo) *Builder {
	b.summary.Source = info
	return b
}

// WithTarget sets destination stream information.
func (b *Builder) WithTarget(info StreamInfo) *Builder {
	b.summary.Target = info
	return b
}

// WithSettings sets session settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithResult sets the copy results.
func (b *Builder) WithResult(result Result) *Builder {
	b.summary.Result = result
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
