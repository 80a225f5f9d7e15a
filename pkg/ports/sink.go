package ports

import (
	"image"
)

// DebugSink abstracts debug output of a copy run: the probed stream
// properties on both ends and sampled frames.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSourceJSON saves the source properties as JSON.
	SaveSourceJSON(data []byte) error

	// SaveTargetJSON saves the destination properties as JSON.
	SaveTargetJSON(data []byte) error

	// SaveFrame saves a copied frame.
	SaveFrame(index int, img image.Image) error
}
