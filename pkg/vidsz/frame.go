package vidsz

import (
	"image"

	"golang.org/x/image/draw"
)

// Batch is an ordered group of frames returned by a single Read.
type Batch []*image.RGBA

// Len returns the number of frames in the batch.
func (b Batch) Len() int {
	return len(b)
}

// toRGBA returns img as an *image.RGBA anchored at the origin,
// copying only when the input is of another type or offset.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
