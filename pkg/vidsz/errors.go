package vidsz

import "errors"

var (
	// ErrSourceUnavailable is returned when a video source cannot be opened.
	ErrSourceUnavailable = errors.New("vidsz: source unavailable")

	// ErrSinkUnavailable is returned when a destination cannot be created.
	ErrSinkUnavailable = errors.New("vidsz: sink unavailable")

	// ErrFrameShapeMismatch is returned when a frame's dimensions differ from the writer's.
	ErrFrameShapeMismatch = errors.New("vidsz: frame shape mismatch")

	// ErrSessionClosed is returned by any read or write after Release.
	ErrSessionClosed = errors.New("vidsz: session closed")
)
