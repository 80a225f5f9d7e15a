package ffmpegbackend

import (
	"runtime"
	"strconv"
)

// isDeviceIndex reports whether name selects a capture device ("0", "1", ...).
func isDeviceIndex(name string) bool {
	n, err := strconv.Atoi(name)
	return err == nil && n >= 0
}

// inputArgs returns the ffmpeg/ffprobe input arguments for name.
// Device indices map to the platform capture API on Linux and macOS.
func inputArgs(name string) []string {
	if !isDeviceIndex(name) {
		return []string{"-i", name}
	}
	switch runtime.GOOS {
	case "linux":
		return []string{"-f", "v4l2", "-i", "/dev/video" + name}
	case "darwin":
		return []string{"-f", "avfoundation", "-framerate", "30", "-i", name + ":none"}
	default:
		return []string{"-i", name}
	}
}
