package ffmpegbackend

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/vidsz/pkg/ports"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 30000.0 / 1001.0},
		{"25", 25},
		{"0/0", 0},
		{"", 0},
		{"abc/1", 0},
		{"x", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseRate(tt.in), 1e-9)
		})
	}
}

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{"streams":[{"codec_name":"h264","width":640,"height":480,
		"r_frame_rate":"30/1","avg_frame_rate":"30000/1001","nb_frames":"300"}]}`)

	info, err := parseProbeOutput(data)
	require.NoError(t, err)
	assert.Equal(t, 640, info.Width)
	assert.Equal(t, 480, info.Height)
	assert.InDelta(t, 29.97, info.FPS, 0.01)
	assert.Equal(t, 300, info.FrameCount)
	assert.Equal(t, "h264", info.Codec)
}

func TestParseProbeOutput_FallsBackToRFrameRate(t *testing.T) {
	data := []byte(`{"streams":[{"codec_name":"mjpeg","width":320,"height":240,
		"r_frame_rate":"15/1","avg_frame_rate":"0/0"}]}`)

	info, err := parseProbeOutput(data)
	require.NoError(t, err)
	assert.Equal(t, 15.0, info.FPS)
	assert.Zero(t, info.FrameCount)
}

func TestParseProbeOutput_Errors(t *testing.T) {
	tests := map[string]string{
		"garbage":   `not json`,
		"no stream": `{"streams":[]}`,
		"no size":   `{"streams":[{"codec_name":"h264","width":0,"height":0}]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseProbeOutput([]byte(data))
			assert.ErrorIs(t, err, ErrProbeFailed)
		})
	}
}

func TestCodecArgs(t *testing.T) {
	tests := []struct {
		name string
		opts ports.SinkOptions
		want []string
	}{
		{
			name: "x264 default quality",
			opts: ports.SinkOptions{Codec: "libx264", Ext: ".mp4"},
			want: []string{"-c:v", "libx264", "-preset", "fast", "-pix_fmt", "yuv420p", "-crf", "23", "-movflags", "+faststart"},
		},
		{
			name: "x265 scaled quality",
			opts: ports.SinkOptions{Codec: "libx265", Ext: ".mkv", Quality: 63},
			want: []string{"-c:v", "libx265", "-preset", "fast", "-pix_fmt", "yuv420p", "-crf", "51"},
		},
		{
			name: "vp9 without quality",
			opts: ports.SinkOptions{Codec: "libvpx-vp9", Ext: ".webm"},
			want: []string{"-c:v", "libvpx-vp9", "-pix_fmt", "yuv420p"},
		},
		{
			name: "vp9 quality",
			opts: ports.SinkOptions{Codec: "libvpx-vp9", Ext: ".webm", Quality: 40},
			want: []string{"-c:v", "libvpx-vp9", "-pix_fmt", "yuv420p", "-crf", "40"},
		},
		{
			name: "gif keeps palette",
			opts: ports.SinkOptions{Codec: "gif", Ext: ".gif"},
			want: []string{"-c:v", "gif"},
		},
		{
			name: "mpeg4 bitrate",
			opts: ports.SinkOptions{Codec: "mpeg4", Ext: ".avi", Bitrate: 800},
			want: []string{"-c:v", "mpeg4", "-pix_fmt", "yuv420p", "-b:v", "800k"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codecArgs(tt.opts, "fast"))
		})
	}
}

func TestInputArgs(t *testing.T) {
	assert.Equal(t, []string{"-i", "clip.mp4"}, inputArgs("clip.mp4"))
	assert.Equal(t, []string{"-i", "-1"}, inputArgs("-1"))

	switch runtime.GOOS {
	case "linux":
		assert.Equal(t, []string{"-f", "v4l2", "-i", "/dev/video0"}, inputArgs("0"))
	case "darwin":
		assert.Equal(t, []string{"-f", "avfoundation", "-framerate", "30", "-i", "1:none"}, inputArgs("1"))
	default:
		assert.Equal(t, []string{"-i", "0"}, inputArgs("0"))
	}
}

func TestWriteRGBA(t *testing.T) {
	full := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			full.SetRGBA(x, y, color.RGBA{R: uint8(y*4 + x), A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, writeRGBA(&buf, full, 4, 4))
	assert.Equal(t, full.Pix, buf.Bytes())

	sub := full.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)
	buf.Reset()
	require.NoError(t, writeRGBA(&buf, sub, 2, 2))
	got := buf.Bytes()
	require.Len(t, got, 2*2*4)
	assert.Equal(t, uint8(5), got[0])
	assert.Equal(t, uint8(6), got[4])
	assert.Equal(t, uint8(9), got[8])
	assert.Equal(t, uint8(10), got[12])
}

func TestFindFFmpeg_CustomPath(t *testing.T) {
	_, err := FindFFmpeg(filepath.Join(t.TempDir(), "missing-ffmpeg"))
	assert.ErrorIs(t, err, ErrFFmpegNotFound)

	fake := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755))
	got, err := FindFFmpeg(fake)
	require.NoError(t, err)
	assert.Equal(t, fake, got)
}

func TestFindFFmpeg_EnvPath(t *testing.T) {
	t.Setenv("FFMPEG_PATH", filepath.Join(t.TempDir(), "nope"))
	_, err := FindFFmpeg("")
	assert.ErrorIs(t, err, ErrFFmpegNotFound)
}

func TestFindFFprobe_Sibling(t *testing.T) {
	t.Setenv("FFPROBE_PATH", "")
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, executableName("ffmpeg"))
	ffprobe := filepath.Join(dir, executableName("ffprobe"))
	require.NoError(t, os.WriteFile(ffmpeg, nil, 0o755))
	require.NoError(t, os.WriteFile(ffprobe, nil, 0o755))

	got, err := FindFFprobe("", ffmpeg)
	require.NoError(t, err)
	assert.Equal(t, ffprobe, got)
}

func TestBackend_OpenSourceMissingFile(t *testing.T) {
	if !IsAvailable() {
		t.Skip("ffmpeg not available")
	}
	b := New(Options{})
	_, err := b.OpenSource(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBackend_OpenSinkMissingDir(t *testing.T) {
	if !IsAvailable() {
		t.Skip("ffmpeg not available")
	}
	b := New(Options{})
	_, err := b.OpenSink(filepath.Join(t.TempDir(), "no", "such", "out.mp4"), ports.SinkOptions{
		Width: 16, Height: 16, FPS: 5, Codec: "libx264", Ext: ".mp4",
	})
	assert.Error(t, err)
}

func TestBackend_RoundTrip(t *testing.T) {
	if !IsAvailable() {
		t.Skip("ffmpeg not available")
	}

	path := filepath.Join(t.TempDir(), "out.mp4")
	b := New(Options{Preset: "ultrafast"})
	assert.Equal(t, "ffmpeg", b.Name())

	sink, err := b.OpenSink(path, ports.SinkOptions{
		Width: 32, Height: 24, FPS: 5, Codec: "libx264", Ext: ".mp4",
	})
	require.NoError(t, err)

	const frames = 10
	for i := 0; i < frames; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 32, 24))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = uint8(i * 20)
			img.Pix[p+3] = 255
		}
		require.NoError(t, sink.WriteFrame(img))
	}
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	src, err := b.OpenSource(path)
	require.NoError(t, err)
	defer src.Close()

	info := src.Info()
	assert.Equal(t, 32, info.Width)
	assert.Equal(t, 24, info.Height)
	assert.InDelta(t, 5.0, info.FPS, 0.01)
	assert.Equal(t, "h264", info.Codec)

	n := 0
	for {
		_, err := src.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, frames, n)

	require.NoError(t, src.Close())
	_, err = src.ReadFrame()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

// fakeBackend installs shell scripts standing in for ffprobe and ffmpeg.
// ffprobe reports a 2x2 stream of 30 frames.
func fakeBackend(t *testing.T, ffmpegScript string) (*Backend, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts unavailable")
	}
	dir := t.TempDir()
	ffprobe := filepath.Join(dir, "ffprobe")
	ffmpeg := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(ffprobe, []byte(`#!/bin/sh
printf '{"streams":[{"codec_name":"h264","width":2,"height":2,"r_frame_rate":"10/1","nb_frames":"30"}]}'
`), 0o755))
	require.NoError(t, os.WriteFile(ffmpeg, []byte("#!/bin/sh\n"+ffmpegScript), 0o755))

	clip := filepath.Join(dir, "clip.mkv")
	require.NoError(t, os.WriteFile(clip, nil, 0o644))
	return New(Options{FFmpegPath: ffmpeg, FFprobePath: ffprobe}), clip
}

func TestSource_DecoderFailure(t *testing.T) {
	b, clip := fakeBackend(t, `head -c 16 /dev/zero
echo "Invalid data found when processing input" >&2
exit 1
`)
	src, err := b.OpenSource(clip)
	require.NoError(t, err)
	assert.Equal(t, 30, src.Info().FrameCount)

	_, err = src.ReadFrame()
	require.NoError(t, err)

	_, err = src.ReadFrame()
	require.ErrorIs(t, err, ErrDecodeFailed)
	assert.NotErrorIs(t, err, io.EOF)
	assert.Contains(t, err.Error(), "Invalid data found")

	_, again := src.ReadFrame()
	assert.ErrorIs(t, again, ErrDecodeFailed)
	assert.NoError(t, src.Close())
}

func TestSource_CleanExit(t *testing.T) {
	b, clip := fakeBackend(t, `head -c 40 /dev/zero
exit 0
`)
	src, err := b.OpenSource(clip)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := src.ReadFrame()
		require.NoError(t, err)
	}
	// 8 trailing bytes are a truncated frame.
	_, err = src.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
	_, err = src.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, src.Close())
}

func TestSink_EncoderExits(t *testing.T) {
	b, clip := fakeBackend(t, `echo "Unknown encoder 'libnope'" >&2
exit 1
`)
	out := filepath.Join(filepath.Dir(clip), "out.mp4")
	sink, err := b.OpenSink(out, ports.SinkOptions{Width: 2, Height: 2, FPS: 10, Codec: "libnope", Ext: ".mp4"})
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	deadline := time.Now().Add(5 * time.Second)
	for err == nil && time.Now().Before(deadline) {
		err = sink.WriteFrame(img)
		time.Sleep(5 * time.Millisecond)
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown encoder")

	assert.ErrorIs(t, sink.WriteFrame(img), ErrNotInitialized)
	assert.NoError(t, sink.Close())
}
