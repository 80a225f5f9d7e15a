package ffmpegbackend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/user/vidsz/pkg/adapters/mp4probe"
	"github.com/user/vidsz/pkg/ports"
)

// probeOutput mirrors the subset of `ffprobe -of json` we read.
type probeOutput struct {
	Streams []struct {
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
}

// probe returns the stream properties of name. ffprobe is preferred;
// MP4 files are probed in-process when ffprobe is unavailable.
func (b *Backend) probe(name string, input []string) (ports.StreamInfo, error) {
	ffmpegPath, _ := FindFFmpeg(b.opts.FFmpegPath)
	ffprobePath, err := FindFFprobe(b.opts.FFprobePath, ffmpegPath)
	if err != nil {
		if isMP4(name) {
			b.log.Debug("ffprobe unavailable, probing %s as MP4", name)
			return probeMP4(name)
		}
		return ports.StreamInfo{}, err
	}

	args := []string{"-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=codec_name,width,height,r_frame_rate,avg_frame_rate,nb_frames",
		"-of", "json"}
	args = append(args, input...)

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(ffprobePath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return ports.StreamInfo{}, fmt.Errorf("%w: %v\nstderr: %s", ErrProbeFailed, err, stderr.String())
	}

	return parseProbeOutput(stdout.Bytes())
}

func parseProbeOutput(data []byte) (ports.StreamInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return ports.StreamInfo{}, fmt.Errorf("%w: parse ffprobe output: %v", ErrProbeFailed, err)
	}
	if len(out.Streams) == 0 {
		return ports.StreamInfo{}, fmt.Errorf("%w: no video stream", ErrProbeFailed)
	}

	s := out.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return ports.StreamInfo{}, fmt.Errorf("%w: invalid size %dx%d", ErrProbeFailed, s.Width, s.Height)
	}

	fps := parseRate(s.AvgFrameRate)
	if fps <= 0 {
		fps = parseRate(s.RFrameRate)
	}
	frames, _ := strconv.Atoi(s.NbFrames)

	return ports.StreamInfo{
		Width:      s.Width,
		Height:     s.Height,
		FPS:        fps,
		FrameCount: frames,
		Codec:      s.CodecName,
	}, nil
}

// parseRate parses ffprobe rationals such as "30000/1001". It returns 0
// for "0/0" and malformed input.
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func isMP4(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".m4v", ".mov":
		return true
	}
	return false
}

func probeMP4(name string) (ports.StreamInfo, error) {
	info, err := mp4probe.ProbeFile(name)
	if err != nil {
		return ports.StreamInfo{}, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return ports.StreamInfo{}, fmt.Errorf("%w: invalid size %dx%d", ErrProbeFailed, info.Width, info.Height)
	}
	return info, nil
}
