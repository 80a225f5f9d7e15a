// Package mp4probe reads video stream properties from MP4 files without
// decoding any samples.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/vidsz/pkg/ports"
)

var (
	// ErrNoVideoTrack is returned when the file has no video track.
	ErrNoVideoTrack = errors.New("mp4probe: no video track found")

	// ErrNoTiming is returned when the frame rate cannot be derived.
	ErrNoTiming = errors.New("mp4probe: no timing information")
)

// Codec names reported in ports.StreamInfo.Codec.
const (
	CodecH264    = "h264"
	CodecHEVC    = "hevc"
	CodecAV1     = "av1"
	CodecVP9     = "vp9"
	CodecMPEG4   = "mpeg4"
	CodecUnknown = "unknown"
)

// ProbeFile probes the MP4 file at path.
func ProbeFile(path string) (ports.StreamInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.StreamInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// Probe parses an MP4 stream and returns the properties of its first
// video track. The reader is left positioned at the start.
func Probe(reader io.ReadSeeker) (ports.StreamInfo, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return ports.StreamInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return ports.StreamInfo{}, fmt.Errorf("seek: %w", err)
	}

	if mp4File.IsFragmented() {
		return probeFragmented(mp4File)
	}
	return probeProgressive(mp4File)
}

func probeProgressive(mp4File *mp4.File) (ports.StreamInfo, error) {
	if mp4File.Moov == nil {
		return ports.StreamInfo{}, fmt.Errorf("%w: no moov box", ErrNoVideoTrack)
	}

	trak := findVideoTrack(mp4File.Moov)
	if trak == nil {
		return ports.StreamInfo{}, ErrNoVideoTrack
	}

	info := trackInfo(trak)

	stbl := trak.Mdia.Minf.Stbl
	if stbl == nil || stbl.Stsz == nil {
		return info, fmt.Errorf("%w: no stsz box", ErrNoTiming)
	}
	info.FrameCount = int(stbl.Stsz.SampleNumber)

	if trak.Mdia.Mdhd == nil || trak.Mdia.Mdhd.Timescale == 0 || trak.Mdia.Mdhd.Duration == 0 {
		return info, ErrNoTiming
	}
	seconds := float64(trak.Mdia.Mdhd.Duration) / float64(trak.Mdia.Mdhd.Timescale)
	info.FPS = float64(info.FrameCount) / seconds

	return info, nil
}

func probeFragmented(mp4File *mp4.File) (ports.StreamInfo, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return ports.StreamInfo{}, fmt.Errorf("%w: no init segment", ErrNoVideoTrack)
	}
	moov := mp4File.Init.Moov

	trak := findVideoTrack(moov)
	if trak == nil {
		return ports.StreamInfo{}, ErrNoVideoTrack
	}
	info := trackInfo(trak)
	trackID := trak.Tkhd.TrackID

	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	var totalDur uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil || !hasTraf(frag.Moof, trackID) {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return info, fmt.Errorf("get samples: %w", err)
			}
			info.FrameCount += len(samples)
			for _, s := range samples {
				totalDur += uint64(s.Dur)
			}
		}
	}

	var timescale uint32
	if trak.Mdia.Mdhd != nil {
		timescale = trak.Mdia.Mdhd.Timescale
	}
	if timescale == 0 || totalDur == 0 {
		return info, ErrNoTiming
	}
	info.FPS = float64(info.FrameCount) * float64(timescale) / float64(totalDur)

	return info, nil
}

func hasTraf(moof *mp4.MoofBox, trackID uint32) bool {
	for _, traf := range moof.Trafs {
		if traf.Tfhd != nil && traf.Tfhd.TrackID == trackID {
			return true
		}
	}
	return false
}

func findVideoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" &&
			trak.Mdia.Minf != nil {
			return trak
		}
	}
	return nil
}

// trackInfo reads size and codec from the sample entry, falling back
// to the track header for the size.
func trackInfo(trak *mp4.TrakBox) ports.StreamInfo {
	info := ports.StreamInfo{Codec: CodecUnknown}

	if trak.Tkhd != nil {
		info.Width = int(trak.Tkhd.Width >> 16)
		info.Height = int(trak.Tkhd.Height >> 16)
	}

	stbl := trak.Mdia.Minf.Stbl
	if stbl == nil || stbl.Stsd == nil {
		return info
	}
	for _, child := range stbl.Stsd.Children {
		codec := codecFromType(child.Type())
		if codec == CodecUnknown {
			continue
		}
		info.Codec = codec
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok && vse.Width > 0 && vse.Height > 0 {
			info.Width = int(vse.Width)
			info.Height = int(vse.Height)
		}
		break
	}
	return info
}

func codecFromType(boxType string) string {
	switch boxType {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "vp09":
		return CodecVP9
	case "mp4v":
		return CodecMPEG4
	default:
		return CodecUnknown
	}
}
