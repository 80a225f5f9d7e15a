package vidsz

import (
	"errors"
	"testing"
)

func TestDerivedOutputName(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"clip.mp4", "clip_out.mp4"},
		{"videos/clip.mov", "videos/clip_out.mov"},
		{"videos/clip", "videos/clip_out.mp4"},
		{"frames/img_%04d.png", "frames/img_%04d_out.png"},
		{"0", "vidsz_out.mp4"},
		{"synth://bars?frames=10", "vidsz_out.mp4"},
		{"rtsp://camera.local/stream", "vidsz_out.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := DerivedOutputName(tt.source); got != tt.want {
				t.Errorf("DerivedOutputName(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestMergeWriterConfig_Precedence(t *testing.T) {
	defaults := DefaultWriterConfig()
	inherited := WriterConfig{Name: "clip_out.mp4", Width: 640, Height: 480, FPS: 25}
	explicit := WriterConfig{Height: 360, Codec: "libx265", Quality: 30}

	got := MergeWriterConfig(defaults, inherited, explicit)

	want := WriterConfig{
		Name:    "clip_out.mp4",
		Width:   640,
		Height:  360,
		FPS:     25,
		Codec:   "libx265",
		Quality: 30,
	}
	if got != want {
		t.Errorf("MergeWriterConfig = %+v, want %+v", got, want)
	}
}

func TestMergeWriterConfig_DefaultsFillGaps(t *testing.T) {
	got := MergeWriterConfig(DefaultWriterConfig(), WriterConfig{}, WriterConfig{Name: "a.mp4"})
	if got.FPS != DefaultFPS {
		t.Errorf("FPS = %v, want %v", got.FPS, DefaultFPS)
	}
	if got.Name != "a.mp4" {
		t.Errorf("Name = %q", got.Name)
	}
}

func TestInheritedWriterConfig_NilReader(t *testing.T) {
	if got := InheritedWriterConfig(nil); got != (WriterConfig{}) {
		t.Errorf("expected empty config, got %+v", got)
	}
}

func TestWriterConfig_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		cfg       WriterConfig
		wantExt   string
		wantCodec string
	}{
		{"mp4", WriterConfig{Name: "a.mp4"}, ".mp4", "libx264"},
		{"upper case", WriterConfig{Name: "a.AVI"}, ".avi", "mpeg4"},
		{"ext without dot", WriterConfig{Name: "a", Ext: "webm"}, ".webm", "libvpx-vp9"},
		{"explicit codec", WriterConfig{Name: "a.mkv", Codec: "ffv1"}, ".mkv", "ffv1"},
		{"image sequence", WriterConfig{Name: "f_%03d.jpg"}, ".jpg", "jpeg"},
		{"stream locator", WriterConfig{Name: "synth://bars"}, "", rawCodec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Width, cfg.Height, cfg.FPS = 4, 3, 2
			got, err := cfg.resolve()
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if got.Ext != tt.wantExt || got.Codec != tt.wantCodec {
				t.Errorf("Ext/Codec = %q/%q, want %q/%q", got.Ext, got.Codec, tt.wantExt, tt.wantCodec)
			}
		})
	}
}

func TestWriterConfig_ResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  WriterConfig
	}{
		{"no name", WriterConfig{Width: 4, Height: 3, FPS: 2}},
		{"zero width", WriterConfig{Name: "a.mp4", Height: 3, FPS: 2}},
		{"zero fps", WriterConfig{Name: "a.mp4", Width: 4, Height: 3}},
		{"unknown ext", WriterConfig{Name: "a.xyz", Width: 4, Height: 3, FPS: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.resolve(); !errors.Is(err, ErrSinkUnavailable) {
				t.Errorf("expected ErrSinkUnavailable, got %v", err)
			}
		})
	}
}
