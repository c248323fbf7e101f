// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wfall/internal/analysis"
	"wfall/internal/fft"
	"wfall/internal/pcm"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "wfall.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.FFT.Size != DefaultFFTSize || cfg.Input.Container != ContainerRaw {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeTempConfig(t, `
log_level: debug
input:
  path: capture.iq
  format: f32le
  channels: 2
  mode: iq
  sample_rate: 192000
fft:
  size: 4096
  window: hann
  spacing: -2048
display:
  tui: true
  bars: 64
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Input.Path != "capture.iq" || cfg.Input.Mode != "iq" || cfg.Input.Channels != 2 {
		t.Errorf("input not loaded: %+v", cfg.Input)
	}
	if cfg.FFT.Size != 4096 || cfg.FFT.Spacing != -2048 || cfg.FFT.Window != "hann" {
		t.Errorf("fft not loaded: %+v", cfg.FFT)
	}
	if !cfg.Display.TUI || cfg.Display.Bars != 64 {
		t.Errorf("display not loaded: %+v", cfg.Display)
	}
	// Unset keys keep their defaults.
	if cfg.Input.Container != ContainerRaw || cfg.Display.FloorDB != DefaultFloorDB {
		t.Errorf("defaults lost: %+v", cfg)
	}
	format, err := cfg.SampleFormat()
	if err != nil || format != pcm.F32LE {
		t.Errorf("SampleFormat() = %v, %v", format, err)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeTempConfig(t, "fft:\n  size: 512\n")
	t.Setenv("WFALL_FFT_SIZE", "2048")
	t.Setenv("WFALL_MODE", "mix")
	t.Setenv("WFALL_FRAME_RATE", "60")
	t.Setenv("WFALL_SAMPLE_RATE", "48000")
	t.Setenv("WFALL_TUI", "true")
	t.Setenv("WFALL_CHANNELS", "not-a-number")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.FFT.Size != 2048 || cfg.Input.Mode != "mix" || !cfg.Display.TUI {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Input.Channels != DefaultChannels {
		t.Errorf("unparsable override applied: channels = %d", cfg.Input.Channels)
	}
	if got := cfg.EffectiveSpacing(); got != 800-2048 {
		t.Errorf("EffectiveSpacing() = %d, want %d", got, 800-2048)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := writeTempConfig(t, "fft:\n  size: 1000\n")
	_, err := LoadConfig(path)
	if !errors.Is(err, fft.ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "try 1024") {
		t.Errorf("expected a size suggestion, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"Defaults", func(c *Config) {}, nil},
		{"Bad log level", func(c *Config) { c.LogLevel = "loud" }, ErrInvalid},
		{"Unknown container", func(c *Config) { c.Input.Container = "flac" }, ErrInvalid},
		{"Bad format", func(c *Config) { c.Input.Format = "s12le" }, pcm.ErrFormat},
		{"No channels", func(c *Config) { c.Input.Channels = 0 }, pcm.ErrChannels},
		{"Unknown mode", func(c *Config) { c.Input.Mode = "stereo" }, pcm.ErrMode},
		{"Solo out of range", func(c *Config) { c.Input.SoloChannel = 2 }, pcm.ErrSoloChannel},
		{"IQ on mono", func(c *Config) { c.Input.Mode = "iq"; c.Input.Channels = 1 }, pcm.ErrIQChannels},
		{"WAV defers channel checks", func(c *Config) { c.Input.Container = ContainerWAV; c.Input.Channels = 0 }, nil},
		{"Capture ignores format", func(c *Config) { c.Input.Container = ContainerCapture; c.Input.Format = "bogus" }, nil},
		{"Capture buffer too large", func(c *Config) { c.Input.Container = ContainerCapture; c.Input.FramesPerBuffer = MaxBufferFrames + 1 }, ErrInvalid},
		{"Sample rate too low", func(c *Config) { c.Input.SampleRate = 100 }, ErrInvalid},
		{"FFT size not power of two", func(c *Config) { c.FFT.Size = 1000 }, fft.ErrInvalidSize},
		{"Unknown window", func(c *Config) { c.FFT.Window = "kaiser" }, analysis.ErrWindow},
		{"Spacing too negative", func(c *Config) { c.FFT.Spacing = -DefaultFFTSize }, analysis.ErrSpacing},
		{"Frame rate above twice the sample rate", func(c *Config) { c.FFT.FrameRate = 1e6 }, analysis.ErrSpacing},
		{"WAV frame rate waits for the header", func(c *Config) { c.Input.Container = ContainerWAV; c.FFT.FrameRate = 1e6 }, nil},
		{"Skip longer than a window", func(c *Config) { c.FFT.Spacing = 4 * DefaultFFTSize }, nil},
		{"Negative frame rate", func(c *Config) { c.FFT.FrameRate = -5 }, ErrInvalid},
		{"No bars", func(c *Config) { c.Display.Bars = 0 }, ErrInvalid},
		{"Positive floor", func(c *Config) { c.Display.FloorDB = 3 }, ErrInvalid},
		{"Gate above one", func(c *Config) { c.Display.Gate = 1.5 }, ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
