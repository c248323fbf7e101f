// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"wfall/internal/analysis"
	"wfall/internal/fft"
	applog "wfall/internal/log"
	"wfall/internal/pcm"
	"wfall/pkg/bitint"
)

// ErrInvalid marks settings that no component constructor checks itself.
var ErrInvalid = errors.New("invalid setting")

// DefaultPath is looked up in the working directory when no path is given.
const DefaultPath = "wfall.yaml"

// LoadConfig loads configuration from the YAML file at path. If path is
// empty, DefaultPath is used when it exists and the built-in defaults
// otherwise. Environment overrides are applied after the file and the
// result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err != nil {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	applog.Debugf("Config: loaded %s", path)

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate runs the same checks the components apply at construction, so
// a bad file fails before any goroutine starts. Errors wrap the
// component's sentinel (pcm.ErrSoloChannel, fft.ErrInvalidSize, ...) or
// ErrInvalid.
func (c *Config) Validate() error {
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}

	in := c.Input
	switch in.Container {
	case ContainerRaw, ContainerWAV:
	case ContainerCapture:
		if in.Device < MinDevice {
			return fmt.Errorf("%w: input.device %d", ErrInvalid, in.Device)
		}
		if in.FramesPerBuffer < 1 || in.FramesPerBuffer > MaxBufferFrames {
			return fmt.Errorf("%w: input.frames_per_buffer %d not in 1..%d", ErrInvalid, in.FramesPerBuffer, MaxBufferFrames)
		}
	default:
		return fmt.Errorf("%w: input.container %q (want raw, wav or capture)", ErrInvalid, in.Container)
	}

	if in.SampleRate < MinSampleRate || in.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: input.sample_rate %.0f not in %d..%d", ErrInvalid, in.SampleRate, MinSampleRate, MaxSampleRate)
	}

	// WAV headers supply format and channel count, so the mode can only be
	// checked against them once the file is open.
	mode, err := pcm.ParseMode(in.Mode, in.SoloChannel)
	if err != nil {
		return fmt.Errorf("input.mode: %w", err)
	}
	if in.Container != ContainerWAV {
		format, err := c.SampleFormat()
		if err != nil {
			return fmt.Errorf("input.format: %w", err)
		}
		d, err := pcm.NewDecoder(format, in.Channels)
		if err != nil {
			return fmt.Errorf("input: %w", err)
		}
		if err := d.SetMode(mode); err != nil {
			return fmt.Errorf("input.mode: %w", err)
		}
	}

	if !bitint.IsPowerOfTwo(c.FFT.Size) || c.FFT.Size > MaxFFTSize {
		if c.FFT.Size > 0 && c.FFT.Size < MaxFFTSize {
			return fmt.Errorf("fft.size: %w, got %d (try %d)", fft.ErrInvalidSize, c.FFT.Size, bitint.NextPowerOfTwo(c.FFT.Size))
		}
		return fmt.Errorf("fft.size: %w, got %d", fft.ErrInvalidSize, c.FFT.Size)
	}
	if _, err := analysis.ParseWindowFunc(c.FFT.Window); err != nil {
		return fmt.Errorf("fft.window: %w", err)
	}
	if c.FFT.FrameRate < 0 {
		return fmt.Errorf("%w: fft.frame_rate %g", ErrInvalid, c.FFT.FrameRate)
	}
	switch spacing := c.EffectiveSpacing(); {
	case c.FFT.FrameRate > 0 && c.Input.Container == ContainerWAV:
		// Derived from the header's sample rate when the file is opened.
	case -spacing >= c.FFT.Size:
		return fmt.Errorf("fft.spacing: %w: spacing %d, fft size %d", analysis.ErrSpacing, spacing, c.FFT.Size)
	}

	if c.Display.Bars < 1 {
		return fmt.Errorf("%w: display.bars %d", ErrInvalid, c.Display.Bars)
	}
	if c.Display.FloorDB >= 0 {
		return fmt.Errorf("%w: display.floor_db %g must be negative", ErrInvalid, c.Display.FloorDB)
	}
	if c.Display.Gate < 0 || c.Display.Gate > 1 {
		return fmt.Errorf("%w: display.gate %g not in 0..1", ErrInvalid, c.Display.Gate)
	}

	return nil
}

// SampleFormat parses Input.Format. Capture always delivers s16le.
func (c *Config) SampleFormat() (pcm.SampleFormat, error) {
	if c.Input.Container == ContainerCapture {
		return pcm.S16LE, nil
	}
	return pcm.ParseFormat(c.Input.Format)
}

// EffectiveSpacing is the spacing the sequencer will use: derived from
// FrameRate when set, FFT.Spacing otherwise.
func (c *Config) EffectiveSpacing() int {
	if c.FFT.FrameRate > 0 {
		return int(math.Round(c.Input.SampleRate/c.FFT.FrameRate)) - c.FFT.Size
	}
	return c.FFT.Spacing
}

// applyEnvOverrides applies WFALL_* environment variables. Values that do
// not parse are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	str := func(key string, dst *string) {
		if val, ok := os.LookupEnv(key); ok {
			*dst = val
			applog.Debugf("Config: overriding from %s: %s", key, val)
		}
	}
	num := func(key string, dst *int) {
		if val, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				applog.Warnf("Config: ignoring %s=%q: %v", key, val, err)
				return
			}
			*dst = n
			applog.Debugf("Config: overriding from %s: %d", key, n)
		}
	}
	float := func(key string, dst *float64) {
		if val, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				applog.Warnf("Config: ignoring %s=%q: %v", key, val, err)
				return
			}
			*dst = f
			applog.Debugf("Config: overriding from %s: %g", key, f)
		}
	}

	str("WFALL_LOG_LEVEL", &c.LogLevel)
	str("WFALL_INPUT", &c.Input.Path)
	str("WFALL_CONTAINER", &c.Input.Container)
	str("WFALL_FORMAT", &c.Input.Format)
	num("WFALL_CHANNELS", &c.Input.Channels)
	str("WFALL_MODE", &c.Input.Mode)
	num("WFALL_SOLO_CHANNEL", &c.Input.SoloChannel)
	float("WFALL_SAMPLE_RATE", &c.Input.SampleRate)
	num("WFALL_DEVICE", &c.Input.Device)
	num("WFALL_FFT_SIZE", &c.FFT.Size)
	str("WFALL_WINDOW", &c.FFT.Window)
	num("WFALL_SPACING", &c.FFT.Spacing)
	float("WFALL_FRAME_RATE", &c.FFT.FrameRate)

	if val, ok := os.LookupEnv("WFALL_TUI"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Display.TUI = b
			applog.Debugf("Config: overriding from WFALL_TUI: %v", b)
		} else {
			applog.Warnf("Config: ignoring WFALL_TUI=%q: %v", val, err)
		}
	}
}
