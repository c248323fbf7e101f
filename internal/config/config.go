// SPDX-License-Identifier: MIT
package config

// Defaults and limits for the pipeline configuration.
const (
	DefaultLogLevel        = "info"
	DefaultInput           = "-"       // standard input
	DefaultContainer       = "raw"     // headerless PCM
	DefaultFormat          = "s16le"   // CD-style PCM
	DefaultChannels        = 2         // stereo
	DefaultMode            = "solo"    // one channel passed through
	DefaultSampleRate      = 44100     // Hz
	DefaultDevice          = MinDevice // system default capture device
	DefaultFramesPerBuffer = 512       // balanced latency/performance
	DefaultFFTSize         = 1024
	DefaultWindow          = "blackman"
	DefaultBars            = 48
	DefaultFloorDB         = -90.0

	// Hardware and processing limits
	MinDevice       = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 384000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per capture buffer
	MaxFFTSize      = 1 << 20
)

// Input containers.
const (
	ContainerRaw     = "raw"
	ContainerWAV     = "wav"
	ContainerCapture = "capture"
)

// Config holds all runtime options. It is loaded from YAML, then
// environment overrides, then command line flags.
type Config struct {
	LogLevel string        `yaml:"log_level"` // debug, info, warn or error.
	LogFile  string        `yaml:"log_file"`  // Log destination while the TUI owns the terminal.
	Input    InputConfig   `yaml:"input"`
	FFT      FFTConfig     `yaml:"fft"`
	Display  DisplayConfig `yaml:"display"`
}

// InputConfig describes where samples come from and how their bytes are
// laid out.
type InputConfig struct {
	Path            string  `yaml:"path"`              // File path, "-" for stdin. Ignored for capture.
	Container       string  `yaml:"container"`         // raw, wav or capture.
	Format          string  `yaml:"format"`            // Sample format such as s16le. WAV headers override it.
	Channels        int     `yaml:"channels"`          // Interleaved channels per frame. WAV headers override it.
	Mode            string  `yaml:"mode"`              // solo, mix or iq.
	SoloChannel     int     `yaml:"solo_channel"`      // Channel passed through in solo mode.
	SampleRate      float64 `yaml:"sample_rate"`       // Hz, used for capture, frame rate pacing and labels.
	Device          int     `yaml:"device"`            // PortAudio input device (-1 for default).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // PortAudio buffer size.
}

// FFTConfig holds the sequencer settings.
type FFTConfig struct {
	Size      int     `yaml:"size"`       // Power of two.
	Window    string  `yaml:"window"`     // Window function name.
	Spacing   int     `yaml:"spacing"`    // Frames between windows, negative to overlap.
	FrameRate float64 `yaml:"frame_rate"` // Frames per second of input; when set it replaces spacing.
}

// DisplayConfig holds consumer settings.
type DisplayConfig struct {
	TUI     bool    `yaml:"tui"`      // Terminal spectrum instead of the headless peak log.
	Bars    int     `yaml:"bars"`     // Number of spectrum bars.
	FloorDB float64 `yaml:"floor_db"` // Lowest level shown, in dBFS.
	Gate    float64 `yaml:"gate"`     // Headless: frames whose peak is below this level (0-1) are not logged.
}

// NewConfig returns a Config holding the defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Input: InputConfig{
			Path:            DefaultInput,
			Container:       DefaultContainer,
			Format:          DefaultFormat,
			Channels:        DefaultChannels,
			Mode:            DefaultMode,
			SampleRate:      DefaultSampleRate,
			Device:          DefaultDevice,
			FramesPerBuffer: DefaultFramesPerBuffer,
		},
		FFT: FFTConfig{
			Size:   DefaultFFTSize,
			Window: DefaultWindow,
		},
		Display: DisplayConfig{
			Bars:    DefaultBars,
			FloorDB: DefaultFloorDB,
		},
	}
}
