// SPDX-License-Identifier: MIT

// Package cmd wires the command line to the pipeline.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"wfall/internal/analysis"
	"wfall/internal/audio"
	"wfall/internal/config"
	"wfall/internal/engine"
	applog "wfall/internal/log"
	"wfall/internal/pcm"
	"wfall/internal/tui"
	"wfall/pkg/build"
	"wfall/pkg/utils"
)

// CloseTimeout bounds how long shutdown waits for a read in progress. A
// blocked read on standard input cannot be interrupted.
const CloseTimeout = 2 * time.Second

// Execute runs the command line against args. ctx cancels a running
// pipeline.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	buildInfo := build.Get()
	opts := config.NewConfig()
	var (
		configPath string
		pick       bool
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [flags]",
		Short:         "Windowed FFT spectrum of a PCM stream",
		Long:          "Decode raw PCM, WAV or live capture into complex samples and compute a windowed FFT per frame.",
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath, opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, pick, cmd.OutOrStdout())
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "",
		"YAML configuration file (default ./"+config.DefaultPath+" if present)")
	flags.StringVar(&opts.LogLevel, "log-level", opts.LogLevel,
		"Log level: debug, info, warn or error")
	flags.StringVar(&opts.LogFile, "log-file", opts.LogFile,
		"Write logs to this file (in TUI mode logs are dropped otherwise)")

	// Input
	flags.StringVarP(&opts.Input.Path, "input", "i", opts.Input.Path,
		"Input file, '-' for standard input")
	flags.StringVar(&opts.Input.Container, "container", opts.Input.Container,
		"Input container: raw, wav or capture")
	flags.StringVarP(&opts.Input.Format, "format", "f", opts.Input.Format,
		"Raw sample format, e.g. s16le, u8, s24be, f32le")
	flags.IntVarP(&opts.Input.Channels, "channels", "c", opts.Input.Channels,
		"Interleaved channels per frame")
	flags.StringVarP(&opts.Input.Mode, "mode", "m", opts.Input.Mode,
		"Channel mode: solo, mix or iq")
	flags.IntVar(&opts.Input.SoloChannel, "solo-channel", opts.Input.SoloChannel,
		"Channel passed through in solo mode")
	flags.Float64VarP(&opts.Input.SampleRate, "sample-rate", "s", opts.Input.SampleRate,
		"Sample rate, measured in Hertz (Hz)")

	// Capture
	flags.IntVarP(&opts.Input.Device, "device", "d", opts.Input.Device,
		"Capture device ID. Use 'list' command to see available devices.")
	flags.IntVarP(&opts.Input.FramesPerBuffer, "frames-per-buffer", "b", opts.Input.FramesPerBuffer,
		"The number of frames per capture buffer (affects latency)")
	rootCmd.Flags().BoolVar(&pick, "pick", false,
		"Choose the capture device interactively")

	// Analysis
	flags.IntVarP(&opts.FFT.Size, "fft-size", "n", opts.FFT.Size,
		"FFT size, a power of two")
	flags.StringVarP(&opts.FFT.Window, "window", "w", opts.FFT.Window,
		"Window function (see 'windows')")
	flags.IntVar(&opts.FFT.Spacing, "spacing", opts.FFT.Spacing,
		"Frames skipped (>0) or overlapped (<0) between windows")
	flags.Float64Var(&opts.FFT.FrameRate, "frame-rate", opts.FFT.FrameRate,
		"Target FFT frames per second of input; overrides --spacing")

	// Display
	flags.BoolVarP(&opts.Display.TUI, "tui", "t", opts.Display.TUI,
		"Show a live spectrum instead of the peak log")
	flags.IntVar(&opts.Display.Bars, "bars", opts.Display.Bars,
		"Number of spectrum bars")
	flags.Float64Var(&opts.Display.FloorDB, "floor-db", opts.Display.FloorDB,
		"Lowest level shown, in dBFS")
	flags.Float64Var(&opts.Display.Gate, "gate", opts.Display.Gate,
		"Hide frames whose peak level is below this (0-1)")

	rootCmd.AddCommand(
		newListCommand(),
		newWindowsCommand(),
		newGenCommand(opts),
	)

	return rootCmd
}

// loadConfig reads the file and environment, then applies the flags the
// user actually set.
func loadConfig(cmd *cobra.Command, path string, opts *config.Config) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	overrides := map[string]func(){
		"log-level":         func() { cfg.LogLevel = opts.LogLevel },
		"log-file":          func() { cfg.LogFile = opts.LogFile },
		"input":             func() { cfg.Input.Path = opts.Input.Path },
		"container":         func() { cfg.Input.Container = opts.Input.Container },
		"format":            func() { cfg.Input.Format = opts.Input.Format },
		"channels":          func() { cfg.Input.Channels = opts.Input.Channels },
		"mode":              func() { cfg.Input.Mode = opts.Input.Mode },
		"solo-channel":      func() { cfg.Input.SoloChannel = opts.Input.SoloChannel },
		"sample-rate":       func() { cfg.Input.SampleRate = opts.Input.SampleRate },
		"device":            func() { cfg.Input.Device = opts.Input.Device },
		"frames-per-buffer": func() { cfg.Input.FramesPerBuffer = opts.Input.FramesPerBuffer },
		"fft-size":          func() { cfg.FFT.Size = opts.FFT.Size },
		"window":            func() { cfg.FFT.Window = opts.FFT.Window },
		"spacing":           func() { cfg.FFT.Spacing = opts.FFT.Spacing },
		"frame-rate":        func() { cfg.FFT.FrameRate = opts.FFT.FrameRate },
		"tui":               func() { cfg.Display.TUI = opts.Display.TUI },
		"bars":              func() { cfg.Display.Bars = opts.Display.Bars },
		"floor-db":          func() { cfg.Display.FloorDB = opts.Display.FloorDB },
		"gate":              func() { cfg.Display.Gate = opts.Display.Gate },
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// run executes the pipeline described by cfg until the stream ends or ctx
// is cancelled.
func run(ctx context.Context, cfg *config.Config, pick bool, out io.Writer) error {
	level, _ := applog.ParseLevel(cfg.LogLevel)
	applog.SetLevel(level)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		applog.SetOutput(f)
		defer applog.SetOutput(os.Stderr)
	} else if cfg.Display.TUI {
		applog.SetOutput(io.Discard)
		defer applog.SetOutput(os.Stderr)
	}

	if pick || cfg.Input.Container == config.ContainerCapture {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer func() {
			if err := audio.Terminate(); err != nil {
				applog.Errorf("Audio: %v", err)
			}
		}()
	}

	if pick {
		sel, ok, err := tui.PickDevice()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cfg.Input.Container = config.ContainerCapture
		cfg.Input.Device = sel.Device
		cfg.Input.SampleRate = sel.SampleRate
		cfg.Input.Channels = sel.Channels
		if cfg.Input.SoloChannel >= sel.Channels {
			cfg.Input.SoloChannel = 0
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	e, err := engine.Open(cfg)
	if err != nil {
		return err
	}
	defer closeEngine(e)

	var gate *analysis.Gate
	if cfg.Display.Gate > 0 {
		gate = analysis.NewGate(cfg.Display.Gate)
	}

	e.Start()

	if cfg.Display.TUI {
		err = tui.RunSpectrum(ctx, e, cfg.Display.Bars, cfg.Display.FloorDB, gate)
	} else {
		var frames int
		frames, err = engine.RunHeadless(ctx, e, gate, out)
		applog.Infof("Engine: %d frames consumed", frames)
	}

	if errors.Is(err, pcm.ErrEndOfStream) {
		applog.Infof("Engine: end of stream")
		return nil
	}
	return err
}

// closeEngine shuts the pipeline down, giving up after CloseTimeout.
func closeEngine(e *engine.Engine) {
	done := make(chan error, 1)
	go func() { done <- e.Close() }()

	select {
	case err := <-done:
		if err != nil {
			applog.Errorf("Engine: close: %v", err)
		}
	case <-time.After(CloseTimeout):
		applog.Warnf("Engine: close timed out after %v, input still blocked", CloseTimeout)
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()
			return audio.ListDevices(cmd.OutOrStdout())
		},
	}
}

func newWindowsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "windows",
		Short: "List available window functions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range analysis.WindowNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

// newGenCommand writes a test tone WAV file. It reuses the root's
// --sample-rate and --channels flags.
func newGenCommand(opts *config.Config) *cobra.Command {
	var (
		frequency float64
		duration  time.Duration
		bitDepth  int
		harmonics bool
	)

	genCmd := &cobra.Command{
		Use:   "gen <file.wav>",
		Short: "Write a test tone WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateTone(args[0], opts.Input.SampleRate, opts.Input.Channels, bitDepth, frequency, duration, harmonics)
		},
	}

	genCmd.Flags().Float64Var(&frequency, "freq", 440, "Tone frequency in Hz")
	genCmd.Flags().DurationVar(&duration, "duration", 2*time.Second, "Length of the tone")
	genCmd.Flags().IntVar(&bitDepth, "bits", 16, "Bit depth: 16, 24 or 32")
	genCmd.Flags().BoolVar(&harmonics, "harmonics", false, "440 Hz with two harmonics instead of a pure tone")

	return genCmd
}

func generateTone(path string, sampleRate float64, channels, bitDepth int, frequency float64, duration time.Duration, harmonics bool) error {
	if sampleRate <= 0 || duration <= 0 {
		return fmt.Errorf("%w: sample rate %g, duration %v", config.ErrInvalid, sampleRate, duration)
	}
	n := int(duration.Seconds() * sampleRate)

	var signal []float64
	if harmonics {
		signal = utils.GenerateComplexWave(n, sampleRate)
	} else {
		signal = utils.GenerateSineWave(n, sampleRate, frequency)
	}

	w, err := audio.CreateWAV(path, int(sampleRate), bitDepth, channels)
	if err != nil {
		return err
	}
	if err := w.Write(utils.Interleave(signal, channels, bitDepth)); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	applog.Infof("Gen: wrote %d frames to %s", n, path)
	return nil
}
