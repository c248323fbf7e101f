// SPDX-License-Identifier: MIT

/*
Package engine assembles the pipeline described by a config.Config:

	audio.Input -> nbio.Adapter -> pcm.Decoder/pcm.Stream -> analysis.Sequencer

and exposes the sequencer's consumer handshake. The engine owns every
stage and tears them down in dependency order on Close.
*/
package engine

import (
	"errors"
	"fmt"
	"sync"

	"wfall/internal/analysis"
	"wfall/internal/audio"
	"wfall/internal/config"
	applog "wfall/internal/log"
	"wfall/internal/nbio"
	"wfall/internal/pcm"
)

// Engine is a running or startable pipeline.
type Engine struct {
	input      *audio.Input
	adapter    *nbio.Adapter
	decoder    *pcm.Decoder
	seq        *analysis.Sequencer
	sampleRate float64

	closeOnce sync.Once
	closeErr  error
}

// Compile-time check for interface implementation.
var _ analysis.FrameSource = (*Engine)(nil)

// Open opens the input named by cfg and builds the pipeline on it.
func Open(cfg *config.Config) (*Engine, error) {
	var (
		in  *audio.Input
		err error
	)
	switch cfg.Input.Container {
	case config.ContainerWAV:
		in, err = audio.OpenWAV(cfg.Input.Path)
	case config.ContainerCapture:
		in, err = audio.OpenCapture(cfg.Input.Device, cfg.Input.Channels, cfg.Input.SampleRate, cfg.Input.FramesPerBuffer)
	default:
		in, err = audio.OpenRaw(cfg.Input.Path)
	}
	if err != nil {
		return nil, err
	}

	e, err := New(in, cfg)
	if err != nil {
		in.Close()
		return nil, err
	}
	return e, nil
}

// New builds the pipeline on an already opened input. Layout reported by
// the container wins over cfg. The engine takes ownership of in only when
// New succeeds.
func New(in *audio.Input, cfg *config.Config) (*Engine, error) {
	format, channels, err := layout(in.Info, cfg)
	if err != nil {
		return nil, err
	}
	sampleRate := cfg.Input.SampleRate
	if in.Info.SampleRate > 0 {
		sampleRate = float64(in.Info.SampleRate)
	}

	decoder, err := pcm.NewDecoder(format, channels)
	if err != nil {
		return nil, err
	}
	mode, err := pcm.ParseMode(cfg.Input.Mode, cfg.Input.SoloChannel)
	if err != nil {
		return nil, err
	}
	if err := decoder.SetMode(mode); err != nil {
		return nil, err
	}

	win, err := analysis.ParseWindowFunc(cfg.FFT.Window)
	if err != nil {
		return nil, err
	}

	adapter := nbio.New(nbio.NewSource(in.R))
	seq, err := analysis.NewSequencer(pcm.NewStream(adapter, decoder), cfg.FFT.Size, win)
	if err == nil {
		if cfg.FFT.FrameRate > 0 {
			if _, err = seq.OptimalSpacing(sampleRate, cfg.FFT.FrameRate); err != nil {
				err = fmt.Errorf("fft.frame_rate %g at %.0f Hz: %w", cfg.FFT.FrameRate, sampleRate, err)
			}
		} else {
			err = seq.SetSpacing(cfg.FFT.Spacing)
		}
	}
	if err != nil {
		adapter.Close()
		return nil, err
	}

	applog.Infof("Engine: %s x%d ch, mode %s, %.0f Hz, fft %d, spacing %d",
		format, channels, mode, sampleRate, seq.FFTSize(), seq.Spacing())

	return &Engine{
		input:      in,
		adapter:    adapter,
		decoder:    decoder,
		seq:        seq,
		sampleRate: sampleRate,
	}, nil
}

func layout(info audio.Info, cfg *config.Config) (pcm.SampleFormat, int, error) {
	if info.Known() {
		format, err := info.Format()
		return format, info.Channels, err
	}
	format, err := cfg.SampleFormat()
	if err != nil {
		return pcm.SampleFormat{}, 0, fmt.Errorf("input format: %w", err)
	}
	return format, cfg.Input.Channels, nil
}

// Start launches the sequencer worker.
func (e *Engine) Start() { e.seq.Start() }

func (e *Engine) HasNext() bool       { return e.seq.HasNext() }
func (e *Engine) Next() []complex64   { return e.seq.Next() }
func (e *Engine) Resume()             { e.seq.Resume() }
func (e *Engine) Stopped() bool       { return e.seq.Stopped() }
func (e *Engine) Frames() uint64      { return e.seq.Frames() }
func (e *Engine) FFTSize() int        { return e.seq.FFTSize() }
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Decoder exposes the decoder, for diagnostics.
func (e *Engine) Decoder() *pcm.Decoder { return e.decoder }

// Sequencer exposes the sequencer, for runtime changes of size and spacing.
func (e *Engine) Sequencer() *analysis.Sequencer { return e.seq }

// Err returns the error that ended the stream. Shutdown through Close is
// not reported.
func (e *Engine) Err() error {
	err := e.seq.Err()
	if errors.Is(err, nbio.ErrClosed) {
		return nil
	}
	return err
}

// Close tears the pipeline down: the adapter first, which lets a sequencer
// blocked on input return, then the sequencer, then the input. A read
// already in progress completes before Close returns. Close is idempotent.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		applog.Debugf("Engine: closing after %d frames", e.seq.Frames())
		e.closeErr = errors.Join(
			e.adapter.Close(),
			e.seq.Close(),
			e.input.Close(),
		)
	})
	return e.closeErr
}
