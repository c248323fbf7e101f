// SPDX-License-Identifier: MIT

// Package audio opens the byte sources the pipeline reads from: raw PCM
// files or stdin, WAV files and live PortAudio capture.
package audio

import (
	"fmt"
	"io"
	"os"

	"wfall/internal/pcm"
)

// Info describes the samples of an input as far as the container knows
// them. A zero Info means the caller has to supply the layout.
type Info struct {
	Channels   int
	SampleRate int
	BitDepth   int
	Float      bool
}

// Known reports whether the container described its sample layout.
func (i Info) Known() bool {
	return i.Channels > 0 && i.BitDepth > 0
}

// Format maps the container description to a little-endian sample format.
// 8-bit data is unsigned, as in WAV files.
func (i Info) Format() (pcm.SampleFormat, error) {
	if i.BitDepth <= 0 || i.BitDepth%8 != 0 {
		return pcm.SampleFormat{}, fmt.Errorf("%w: %d", ErrBitDepth, i.BitDepth)
	}
	f := pcm.SampleFormat{Width: i.BitDepth / 8, Kind: pcm.Signed, Endian: pcm.LittleEndian}
	switch {
	case i.Float:
		f.Kind = pcm.Float
	case f.Width == 1:
		f.Kind = pcm.Unsigned
	}
	if err := f.Validate(); err != nil {
		return pcm.SampleFormat{}, fmt.Errorf("%w: %w", ErrBitDepth, err)
	}
	return f, nil
}

// Input is an opened source. R is handed to nbio.NewSource; Close
// releases whatever backs it.
type Input struct {
	R     io.Reader
	Info  Info
	close func() error
}

func (in *Input) Close() error {
	if in.close == nil {
		return nil
	}
	err := in.close()
	in.close = nil
	return err
}

// OpenRaw opens headerless PCM. "-" reads standard input, which is left
// open on Close.
func OpenRaw(path string) (*Input, error) {
	if path == "-" || path == "" {
		return &Input{R: os.Stdin}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raw input: %w", err)
	}
	return &Input{R: f, close: f.Close}, nil
}
