// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	applog "wfall/internal/log"
)

// wavFormatFloat is the WAVE_FORMAT_IEEE_FLOAT format tag.
const wavFormatFloat = 3

// OpenWAV parses the RIFF header of path and returns an Input positioned
// at the first sample of the data chunk. Reads stop at the end of the data
// chunk, trailing chunks are never returned as samples.
func OpenWAV(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav input: %w", err)
	}

	in, err := probeWAV(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	in.close = f.Close
	return in, nil
}

func probeWAV(r io.ReadSeeker) (*Input, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrNotWAV
	}
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWAV, err)
	}

	format := d.Format()
	info := Info{
		Channels:   format.NumChannels,
		SampleRate: format.SampleRate,
		BitDepth:   int(d.BitDepth),
		Float:      d.WavAudioFormat == wavFormatFloat,
	}
	if _, err := info.Format(); err != nil {
		return nil, err
	}

	applog.Infof("Audio: WAV input %d ch, %d Hz, %d bit (float=%t), %d data bytes",
		info.Channels, info.SampleRate, info.BitDepth, info.Float, d.PCMChunk.Size)

	return &Input{
		R:    io.LimitReader(d.PCMChunk, int64(d.PCMChunk.Size)),
		Info: info,
	}, nil
}
