// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
const wavFormatPCM = 1

// WAVWriter streams interleaved integer samples into a WAV file. It backs
// the tone generator and the WAV test fixtures.
type WAVWriter struct {
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	frames  atomic.Int64
}

// CreateWAV creates path and writes a PCM header for the given layout.
func CreateWAV(path string, sampleRate, bitDepth, channels int) (*WAVWriter, error) {
	if channels < 1 {
		return nil, fmt.Errorf("wav output needs at least one channel, got %d", channels)
	}
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return &WAVWriter{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, bitDepth, channels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write appends interleaved samples. len(samples) must be a multiple of
// the channel count.
func (w *WAVWriter) Write(samples []int) error {
	channels := w.buf.Format.NumChannels
	if len(samples)%channels != 0 {
		return fmt.Errorf("%d samples is not a whole number of %d-channel frames", len(samples), channels)
	}
	w.buf.Data = samples
	if err := w.encoder.Write(w.buf); err != nil {
		return err
	}
	w.frames.Add(int64(len(samples) / channels))
	return nil
}

// Frames returns the number of frames written so far.
func (w *WAVWriter) Frames() int64 {
	return w.frames.Load()
}

// Close finalizes the header sizes and closes the file.
func (w *WAVWriter) Close() error {
	if w.encoder != nil {
		if err := w.encoder.Close(); err != nil {
			w.file.Close()
			return err
		}
		w.encoder = nil
	}

	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
		w.file = nil
	}

	return nil
}
