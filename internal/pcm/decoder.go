// SPDX-License-Identifier: MIT

/*
Package pcm converts interleaved PCM or IQ byte blocks into normalized
complex64 samples.

A frame is one sample per channel, channel 0 first. Each frame decodes to
exactly one complex value according to the decoder's Mode:

  - Solo(k): channel k becomes the real part.
  - Mix: the mean of all channels becomes the real part.
  - IQ: channel 0 is the real part, channel 1 the imaginary part.

Sample normalization:

  - float: passed through unchanged.
  - signed: divided by -(min value), so s16 -32768 maps to exactly -1.0.
  - unsigned: v/2^(bits-1) - 1, so u8 0 maps to -1.0 and 128 to 0.0.

Decoding never inspects sample content. A malformed stream decodes to
valid but meaningless floats.
*/
package pcm

import (
	"fmt"
	"math"
)

// Decoder decodes blocks of whole frames. Configure it (NewDecoder and
// SetMode) before handing it to a Stream; it is not safe to reconfigure
// concurrently with Decode.
type Decoder struct {
	format   SampleFormat
	channels int
	mode     Mode
	convert  func(b []byte) float32
}

// NewDecoder returns a decoder for frames of channels samples in format.
// The initial mode is Solo(0).
func NewDecoder(format SampleFormat, channels int) (*Decoder, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrChannels, channels)
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{
		format:   format,
		channels: channels,
		mode:     Solo(0),
		convert:  converter(format),
	}, nil
}

// SetMode selects the channel combination. Solo with an out-of-range
// channel fails with ErrSoloChannel and IQ on fewer than two channels
// fails with ErrIQChannels; on failure the previous mode stays active.
func (d *Decoder) SetMode(m Mode) error {
	switch m.kind {
	case modeSolo:
		if m.channel < 0 || m.channel >= d.channels {
			return fmt.Errorf("%w: channel %d of %d", ErrSoloChannel, m.channel, d.channels)
		}
	case modeIQ:
		if d.channels < 2 {
			return fmt.Errorf("%w, got %d", ErrIQChannels, d.channels)
		}
	case modeMix:
	default:
		return ErrMode
	}
	d.mode = m
	return nil
}

func (d *Decoder) Mode() Mode            { return d.mode }
func (d *Decoder) Channels() int         { return d.channels }
func (d *Decoder) Format() SampleFormat  { return d.format }
func (d *Decoder) FrameSize() int        { return d.channels * d.format.Width }
func (d *Decoder) Frames(nbytes int) int { return nbytes / d.FrameSize() }
func (d *Decoder) Bytes(frames int) int  { return frames * d.FrameSize() }

// Decode converts len(dst) frames from raw into dst. raw must hold exactly
// len(dst) frames.
func (d *Decoder) Decode(dst []complex64, raw []byte) error {
	fs := d.FrameSize()
	if len(raw) != len(dst)*fs {
		return fmt.Errorf("%w: %d bytes for %d frames of %d bytes", ErrShortFrame, len(raw), len(dst), fs)
	}

	w := d.format.Width
	switch d.mode.kind {
	case modeMix:
		inv := 1 / float32(d.channels)
		for i := range dst {
			frame := raw[i*fs : (i+1)*fs]
			var sum float32
			for c := 0; c < d.channels; c++ {
				sum += d.convert(frame[c*w:])
			}
			dst[i] = complex(sum*inv, 0)
		}
	case modeIQ:
		for i := range dst {
			frame := raw[i*fs:]
			dst[i] = complex(d.convert(frame), d.convert(frame[w:]))
		}
	default:
		off := d.mode.channel * w
		for i := range dst {
			dst[i] = complex(d.convert(raw[i*fs+off:]), 0)
		}
	}
	return nil
}

// converter returns the per-sample conversion for f. The byte order is
// applied while loading the value, which covers every width including
// 24 and 64 bit.
func converter(f SampleFormat) func(b []byte) float32 {
	order := f.Endian.ByteOrder()

	switch f.Width {
	case 1:
		if f.Kind == Signed {
			return func(b []byte) float32 { return float32(int8(b[0])) / 128 }
		}
		return func(b []byte) float32 { return float32(b[0])/128 - 1 }

	case 2:
		if f.Kind == Signed {
			return func(b []byte) float32 { return float32(int16(order.Uint16(b))) / 32768 }
		}
		return func(b []byte) float32 { return float32(order.Uint16(b))/32768 - 1 }

	case 3:
		little := f.Endian.little()
		load := func(b []byte) uint32 {
			if little {
				return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
			}
			return uint32(b[2]) | uint32(b[1])<<8 | uint32(b[0])<<16
		}
		if f.Kind == Signed {
			// Shift the 24-bit value to the top and back to sign-extend.
			return func(b []byte) float32 { return float32(int32(load(b)<<8)>>8) / (1 << 23) }
		}
		return func(b []byte) float32 { return float32(load(b))/(1<<23) - 1 }

	case 4:
		switch f.Kind {
		case Float:
			return func(b []byte) float32 { return math.Float32frombits(order.Uint32(b)) }
		case Signed:
			return func(b []byte) float32 { return float32(float64(int32(order.Uint32(b))) / (1 << 31)) }
		}
		return func(b []byte) float32 { return float32(float64(order.Uint32(b))/(1<<31) - 1) }

	default:
		switch f.Kind {
		case Float:
			return func(b []byte) float32 { return float32(math.Float64frombits(order.Uint64(b))) }
		case Signed:
			return func(b []byte) float32 { return float32(float64(int64(order.Uint64(b))) / (1 << 63)) }
		}
		return func(b []byte) float32 { return float32(float64(order.Uint64(b))/(1<<63) - 1) }
	}
}
