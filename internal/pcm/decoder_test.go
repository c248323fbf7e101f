// SPDX-License-Identifier: MIT
package pcm

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func s16le(v ...int16) []byte {
	var b []byte
	for _, x := range v {
		b = binary.LittleEndian.AppendUint16(b, uint16(x))
	}
	return b
}

func TestDecodeNormalization(t *testing.T) {
	f32 := binary.LittleEndian.AppendUint32(nil, math.Float32bits(0.25))
	f64 := binary.LittleEndian.AppendUint64(nil, math.Float64bits(-0.5))

	tests := []struct {
		name   string
		format SampleFormat
		raw    []byte
		want   float32
	}{
		{"s16 min", S16LE, s16le(-32768), -1},
		{"s16 zero", S16LE, s16le(0), 0},
		{"s16 half", S16LE, s16le(16384), 0.5},
		{"s16 big endian min", S16BE, []byte{0x80, 0x00}, -1},
		{"s16 big endian one", S16BE, []byte{0x00, 0x01}, 1.0 / 32768},
		{"u8 min", U8, []byte{0}, -1},
		{"u8 mid", U8, []byte{128}, 0},
		{"u8 max", U8, []byte{255}, 0.9921875},
		{"s8 min", SampleFormat{Width: 1, Kind: Signed}, []byte{0x80}, -1},
		{"u16 mid", SampleFormat{Width: 2, Kind: Unsigned}, []byte{0x00, 0x80}, 0},
		{"s24 min", S24LE, []byte{0x00, 0x00, 0x80}, -1},
		{"s24 minus one", S24LE, []byte{0xff, 0xff, 0xff}, -1.0 / (1 << 23)},
		{"s24 big endian half", SampleFormat{Width: 3, Kind: Signed, Endian: BigEndian}, []byte{0x40, 0x00, 0x00}, 0.5},
		{"s32 min", S32LE, []byte{0x00, 0x00, 0x00, 0x80}, -1},
		{"f32 passthrough", F32LE, f32, 0.25},
		{"f64 passthrough", F64LE, f64, -0.5},
		{"s64 min", SampleFormat{Width: 8, Kind: Signed}, []byte{0, 0, 0, 0, 0, 0, 0, 0x80}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoder(tt.format, 1)
			if err != nil {
				t.Fatalf("NewDecoder: %v", err)
			}
			dst := make([]complex64, 1)
			if err := d.Decode(dst, tt.raw); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if dst[0] != complex(tt.want, 0) {
				t.Errorf("got %v, want %v", dst[0], tt.want)
			}
		})
	}
}

func TestDecodeModes(t *testing.T) {
	raw := s16le(
		16384, -16384,
		16384, 16384,
		-32768, 0,
	)

	tests := []struct {
		name string
		mode Mode
		want []complex64
	}{
		{"Solo channel 0", Solo(0), []complex64{0.5, 0.5, -1}},
		{"Solo channel 1", Solo(1), []complex64{-0.5, 0.5, 0}},
		{"Mix", Mix(), []complex64{0, 0.5, -0.5}},
		{"IQ", IQ(), []complex64{complex(0.5, -0.5), complex(0.5, 0.5), complex(-1, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoder(S16LE, 2)
			if err != nil {
				t.Fatalf("NewDecoder: %v", err)
			}
			if err := d.SetMode(tt.mode); err != nil {
				t.Fatalf("SetMode(%v): %v", tt.mode, err)
			}
			dst := make([]complex64, 3)
			if err := d.Decode(dst, raw); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			for i := range dst {
				if dst[i] != tt.want[i] {
					t.Errorf("frame %d: got %v, want %v", i, dst[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodeSoloIgnoresOtherChannels(t *testing.T) {
	d, _ := NewDecoder(S16LE, 3)
	if err := d.SetMode(Solo(2)); err != nil {
		t.Fatal(err)
	}

	a := make([]complex64, 1)
	b := make([]complex64, 1)
	_ = d.Decode(a, s16le(100, 200, 8192))
	_ = d.Decode(b, s16le(-32768, 32767, 8192))
	if a[0] != b[0] || a[0] != 0.25 {
		t.Errorf("solo output depends on other channels: %v vs %v", a[0], b[0])
	}
}

func TestDecoderConfigErrors(t *testing.T) {
	if _, err := NewDecoder(S16LE, 0); !errors.Is(err, ErrChannels) {
		t.Errorf("zero channels: got %v, want ErrChannels", err)
	}
	if _, err := NewDecoder(SampleFormat{Width: 3, Kind: Float}, 1); !errors.Is(err, ErrFormat) {
		t.Errorf("f24: got %v, want ErrFormat", err)
	}

	mono, _ := NewDecoder(S16LE, 1)
	if err := mono.SetMode(IQ()); !errors.Is(err, ErrIQChannels) {
		t.Errorf("iq on mono: got %v, want ErrIQChannels", err)
	}
	if err := mono.SetMode(Solo(1)); !errors.Is(err, ErrSoloChannel) {
		t.Errorf("solo(1) on mono: got %v, want ErrSoloChannel", err)
	}
	if err := mono.SetMode(Solo(-1)); !errors.Is(err, ErrSoloChannel) {
		t.Errorf("solo(-1): got %v, want ErrSoloChannel", err)
	}
	if !mono.Mode().IsSolo() || mono.Mode().SoloChannel() != 0 {
		t.Errorf("failed SetMode changed the mode to %v", mono.Mode())
	}
}

func TestDecodeShortFrame(t *testing.T) {
	d, _ := NewDecoder(S16LE, 2)
	dst := make([]complex64, 2)
	if err := d.Decode(dst, make([]byte, 7)); !errors.Is(err, ErrShortFrame) {
		t.Errorf("got %v, want ErrShortFrame", err)
	}
}

func TestDecoderSizes(t *testing.T) {
	d, _ := NewDecoder(S24LE, 2)
	if d.FrameSize() != 6 {
		t.Errorf("FrameSize = %d, want 6", d.FrameSize())
	}
	if d.Bytes(4) != 24 || d.Frames(25) != 4 {
		t.Errorf("Bytes(4) = %d, Frames(25) = %d", d.Bytes(4), d.Frames(25))
	}
}

func TestDecodeAllocs(t *testing.T) {
	d, _ := NewDecoder(S16LE, 2)
	_ = d.SetMode(Mix())
	raw := make([]byte, 2*2*256)
	dst := make([]complex64, 256)

	allocs := testing.AllocsPerRun(100, func() {
		_ = d.Decode(dst, raw)
	})
	if allocs != 0 {
		t.Errorf("Decode allocated %.0f times per run", allocs)
	}
}

func BenchmarkDecodeS16Mix(b *testing.B) {
	d, _ := NewDecoder(S16LE, 2)
	_ = d.SetMode(Mix())
	raw := make([]byte, 2*2*4096)
	dst := make([]complex64, 4096)

	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))
	for b.Loop() {
		_ = d.Decode(dst, raw)
	}
}
