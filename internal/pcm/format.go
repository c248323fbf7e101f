// SPDX-License-Identifier: MIT
package pcm

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the numeric representation of a stored sample.
type Kind uint8

const (
	Signed Kind = iota
	Unsigned
	Float
)

func (k Kind) String() string {
	switch k {
	case Signed:
		return "s"
	case Unsigned:
		return "u"
	case Float:
		return "f"
	default:
		return "?"
	}
}

// Endian selects the byte order of multi-byte samples.
type Endian uint8

const (
	LittleEndian Endian = iota
	BigEndian
	NativeEndian
)

// ByteOrder returns the encoding/binary order for e.
func (e Endian) ByteOrder() binary.ByteOrder {
	switch e {
	case BigEndian:
		return binary.BigEndian
	case NativeEndian:
		return binary.NativeEndian
	default:
		return binary.LittleEndian
	}
}

// little reports whether e resolves to little-endian on this machine.
func (e Endian) little() bool {
	switch e {
	case BigEndian:
		return false
	case NativeEndian:
		return binary.NativeEndian.Uint16([]byte{1, 0}) == 1
	default:
		return true
	}
}

func (e Endian) String() string {
	switch e {
	case BigEndian:
		return "be"
	case NativeEndian:
		return "ne"
	default:
		return "le"
	}
}

// SampleFormat describes how one sample of one channel is stored.
type SampleFormat struct {
	Width  int // bytes per sample: 1, 2, 3, 4 or 8
	Kind   Kind
	Endian Endian
}

// Common formats.
var (
	U8    = SampleFormat{Width: 1, Kind: Unsigned}
	S16LE = SampleFormat{Width: 2, Kind: Signed, Endian: LittleEndian}
	S16BE = SampleFormat{Width: 2, Kind: Signed, Endian: BigEndian}
	S24LE = SampleFormat{Width: 3, Kind: Signed, Endian: LittleEndian}
	S32LE = SampleFormat{Width: 4, Kind: Signed, Endian: LittleEndian}
	F32LE = SampleFormat{Width: 4, Kind: Float, Endian: LittleEndian}
	F64LE = SampleFormat{Width: 8, Kind: Float, Endian: LittleEndian}
)

// Bits returns the sample width in bits.
func (f SampleFormat) Bits() int { return f.Width * 8 }

// Validate checks that the width and kind combination can be decoded.
// 24-bit floats do not exist and 8-bit floats are not a PCM format.
func (f SampleFormat) Validate() error {
	switch f.Kind {
	case Signed, Unsigned:
		switch f.Width {
		case 1, 2, 3, 4, 8:
			return nil
		}
	case Float:
		if f.Width == 4 || f.Width == 8 {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrFormat, f)
}

// String renders the format in the same notation ParseFormat accepts,
// e.g. "s16le" or "u8".
func (f SampleFormat) String() string {
	s := f.Kind.String() + strconv.Itoa(f.Bits())
	if f.Width > 1 {
		s += f.Endian.String()
	}
	return s
}

// ParseFormat parses names such as "s16le", "S16_BE", "u8", "f32" or
// "s24ne". The kind letter and bit count are required; the byte order
// suffix defaults to little-endian.
func ParseFormat(name string) (SampleFormat, error) {
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	if len(s) < 2 {
		return SampleFormat{}, fmt.Errorf("%w: %q", ErrFormat, name)
	}

	var f SampleFormat
	switch s[0] {
	case 's':
		f.Kind = Signed
	case 'u':
		f.Kind = Unsigned
	case 'f':
		f.Kind = Float
	default:
		return SampleFormat{}, fmt.Errorf("%w: %q", ErrFormat, name)
	}
	s = s[1:]

	switch {
	case strings.HasSuffix(s, "le"):
		f.Endian, s = LittleEndian, strings.TrimSuffix(s, "le")
	case strings.HasSuffix(s, "be"):
		f.Endian, s = BigEndian, strings.TrimSuffix(s, "be")
	case strings.HasSuffix(s, "ne"):
		f.Endian, s = NativeEndian, strings.TrimSuffix(s, "ne")
	}

	bits, err := strconv.Atoi(s)
	if err != nil || bits%8 != 0 {
		return SampleFormat{}, fmt.Errorf("%w: %q", ErrFormat, name)
	}
	f.Width = bits / 8

	if err := f.Validate(); err != nil {
		return SampleFormat{}, err
	}
	return f, nil
}
