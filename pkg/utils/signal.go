// SPDX-License-Identifier: MIT

// Package utils holds signal generators for tests and the tone
// generator, plus small spectrum helpers shared by the consumers.
package utils

import (
	"encoding/binary"
	"math"

	"github.com/tphakala/simd/f64"
)

// headroom keeps generated signals below full scale.
const headroom = 0.9

// GenerateSineWave returns size samples of a sine at frequency Hz with
// amplitude 0.9.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2 * math.Pi * frequency * t)
	}
	f64.Scale(buffer, buffer, headroom)
	return buffer
}

// GenerateComplexWave returns a 440 Hz fundamental with two harmonics.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
	}
	f64.Scale(buffer, buffer, headroom)
	return buffer
}

// Interleave converts a mono signal in [-1, 1] to integer samples of the
// given bit depth, repeated on every channel. The result feeds
// audio.WAVWriter.
func Interleave(signal []float64, channels, bitDepth int) []int {
	scale := float64(int64(1)<<(bitDepth-1) - 1)
	out := make([]int, 0, len(signal)*channels)
	for _, v := range signal {
		s := int(math.Round(max(-1, min(1, v)) * scale))
		for range channels {
			out = append(out, s)
		}
	}
	return out
}

// EncodeS16LE packs 16-bit samples as little-endian bytes.
func EncodeS16LE(samples []int) []byte {
	out := make([]byte, 0, 2*len(samples))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(int16(s)))
	}
	return out
}

// FindPeakBin returns the index of the largest magnitude in
// [startBin, endBin], clamping the range to the slice.
func FindPeakBin(magnitudes []float32, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
