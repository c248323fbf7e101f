// SPDX-License-Identifier: MIT
package fft

import "math"

// Magnitudes writes |frame[i]| into dst for the first min(len(dst),
// len(frame)) bins and returns the number of bins written.
func Magnitudes(dst []float32, frame []complex64) int {
	n := min(len(dst), len(frame))
	for i := range n {
		re, im := float64(real(frame[i])), float64(imag(frame[i]))
		dst[i] = float32(math.Hypot(re, im))
	}
	return n
}

// Decibels writes the magnitude of each bin in dB relative to full scale,
// normalized by the frame length so a full-scale sine peaks near 0 dB.
// Values are clamped to floor.
func Decibels(dst []float32, frame []complex64, floor float32) int {
	n := min(len(dst), len(frame))
	if n == 0 {
		return 0
	}
	scale := 2 / float64(len(frame))
	for i := range n {
		re, im := float64(real(frame[i])), float64(imag(frame[i]))
		mag := math.Hypot(re, im) * scale
		db := floor
		if mag > 0 {
			db = float32(20 * math.Log10(mag))
		}
		dst[i] = max(db, floor)
	}
	return n
}

// BinFrequency returns the center frequency in Hz of bin for a transform
// of the given size at sampleRate. Bins above size/2 alias to negative
// frequencies and are reported as such.
func BinFrequency(bin, size int, sampleRate float64) float64 {
	if size <= 0 || bin < 0 || bin >= size {
		return 0
	}
	if bin > size/2 {
		bin -= size
	}
	return float64(bin) * sampleRate / float64(size)
}
