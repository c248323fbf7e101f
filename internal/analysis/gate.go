// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"sync/atomic"
)

// Gate suppresses frames whose strongest bin stays below a threshold. The
// level of a bin is 2|X|/N, so a full-scale sine reads close to 1.
// Threshold and enabled state may be changed while another goroutine
// calls Open.
type Gate struct {
	enabled   atomic.Bool
	threshold atomic.Uint32 // float32 bits
}

// NewGate returns an enabled gate. A threshold of 0 never closes it.
func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	g.Enable()
	return g
}

func (g *Gate) Enable()  { g.enabled.Store(true) }
func (g *Gate) Disable() { g.enabled.Store(false) }

// SetThreshold adjusts the gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetThreshold(threshold float64) {
	threshold = max(0, min(1, threshold))
	g.threshold.Store(math.Float32bits(float32(threshold)))
}

// Threshold returns the current threshold in the range 0.0-1.0.
func (g *Gate) Threshold() float64 {
	return float64(math.Float32frombits(g.threshold.Load()))
}

// Open reports whether frame should pass. A disabled gate is always open.
func (g *Gate) Open(frame []complex64) bool {
	if !g.enabled.Load() || len(frame) == 0 {
		return true
	}
	return PeakLevel(frame) >= float32(g.Threshold())
}

// PeakLevel returns the largest bin level 2|X|/N of frame.
func PeakLevel(frame []complex64) float32 {
	if len(frame) == 0 {
		return 0
	}
	var peak float32
	for _, c := range frame {
		re, im := real(c), imag(c)
		if p := re*re + im*im; p > peak {
			peak = p
		}
	}
	return float32(math.Sqrt(float64(peak))) * 2 / float32(len(frame))
}
