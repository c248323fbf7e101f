// SPDX-License-Identifier: MIT
package engine

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"wfall/internal/analysis"
	"wfall/internal/fft"
	"wfall/pkg/utils"
)

// PollInterval is how long the headless consumer sleeps when no frame is
// ready.
const PollInterval = 2 * time.Millisecond

// PeakSource is what the headless consumer needs from a pipeline.
type PeakSource interface {
	analysis.FrameSource
	Stopped() bool
	SampleRate() float64
}

// Peak is the dominant bin of one frame.
type Peak struct {
	Frame     int
	Bin       int
	Frequency float64 // Hz
	Level     float64 // dBFS
}

func (p Peak) String() string {
	return fmt.Sprintf("frame %d: peak %.1f Hz (bin %d) %.1f dBFS", p.Frame, p.Frequency, p.Bin, p.Level)
}

// FindPeak locates the strongest non-DC bin among the non-negative
// frequencies of frame. mags is scratch space and is grown if needed.
func FindPeak(frame []complex64, sampleRate float64, mags []float32) (Peak, []float32) {
	n := len(frame)
	half := n/2 + 1
	if cap(mags) < half {
		mags = make([]float32, half)
	}
	mags = mags[:half]
	fft.Magnitudes(mags, frame)

	start := 1
	if half == 1 {
		start = 0
	}
	bin := utils.FindPeakBin(mags, start, half-1)

	level := math.Inf(-1)
	if m := float64(mags[bin]); m > 0 && n > 0 {
		level = 20 * math.Log10(2*m/float64(n))
	}
	return Peak{
		Bin:       bin,
		Frequency: fft.BinFrequency(bin, n, sampleRate),
		Level:     level,
	}, mags
}

// RunHeadless consumes frames from src until the stream ends or ctx is
// cancelled, writing one line per frame that passes gate to w. A nil gate
// passes everything. It returns the number of frames consumed and the
// stream's terminal error, if any.
func RunHeadless(ctx context.Context, src PeakSource, gate *analysis.Gate, w io.Writer) (int, error) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	var (
		mags   []float32
		frames int
	)
	for {
		if src.HasNext() {
			frame := src.Next()
			src.Resume()
			frames++

			if gate == nil || gate.Open(frame) {
				var peak Peak
				peak, mags = FindPeak(frame, src.SampleRate(), mags)
				peak.Frame = frames
				if _, err := fmt.Fprintln(w, peak); err != nil {
					return frames, err
				}
			}
			continue
		}

		if src.Stopped() {
			return frames, src.Err()
		}

		select {
		case <-ctx.Done():
			return frames, nil
		case <-ticker.C:
		}
	}
}
