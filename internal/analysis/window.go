// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc maps a transform size to its window coefficients. The returned
// slice has length n and is owned by the caller.
type WindowFunc func(n int) []float32

// Rectangular leaves the samples unchanged.
func Rectangular(n int) []float32 {
	coeffs := make([]float32, n)
	for i := range coeffs {
		coeffs[i] = 1
	}
	return coeffs
}

// Blackman is the default window.
func Blackman(n int) []float32        { return gonumWindow(n, window.Blackman) }
func Hann(n int) []float32            { return gonumWindow(n, window.Hann) }
func Hamming(n int) []float32         { return gonumWindow(n, window.Hamming) }
func BlackmanNuttall(n int) []float32 { return gonumWindow(n, window.BlackmanNuttall) }
func Nuttall(n int) []float32         { return gonumWindow(n, window.Nuttall) }
func BartlettHann(n int) []float32    { return gonumWindow(n, window.BartlettHann) }
func Lanczos(n int) []float32         { return gonumWindow(n, window.Lanczos) }

// gonumWindow evaluates one of gonum's in-place window functions. gonum
// multiplies the sequence it is given, so it starts from ones. The formulas
// divide by n-1, so sizes below 2 get the rectangular window.
func gonumWindow(n int, fn func([]float64) []float64) []float32 {
	if n < 2 {
		return Rectangular(n)
	}
	seq := make([]float64, n)
	for i := range seq {
		seq[i] = 1
	}
	fn(seq)

	coeffs := make([]float32, n)
	for i, v := range seq {
		coeffs[i] = float32(v)
	}
	return coeffs
}

var windows = map[string]WindowFunc{
	"rectangular":     Rectangular,
	"blackman":        Blackman,
	"hann":            Hann,
	"hanning":         Hann,
	"hamming":         Hamming,
	"blackmannuttall": BlackmanNuttall,
	"nuttall":         Nuttall,
	"bartletthann":    BartlettHann,
	"lanczos":         Lanczos,
}

// ParseWindowFunc converts a name (case-insensitive, "-" and "_" ignored) to
// a WindowFunc. Unknown names return Blackman together with ErrWindow.
func ParseWindowFunc(name string) (WindowFunc, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", "_", "").Replace(key)
	if key == "" {
		return Blackman, nil
	}
	if fn, ok := windows[key]; ok {
		return fn, nil
	}
	return Blackman, fmt.Errorf("%w: %q", ErrWindow, name)
}

// WindowNames lists the names ParseWindowFunc accepts.
func WindowNames() []string {
	names := make([]string, 0, len(windows))
	for name := range windows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
