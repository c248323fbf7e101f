// SPDX-License-Identifier: MIT

// Package fft implements a radix-2 decimation-in-time Fourier transform
// over strided views of complex64 buffers.
//
// The kernel never allocates: the caller owns both buffers and the
// recursion addresses the even and odd subsequences of the input through
// sub-views with doubled stride.
package fft

import (
	"fmt"
	"math"

	"wfall/pkg/bitint"
)

// Transform writes the discrete Fourier transform of in to out. Both
// views must have the same power-of-two length, otherwise ErrInvalidSize
// is returned and out is left untouched. in and out must not overlap.
func Transform(out, in View) error {
	if in.Len() != out.Len() {
		return fmt.Errorf("%w: input length %d, output length %d", ErrInvalidSize, in.Len(), out.Len())
	}
	if !bitint.IsPowerOfTwo(in.Len()) {
		return fmt.Errorf("%w, got %d", ErrInvalidSize, in.Len())
	}
	ditfft2(out, in)
	return nil
}

// Forward is Transform over whole slices.
func Forward(out, in []complex64) error {
	return Transform(NewView(out), NewView(in))
}

// ditfft2 is the unchecked recursion. The transforms of the even and odd
// halves land in the lower and upper halves of out and are then combined
// in place with the butterfly
//
//	out[k]     = even[k] + w*odd[k]
//	out[k+N/2] = even[k] - w*odd[k],  w = exp(-2*pi*i*k/N)
func ditfft2(out, in View) {
	n := in.Len()
	if n == 1 {
		out.Set(0, in.At(0))
		return
	}

	half := n / 2
	ditfft2(out.Sub(0, half, 1), in.Sub(0, half, 2))
	ditfft2(out.Sub(half, half, 1), in.Sub(1, half, 2))

	step := -2 * math.Pi / float64(n)
	for k := range half {
		sin, cos := math.Sincos(step * float64(k))
		p := out.At(k)
		q := complex(float32(cos), float32(sin)) * out.At(k+half)
		out.Set(k, p+q)
		out.Set(k+half, p-q)
	}
}
