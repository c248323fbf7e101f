// SPDX-License-Identifier: MIT
package fft

import "errors"

var (
	// ErrInvalidSize is returned when a transform length is not a positive
	// power of two or the input and output lengths differ.
	ErrInvalidSize = errors.New("fft size must be a power of 2")
)
