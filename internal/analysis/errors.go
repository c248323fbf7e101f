// SPDX-License-Identifier: MIT
package analysis

import "errors"

var (
	// ErrSpacing is returned when an overlap would reach the FFT size, which
	// leaves no fresh samples in the window.
	ErrSpacing = errors.New("overlap must be smaller than the fft size")
	ErrRate    = errors.New("sample rate and frame rate must be positive")
	ErrWindow  = errors.New("unknown window function")
)
