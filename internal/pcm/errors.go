// SPDX-License-Identifier: MIT
package pcm

import "errors"

var (
	ErrChannels    = errors.New("channel count must be at least 1")
	ErrFormat      = errors.New("unsupported sample format")
	ErrSoloChannel = errors.New("solo channel index out of bounds")
	ErrIQChannels  = errors.New("iq data needs at least 2 channels")
	ErrMode        = errors.New("unknown channel mode")
	ErrShortFrame  = errors.New("raw block is not a whole number of frames")

	// ErrEndOfStream is returned by Stream when the source ran out before a
	// full block of frames could be read. The partial block is discarded.
	ErrEndOfStream = errors.New("end of stream")

	// ErrBusy means the adapter refused a command because another one is
	// still outstanding or unacknowledged.
	ErrBusy = errors.New("adapter busy")
)
