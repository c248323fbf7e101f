// SPDX-License-Identifier: MIT
package audio

import "errors"

var (
	ErrDevice    = errors.New("unusable audio device")
	ErrNotWAV    = errors.New("not a RIFF/WAVE file")
	ErrBitDepth  = errors.New("unsupported bit depth")
	ErrCaptureIO = errors.New("capture stream failed")
)
