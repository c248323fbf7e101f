// SPDX-License-Identifier: MIT
package analysis

// Stream is the capability the Sequencer pulls samples through. Both calls
// block until the frames were transferred. pcm.Stream is the production
// implementation.
type Stream interface {
	// ReadChunk fills dst with len(dst) consecutive frames.
	ReadChunk(dst []complex64) error
	// Skip discards frames frames of input.
	Skip(frames int) error
}

// FrameSource is the consumer side of the Sequencer handshake. Renderers
// depend on this instead of *Sequencer so they can be driven by fakes.
type FrameSource interface {
	HasNext() bool     // HasNext reports whether a frame is ready, without blocking.
	Next() []complex64 // Next hands the ready frame to the caller.
	Resume()           // Resume re-arms production of the next frame.
	Err() error        // Err is the terminal stream error once production stopped.
}

// Compile-time check for interface implementation.
var _ FrameSource = (*Sequencer)(nil)
