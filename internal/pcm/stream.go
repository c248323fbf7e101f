// SPDX-License-Identifier: MIT
package pcm

import (
	"fmt"

	"wfall/internal/nbio"
)

// Stream reads whole blocks of decoded frames through an nbio.Adapter.
// Each call blocks the calling goroutine until the adapter's worker has
// finished the transfer, so a Stream belongs to exactly one consumer.
type Stream struct {
	adapter *nbio.Adapter
	decoder *Decoder
}

// NewStream pairs an adapter with the decoder describing its bytes.
func NewStream(a *nbio.Adapter, d *Decoder) *Stream {
	return &Stream{adapter: a, decoder: d}
}

func (s *Stream) Decoder() *Decoder { return s.decoder }

// ReadChunk fills dst with len(dst) frames. If the source ends before the
// block is complete the partial block is dropped and ErrEndOfStream is
// returned. Source errors are returned wrapped. ReadChunk returns ErrBusy
// if the adapter still holds an unacknowledged command and nbio.ErrClosed
// once the adapter is shut down.
func (s *Stream) ReadChunk(dst []complex64) error {
	if len(dst) == 0 {
		return nil
	}
	want := s.decoder.Bytes(len(dst))
	if !s.adapter.Read(want) {
		return s.refused()
	}
	if err := s.adapter.Wait(); err != nil {
		return err
	}
	defer s.adapter.TaskFinished()

	raw, err := s.adapter.Result()
	if err != nil {
		return fmt.Errorf("pcm: read %d bytes: %w", want, err)
	}
	if len(raw) < want {
		return fmt.Errorf("%w: got %d of %d frames", ErrEndOfStream, s.decoder.Frames(len(raw)), len(dst))
	}
	// Decode before TaskFinished, raw aliases the adapter's scratch buffer.
	return s.decoder.Decode(dst, raw)
}

// Skip discards frames frames of input.
func (s *Stream) Skip(frames int) error {
	if frames <= 0 {
		return nil
	}
	want := s.decoder.Bytes(frames)
	if !s.adapter.Skip(want) {
		return s.refused()
	}
	if err := s.adapter.Wait(); err != nil {
		return err
	}
	defer s.adapter.TaskFinished()

	if err := s.adapter.Err(); err != nil {
		return fmt.Errorf("pcm: skip %d bytes: %w", want, err)
	}
	if n := s.adapter.Transferred(); n < want {
		return fmt.Errorf("%w: skipped %d of %d frames", ErrEndOfStream, s.decoder.Frames(n), frames)
	}
	return nil
}

func (s *Stream) refused() error {
	if s.adapter.Closed() {
		return nbio.ErrClosed
	}
	return ErrBusy
}
