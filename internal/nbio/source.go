// SPDX-License-Identifier: MIT
package nbio

import (
	"io"
)

// Source is a blocking byte stream. Read behaves like io.Reader; Skip
// discards up to n bytes and reports how many were skipped. Both may block
// for a long time and are only ever called from the adapter's worker.
type Source interface {
	io.Reader
	Skip(n int64) (int64, error)
}

// NewSource adapts r to Source. Readers that implement Source are returned
// as is, io.Seekers skip by seeking and everything else skips by reading
// into io.Discard.
func NewSource(r io.Reader) Source {
	switch v := r.(type) {
	case Source:
		return v
	case io.ReadSeeker:
		return &seekSource{ReadSeeker: v}
	default:
		return &readerSource{Reader: r}
	}
}

type readerSource struct {
	io.Reader
}

func (s *readerSource) Skip(n int64) (int64, error) {
	return io.CopyN(io.Discard, s.Reader, n)
}

type seekSource struct {
	io.ReadSeeker
}

// Skip seeks forward. Seeking past the end is not an error for files, so
// end of input is reported by the following read instead. Pipes and
// terminals satisfy io.Seeker but fail to seek; those fall back to
// discarding.
func (s *seekSource) Skip(n int64) (int64, error) {
	if _, err := s.Seek(n, io.SeekCurrent); err != nil {
		return io.CopyN(io.Discard, s.ReadSeeker, n)
	}
	return n, nil
}
