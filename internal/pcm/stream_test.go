// SPDX-License-Identifier: MIT
package pcm

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wfall/internal/nbio"
)

func newStream(t *testing.T, r io.Reader, format SampleFormat, channels int) (*Stream, *nbio.Adapter) {
	t.Helper()
	d, err := NewDecoder(format, channels)
	require.NoError(t, err)
	a := nbio.New(nbio.NewSource(r))
	t.Cleanup(func() { _ = a.Close() })
	return NewStream(a, d), a
}

func TestStreamReadChunk(t *testing.T) {
	s, a := newStream(t, bytes.NewReader(s16le(-32768, 16384, 0, 8192)), S16LE, 1)

	dst := make([]complex64, 2)
	require.NoError(t, s.ReadChunk(dst))
	assert.Equal(t, []complex64{-1, 0.5}, dst)
	assert.True(t, a.Ready(), "ReadChunk must acknowledge the adapter")

	require.NoError(t, s.ReadChunk(dst))
	assert.Equal(t, []complex64{0, 0.25}, dst)

	err := s.ReadChunk(dst)
	assert.ErrorIs(t, err, ErrEndOfStream)
	assert.True(t, a.Ready())
}

func TestStreamPartialBlockIsDropped(t *testing.T) {
	s, _ := newStream(t, bytes.NewReader(s16le(100, 200, 300)), S16LE, 1)

	dst := []complex64{7, 7, 7, 7}
	err := s.ReadChunk(dst)
	require.ErrorIs(t, err, ErrEndOfStream)
	assert.Equal(t, []complex64{7, 7, 7, 7}, dst, "a short block must not be decoded")
}

func TestStreamSkip(t *testing.T) {
	s, _ := newStream(t, io.LimitReader(bytes.NewReader(s16le(1, 2, 3, 16384)), 8), S16LE, 1)

	require.NoError(t, s.Skip(3))
	dst := make([]complex64, 1)
	require.NoError(t, s.ReadChunk(dst))
	assert.Equal(t, complex64(0.5), dst[0])

	assert.ErrorIs(t, s.Skip(1), ErrEndOfStream)
	assert.NoError(t, s.Skip(0))
}

func TestStreamSourceError(t *testing.T) {
	boom := errors.New("read failed")
	s, _ := newStream(t, io.MultiReader(bytes.NewReader([]byte{1}), errorReader{boom}), S16LE, 1)

	err := s.ReadChunk(make([]complex64, 4))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrEndOfStream)
}

func TestStreamBusyAndClosed(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	s, a := newStream(t, pr, S16LE, 1)

	require.True(t, a.Read(2))
	assert.ErrorIs(t, s.ReadChunk(make([]complex64, 1)), ErrBusy)

	go func() { _, _ = pw.Write([]byte{0, 0}) }()
	require.NoError(t, a.Wait())
	a.TaskFinished()

	require.NoError(t, a.Close())
	assert.ErrorIs(t, s.ReadChunk(make([]complex64, 1)), nbio.ErrClosed)
	assert.ErrorIs(t, s.Skip(1), nbio.ErrClosed)
}

type errorReader struct{ err error }

func (r errorReader) Read([]byte) (int, error) { return 0, r.err }
