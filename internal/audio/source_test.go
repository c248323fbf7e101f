// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/gordonklaus/portaudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wfall/internal/pcm"
)

func TestOpenRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.raw")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3, 4}, 0o644))

	in, err := OpenRaw(path)
	require.NoError(t, err)
	assert.False(t, in.Info.Known())

	data, err := io.ReadAll(in.R)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
	require.NoError(t, in.Close())
	require.NoError(t, in.Close(), "second Close is a no-op")

	_, err = OpenRaw(filepath.Join(t.TempDir(), "missing.raw"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	stdin, err := OpenRaw("-")
	require.NoError(t, err)
	assert.Same(t, os.Stdin, stdin.R)
	assert.NoError(t, stdin.Close())
}

func TestOpenWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	w, err := CreateWAV(path, 8000, 16, 2)
	require.NoError(t, err)
	require.NoError(t, w.Write([]int{-32768, 16384, 0, 8192, 100, -100}))
	assert.Equal(t, int64(3), w.Frames())
	require.NoError(t, w.Close())

	in, err := OpenWAV(path)
	require.NoError(t, err)
	defer in.Close()

	assert.Equal(t, Info{Channels: 2, SampleRate: 8000, BitDepth: 16}, in.Info)
	format, err := in.Info.Format()
	require.NoError(t, err)
	assert.Equal(t, pcm.S16LE, format)

	data, err := io.ReadAll(in.R)
	require.NoError(t, err)
	require.Len(t, data, 12, "only the data chunk is returned")
	assert.Equal(t, int16(-32768), int16(binary.LittleEndian.Uint16(data[0:])))
	assert.Equal(t, int16(8192), int16(binary.LittleEndian.Uint16(data[6:])))
	assert.Equal(t, int16(-100), int16(binary.LittleEndian.Uint16(data[10:])))
}

func TestOpenWAVRejectsOtherFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a riff header"), 0o644))

	_, err := OpenWAV(path)
	assert.ErrorIs(t, err, ErrNotWAV)
}

func TestCreateWAVValidation(t *testing.T) {
	dir := t.TempDir()
	_, err := CreateWAV(filepath.Join(dir, "a.wav"), 8000, 12, 1)
	assert.ErrorIs(t, err, ErrBitDepth)
	_, err = CreateWAV(filepath.Join(dir, "b.wav"), 8000, 16, 0)
	assert.Error(t, err)

	w, err := CreateWAV(filepath.Join(dir, "c.wav"), 8000, 16, 2)
	require.NoError(t, err)
	assert.Error(t, w.Write([]int{1, 2, 3}), "odd sample count for stereo")
	require.NoError(t, w.Close())
}

func TestInfoFormat(t *testing.T) {
	tests := []struct {
		info    Info
		want    pcm.SampleFormat
		wantErr bool
	}{
		{Info{Channels: 1, BitDepth: 8}, pcm.U8, false},
		{Info{Channels: 1, BitDepth: 16}, pcm.S16LE, false},
		{Info{Channels: 1, BitDepth: 24}, pcm.S24LE, false},
		{Info{Channels: 1, BitDepth: 32, Float: true}, pcm.F32LE, false},
		{Info{Channels: 1, BitDepth: 64, Float: true}, pcm.F64LE, false},
		{Info{Channels: 1, BitDepth: 12}, pcm.SampleFormat{}, true},
		{Info{Channels: 1, BitDepth: 24, Float: true}, pcm.SampleFormat{}, true},
	}
	for _, tt := range tests {
		got, err := tt.info.Format()
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrBitDepth, "%+v", tt.info)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

type fakeStream struct {
	buf     []int16
	blocks  [][]int16
	errs    []error
	stopped bool
	closed  bool
}

func (s *fakeStream) Read() error {
	if len(s.blocks) == 0 {
		return errors.New("device gone")
	}
	copy(s.buf, s.blocks[0])
	s.blocks = s.blocks[1:]
	var err error
	if len(s.errs) > 0 {
		err, s.errs = s.errs[0], s.errs[1:]
	}
	return err
}

func (s *fakeStream) Stop() error  { s.stopped = true; return nil }
func (s *fakeStream) Close() error { s.closed = true; return nil }

func TestCaptureServesLittleEndianBytes(t *testing.T) {
	buf := make([]int16, 2)
	stream := &fakeStream{
		buf:    buf,
		blocks: [][]int16{{-32768, 1}, {256, -1}},
		errs:   []error{nil, portaudio.InputOverflowed},
	}
	c := newCapture(stream, buf)

	p := make([]byte, 3)
	n, err := c.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0x00, 0x80, 0x01}, p)

	// One byte left from the first block, then a fresh block.
	skipped, err := c.Skip(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), skipped)

	p = make([]byte, 4)
	n, err = io.ReadFull(c, p)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0x00, 0x01, 0xff, 0xff}, p)
	assert.Equal(t, 1, c.Overflows(), "an overflow still delivers the block")

	_, err = c.Read(p)
	assert.ErrorIs(t, err, ErrCaptureIO)

	terminated := false
	c.terminate = func() error { terminated = true; return nil }
	require.NoError(t, c.Close())
	assert.True(t, stream.stopped)
	assert.True(t, stream.closed)
	assert.True(t, terminated)
}
