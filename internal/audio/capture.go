// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gordonklaus/portaudio"

	applog "wfall/internal/log"
)

// blockingStream is the part of *portaudio.Stream a Capture drives.
type blockingStream interface {
	Read() error
	Stop() error
	Close() error
}

// Capture reads a PortAudio input stream in blocking mode and serves the
// samples as interleaved s16le bytes. Only one goroutine may read.
type Capture struct {
	stream    blockingStream
	buf       []int16
	raw       []byte
	pending   []byte
	overflows int
	terminate func() error
}

// OpenCapture initializes PortAudio and starts a blocking input stream on
// deviceID (DefaultDevice for the system default). Close stops the stream
// and terminates PortAudio.
func OpenCapture(deviceID, channels int, sampleRate float64, framesPerBuffer int) (*Input, error) {
	if channels < 1 || framesPerBuffer < 1 {
		return nil, fmt.Errorf("%w: %d channels, %d frames per buffer", ErrDevice, channels, framesPerBuffer)
	}
	if err := Initialize(); err != nil {
		return nil, err
	}

	device, err := InputDevice(deviceID)
	if err != nil {
		Terminate()
		return nil, err
	}
	if channels > device.MaxInputChannels {
		Terminate()
		return nil, fmt.Errorf("%w: %s has %d input channels, %d requested", ErrDevice, device.Name, device.MaxInputChannels, channels)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: channels,
			Device:   device,
			Latency:  device.DefaultLowInputLatency,
		},
		FramesPerBuffer: framesPerBuffer,
		SampleRate:      sampleRate,
	}

	buf := make([]int16, framesPerBuffer*channels)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		Terminate()
		return nil, fmt.Errorf("%w: open: %w", ErrCaptureIO, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		Terminate()
		return nil, fmt.Errorf("%w: start: %w", ErrCaptureIO, err)
	}

	applog.Infof("Audio: capturing from %q (%d ch, %.0f Hz, %d frames per buffer)",
		device.Name, channels, sampleRate, framesPerBuffer)

	c := newCapture(stream, buf)
	c.terminate = Terminate
	return &Input{
		R: c,
		Info: Info{
			Channels:   channels,
			SampleRate: int(sampleRate),
			BitDepth:   16,
		},
		close: c.Close,
	}, nil
}

func newCapture(stream blockingStream, buf []int16) *Capture {
	return &Capture{
		stream: stream,
		buf:    buf,
		raw:    make([]byte, 0, 2*len(buf)),
	}
}

// Read serves bytes from the last captured buffer, blocking on the device
// for a new one when it is used up.
func (c *Capture) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(c.pending) == 0 {
		if err := c.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Skip discards n bytes of captured audio.
func (c *Capture) Skip(n int64) (int64, error) {
	return io.CopyN(io.Discard, c, n)
}

// Overflows returns how many device buffers were lost because the reader
// fell behind.
func (c *Capture) Overflows() int {
	return c.overflows
}

func (c *Capture) fill() error {
	if err := c.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return fmt.Errorf("%w: %w", ErrCaptureIO, err)
		}
		// The buffer still holds valid samples, only older ones were lost.
		c.overflows++
		applog.Debugf("Audio: input overflowed (%d so far)", c.overflows)
	}
	c.raw = c.raw[:0]
	for _, s := range c.buf {
		c.raw = binary.LittleEndian.AppendUint16(c.raw, uint16(s))
	}
	c.pending = c.raw
	return nil
}

// Close stops the stream and releases PortAudio.
func (c *Capture) Close() error {
	var errs []error
	if err := c.stream.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := c.stream.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.terminate != nil {
		if err := c.terminate(); err != nil {
			errs = append(errs, err)
		}
		c.terminate = nil
	}
	return errors.Join(errs...)
}
