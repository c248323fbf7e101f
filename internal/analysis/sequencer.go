// SPDX-License-Identifier: MIT

/*
Package analysis turns a stream of complex samples into a sequence of
windowed FFT frames computed on a dedicated worker goroutine.

Worker states:

	Idle --Start--> Computing --frame ready--> Ready --Resume--> Computing ...
	                    any state --Close or stream error--> Terminated

Consumer contract:

	s.Start()
	for running {
		if s.HasNext() {
			frame := s.Next()
			s.Resume()
			render(frame)
		}
	}

Next may only be called while HasNext is true, and every Next must be
followed by exactly one Resume before polling again. Calling Next twice
without Resume, or Resume without Next, is not detected.
*/
package analysis

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"wfall/internal/fft"
	applog "wfall/internal/log"
	"wfall/pkg/bitint"
)

// Sequencer schedules one FFT per cycle and holds at most one finished
// frame until the consumer takes it.
type Sequencer struct {
	stream Stream
	window WindowFunc

	// Configuration, read by the worker at the start of each cycle.
	mu      sync.Mutex
	size    int
	spacing int

	// Worker-owned state.
	coeffs  []float32
	samples []complex64 // input block; the sliding buffer when spacing < 0
	work    []complex64
	curSize int
	refill  bool

	// result is written by the worker before done is set and read by the
	// consumer after it observed done.
	result []complex64
	done   atomic.Bool

	frames  atomic.Uint64
	stopped atomic.Bool
	err     error // written before stopped is set

	resume    chan struct{}
	quit      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSequencer validates the configuration and returns a stopped
// Sequencer. fftSize must be a power of two. A nil window selects Blackman.
func NewSequencer(stream Stream, fftSize int, win WindowFunc) (*Sequencer, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("%w, got %d", fft.ErrInvalidSize, fftSize)
	}
	if win == nil {
		win = Blackman
	}
	return &Sequencer{
		stream: stream,
		window: win,
		size:   fftSize,
		resume: make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}, nil
}

// SetSpacing sets the number of frames between consecutive windows.
// Positive values skip input, negative values overlap windows by |spacing|
// samples. An overlap must be smaller than the FFT size.
func (s *Sequencer) SetSpacing(spacing int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkSpacing(spacing, s.size); err != nil {
		return err
	}
	s.spacing = spacing
	return nil
}

// SetFFTSize changes the transform size from the next cycle on. The
// window is recomputed and the overlap buffer refilled at that point.
func (s *Sequencer) SetFFTSize(n int) error {
	if !bitint.IsPowerOfTwo(n) {
		return fmt.Errorf("%w, got %d", fft.ErrInvalidSize, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkSpacing(s.spacing, n); err != nil {
		return err
	}
	s.size = n
	return nil
}

func checkSpacing(spacing, size int) error {
	if -spacing >= size {
		return fmt.Errorf("%w: spacing %d, fft size %d", ErrSpacing, spacing, size)
	}
	return nil
}

// OptimalSpacing derives the spacing that yields roughly frameRate frames
// per second of input at sampleRate, applies it and returns it.
func (s *Sequencer) OptimalSpacing(sampleRate, frameRate float64) (int, error) {
	if sampleRate <= 0 || frameRate <= 0 {
		return 0, fmt.Errorf("%w: sample rate %g, frame rate %g", ErrRate, sampleRate, frameRate)
	}
	spacing := int(math.Round(sampleRate/frameRate)) - s.FFTSize()
	if err := s.SetSpacing(spacing); err != nil {
		return spacing, err
	}
	return spacing, nil
}

func (s *Sequencer) Spacing() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spacing
}

func (s *Sequencer) FFTSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *Sequencer) config() (size, spacing int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size, s.spacing
}

// Start launches the worker. Only the first call has an effect, and
// starting a closed Sequencer does nothing.
func (s *Sequencer) Start() {
	s.startOnce.Do(func() {
		select {
		case <-s.quit:
			return
		default:
		}
		size, spacing := s.config()
		applog.Infof("Sequencer: starting (size=%d, spacing=%d)", size, spacing)
		s.wg.Add(1)
		go s.worker()
	})
}

// HasNext reports whether a finished frame is waiting. It never blocks.
func (s *Sequencer) HasNext() bool {
	return s.done.Load()
}

// Next hands over the finished frame. The caller owns the returned slice;
// the worker writes the following frame into a new one.
func (s *Sequencer) Next() []complex64 {
	frame := s.result
	s.result = nil
	return frame
}

// Resume lets the worker compute the next frame.
func (s *Sequencer) Resume() {
	s.done.Store(false)
	select {
	case s.resume <- struct{}{}:
	default:
	}
}

// Err returns the error that stopped the worker, such as
// pcm.ErrEndOfStream or nbio.ErrClosed. It is nil while the worker runs
// and after Close interrupted a wait for Resume.
func (s *Sequencer) Err() error {
	if !s.stopped.Load() {
		return nil
	}
	return s.err
}

// Stopped reports whether the worker has terminated.
func (s *Sequencer) Stopped() bool {
	return s.stopped.Load()
}

// Frames returns the number of frames produced so far.
func (s *Sequencer) Frames() uint64 {
	return s.frames.Load()
}

// Close stops the worker and waits for it. A cycle already reading or
// transforming runs to its end but its frame is not published, and a
// published frame not yet taken is withdrawn. A worker
// blocked on the stream only returns once the stream does, so close the
// underlying adapter first. Close is idempotent.
func (s *Sequencer) Close() error {
	s.closeOnce.Do(func() {
		applog.Debugf("Sequencer: quit requested after %d frames", s.Frames())
		close(s.quit)
	})
	s.wg.Wait()
	return nil
}

func (s *Sequencer) worker() {
	defer s.wg.Done()

	for {
		size, spacing := s.config()
		if size != s.curSize {
			s.resize(size)
		}

		if err := s.acquire(size, spacing); err != nil {
			applog.Infof("Sequencer: stream stopped after %d frames: %v", s.Frames(), err)
			s.stop(err)
			return
		}

		for i, c := range s.samples {
			s.work[i] = c * complex(s.coeffs[i], 0)
		}
		out := make([]complex64, size)
		if err := fft.Forward(out, s.work); err != nil {
			// Unreachable with a validated size.
			s.stop(err)
			return
		}

		select {
		case <-s.quit:
			s.stop(nil)
			return
		default:
		}

		s.result = out
		s.frames.Add(1)
		s.done.Store(true)

		select {
		case <-s.resume:
		case <-s.quit:
			s.stop(nil)
			return
		}
	}
}

// resize recomputes the window and drops the sliding buffer contents.
func (s *Sequencer) resize(size int) {
	applog.Debugf("Sequencer: window recomputed for size %d", size)
	s.coeffs = s.window(size)
	s.samples = make([]complex64, size)
	s.work = make([]complex64, size)
	s.curSize = size
	s.refill = true
}

// acquire loads the next input block into s.samples.
func (s *Sequencer) acquire(size, spacing int) error {
	if spacing >= 0 || s.refill {
		if spacing > 0 {
			if err := s.stream.Skip(spacing); err != nil {
				return err
			}
		}
		if err := s.stream.ReadChunk(s.samples); err != nil {
			return err
		}
		s.refill = false
		return nil
	}

	// Keep the newest |spacing| samples and read size+spacing behind them,
	// so consecutive windows always start size+spacing samples apart.
	fresh := size + spacing
	copy(s.samples, s.samples[fresh:])
	return s.stream.ReadChunk(s.samples[size-fresh:])
}

// stop records err and retracts a frame nobody took.
func (s *Sequencer) stop(err error) {
	s.err = err
	s.done.Store(false)
	s.stopped.Store(true)
}
