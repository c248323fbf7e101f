// SPDX-License-Identifier: MIT

/*
Package nbio wraps a blocking byte Source in a worker goroutine and
exposes non-blocking read and skip through a command/completion
handshake.

State machine:

	idle (Ready) --Read/Skip--> working --I/O done--> done --TaskFinished--> idle

Caller obligations:

  - Poll Ready (or just attempt the command) before issuing a command.
    Read and Skip return false and change nothing when the adapter is not
    ready.
  - Once a command was accepted it cannot be cancelled or replaced. Poll
    Done, or block in Wait, until it completes.
  - Copy the bytes returned by Result before acknowledging with
    TaskFinished. The scratch buffer is reused by the next read; its
    capacity only grows.

Only the worker goroutine touches the Source.
*/
package nbio

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	applog "wfall/internal/log"
)

// Task identifies the command the adapter is executing or last executed.
type Task uint32

const (
	TaskNone Task = iota
	TaskRead
	TaskSkip
	TaskQuit
)

func (t Task) String() string {
	switch t {
	case TaskNone:
		return "Task::none"
	case TaskRead:
		return "Task::read"
	case TaskSkip:
		return "Task::skip"
	case TaskQuit:
		return "Task::quit"
	default:
		return "Task::unknown"
	}
}

const (
	stateIdle uint32 = iota
	stateWorking
	stateDone
)

type command struct {
	task  Task
	count int
}

// Adapter runs blocking Source operations on its own goroutine.
type Adapter struct {
	src Source

	state atomic.Uint32
	task  atomic.Uint32

	tasks     chan command  // holds at most the one accepted command
	completed chan struct{} // completion wake-ups for Wait
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// Owned by the worker while working, by the caller once done. buf
	// holds the bytes of the last read and is empty after a skip.
	buf []byte
	n   int
	err error
}

// New starts the worker goroutine for src. The adapter is ready for a
// command as soon as New returns.
func New(src Source) *Adapter {
	a := &Adapter{
		src:       src,
		tasks:     make(chan command, 1),
		completed: make(chan struct{}, 1),
		quit:      make(chan struct{}),
	}
	a.wg.Add(1)
	go a.worker()
	return a
}

// Ready reports whether a new command would be accepted.
func (a *Adapter) Ready() bool {
	if a.Closed() {
		return false
	}
	return a.state.Load() == stateIdle
}

// Read asks the worker to read count bytes. It returns false if the
// adapter is not ready.
func (a *Adapter) Read(count int) bool {
	return a.issue(TaskRead, count)
}

// Skip asks the worker to discard count bytes. It returns false if the
// adapter is not ready.
func (a *Adapter) Skip(count int) bool {
	return a.issue(TaskSkip, count)
}

func (a *Adapter) issue(t Task, count int) bool {
	if count < 0 || a.Closed() {
		return false
	}
	if !a.state.CompareAndSwap(stateIdle, stateWorking) {
		return false
	}
	a.task.Store(uint32(t))
	a.tasks <- command{task: t, count: count}
	return true
}

// Done reports whether the last accepted command has completed and not yet
// been acknowledged.
func (a *Adapter) Done() bool {
	return a.state.Load() == stateDone
}

// Wait blocks until the outstanding command completes. It returns
// immediately when nothing is outstanding and ErrClosed once Close has been
// called.
func (a *Adapter) Wait() error {
	for {
		if a.state.Load() != stateWorking {
			return nil
		}
		select {
		case <-a.completed:
			// May be a stale wake-up from an earlier task; re-check state.
		case <-a.quit:
			if a.Done() {
				return nil
			}
			return ErrClosed
		}
	}
}

// Result returns the bytes obtained by the last read and any source error
// other than end of input. Fewer bytes than requested means the source is
// exhausted. After a skip the slice is empty. The slice aliases the
// scratch buffer and is only valid between Done and TaskFinished.
func (a *Adapter) Result() ([]byte, error) {
	return a.buf, a.err
}

// Err returns the source error of the last command, if any. End of input
// is not an error.
func (a *Adapter) Err() error {
	return a.err
}

// Transferred returns the number of bytes read or skipped by the last
// command. Valid under the same conditions as Result.
func (a *Adapter) Transferred() int {
	return a.n
}

// TaskFinished acknowledges a completed command and reopens the ready
// gate. It has no effect unless Done is true.
func (a *Adapter) TaskFinished() {
	a.state.CompareAndSwap(stateDone, stateIdle)
}

// Task returns the command currently executing or last executed.
func (a *Adapter) Task() Task {
	return Task(a.task.Load())
}

// Close stops the worker and waits for it to exit. A read or skip in
// progress runs to completion first; there is no partial cancellation.
// Close is idempotent.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		applog.Debugf("Adapter: quit requested (task=%s)", a.Task())
		close(a.quit)
	})
	a.wg.Wait()
	return nil
}

// Closed reports whether Close has been called.
func (a *Adapter) Closed() bool {
	select {
	case <-a.quit:
		return true
	default:
		return false
	}
}

func (a *Adapter) worker() {
	defer a.wg.Done()
	for {
		select {
		case cmd := <-a.tasks:
			a.run(cmd)
		case <-a.quit:
			// A command accepted right before Close still runs.
			select {
			case cmd := <-a.tasks:
				a.run(cmd)
			default:
			}
			a.task.Store(uint32(TaskQuit))
			return
		}
	}
}

func (a *Adapter) run(cmd command) {
	applog.Debugf("Adapter: got work task=%s count=%d", cmd.task, cmd.count)

	switch cmd.task {
	case TaskRead:
		if cap(a.buf) < cmd.count {
			applog.Debugf("Adapter: growing scratch buffer to %d bytes", cmd.count)
			a.buf = make([]byte, cmd.count)
		}
		n, err := io.ReadFull(a.src, a.buf[:cmd.count])
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = nil
		}
		a.buf = a.buf[:n]
		a.n, a.err = n, err

	case TaskSkip:
		n, err := a.src.Skip(int64(cmd.count))
		if errors.Is(err, io.EOF) {
			err = nil
		}
		a.buf = a.buf[:0]
		a.n, a.err = int(n), err
	}

	a.state.Store(stateDone)
	select {
	case a.completed <- struct{}{}:
	default:
	}
}
