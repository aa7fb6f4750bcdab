//go:build linux || darwin

package serial

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/luhtfiimanal/go-posix-serial/internal/timespec"
)

type direction int

const (
	dirRead direction = iota
	dirWrite
)

func (d direction) String() string {
	if d == dirWrite {
		return "write"
	}
	return "read"
}

// device is the non-blocking descriptor the transfer loops run against.
type device interface {
	// waitReady blocks until the device is ready in dir or timeout passes.
	// A non-positive timeout only checks readiness. It returns ErrNotOpen
	// when the port is closed underneath the wait.
	waitReady(dir direction, timeout timespec.Timespec) (bool, error)
	read(p []byte) (int, error)
	write(p []byte) (int, error)
	available() (int, error)
}

// readLoop fills p until it is full, end passes, or interByte elapses
// without new data. A short count with a nil error is a timeout. Only the
// first wait may run with no time left, as a readiness check.
func readLoop(dev device, clock timespec.Clock, p []byte, end, interByte timespec.Timespec) (int, error) {
	size := len(p)
	if size == 0 {
		return 0, nil
	}
	n := 0
	// Take what is already queued before the first wait; poll can still
	// reschedule the thread when data is waiting.
	queued, err := dev.available()
	if err != nil {
		return 0, err
	}
	if queued > 0 {
		m, err := dev.read(p)
		if m < 1 && !retryable(err) {
			return 0, disconnected(dirRead, err)
		}
		if m > 0 {
			n += m
		}
		if n > size {
			return n, errors.Wrapf(ErrOverrun, "read %d of %d bytes", n, size)
		}
	}
	first := true
	for n < size {
		remaining := timespec.Sub(end, clock.Now())
		if !first && !remaining.Positive() {
			break
		}
		if interByte.Positive() {
			remaining = timespec.Min(remaining, interByte)
		}
		ready, err := dev.waitReady(dirRead, remaining)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return n, waitError(err)
		}
		first = false
		if !ready {
			break
		}
		m, err := dev.read(p[n:])
		if m < 1 {
			if retryable(err) {
				continue
			}
			return n, disconnected(dirRead, err)
		}
		n += m
		if n > size {
			return n, errors.Wrapf(ErrOverrun, "read %d of %d bytes", n, size)
		}
	}
	return n, nil
}

// writeLoop writes p until it is done or end passes. With no time left the
// first attempt still writes whatever the driver accepts at once.
func writeLoop(dev device, clock timespec.Clock, p []byte, end timespec.Timespec) (int, error) {
	size := len(p)
	n := 0
	first := true
	for n < size {
		remaining := timespec.Sub(end, clock.Now())
		if !first && !remaining.Positive() {
			break
		}
		ready, err := dev.waitReady(dirWrite, remaining)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return n, waitError(err)
		}
		first = false
		if !ready {
			break
		}
		m, err := dev.write(p[n:])
		if m < 1 {
			if retryable(err) {
				continue
			}
			return n, disconnected(dirWrite, err)
		}
		n += m
		if n > size {
			return n, errors.Wrapf(ErrOverrun, "wrote %d of %d bytes", n, size)
		}
	}
	return n, nil
}

// waitError passes a close seen during the wait through and wraps anything
// else as a failed poll.
func waitError(err error) error {
	if errors.Is(err, ErrNotOpen) {
		return err
	}
	return ioError("poll", err)
}

// retryable reports a transient failure of the transfer call itself, such
// as a spurious wakeup.
func retryable(err error) bool {
	return err == unix.EINTR || err == unix.EAGAIN
}

func disconnected(dir direction, cause error) error {
	if cause == nil {
		return errors.Wrap(ErrDisconnected, dir.String())
	}
	return errors.Wrapf(ErrDisconnected, "%s: %v", dir, cause)
}
