package serial

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var (
	// ErrInvalidArgument indicates a malformed configuration value. It is
	// reported before any OS call is made.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotOpen indicates the operation requires an open port.
	ErrNotOpen = errors.New("port not open")

	// ErrAlreadyOpen is returned by Open on a port that is already open.
	ErrAlreadyOpen = errors.New("port already open")

	// ErrDisconnected indicates the device reported readiness but then
	// transferred no data, which is how a vanished device presents.
	ErrDisconnected = errors.New("device reports readiness but transferred no data (device disconnected?)")

	// ErrOverrun indicates more bytes were transferred than requested.
	ErrOverrun = errors.New("transferred more bytes than requested")

	// ErrTooManyHandles indicates the process or system file table is full.
	ErrTooManyHandles = errors.New("too many file handles open")

	// ErrUnsupported indicates the platform cannot provide the requested
	// setting, e.g. a custom baud rate or mark parity.
	ErrUnsupported = errors.New("unsupported on this platform")
)

// IOError is a failed OS call on the port. Err is usually a unix.Errno.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Errno returns the underlying OS error code, or 0 if there is none.
func (e *IOError) Errno() unix.Errno {
	var errno unix.Errno
	if errors.As(e.Err, &errno) {
		return errno
	}
	return 0
}

func ioError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Err: err}
}

func notOpen(op string) error {
	return errors.Wrap(ErrNotOpen, op)
}
