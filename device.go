//go:build linux || darwin

package serial

import (
	"golang.org/x/sys/unix"

	"github.com/luhtfiimanal/go-posix-serial/internal/timespec"
)

// fdDevice runs the transfer loops against an open descriptor. wake is the
// read end of the port's self-pipe; once it is readable the port is closing.
type fdDevice struct {
	fd   int
	wake int
}

func (d fdDevice) waitReady(dir direction, timeout timespec.Timespec) (bool, error) {
	events := int16(unix.POLLIN)
	if dir == dirWrite {
		events = unix.POLLOUT
	}
	if !timeout.Positive() {
		timeout = timespec.Timespec{}
	}
	pfd := []unix.PollFd{
		{Fd: int32(d.fd), Events: events},
		{Fd: int32(d.wake), Events: unix.POLLIN},
	}
	n, err := poll(pfd, timeout)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if pfd[1].Revents != 0 {
		return false, notOpen(dir.String())
	}
	if pfd[0].Revents&unix.POLLNVAL != 0 {
		return false, unix.EBADF
	}
	// POLLHUP and POLLERR count as ready; the transfer call then reports
	// the disconnect.
	return true, nil
}

func (d fdDevice) read(p []byte) (int, error) {
	return unix.Read(d.fd, p)
}

func (d fdDevice) write(p []byte) (int, error) {
	return unix.Write(d.fd, p)
}

func (d fdDevice) available() (int, error) {
	n, err := unix.IoctlGetInt(d.fd, ioctlInq)
	if err != nil {
		return 0, ioError("TIOCINQ", err)
	}
	return n, nil
}
