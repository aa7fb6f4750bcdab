//go:build linux || darwin

package serial

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// configure applies c to the open descriptor fd. Invalid values are rejected
// before the first ioctl.
func configure(fd int, c Config) error {
	if err := c.validate(); err != nil {
		return err
	}
	t, err := getTermios(fd)
	if err != nil {
		return ioError("tcgetattr", err)
	}
	deferred, err := applyProfile(t, c)
	if err != nil {
		return err
	}
	if err := setTermios(fd, t); err != nil {
		return ioError("tcsetattr", err)
	}
	if deferred {
		return setDeferredSpeed(fd, c.BaudRate)
	}
	return nil
}

// applyProfile rewrites t for raw, poll-driven I/O with the framing in c.
// deferred reports a baud rate that needs a platform ioctl after tcsetattr.
func applyProfile(t *unix.Termios, c Config) (deferred bool, err error) {
	if err := c.validate(); err != nil {
		return false, err
	}

	// raw mode, no echo, binary
	t.Cflag |= unix.CLOCAL | unix.CREAD
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ECHOK | unix.ECHONL | unix.ISIG | unix.IEXTEN
	t.Oflag &^= unix.OPOST
	t.Iflag &^= unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IGNBRK | unix.PARMRK | iuclc

	deferred = applySpeed(t, c.BaudRate)

	t.Cflag &^= unix.CSIZE
	switch c.ByteSize {
	case FiveBits:
		t.Cflag |= unix.CS5
	case SixBits:
		t.Cflag |= unix.CS6
	case SevenBits:
		t.Cflag |= unix.CS7
	case EightBits:
		t.Cflag |= unix.CS8
	}

	switch c.StopBits {
	case StopBitsOne:
		t.Cflag &^= unix.CSTOPB
	case StopBitsOnePointFive, StopBitsTwo:
		t.Cflag |= unix.CSTOPB
	}

	t.Iflag &^= unix.INPCK | unix.ISTRIP
	switch c.Parity {
	case ParityNone:
		t.Cflag &^= unix.PARENB | unix.PARODD | cmspar
	case ParityEven:
		t.Cflag &^= unix.PARODD | cmspar
		t.Cflag |= unix.PARENB
	case ParityOdd:
		t.Cflag &^= cmspar
		t.Cflag |= unix.PARENB | unix.PARODD
	case ParityMark, ParitySpace:
		if cmspar == 0 {
			return false, errors.Wrapf(ErrUnsupported, "%s parity", c.Parity)
		}
		t.Cflag |= unix.PARENB | cmspar
		if c.Parity == ParityMark {
			t.Cflag |= unix.PARODD
		} else {
			t.Cflag &^= unix.PARODD
		}
	}

	xonxoff, rtscts := c.FlowControl.flags()
	if xonxoff {
		t.Iflag |= unix.IXON | unix.IXOFF
	} else {
		t.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
	}
	if rtscts {
		t.Cflag |= unix.CRTSCTS
	} else {
		t.Cflag &^= unix.CRTSCTS
	}

	// read(2) never waits; all waiting happens in poll.
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0
	return deferred, nil
}
