package serial

import (
	"syscall"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/luhtfiimanal/go-posix-serial/internal/timespec"
)

const (
	ioctlInq = unix.FIONREAD

	iuclc  = 0
	cmspar = 0

	// _IOW('T', 2, speed_t) from IOKit/serial/ioss.h
	ioctlIOSSIOSPEED = 0x80085402

	modemPollInterval = time.Millisecond
)

func getTermios(fd int) (*unix.Termios, error) {
	return unix.IoctlGetTermios(fd, unix.TIOCGETA)
}

func setTermios(fd int, t *unix.Termios) error {
	return unix.IoctlSetTermios(fd, unix.TIOCSETA, t)
}

var standardRates = map[int]uint64{
	0:      unix.B0,
	50:     unix.B50,
	75:     unix.B75,
	110:    unix.B110,
	134:    unix.B134,
	150:    unix.B150,
	200:    unix.B200,
	300:    unix.B300,
	600:    unix.B600,
	1200:   unix.B1200,
	1800:   unix.B1800,
	2400:   unix.B2400,
	4800:   unix.B4800,
	7200:   unix.B7200,
	9600:   unix.B9600,
	14400:  unix.B14400,
	19200:  unix.B19200,
	28800:  unix.B28800,
	38400:  unix.B38400,
	57600:  unix.B57600,
	76800:  unix.B76800,
	115200: unix.B115200,
	230400: unix.B230400,
}

// applySpeed encodes a standard rate into t. Any other rate is deferred to
// IOSSIOSPEED once the rest of the attributes are set.
func applySpeed(t *unix.Termios, baud int) (deferred bool) {
	speed, ok := standardRates[baud]
	if !ok {
		return true
	}
	t.Ispeed = speed
	t.Ospeed = speed
	return false
}

func setDeferredSpeed(fd int, baud int) error {
	speed := uint64(baud)
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), ioctlIOSSIOSPEED, uintptr(unsafe.Pointer(&speed)))
	if errno != 0 {
		return ioError("IOSSIOSPEED", errno)
	}
	return nil
}

// waitModemChange samples the status lines until one of them moves. There is
// no TIOCMIWAIT here, so it polls while the port stays open.
func (p *Port) waitModemChange(int) (bool, error) {
	const op = "wait for change"
	mask := unix.TIOCM_CTS | unix.TIOCM_DSR | unix.TIOCM_RI | unix.TIOCM_CD
	initial, err := p.modemState(op)
	if err != nil {
		return false, err
	}
	for {
		time.Sleep(modemPollInterval)
		state, err := p.modemState(op)
		if errors.Is(err, ErrNotOpen) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if (state^initial)&mask != 0 {
			return true, nil
		}
	}
}

func poll(fds []unix.PollFd, timeout timespec.Timespec) (int, error) {
	return unix.Poll(fds, timeout.Millis())
}
