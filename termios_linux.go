package serial

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/luhtfiimanal/go-posix-serial/internal/timespec"
)

const (
	ioctlInq = unix.TIOCINQ

	iuclc  = unix.IUCLC
	cmspar = unix.CMSPAR
)

// termios2 carries the arbitrary speed fields used with BOTHER.
func getTermios(fd int) (*unix.Termios, error) {
	return unix.IoctlGetTermios(fd, unix.TCGETS2)
}

func setTermios(fd int, t *unix.Termios) error {
	return unix.IoctlSetTermios(fd, unix.TCSETS2, t)
}

var standardRates = map[int]uint32{
	0:       unix.B0,
	50:      unix.B50,
	75:      unix.B75,
	110:     unix.B110,
	134:     unix.B134,
	150:     unix.B150,
	200:     unix.B200,
	300:     unix.B300,
	600:     unix.B600,
	1200:    unix.B1200,
	1800:    unix.B1800,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	500000:  unix.B500000,
	576000:  unix.B576000,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1152000: unix.B1152000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	2500000: unix.B2500000,
	3000000: unix.B3000000,
	3500000: unix.B3500000,
	4000000: unix.B4000000,
}

// applySpeed encodes baud into t. Rates without a Bxxx constant use BOTHER
// with the rate in the speed fields, so nothing is left for after tcsetattr.
func applySpeed(t *unix.Termios, baud int) (deferred bool) {
	t.Cflag &^= unix.CBAUD | unix.CIBAUD
	if speed, ok := standardRates[baud]; ok {
		t.Cflag |= speed
	} else {
		t.Cflag |= unix.BOTHER
	}
	t.Ispeed = uint32(baud)
	t.Ospeed = uint32(baud)
	return false
}

func setDeferredSpeed(fd int, baud int) error {
	return errors.Wrapf(ErrUnsupported, "custom baud rate %d", baud)
}

// waitModemChange blocks in TIOCMIWAIT until one of the status lines moves.
func (p *Port) waitModemChange(fd int) (bool, error) {
	mask := unix.TIOCM_CTS | unix.TIOCM_DSR | unix.TIOCM_RI | unix.TIOCM_CD
	for {
		err := unix.IoctlSetInt(fd, unix.TIOCMIWAIT, mask)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, ioError("TIOCMIWAIT", err)
		}
		return true, nil
	}
}

func poll(fds []unix.PollFd, timeout timespec.Timespec) (int, error) {
	ts := timeout.Unix()
	return unix.Ppoll(fds, &ts, nil)
}
