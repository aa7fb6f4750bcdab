//go:build linux || darwin

package serial

import (
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// Flush waits until all written output has been transmitted. It holds the
// write lock, so Close waits for it to finish.
func (p *Port) Flush() error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	fd, err := p.handle("flush")
	if err != nil {
		return err
	}
	return ioError("tcdrain", termios.Tcdrain(uintptr(fd)))
}

// FlushInput discards data received but not yet read.
func (p *Port) FlushInput() error {
	return p.withFD("flush input", func(fd int) error {
		return ioError("tcflush", termios.Tcflush(uintptr(fd), unix.TCIFLUSH))
	})
}

// FlushOutput discards data written but not yet transmitted.
func (p *Port) FlushOutput() error {
	return p.withFD("flush output", func(fd int) error {
		return ioError("tcflush", termios.Tcflush(uintptr(fd), unix.TCOFLUSH))
	})
}

// SendBreak transmits a break. duration is divided by four before it is
// handed to tcsendbreak, so 0 gives the driver default of 0.25 to 0.5s.
func (p *Port) SendBreak(duration int) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	fd, err := p.handle("send break")
	if err != nil {
		return err
	}
	if duration < 0 {
		duration = 0
	}
	return ioError("tcsendbreak", termios.Tcsendbreak(uintptr(fd), uintptr(duration/4)))
}

// SetBreak holds the line in the break state while level is true.
func (p *Port) SetBreak(level bool) error {
	return p.withFD("set break", func(fd int) error {
		if level {
			return ioError("TIOCSBRK", unix.IoctlSetInt(fd, unix.TIOCSBRK, 0))
		}
		return ioError("TIOCCBRK", unix.IoctlSetInt(fd, unix.TIOCCBRK, 0))
	})
}

// SetRTS drives the RTS line.
func (p *Port) SetRTS(level bool) error {
	return p.setModemLine("set RTS", unix.TIOCM_RTS, level)
}

// SetDTR drives the DTR line.
func (p *Port) SetDTR(level bool) error {
	return p.setModemLine("set DTR", unix.TIOCM_DTR, level)
}

func (p *Port) setModemLine(op string, line int, level bool) error {
	return p.withFD(op, func(fd int) error {
		if level {
			return ioError("TIOCMBIS", unix.IoctlSetPointerInt(fd, unix.TIOCMBIS, line))
		}
		return ioError("TIOCMBIC", unix.IoctlSetPointerInt(fd, unix.TIOCMBIC, line))
	})
}

// CTS reports the clear-to-send line.
func (p *Port) CTS() (bool, error) {
	return p.modemLine("get CTS", unix.TIOCM_CTS)
}

// DSR reports the data-set-ready line.
func (p *Port) DSR() (bool, error) {
	return p.modemLine("get DSR", unix.TIOCM_DSR)
}

// RI reports the ring indicator line.
func (p *Port) RI() (bool, error) {
	return p.modemLine("get RI", unix.TIOCM_RI)
}

// CD reports the carrier detect line.
func (p *Port) CD() (bool, error) {
	return p.modemLine("get CD", unix.TIOCM_CD)
}

func (p *Port) modemLine(op string, line int) (bool, error) {
	state, err := p.modemState(op)
	if err != nil {
		return false, err
	}
	return state&line != 0, nil
}

// modemState returns the TIOCM_* status bits.
func (p *Port) modemState(op string) (int, error) {
	state := 0
	err := p.withFD(op, func(fd int) (err error) {
		state, err = unix.IoctlGetInt(fd, unix.TIOCMGET)
		return ioError("TIOCMGET", err)
	})
	return state, err
}

// WaitForChange blocks until CTS, DSR, RI or CD changes state. It returns
// false if the port is closed while waiting on platforms that have to poll
// for changes.
func (p *Port) WaitForChange() (bool, error) {
	// the wait runs on a duplicate so Close can release the port's own
	// descriptor while it blocks
	fd := -1
	err := p.withFD("wait for change", func(orig int) (err error) {
		fd, err = unix.FcntlInt(uintptr(orig), unix.F_DUPFD_CLOEXEC, 0)
		return ioError("dup", err)
	})
	if err != nil {
		return false, err
	}
	defer unix.Close(fd)
	return p.waitModemChange(fd)
}
