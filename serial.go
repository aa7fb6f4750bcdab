//go:build linux || darwin

package serial

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/sys/unix"

	"github.com/luhtfiimanal/go-posix-serial/internal/timespec"
)

// Port is a serial device driven through a non-blocking descriptor with
// deadline-bounded reads and writes.
//
// One read and one write may run at the same time; concurrent reads are
// serialized against each other, as are concurrent writes. Reconfiguring a
// port while a transfer is in flight is the caller's responsibility.
//
// Lock order is readMu, writeMu, mu.
type Port struct {
	readMu  sync.Mutex
	writeMu sync.Mutex

	// mu covers fd, the wake pipe, config and timeouts.
	mu       sync.Mutex
	fd       int
	wakeR    int // self-pipe read fd, polled alongside fd
	wakeW    int // self-pipe write fd, written once by Close
	config   Config
	timeouts timeouts
	open     atomic.Bool
	clock    timespec.Clock
}

// New returns a port for cfg without opening the device.
func New(cfg Config) *Port {
	p := &Port{
		fd:       -1,
		wakeR:    -1,
		wakeW:    -1,
		config:   cfg,
		timeouts: cfg.Timeout.timeouts(),
		clock:    timespec.System,
	}
	runtime.SetFinalizer(p, (*Port).Close)
	return p
}

// Open opens the device in cfg and applies its settings.
// The port is configured for raw operation with all waiting done in poll.
func Open(cfg Config) (*Port, error) {
	p := New(cfg)
	if err := p.Open(); err != nil {
		return nil, err
	}
	return p, nil
}

// Open acquires the device and applies the current configuration. The
// descriptor is released again if configuration fails.
func (p *Port) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.config.Device == "" {
		return errors.Wrap(ErrInvalidArgument, "empty device")
	}
	// fd stays set until a concurrent Close has released it.
	if p.open.Load() || p.fd >= 0 {
		return errors.Wrap(ErrAlreadyOpen, p.config.Device)
	}
	if err := p.config.validate(); err != nil {
		return err
	}
	fd, err := openDevice(p.config.Device)
	if err != nil {
		return err
	}
	if err := configure(fd, p.config); err != nil {
		unix.Close(fd)
		return err
	}
	wake, err := wakePipe()
	if err != nil {
		unix.Close(fd)
		return err
	}
	p.fd = fd
	p.wakeR, p.wakeW = wake[0], wake[1]
	p.open.Store(true)
	return nil
}

// wakePipe creates the self-pipe Close uses to wake transfers blocked in
// poll.
func wakePipe() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		if err == unix.ENFILE || err == unix.EMFILE {
			return fds, errors.Wrap(ErrTooManyHandles, "wake pipe")
		}
		return fds, ioError("pipe", err)
	}
	for _, fd := range fds {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return fds, ioError("pipe", err)
		}
	}
	return fds, nil
}

func openDevice(name string) (int, error) {
	for {
		fd, err := unix.Open(name, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		switch err {
		case nil:
			return fd, nil
		case unix.EINTR:
			continue
		case unix.ENFILE, unix.EMFILE:
			return -1, errors.Wrap(ErrTooManyHandles, name)
		}
		return -1, ioError("open "+name, err)
	}
}

// Close releases the device. Reads and writes in flight are woken, return
// ErrNotOpen, and finish before the descriptor is released. Safe to call
// multiple times; subsequent calls are no-ops.
func (p *Port) Close() error {
	p.mu.Lock()
	if !p.open.Load() {
		p.mu.Unlock()
		return nil
	}
	p.open.Store(false)
	// never drained, so every later poll on this pipe fires at once
	unix.Write(p.wakeW, []byte{1})
	p.mu.Unlock()

	p.readMu.Lock()
	defer p.readMu.Unlock()
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()
	unix.Close(p.wakeR)
	unix.Close(p.wakeW)
	fd := p.fd
	p.fd, p.wakeR, p.wakeW = -1, -1, -1
	return ioError("close", unix.Close(fd))
}

// IsOpen reports whether the port holds an open device.
func (p *Port) IsOpen() bool {
	return p.open.Load()
}

// handle returns the descriptor, or ErrNotOpen for op. The caller must hold
// readMu or writeMu for as long as it uses the descriptor.
func (p *Port) handle(op string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open.Load() {
		return -1, notOpen(op)
	}
	return p.fd, nil
}

// withFD runs fn on the descriptor with mu held, so Close cannot release it
// underneath fn. fn must not block for long.
func (p *Port) withFD(op string, fn func(fd int) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open.Load() {
		return notOpen(op)
	}
	return fn(p.fd)
}

func (p *Port) transferState(op string) (fdDevice, timeouts, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open.Load() {
		return fdDevice{}, timeouts{}, notOpen(op)
	}
	return fdDevice{fd: p.fd, wake: p.wakeR}, p.timeouts, nil
}

// Read reads up to len(b) bytes, waiting at most as long as the read
// timeouts allow. A short count with a nil error means time ran out.
func (p *Port) Read(b []byte) (int, error) {
	p.readMu.Lock()
	defer p.readMu.Unlock()
	dev, t, err := p.transferState("read")
	if err != nil {
		return 0, err
	}
	end := t.readDeadline(p.clock.Now(), len(b))
	return readLoop(dev, p.clock, b, end, t.interByte)
}

// Write writes b, waiting at most as long as the write timeouts allow. A
// short count with a nil error means time ran out.
func (p *Port) Write(b []byte) (int, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	dev, t, err := p.transferState("write")
	if err != nil {
		return 0, err
	}
	end := t.writeDeadline(p.clock.Now(), len(b))
	return writeLoop(dev, p.clock, b, end)
}

// Available returns the number of bytes queued for reading, or 0 if the port
// is closed.
func (p *Port) Available() (int, error) {
	n := 0
	err := p.withFD("available", func(fd int) (err error) {
		n, err = fdDevice{fd: fd}.available()
		return err
	})
	if errors.Is(err, ErrNotOpen) {
		return 0, nil
	}
	return n, err
}

// update applies fn to a copy of the configuration and, if the port is
// open, reconfigures it. The stored configuration only changes on success.
func (p *Port) update(fn func(*Config)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.config
	fn(&c)
	if err := c.validate(); err != nil {
		return err
	}
	if p.open.Load() {
		if err := configure(p.fd, c); err != nil {
			return err
		}
	}
	p.config = c
	return nil
}

// SetDevice changes the device path used by the next Open.
func (p *Port) SetDevice(device string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config.Device = device
}

// SetBaudRate sets the baud rate. Rates without a standard constant go
// through the platform's custom rate mechanism.
func (p *Port) SetBaudRate(baud int) error {
	return p.update(func(c *Config) { c.BaudRate = baud })
}

// SetByteSize sets the number of data bits per character.
func (p *Port) SetByteSize(size ByteSize) error {
	return p.update(func(c *Config) { c.ByteSize = size })
}

// SetParity sets the parity mode. Mark and space parity need CMSPAR.
func (p *Port) SetParity(parity Parity) error {
	return p.update(func(c *Config) { c.Parity = parity })
}

// SetStopBits sets the stop bits. One and a half is sent as two.
func (p *Port) SetStopBits(stop StopBits) error {
	return p.update(func(c *Config) { c.StopBits = stop })
}

// SetFlowControl selects no, XON/XOFF or RTS/CTS flow control.
func (p *Port) SetFlowControl(flow FlowControl) error {
	return p.update(func(c *Config) { c.FlowControl = flow })
}

// SetTimeout replaces the timeout profile. It applies to the next Read or
// Write.
func (p *Port) SetTimeout(t Timeout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config.Timeout = t
	p.timeouts = t.timeouts()
}

// Config returns a copy of the current configuration.
func (p *Port) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config
}

// Device returns the configured device path.
func (p *Port) Device() string { return p.Config().Device }

// BaudRate returns the configured baud rate.
func (p *Port) BaudRate() int { return p.Config().BaudRate }

// ByteSize returns the configured data bits.
func (p *Port) ByteSize() ByteSize { return p.Config().ByteSize }

// Parity returns the configured parity.
func (p *Port) Parity() Parity { return p.Config().Parity }

// StopBits returns the configured stop bits.
func (p *Port) StopBits() StopBits { return p.Config().StopBits }

// FlowControl returns the configured flow control.
func (p *Port) FlowControl() FlowControl { return p.Config().FlowControl }

// Timeout returns the timeout profile used by Read and Write.
func (p *Port) Timeout() Timeout { return p.Config().Timeout }
