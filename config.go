package serial

import (
	"github.com/pkg/errors"
)

// ByteSize is the number of data bits per character.
type ByteSize int

const (
	FiveBits  ByteSize = 5
	SixBits   ByteSize = 6
	SevenBits ByteSize = 7
	EightBits ByteSize = 8
)

// Parity is the parity bit mode.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	// ParityMark and ParitySpace need CMSPAR support from the OS.
	ParityMark
	ParitySpace
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	case ParityMark:
		return "mark"
	case ParitySpace:
		return "space"
	}
	return "invalid"
}

// StopBits is the number of stop bits.
type StopBits int

const (
	StopBitsOne StopBits = iota
	// StopBitsOnePointFive has no POSIX encoding and is applied as two.
	StopBitsOnePointFive
	StopBitsTwo
)

func (s StopBits) String() string {
	switch s {
	case StopBitsOne:
		return "1"
	case StopBitsOnePointFive:
		return "1.5"
	case StopBitsTwo:
		return "2"
	}
	return "invalid"
}

// FlowControl selects at most one flow control mode.
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	// FlowControlSoftware is XON/XOFF.
	FlowControlSoftware
	// FlowControlHardware is RTS/CTS.
	FlowControlHardware
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlSoftware:
		return "software"
	case FlowControlHardware:
		return "hardware"
	}
	return "invalid"
}

// flags resolves the enum into the two independent termios switches.
func (f FlowControl) flags() (xonxoff, rtscts bool) {
	switch f {
	case FlowControlSoftware:
		return true, false
	case FlowControlHardware:
		return false, true
	}
	return false, false
}

// Config holds configuration parameters for a serial port.
type Config struct {
	Device      string
	BaudRate    int
	ByteSize    ByteSize
	Parity      Parity
	StopBits    StopBits
	FlowControl FlowControl
	Timeout     Timeout
}

// DefaultConfig returns 9600 baud 8N1 without flow control and with a zero
// timeout, so reads return whatever is already available.
func DefaultConfig(device string) Config {
	return Config{
		Device:   device,
		BaudRate: 9600,
		ByteSize: EightBits,
		Parity:   ParityNone,
		StopBits: StopBitsOne,
	}
}

func (c Config) validate() error {
	if c.BaudRate < 0 {
		return errors.Wrapf(ErrInvalidArgument, "baud rate %d", c.BaudRate)
	}
	if err := validateByteSize(c.ByteSize); err != nil {
		return err
	}
	if err := validateParity(c.Parity); err != nil {
		return err
	}
	if err := validateStopBits(c.StopBits); err != nil {
		return err
	}
	return validateFlowControl(c.FlowControl)
}

func validateByteSize(b ByteSize) error {
	if b < FiveBits || b > EightBits {
		return errors.Wrapf(ErrInvalidArgument, "byte size %d", b)
	}
	return nil
}

func validateParity(p Parity) error {
	if p < ParityNone || p > ParitySpace {
		return errors.Wrapf(ErrInvalidArgument, "parity %d", int(p))
	}
	return nil
}

func validateStopBits(s StopBits) error {
	if s < StopBitsOne || s > StopBitsTwo {
		return errors.Wrapf(ErrInvalidArgument, "stop bits %d", int(s))
	}
	return nil
}

func validateFlowControl(f FlowControl) error {
	if f < FlowControlNone || f > FlowControlHardware {
		return errors.Wrapf(ErrInvalidArgument, "flow control %d", int(f))
	}
	return nil
}
