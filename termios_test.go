//go:build linux || darwin

package serial

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func dirtyTermios() *unix.Termios {
	t := &unix.Termios{}
	t.Iflag = unix.IXON | unix.IXOFF | unix.IXANY | unix.ICRNL | unix.INPCK | unix.ISTRIP
	t.Oflag = unix.OPOST
	t.Lflag = unix.ICANON | unix.ECHO | unix.ISIG | unix.IEXTEN
	t.Cflag = unix.CS5 | unix.CSTOPB | unix.PARENB | unix.PARODD | unix.CRTSCTS
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 5
	return t
}

func TestApplyProfile_RawMode(t *testing.T) {
	tio := dirtyTermios()
	_, err := applyProfile(tio, DefaultConfig("/dev/null"))
	require.NoError(t, err)

	assert.Zero(t, tio.Lflag&(unix.ICANON|unix.ECHO|unix.ISIG|unix.IEXTEN))
	assert.Zero(t, tio.Oflag&unix.OPOST)
	assert.Zero(t, tio.Iflag&(unix.ICRNL|unix.IXON|unix.IXOFF|unix.IXANY|unix.INPCK|unix.ISTRIP))
	assert.NotZero(t, tio.Cflag&unix.CLOCAL)
	assert.NotZero(t, tio.Cflag&unix.CREAD)
	assert.EqualValues(t, unix.CS8, tio.Cflag&unix.CSIZE)
	assert.Zero(t, tio.Cflag&(unix.CSTOPB|unix.PARENB|unix.PARODD|unix.CRTSCTS))
	assert.EqualValues(t, 0, tio.Cc[unix.VMIN])
	assert.EqualValues(t, 0, tio.Cc[unix.VTIME])
}

func TestApplyProfile_Framing(t *testing.T) {
	cases := []struct {
		name     string
		size     ByteSize
		parity   Parity
		stop     StopBits
		wantSize uint64
		set      uint64
		clear    uint64
	}{
		{"7E1", SevenBits, ParityEven, StopBitsOne, unix.CS7, unix.PARENB, unix.PARODD | unix.CSTOPB},
		{"8O2", EightBits, ParityOdd, StopBitsTwo, unix.CS8, unix.PARENB | unix.PARODD | unix.CSTOPB, 0},
		{"6N1.5", SixBits, ParityNone, StopBitsOnePointFive, unix.CS6, unix.CSTOPB, unix.PARENB | unix.PARODD},
		{"5N1", FiveBits, ParityNone, StopBitsOne, unix.CS5, 0, unix.PARENB | unix.CSTOPB},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig("/dev/null")
			cfg.ByteSize, cfg.Parity, cfg.StopBits = c.size, c.parity, c.stop
			tio := dirtyTermios()
			_, err := applyProfile(tio, cfg)
			require.NoError(t, err)
			cflag := uint64(tio.Cflag)
			assert.Equal(t, c.wantSize, cflag&unix.CSIZE)
			assert.Equal(t, c.set, cflag&c.set)
			assert.Zero(t, cflag&c.clear)
		})
	}
}

func TestApplyProfile_FlowControl(t *testing.T) {
	cfg := DefaultConfig("/dev/null")

	cfg.FlowControl = FlowControlSoftware
	tio := dirtyTermios()
	_, err := applyProfile(tio, cfg)
	require.NoError(t, err)
	assert.NotZero(t, tio.Iflag&unix.IXON)
	assert.NotZero(t, tio.Iflag&unix.IXOFF)
	assert.Zero(t, uint64(tio.Cflag)&unix.CRTSCTS)

	cfg.FlowControl = FlowControlHardware
	tio = dirtyTermios()
	_, err = applyProfile(tio, cfg)
	require.NoError(t, err)
	assert.Zero(t, tio.Iflag&(unix.IXON|unix.IXOFF))
	assert.NotZero(t, uint64(tio.Cflag)&unix.CRTSCTS)
}

func TestApplyProfile_InvalidArguments(t *testing.T) {
	cases := map[string]func(*Config){
		"byte size 4":  func(c *Config) { c.ByteSize = 4 },
		"byte size 9":  func(c *Config) { c.ByteSize = 9 },
		"parity":       func(c *Config) { c.Parity = Parity(17) },
		"stop bits":    func(c *Config) { c.StopBits = StopBits(-1) },
		"flow control": func(c *Config) { c.FlowControl = FlowControl(3) },
		"baud":         func(c *Config) { c.BaudRate = -9600 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig("/dev/null")
			mutate(&cfg)
			tio := dirtyTermios()
			before := *tio
			_, err := applyProfile(tio, cfg)
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
			assert.Equal(t, before, *tio, "termios touched before validation")
		})
	}
}

func TestFlowControlFlags(t *testing.T) {
	for _, f := range []FlowControl{FlowControlNone, FlowControlSoftware, FlowControlHardware} {
		xonxoff, rtscts := f.flags()
		assert.False(t, xonxoff && rtscts, f.String())
	}
}
