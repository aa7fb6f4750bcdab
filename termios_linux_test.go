package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestApplySpeed_Standard(t *testing.T) {
	for baud, code := range map[int]uint32{9600: unix.B9600, 115200: unix.B115200, 4000000: unix.B4000000} {
		tio := &unix.Termios{Cflag: unix.B50 | unix.CS8}
		deferred := applySpeed(tio, baud)
		assert.False(t, deferred)
		assert.Equal(t, code, tio.Cflag&unix.CBAUD, "baud %d", baud)
		assert.EqualValues(t, unix.CS8, tio.Cflag&unix.CSIZE)
	}
}

func TestApplySpeed_CustomUsesBOTHER(t *testing.T) {
	tio := &unix.Termios{Cflag: unix.B9600}
	deferred := applySpeed(tio, 250000)
	assert.False(t, deferred)
	assert.EqualValues(t, unix.BOTHER, tio.Cflag&unix.CBAUD)
	assert.EqualValues(t, 250000, tio.Ispeed)
	assert.EqualValues(t, 250000, tio.Ospeed)
}

func TestApplyProfile_MarkSpace(t *testing.T) {
	cfg := DefaultConfig("/dev/null")

	cfg.Parity = ParityMark
	tio := dirtyTermios()
	_, err := applyProfile(tio, cfg)
	require.NoError(t, err)
	assert.NotZero(t, tio.Cflag&unix.CMSPAR)
	assert.NotZero(t, tio.Cflag&unix.PARODD)
	assert.NotZero(t, tio.Cflag&unix.PARENB)

	cfg.Parity = ParitySpace
	tio = dirtyTermios()
	_, err = applyProfile(tio, cfg)
	require.NoError(t, err)
	assert.NotZero(t, tio.Cflag&unix.CMSPAR)
	assert.Zero(t, tio.Cflag&unix.PARODD)

	cfg.Parity = ParityEven
	_, err = applyProfile(tio, cfg)
	require.NoError(t, err)
	assert.Zero(t, tio.Cflag&unix.CMSPAR)
}
