//go:build linux || darwin

package timespec

import "golang.org/x/sys/unix"

type systemClock struct{}

// System is the process clock. It reads CLOCK_MONOTONIC and falls back to
// the wall clock only when the monotonic source is unavailable.
var System Clock = systemClock{}

func (systemClock) Now() Timespec {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err == nil {
		return Timespec{Sec: int64(ts.Sec), Nsec: int64(ts.Nsec)}
	}
	var tv unix.Timeval
	if err := unix.Gettimeofday(&tv); err != nil {
		return Timespec{}
	}
	return Normalize(Timespec{Sec: int64(tv.Sec), Nsec: int64(tv.Usec) * 1000})
}
