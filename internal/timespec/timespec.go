// Package timespec provides (seconds, nanoseconds) instants and durations
// for deadline arithmetic against a monotonic clock.
package timespec

import (
	"math"
	"time"

	"golang.org/x/sys/unix"
)

const nsPerSec = int64(time.Second)

const (
	// maxDurationSec is the largest Sec a time.Duration can hold.
	maxDurationSec = math.MaxInt64/nsPerSec - 1
	// maxWaitSec caps the waits handed to the OS so that they fit a 32-bit
	// time_t.
	maxWaitSec = math.MaxInt32
)

// Timespec is an instant or a duration. Nsec is kept in [0, 1e9) by every
// operation in this package; a negative duration has negative Sec.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// Clock samples the current instant.
type Clock interface {
	Now() Timespec
}

// Normalize carries or borrows whole seconds so that Nsec lands in [0, 1e9).
func Normalize(t Timespec) Timespec {
	if t.Nsec >= nsPerSec || t.Nsec <= -nsPerSec {
		t.Sec += t.Nsec / nsPerSec
		t.Nsec %= nsPerSec
	}
	if t.Nsec < 0 {
		t.Nsec += nsPerSec
		t.Sec--
	}
	return t
}

// Add returns a+b.
func Add(a, b Timespec) Timespec {
	return Normalize(Timespec{Sec: a.Sec + b.Sec, Nsec: a.Nsec + b.Nsec})
}

// Sub returns a-b, which is negative when b is later than a.
func Sub(a, b Timespec) Timespec {
	return Normalize(Timespec{Sec: a.Sec - b.Sec, Nsec: a.Nsec - b.Nsec})
}

// Scale returns d multiplied by n.
func Scale(d Timespec, n int64) Timespec {
	// scale microseconds and the sub-microsecond rest separately so that
	// Nsec*n cannot overflow for large n.
	const usPerSec = int64(time.Second / time.Microsecond)
	us := (d.Nsec / 1000) * n
	rest := (d.Nsec % 1000) * n
	return Normalize(Timespec{
		Sec:  d.Sec*n + us/usPerSec,
		Nsec: (us%usPerSec)*1000 + rest,
	})
}

// Min returns whichever of a and b is shorter (or earlier).
func Min(a, b Timespec) Timespec {
	if a.Sec < b.Sec || (a.Sec == b.Sec && a.Nsec < b.Nsec) {
		return a
	}
	return b
}

// FromMillis returns a duration of ms milliseconds.
func FromMillis(ms uint32) Timespec {
	return Normalize(Timespec{Nsec: int64(ms) * int64(time.Millisecond)})
}

// FromDuration converts a time.Duration.
func FromDuration(d time.Duration) Timespec {
	return Normalize(Timespec{Nsec: int64(d)})
}

// Duration converts t to a time.Duration, saturating at the limits of
// time.Duration.
func (t Timespec) Duration() time.Duration {
	switch {
	case t.Sec > maxDurationSec:
		return math.MaxInt64
	case t.Sec < -maxDurationSec:
		return math.MinInt64
	}
	return time.Duration(t.Sec)*time.Second + time.Duration(t.Nsec)
}

// Positive reports whether t is a duration greater than zero.
func (t Timespec) Positive() bool {
	return t.Sec > 0 || (t.Sec == 0 && t.Nsec > 0)
}

// Unix returns t in the form expected by ppoll and pselect. Negative
// durations become zero and long ones are capped, so the result is always a
// valid timeout.
func (t Timespec) Unix() unix.Timespec {
	if !t.Positive() {
		return unix.Timespec{}
	}
	if t.Sec >= maxWaitSec {
		t = Timespec{Sec: maxWaitSec}
	}
	return unix.NsecToTimespec(t.Sec*nsPerSec + t.Nsec)
}

// Millis returns t in whole milliseconds for poll, rounded up. Negative
// durations become zero and long ones are capped at math.MaxInt32.
func (t Timespec) Millis() int {
	if !t.Positive() {
		return 0
	}
	const nsPerMs = int64(time.Millisecond)
	const maxSec = math.MaxInt32 / 1000
	if t.Sec > maxSec {
		return math.MaxInt32
	}
	ms := t.Sec*1000 + (t.Nsec+nsPerMs-1)/nsPerMs
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}
