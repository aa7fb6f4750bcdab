package serial

import (
	"math"

	"github.com/luhtfiimanal/go-posix-serial/internal/timespec"
)

// MaxTimeout is the largest value a Timeout field can hold, about 49 days.
const MaxTimeout = math.MaxUint32

// Timeout is the timeout profile of a port, in milliseconds.
//
// A read of n bytes gives up at ReadConstant + ReadMultiplier*n after it
// starts, and also whenever no byte arrives for InterByte. A write of n bytes
// gives up at WriteConstant + WriteMultiplier*n. InterByte 0 disables the
// inter-byte cutoff. Running out of time is not an error: Read and Write
// return the count transferred so far.
//
// With the zero Timeout a read returns immediately with what is already
// queued and a write transfers what the driver accepts without waiting.
type Timeout struct {
	InterByte       uint32
	ReadConstant    uint32
	ReadMultiplier  uint32
	WriteConstant   uint32
	WriteMultiplier uint32
}

// SimpleTimeout returns a profile that bounds reads and writes by ms
// regardless of size.
func SimpleTimeout(ms uint32) Timeout {
	return Timeout{ReadConstant: ms, WriteConstant: ms}
}

// timeouts is the Timespec form of a Timeout, rebuilt on every SetTimeout.
type timeouts struct {
	interByte       timespec.Timespec
	readConstant    timespec.Timespec
	readMultiplier  timespec.Timespec
	writeConstant   timespec.Timespec
	writeMultiplier timespec.Timespec
}

func (t Timeout) timeouts() timeouts {
	return timeouts{
		interByte:       timespec.FromMillis(t.InterByte),
		readConstant:    timespec.FromMillis(t.ReadConstant),
		readMultiplier:  timespec.FromMillis(t.ReadMultiplier),
		writeConstant:   timespec.FromMillis(t.WriteConstant),
		writeMultiplier: timespec.FromMillis(t.WriteMultiplier),
	}
}

func deadline(now, constant, multiplier timespec.Timespec, size int) timespec.Timespec {
	return timespec.Add(timespec.Add(now, constant), timespec.Scale(multiplier, int64(size)))
}

func (t timeouts) readDeadline(now timespec.Timespec, size int) timespec.Timespec {
	return deadline(now, t.readConstant, t.readMultiplier, size)
}

func (t timeouts) writeDeadline(now timespec.Timespec, size int) timespec.Timespec {
	return deadline(now, t.writeConstant, t.writeMultiplier, size)
}
