// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.

// Package trace provides a decorator for a serial port that logs the data
// moved by each Read and Write along with how the call ended.
package trace

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"

	serial "github.com/luhtfiimanal/go-posix-serial"
)

// Trace is a trace log on a serial.Port, or any io.ReadWriter with the same
// short-count convention.
//
// Transferred bytes are logged with the read and write formats. A call that
// returns short with no error ran out of time and is logged as a timeout.
// Errors are logged by kind: a closed port, a disconnected device, or the
// failing OS call with its errno.
type Trace struct {
	rw   io.ReadWriter
	l    Logger
	wfmt string
	rfmt string
}

// Logger defines the interface used to log trace messages.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Option modifies a Trace object created by New.
type Option func(*Trace)

// New creates a new trace on the io.ReadWriter.
func New(rw io.ReadWriter, options ...Option) *Trace {
	t := &Trace{
		rw:   rw,
		wfmt: "w: %q",
		rfmt: "r: %q",
	}
	for _, option := range options {
		option(t)
	}
	if t.l == nil {
		t.l = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	}
	return t
}

// WithReadFormat sets the format used for read data.
func WithReadFormat(format string) Option {
	return func(t *Trace) {
		t.rfmt = format
	}
}

// WithWriteFormat sets the format used for write data.
func WithWriteFormat(format string) Option {
	return func(t *Trace) {
		t.wfmt = format
	}
}

// WithLogger specifies the logger to be used to log trace messages.
//
// By default traces are logged to Stderr.
func WithLogger(l Logger) Option {
	return func(t *Trace) {
		t.l = l
	}
}

func (t *Trace) Read(p []byte) (int, error) {
	n, err := t.rw.Read(p)
	t.record("r", t.rfmt, p, n, err)
	return n, err
}

func (t *Trace) Write(p []byte) (int, error) {
	n, err := t.rw.Write(p)
	t.record("w", t.wfmt, p, n, err)
	return n, err
}

func (t *Trace) record(dir, format string, p []byte, n int, err error) {
	if n > 0 {
		t.l.Printf(format, p[:min(n, len(p))])
	}
	switch {
	case err != nil:
		t.l.Printf("%s %s", dir, describe(err))
	case n < len(p):
		t.l.Printf("%s timeout: %d of %d bytes", dir, n, len(p))
	}
}

func describe(err error) string {
	var ioErr *serial.IOError
	switch {
	case errors.Is(err, serial.ErrNotOpen):
		return "closed"
	case errors.Is(err, serial.ErrDisconnected):
		return "disconnected: " + err.Error()
	case errors.As(err, &ioErr) && ioErr.Errno() != 0:
		return fmt.Sprintf("error: %s errno %d (%v)", ioErr.Op, int(ioErr.Errno()), ioErr.Errno())
	}
	return "error: " + err.Error()
}
