// Package serial provides deadline-bounded access to POSIX serial ports on
// Linux and macOS.
//
// A Port drives a non-blocking descriptor. Every Read and Write computes a
// deadline from the port's Timeout profile and waits in poll for at most the
// time remaining. When time runs out the call returns the bytes transferred
// so far with a nil error. Errors are reserved for failures:
//   - ErrInvalidArgument for malformed settings, reported before any OS call
//   - ErrNotOpen for operations on a closed port
//   - *IOError for a failed OS call, carrying the errno
//   - ErrDisconnected when the device reports readiness but transfers nothing
//   - ErrTooManyHandles when the descriptor table is full
//
// Features:
//   - Raw termios configuration with standard and custom baud rates
//   - Five to eight data bits, none/odd/even/mark/space parity, 1, 1.5 or 2 stop bits
//   - Software or hardware flow control
//   - Total and inter-byte read timeouts measured on the monotonic clock
//   - Independent read and write locks for full-duplex use
//   - Break, RTS/DTR control and CTS/DSR/RI/CD status lines
//   - PTY-based tests for reliability
//
// This package does **not** support Windows.
//
// Example usage:
//
//	cfg := serial.DefaultConfig("/dev/ttyUSB0")
//	cfg.BaudRate = 115200
//	cfg.Timeout = serial.Timeout{ReadConstant: 200, InterByte: 20}
//	port, err := serial.Open(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	if _, err := port.Write([]byte("C,INFO\r\n")); err != nil {
//	    log.Println("Write failed:", err)
//	}
//	buf := make([]byte, 64)
//	n, err := port.Read(buf) // n < len(buf) with a nil error is a timeout
//	if err != nil {
//	    log.Println("Read failed:", err)
//	}
//	fmt.Printf("Received: %q\n", buf[:n])
package serial
