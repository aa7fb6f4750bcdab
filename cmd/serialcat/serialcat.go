//go:build linux || darwin

// serialcat connects stdin and stdout to a serial port.
//
// Bytes read from stdin are written to the port and bytes received from the
// port are written to stdout until stdin closes or the port fails.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	bugst "go.bug.st/serial"

	serial "github.com/luhtfiimanal/go-posix-serial"
	"github.com/luhtfiimanal/go-posix-serial/trace"
)

var version = "undefined"

func main() {
	dev := flag.String("d", "/dev/ttyUSB0", "path to serial device")
	baud := flag.Int("b", 115200, "baud rate")
	size := flag.Int("s", 8, "data bits (5-8)")
	parity := flag.String("p", "N", "parity: N, O, E, M or S")
	stop := flag.String("x", "1", "stop bits: 1, 1.5 or 2")
	flow := flag.String("f", "none", "flow control: none, sw or hw")
	timeout := flag.Duration("t", 100*time.Millisecond, "read timeout per call")
	interByte := flag.Duration("i", 0, "inter-byte timeout, 0 to disable")
	list := flag.Bool("l", false, "list serial ports and exit")
	verbose := flag.Bool("v", false, "log port traffic to stderr")
	vsn := flag.Bool("version", false, "report version and exit")
	flag.Parse()
	if *vsn {
		fmt.Printf("%s %s\n", os.Args[0], version)
		os.Exit(0)
	}
	if *list {
		if err := listPorts(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg := serial.DefaultConfig(*dev)
	cfg.BaudRate = *baud
	cfg.ByteSize = serial.ByteSize(*size)
	var err error
	if cfg.Parity, err = parseParity(*parity); err != nil {
		log.Fatal(err)
	}
	if cfg.StopBits, err = parseStopBits(*stop); err != nil {
		log.Fatal(err)
	}
	if cfg.FlowControl, err = parseFlowControl(*flow); err != nil {
		log.Fatal(err)
	}
	cfg.Timeout = serial.Timeout{
		ReadConstant:    millis(*timeout),
		InterByte:       millis(*interByte),
		WriteConstant:   1000,
		WriteMultiplier: byteTime(*baud),
	}

	p, err := serial.Open(cfg)
	if err != nil {
		log.Fatalf("open %s: %v", *dev, err)
	}
	defer p.Close()

	var rw io.ReadWriter = p
	if *verbose {
		rw = trace.New(p)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 2)
	go func() { done <- pump(os.Stdout, rw) }()
	go func() { done <- send(rw, os.Stdin, p) }()

	select {
	case err = <-done:
	case s := <-sigs:
		log.Printf("received %v", s)
	}
	if err != nil {
		log.Println(err)
	}
}

// pump copies port input to w. Timeouts just start the next read.
func pump(w io.Writer, r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
	}
}

// send copies r to the port and drains the output once r is exhausted.
func send(w io.Writer, r io.Reader, p *serial.Port) error {
	if _, err := io.Copy(w, r); err != nil {
		return err
	}
	return p.Flush()
}

func listPorts(w io.Writer) error {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return errors.Wrap(err, "list ports")
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, port := range ports {
		fmt.Fprintln(w, port)
	}
	return nil
}

// byteTime is the time in ms to send one 10-bit character at baud, rounded up.
func byteTime(baud int) uint32 {
	if baud <= 0 {
		return 0
	}
	return uint32((10000 + baud - 1) / baud)
}

func millis(d time.Duration) uint32 {
	ms := d.Milliseconds()
	if ms > serial.MaxTimeout {
		return serial.MaxTimeout
	}
	if ms < 0 {
		return 0
	}
	return uint32(ms)
}

func parseParity(s string) (serial.Parity, error) {
	switch strings.ToUpper(s) {
	case "N", "NONE":
		return serial.ParityNone, nil
	case "O", "ODD":
		return serial.ParityOdd, nil
	case "E", "EVEN":
		return serial.ParityEven, nil
	case "M", "MARK":
		return serial.ParityMark, nil
	case "S", "SPACE":
		return serial.ParitySpace, nil
	}
	return 0, errors.Wrapf(serial.ErrInvalidArgument, "parity %q", s)
}

func parseStopBits(s string) (serial.StopBits, error) {
	switch s {
	case "1":
		return serial.StopBitsOne, nil
	case "1.5":
		return serial.StopBitsOnePointFive, nil
	case "2":
		return serial.StopBitsTwo, nil
	}
	return 0, errors.Wrapf(serial.ErrInvalidArgument, "stop bits %q", s)
}

func parseFlowControl(s string) (serial.FlowControl, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return serial.FlowControlNone, nil
	case "sw", "software", "xonxoff":
		return serial.FlowControlSoftware, nil
	case "hw", "hardware", "rtscts":
		return serial.FlowControlHardware, nil
	}
	return 0, errors.Wrapf(serial.ErrInvalidArgument, "flow control %q", s)
}
