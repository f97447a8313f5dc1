package msp

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Conn is a synchronous MSP connection: encode-and-flush a request, then
// run the incremental parser over the inbound stream until exactly one
// frame comes back (spec.md §4.A's "request/response helper"). The FC
// protocol is half-duplex per link by contract, so Conn assumes its
// caller serializes calls to Request — it does no locking of its own.
type Conn struct {
	rw     io.ReadWriter
	parser *Parser

	// OnFrameParsed and OnParseError, when non-nil, are invoked from
	// ReadFrame after every successfully decoded frame and every
	// resynchronization-triggering ProtocolError, respectively. They let
	// a caller (the dispatch loop) observe codec health without this
	// package depending on a metrics package.
	OnFrameParsed func()
	OnParseError  func(error)
	// OnRequestLatency, when non-nil, is invoked by Request with the
	// wall-clock duration of the encode/write/read-response round trip.
	OnRequestLatency func(time.Duration)
}

// NewConn wraps any ReadWriter (a serial port, a net.Conn, an in-memory
// pipe in tests) as an MSP connection.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw, parser: NewParser()}
}

// Request encodes req, writes it, then blocks reading bytes one at a
// time until a complete frame is decoded or the underlying reader
// returns an error.
func (c *Conn) Request(req Frame) (Frame, error) {
	start := time.Now()
	buf, err := req.Encode()
	if err != nil {
		return Frame{}, err
	}
	if _, err := c.rw.Write(buf); err != nil {
		return Frame{}, fmt.Errorf("msp: write request: %w", err)
	}
	resp, err := c.ReadFrame()
	if err == nil && c.OnRequestLatency != nil {
		c.OnRequestLatency(time.Since(start))
	}
	return resp, err
}

// ReadFrame blocks until exactly one complete, checksum-valid frame has
// been decoded from the underlying reader, skipping any garbage bytes
// and resynchronizing past any malformed frames it encounters along the
// way (spec.md property 8.3).
func (c *Conn) ReadFrame() (Frame, error) {
	var b [1]byte
	for {
		if _, err := io.ReadFull(c.rw, b[:]); err != nil {
			if err == io.EOF {
				return Frame{}, fmt.Errorf("msp: unexpected eof: %w", io.ErrUnexpectedEOF)
			}
			return Frame{}, fmt.Errorf("msp: read: %w", err)
		}
		frame, err := c.parser.Feed(b[0])
		if err != nil {
			// ProtocolError: the parser has already resynchronized;
			// keep reading for the next frame rather than failing the
			// whole connection.
			if c.OnParseError != nil {
				c.OnParseError(err)
			}
			continue
		}
		if frame != nil {
			if c.OnFrameParsed != nil {
				c.OnFrameParsed()
			}
			return *frame, nil
		}
	}
}

// SerialPort is the subset of go.bug.st/serial.Port this package needs,
// named so tests can substitute a fake without depending on real
// hardware.
type SerialPort interface {
	io.ReadWriteCloser
	SetReadTimeout(time.Duration) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

// OpenSerial opens an MSP serial link at the given device and baud rate,
// 8-N-1 per spec.md §6, with a 100ms read timeout.
func OpenSerial(device string, baud int) (SerialPort, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("msp: open serial %s: %w", device, err)
	}
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("msp: set read timeout: %w", err)
	}
	return port, nil
}

// ListSerialPorts enumerates available serial ports, backing the
// --list-serial CLI flag (spec.md §6).
func ListSerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
