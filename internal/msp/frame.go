package msp

import (
	"encoding/binary"
	"fmt"
)

// MaxPayload is the largest payload a frame's length field can express
// (MSPv2's 16-bit length, and MSPv1's jumbo extension).
const MaxPayload = 65535

// jumboMarker is the MSPv1 length-byte value that signals an extended
// 16-bit length follows.
const jumboMarker = 255

// Frame is a fully decoded MSP frame (spec data model MspFrame).
//
// Flag is only meaningful for V2; it must be nil for V1 frames.
type Frame struct {
	Version   Version
	Direction Direction
	Flag      *uint8
	Function  uint16
	Payload   []byte
}

// NewV1 builds a V1 request/response/error frame.
func NewV1(dir Direction, function uint16, payload []byte) Frame {
	return Frame{Version: V1, Direction: dir, Function: function, Payload: payload}
}

// NewV2 builds a V2 frame with an explicit flag byte.
func NewV2(dir Direction, flag uint8, function uint16, payload []byte) Frame {
	return Frame{Version: V2, Direction: dir, Flag: &flag, Function: function, Payload: payload}
}

func (f Frame) flagByte() uint8 {
	if f.Flag == nil {
		return 0
	}
	return *f.Flag
}

// checksumBody returns the byte sequence the frame's checksum is computed
// over, per spec.md §4.A: for V2 it is everything after the two-byte
// "$X" marker (flag, function LE, length LE, payload); for V1 it is
// everything from the length byte through the end of the payload
// (the function byte is not covered).
func (f Frame) checksumBody() ([]byte, error) {
	if len(f.Payload) > MaxPayload {
		return nil, fmt.Errorf("msp: payload too large: %d bytes", len(f.Payload))
	}

	switch f.Version {
	case V2:
		body := make([]byte, 5, 5+len(f.Payload))
		body[0] = f.flagByte()
		binary.LittleEndian.PutUint16(body[1:3], f.Function)
		binary.LittleEndian.PutUint16(body[3:5], uint16(len(f.Payload)))
		body = append(body, f.Payload...)
		return body, nil
	case V1:
		n := len(f.Payload)
		var body []byte
		if n >= jumboMarker {
			body = make([]byte, 3, 3+n)
			body[0] = jumboMarker
			binary.LittleEndian.PutUint16(body[1:3], uint16(n))
		} else {
			body = make([]byte, 1, 1+n)
			body[0] = byte(n)
		}
		body = append(body, f.Payload...)
		return body, nil
	}
	return nil, fmt.Errorf("msp: unknown version %d", f.Version)
}

// Checksum computes the trailing checksum byte for the frame as currently
// populated.
func (f Frame) Checksum() (byte, error) {
	body, err := f.checksumBody()
	if err != nil {
		return 0, err
	}
	switch f.Version {
	case V2:
		return crc8DVBS2Bytes(body), nil
	case V1:
		return xorChecksum(body), nil
	}
	return 0, fmt.Errorf("msp: unknown version %d", f.Version)
}

// Encode serializes the frame onto the wire, including the leading '$'
// and version byte and the trailing checksum.
func (f Frame) Encode() ([]byte, error) {
	if f.Version == V1 && f.Flag != nil {
		return nil, fmt.Errorf("msp: V1 frame must not carry a flag")
	}

	versionByte, err := f.Version.Byte()
	if err != nil {
		return nil, err
	}
	dirByte, err := f.Direction.Byte()
	if err != nil {
		return nil, err
	}

	body, err := f.checksumBody()
	if err != nil {
		return nil, err
	}

	var buf []byte
	switch f.Version {
	case V2:
		// function (2 bytes) and length (2 bytes) live in body[1:5];
		// body[0] is the flag, which comes right after the direction byte.
		buf = make([]byte, 0, 3+len(body)+1)
		buf = append(buf, '$', versionByte, dirByte)
		buf = append(buf, body...)
	case V1:
		// body is [length(, ext-length)][payload]; the function byte sits
		// between direction and that body, per spec.md's wire diagram.
		buf = make([]byte, 0, 4+len(body)+1)
		buf = append(buf, '$', versionByte, dirByte, byte(f.Function))
		buf = append(buf, body...)
	}

	crc, err := f.Checksum()
	if err != nil {
		return nil, err
	}
	buf = append(buf, crc)
	return buf, nil
}

// Equal reports whether two frames are value-equal, treating Flag by
// pointed-to value rather than pointer identity.
func (f Frame) Equal(other Frame) bool {
	if f.Version != other.Version || f.Direction != other.Direction || f.Function != other.Function {
		return false
	}
	if (f.Flag == nil) != (other.Flag == nil) {
		return false
	}
	if f.Flag != nil && *f.Flag != *other.Flag {
		return false
	}
	if len(f.Payload) != len(other.Payload) {
		return false
	}
	for i := range f.Payload {
		if f.Payload[i] != other.Payload[i] {
			return false
		}
	}
	return true
}
