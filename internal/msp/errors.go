package msp

import "fmt"

// UnknownVersionError is returned when the byte following '$' is neither
// 'M' nor 'X'.
type UnknownVersionError struct{ Byte byte }

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("msp: unknown version byte 0x%02x", e.Byte)
}

// UnknownDirectionError is returned when the direction byte is not one of
// '<', '>', '!'.
type UnknownDirectionError struct{ Byte byte }

func (e *UnknownDirectionError) Error() string {
	return fmt.Sprintf("msp: unknown direction byte 0x%02x", e.Byte)
}

// CrcMismatchError is returned when the trailing checksum byte does not
// match the computed one.
type CrcMismatchError struct {
	Function uint16
	Got      byte
	Want     byte
}

func (e *CrcMismatchError) Error() string {
	return fmt.Sprintf("msp: crc mismatch on function %d: got 0x%02x want 0x%02x", e.Function, e.Got, e.Want)
}

// PayloadLengthMismatchError is returned when a known function's declared
// payload length does not match its schema's fixed size.
type PayloadLengthMismatchError struct {
	Function uint16
	Got      int
	Want     int
}

func (e *PayloadLengthMismatchError) Error() string {
	return fmt.Sprintf("msp: payload length mismatch on function %d: got %d want %d", e.Function, e.Got, e.Want)
}

// UnknownFunctionError is returned when decoding a function id absent
// from the compiled-in payload registry. Callers may fall back to
// treating the payload as an opaque byte slice.
type UnknownFunctionError struct{ Function uint16 }

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("msp: unknown function id %d", e.Function)
}

// ProtocolError wraps any of the above into the catch-all category the
// parser uses to decide whether to resynchronize and keep going.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string { return e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }

func protocolError(err error) error {
	return &ProtocolError{Err: err}
}
