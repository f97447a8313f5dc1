package msp

import "encoding/binary"

// parserState enumerates the incremental parser's states, matching
// spec.md §4.A: Hunt, Header (split here into its two constituent
// bytes), V1Fields, Jumbo, V2Fields, Payload, Checksum.
type parserState int

const (
	stHunt parserState = iota
	stVersion
	stDirection
	stV1Function
	stV1Length
	stV1Jumbo
	stV2Flag
	stV2Function
	stV2Length
	stPayload
	stChecksum
)

// Parser is an incremental, resynchronizing MSP frame decoder. Bytes may
// be fed one at a time or in arbitrary chunks; a well-formed frame
// anywhere in the stream is detected regardless of how it is split across
// Feed calls (spec.md property 8.4).
type Parser struct {
	state parserState

	version   Version
	direction Direction
	flag      uint8
	hasFlag   bool
	function  uint16
	wantLen   int
	isJumbo   bool
	payload   []byte

	acc    []byte // scratch accumulator for multi-byte fields
	accLen int
}

// NewParser returns a parser positioned in the Hunt state.
func NewParser() *Parser {
	return &Parser{state: stHunt}
}

// reset returns the parser to Hunt, discarding any partially decoded
// frame. Called after a protocol error, per spec.md §4.A ("the caller
// decides whether to continue or close" — resynchronization is always
// performed so the caller may simply continue feeding bytes).
func (p *Parser) reset() {
	*p = Parser{state: stHunt}
}

func (p *Parser) startAcc(n int) {
	p.acc = make([]byte, 0, n)
	p.accLen = n
}

// Feed consumes one byte. It returns a non-nil Frame when a complete,
// checksum-valid frame has just been decoded. It returns a non-nil error
// (always a *ProtocolError) on a malformed header, unknown version or
// direction byte, or checksum mismatch; the parser has already
// resynchronized to Hunt by the time Feed returns.
func (p *Parser) Feed(b byte) (*Frame, error) {
	switch p.state {
	case stHunt:
		if b == '$' {
			p.state = stVersion
		}
		return nil, nil

	case stVersion:
		v, err := VersionFromByte(b)
		if err != nil {
			p.reset()
			return nil, protocolError(err)
		}
		p.version = v
		p.state = stDirection
		return nil, nil

	case stDirection:
		d, err := DirectionFromByte(b)
		if err != nil {
			p.reset()
			return nil, protocolError(err)
		}
		p.direction = d
		switch p.version {
		case V1:
			p.state = stV1Function
		case V2:
			p.state = stV2Flag
		}
		return nil, nil

	case stV1Function:
		p.function = uint16(b)
		p.state = stV1Length
		return nil, nil

	case stV1Length:
		if b == jumboMarker {
			p.isJumbo = true
			p.startAcc(2)
			p.state = stV1Jumbo
			return nil, nil
		}
		return p.beginPayload(int(b))

	case stV1Jumbo:
		p.acc = append(p.acc, b)
		if len(p.acc) < p.accLen {
			return nil, nil
		}
		n := int(binary.LittleEndian.Uint16(p.acc))
		return p.beginPayload(n)

	case stV2Flag:
		p.flag = b
		p.hasFlag = true
		p.startAcc(2)
		p.state = stV2Function
		return nil, nil

	case stV2Function:
		p.acc = append(p.acc, b)
		if len(p.acc) < p.accLen {
			return nil, nil
		}
		p.function = binary.LittleEndian.Uint16(p.acc)
		p.startAcc(2)
		p.state = stV2Length
		return nil, nil

	case stV2Length:
		p.acc = append(p.acc, b)
		if len(p.acc) < p.accLen {
			return nil, nil
		}
		n := int(binary.LittleEndian.Uint16(p.acc))
		return p.beginPayload(n)

	case stPayload:
		p.payload = append(p.payload, b)
		if len(p.payload) < p.wantLen {
			return nil, nil
		}
		p.state = stChecksum
		return nil, nil

	case stChecksum:
		return p.finish(b)
	}

	// Unreachable for a well-formed state machine.
	p.reset()
	return nil, nil
}

// beginPayload transitions into Payload (or directly to Checksum for a
// zero-length payload, per spec.md §4.A).
func (p *Parser) beginPayload(n int) (*Frame, error) {
	p.wantLen = n
	p.payload = make([]byte, 0, n)
	if n == 0 {
		p.state = stChecksum
		return nil, nil
	}
	p.state = stPayload
	return nil, nil
}

func (p *Parser) finish(crcByte byte) (*Frame, error) {
	f := Frame{
		Version:   p.version,
		Direction: p.direction,
		Function:  p.function,
		Payload:   p.payload,
	}
	if p.hasFlag {
		flag := p.flag
		f.Flag = &flag
	}

	want, err := f.Checksum()
	if err != nil {
		p.reset()
		return nil, protocolError(err)
	}
	if crcByte != want {
		err := &CrcMismatchError{Function: p.function, Got: crcByte, Want: want}
		p.reset()
		return nil, protocolError(err)
	}

	p.reset()
	return &f, nil
}

// FeedBytes feeds a slice through the parser, returning every complete
// frame decoded along the way and the first error encountered (parsing
// continues past errors since the parser resynchronizes itself).
func (p *Parser) FeedBytes(data []byte) ([]Frame, []error) {
	var frames []Frame
	var errs []error
	for _, b := range data {
		f, err := p.Feed(b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if f != nil {
			frames = append(frames, *f)
		}
	}
	return frames, errs
}
