package msp

import "encoding/binary"

// Schema is a compile-time payload schema: a fixed little-endian packed
// layout of scalar fields with no padding, identified by a function id
// (spec.md's MspPayloadSchema).
type Schema struct {
	ID   uint16
	Size int

	decode func([]byte) (any, error)
	encode func(any) ([]byte, error)
}

// registry is the compile-time map from function id to schema, built
// once at package init (spec.md §9: "replace [macros] with code
// generation from a schema table ... at compile time").
var registry = map[uint16]*Schema{}

func register(s *Schema) {
	registry[s.ID] = s
}

// Lookup returns the schema for a function id, or ok=false if the id is
// not in the compiled-in registry (spec.md's UnknownFunction case).
func Lookup(id uint16) (*Schema, bool) {
	s, ok := registry[id]
	return s, ok
}

// DecodePayload decodes raw bytes into the typed value for a known
// function id. Returns *UnknownFunctionError if id is unregistered, or
// *PayloadLengthMismatchError if len(payload) != schema.Size.
func DecodePayload(id uint16, payload []byte) (any, error) {
	s, ok := Lookup(id)
	if !ok {
		return nil, &UnknownFunctionError{Function: id}
	}
	if len(payload) != s.Size {
		return nil, &PayloadLengthMismatchError{Function: id, Got: len(payload), Want: s.Size}
	}
	return s.decode(payload)
}

// EncodePayload serializes a typed value for a known function id.
func EncodePayload(id uint16, v any) ([]byte, error) {
	s, ok := Lookup(id)
	if !ok {
		return nil, &UnknownFunctionError{Function: id}
	}
	return s.encode(v)
}

// --- MspIdent (100) ---

const IdentID = 100

type Ident struct {
	Version    uint8
	Multitype  uint8
	MspVersion uint8
	Capability uint32
}

const identSize = 1 + 1 + 1 + 4

func init() {
	register(&Schema{
		ID:   IdentID,
		Size: identSize,
		decode: func(b []byte) (any, error) {
			return Ident{
				Version:    b[0],
				Multitype:  b[1],
				MspVersion: b[2],
				Capability: binary.LittleEndian.Uint32(b[3:7]),
			}, nil
		},
		encode: func(v any) ([]byte, error) {
			id := v.(Ident)
			b := make([]byte, identSize)
			b[0] = id.Version
			b[1] = id.Multitype
			b[2] = id.MspVersion
			binary.LittleEndian.PutUint32(b[3:7], id.Capability)
			return b, nil
		},
	})
}

// --- MspStatus (101) ---

const StatusID = 101

type Status struct {
	CycleTime             uint16
	I2CErrorsCount        uint16
	Sensor                uint16
	Flag                  uint32
	GlobalConfCurrentSet  uint8
}

const statusSize = 2 + 2 + 2 + 4 + 1

func init() {
	register(&Schema{
		ID:   StatusID,
		Size: statusSize,
		decode: func(b []byte) (any, error) {
			return Status{
				CycleTime:            binary.LittleEndian.Uint16(b[0:2]),
				I2CErrorsCount:       binary.LittleEndian.Uint16(b[2:4]),
				Sensor:               binary.LittleEndian.Uint16(b[4:6]),
				Flag:                 binary.LittleEndian.Uint32(b[6:10]),
				GlobalConfCurrentSet: b[10],
			}, nil
		},
		encode: func(v any) ([]byte, error) {
			s := v.(Status)
			b := make([]byte, statusSize)
			binary.LittleEndian.PutUint16(b[0:2], s.CycleTime)
			binary.LittleEndian.PutUint16(b[2:4], s.I2CErrorsCount)
			binary.LittleEndian.PutUint16(b[4:6], s.Sensor)
			binary.LittleEndian.PutUint32(b[6:10], s.Flag)
			b[10] = s.GlobalConfCurrentSet
			return b, nil
		},
	})
}

// --- MspRawImu (102) ---

const RawImuID = 102

type RawImu struct {
	AccX, AccY, AccZ int16
	GyrX, GyrY, GyrZ int16
	MagX, MagY, MagZ int16
}

const rawImuSize = 2 * 9

func init() {
	register(&Schema{
		ID:   RawImuID,
		Size: rawImuSize,
		decode: func(b []byte) (any, error) {
			le := binary.LittleEndian
			return RawImu{
				AccX: int16(le.Uint16(b[0:2])),
				AccY: int16(le.Uint16(b[2:4])),
				AccZ: int16(le.Uint16(b[4:6])),
				GyrX: int16(le.Uint16(b[6:8])),
				GyrY: int16(le.Uint16(b[8:10])),
				GyrZ: int16(le.Uint16(b[10:12])),
				MagX: int16(le.Uint16(b[12:14])),
				MagY: int16(le.Uint16(b[14:16])),
				MagZ: int16(le.Uint16(b[16:18])),
			}, nil
		},
		encode: func(v any) ([]byte, error) {
			r := v.(RawImu)
			b := make([]byte, rawImuSize)
			le := binary.LittleEndian
			le.PutUint16(b[0:2], uint16(r.AccX))
			le.PutUint16(b[2:4], uint16(r.AccY))
			le.PutUint16(b[4:6], uint16(r.AccZ))
			le.PutUint16(b[6:8], uint16(r.GyrX))
			le.PutUint16(b[8:10], uint16(r.GyrY))
			le.PutUint16(b[10:12], uint16(r.GyrZ))
			le.PutUint16(b[12:14], uint16(r.MagX))
			le.PutUint16(b[14:16], uint16(r.MagY))
			le.PutUint16(b[16:18], uint16(r.MagZ))
			return b, nil
		},
	})
}

// --- MspAttitude (108) ---

const AttitudeID = 108

// Attitude holds MSP's ANGX/ANGY (tenths of a degree) and heading
// (whole degrees); the translator is responsible for unit conversion
// and the MAVLink pitch-sign correction (spec.md §4.D).
type Attitude struct {
	AngX    int16
	AngY    int16
	Heading int16
}

const attitudeSize = 2 * 3

func init() {
	register(&Schema{
		ID:   AttitudeID,
		Size: attitudeSize,
		decode: func(b []byte) (any, error) {
			le := binary.LittleEndian
			return Attitude{
				AngX:    int16(le.Uint16(b[0:2])),
				AngY:    int16(le.Uint16(b[2:4])),
				Heading: int16(le.Uint16(b[4:6])),
			}, nil
		},
		encode: func(v any) ([]byte, error) {
			a := v.(Attitude)
			b := make([]byte, attitudeSize)
			le := binary.LittleEndian
			le.PutUint16(b[0:2], uint16(a.AngX))
			le.PutUint16(b[2:4], uint16(a.AngY))
			le.PutUint16(b[4:6], uint16(a.Heading))
			return b, nil
		},
	})
}
