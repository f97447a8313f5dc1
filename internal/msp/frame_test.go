package msp

import (
	"bytes"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	var out []byte
	var hi, lo int8 = -1, -1
	nibble := func(c byte) int8 {
		switch {
		case c >= '0' && c <= '9':
			return int8(c - '0')
		case c >= 'a' && c <= 'f':
			return int8(c-'a') + 10
		default:
			return -1
		}
	}
	for _, c := range []byte(s) {
		if c == ' ' {
			continue
		}
		n := nibble(c)
		if n < 0 {
			t.Fatalf("bad hex byte %q in %q", c, s)
		}
		if hi < 0 {
			hi = n
		} else {
			lo = n
			out = append(out, byte(hi)<<4|byte(lo))
			hi, lo = -1, -1
		}
	}
	return out
}

func TestEncodeS1(t *testing.T) {
	f := NewV2(Request, 0, 100, nil)
	got, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := mustHex(t, "24 58 3c 00 64 00 00 00 8f")
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode = % x, want % x", got, want)
	}
}

func TestDecodeS1(t *testing.T) {
	want := NewV2(Request, 0, 100, nil)
	want.Payload = []byte{}

	p := NewParser()
	frames, errs := p.FeedBytes(mustHex(t, "24 58 3c 00 64 00 00 00 8f"))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if !frames[0].Equal(want) {
		t.Fatalf("got %+v, want %+v", frames[0], want)
	}
}

func TestEncodeS2(t *testing.T) {
	flag := uint8(0xa5)
	f := NewV2(Response, flag, 0x4242, []byte("Hello flying world"))
	got, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := mustHex(t, "24 58 3e a5 42 42 12 00 48 65 6c 6c 6f 20 66 6c 79 69 6e 67 20 77 6f 72 6c 64 82")
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode = % x, want % x", got, want)
	}
}

func s2Bytes(t *testing.T) []byte {
	return mustHex(t, "24 58 3e a5 42 42 12 00 48 65 6c 6c 6f 20 66 6c 79 69 6e 67 20 77 6f 72 6c 64 82")
}

func TestDecodeS2(t *testing.T) {
	p := NewParser()
	frames, errs := p.FeedBytes(s2Bytes(t))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	flag := uint8(0xa5)
	want := NewV2(Response, flag, 0x4242, []byte("Hello flying world"))
	if !frames[0].Equal(want) {
		t.Fatalf("got %+v, want %+v", frames[0], want)
	}
}

func TestResyncThroughNoiseS3(t *testing.T) {
	var stream []byte
	stream = append(stream, mustHex(t, "30 60 13")...)
	stream = append(stream, s2Bytes(t)...)
	stream = append(stream, 0x25)

	p := NewParser()
	frames, _ := p.FeedBytes(stream)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want exactly 1: %+v", len(frames), frames)
	}
	flag := uint8(0xa5)
	want := NewV2(Response, flag, 0x4242, []byte("Hello flying world"))
	if !frames[0].Equal(want) {
		t.Fatalf("got %+v, want %+v", frames[0], want)
	}
}

func TestCrcErrorS4(t *testing.T) {
	stream := s2Bytes(t)
	stream[len(stream)-1] = 0x81

	p := NewParser()
	frames, errs := p.FeedBytes(stream)
	if len(frames) != 0 {
		t.Fatalf("got %d frames, want 0", len(frames))
	}
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	var crcErr *CrcMismatchError
	if !asCrcMismatch(errs[0], &crcErr) {
		t.Fatalf("error = %v, want *CrcMismatchError", errs[0])
	}
}

func asCrcMismatch(err error, target **CrcMismatchError) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if ce, ok := err.(*CrcMismatchError); ok {
			*target = ce
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func TestFrameRoundTripProperty(t *testing.T) {
	cases := []Frame{
		NewV1(Request, 1, nil),
		NewV1(Response, 200, bytes.Repeat([]byte{0xaa}, 10)),
		NewV1(Response, 50, bytes.Repeat([]byte{0x5a}, 300)), // forces jumbo
		NewV2(Request, 0, 0, nil),
		NewV2(Error, 7, 65535, bytes.Repeat([]byte{0x01, 0x02}, 64)),
	}
	for i, want := range cases {
		want.Payload = append([]byte(nil), want.Payload...)
		buf, err := want.Encode()
		if err != nil {
			t.Fatalf("case %d: Encode: %v", i, err)
		}
		p := NewParser()
		var got *Frame
		for _, b := range buf {
			f, ferr := p.Feed(b)
			if ferr != nil {
				t.Fatalf("case %d: Feed: %v", i, ferr)
			}
			if f != nil {
				got = f
				break
			}
		}
		if got == nil {
			t.Fatalf("case %d: no frame decoded", i)
		}
		if len(got.Payload) == 0 && want.Payload == nil {
			// normalize: encode/decode never distinguishes nil from empty
		}
		wantNorm := want
		if len(wantNorm.Payload) == 0 {
			wantNorm.Payload = nil
		}
		gotNorm := *got
		if len(gotNorm.Payload) == 0 {
			gotNorm.Payload = nil
		}
		if !gotNorm.Equal(wantNorm) {
			t.Fatalf("case %d: round-trip mismatch: got %+v want %+v", i, gotNorm, wantNorm)
		}
	}
}

func TestBitFlipCausesCrcMismatch(t *testing.T) {
	f := NewV2(Response, 3, 1000, []byte("a reasonably sized payload for bit flip testing"))
	buf, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for i := 0; i < len(buf)-0; i++ {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), buf...)
			mutated[i] ^= 1 << bit
			if bytes.Equal(mutated, buf) {
				continue
			}
			p := NewParser()
			frames, errs := p.FeedBytes(mutated)
			if i < 2 {
				// '$' or version byte corrupted: parser may simply fail to
				// find a frame rather than reporting an error, since Hunt
				// silently discards non-'$' bytes.
				continue
			}
			if len(frames) == 1 && len(errs) == 0 {
				t.Fatalf("byte %d bit %d: corruption silently accepted", i, bit)
			}
		}
	}
}
