package codec

import "bytes"

// Bytes is a byte-slice item: Encode/Decode round-trips it identically
// and SizeHint is exact (original_source/src/codec/encode.rs: &[u8] impl).
type Bytes []byte

func (b Bytes) EncodeTo(dst *bytes.Buffer) error {
	dst.Write(b)
	return nil
}

func (b Bytes) SizeHint() (int, int, bool) {
	return len(b), len(b), true
}

// bytesState records how many bytes a Bytes decode still needs once the
// target length is known.
type bytesState struct {
	want int
}

// DecodeBytes decodes exactly `want` bytes into a Bytes value. Callers
// for length-prefixed framings typically know `want` ahead of time (e.g.
// from a Content-Length header) and pass it here; the first Decode call
// takes a nil state, and later calls take the state an Incomplete
// returned.
func DecodeBytes(want int) Decode[Bytes] {
	return DecodeFunc[Bytes](func(buf *bytes.Buffer, state any) (Bytes, error) {
		n := want
		if s, ok := state.(*bytesState); ok {
			n = s.want
		}
		if buf.Len() < n {
			return nil, &Incomplete{State: &bytesState{want: n}}
		}
		return Bytes(buf.Next(n)), nil
	})
}

// String is a UTF-8 string item with the same exact-length semantics as
// Bytes (original_source/src/codec/encode.rs: &str / String impls).
type String string

func (s String) EncodeTo(dst *bytes.Buffer) error {
	dst.WriteString(string(s))
	return nil
}

func (s String) SizeHint() (int, int, bool) {
	return len(s), len(s), true
}

// DecodeString decodes exactly `want` bytes into a String value.
func DecodeString(want int) Decode[String] {
	return DecodeFunc[String](func(buf *bytes.Buffer, state any) (String, error) {
		n := want
		if s, ok := state.(*bytesState); ok {
			n = s.want
		}
		if buf.Len() < n {
			return "", &Incomplete{State: &bytesState{want: n}}
		}
		return String(buf.Next(n)), nil
	})
}

// Unit is the zero-byte item: it encodes to nothing and decodes
// successfully without consuming any bytes (original_source/src/codec/
// {encode,decode}.rs: the `()` impls).
type Unit struct{}

func (Unit) EncodeTo(dst *bytes.Buffer) error {
	return nil
}

func (Unit) SizeHint() (int, int, bool) {
	return 0, 0, true
}

// UnitDecoder is the Decode[Unit] instance: always succeeds immediately.
var UnitDecoder Decode[Unit] = DecodeFunc[Unit](func(buf *bytes.Buffer, state any) (Unit, error) {
	return Unit{}, nil
})
