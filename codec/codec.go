// Package codec defines the per-type serialization contract that Framer
// implementations build on: Encode writes an item's wire form into a
// growable buffer, Decode extracts one item from a buffer while carrying
// resumable state across short reads.
package codec

import "bytes"

// Encode serializes a value's wire representation.
type Encode interface {
	// EncodeTo appends the wire form of the value to dst.
	EncodeTo(dst *bytes.Buffer) error

	// SizeHint reports the expected encoded length as inclusive
	// [lower, upper] bounds, used only to pre-reserve buffer capacity. ok is false when
	// there is no meaningful upper bound; callers must never rely on the
	// hint's accuracy for correctness, only as an allocation hint.
	SizeHint() (lower int, upper int, ok bool)
}

// Incomplete is returned by Decode implementations to signal "need more
// bytes"; it is never an error callers retry against — a Framer turns it
// into Deframe's "need more bytes" result, on which Connection.Receive
// reads more and loops.
type Incomplete struct {
	// State carries whatever partial-parse progress must be resumed once
	// more bytes are appended to the buffer.
	State any
}

func (i *Incomplete) Error() string { return "incomplete: more bytes required" }

// Decode extracts a value of type T from a buffer, given a
// previously-returned resume state (nil on the first call for a fresh
// item). On success the implementation must have advanced buf past the
// bytes it consumed. On Incomplete, buf may have had a prefix consumed;
// the caller appends more bytes and calls again with the returned state.
// On any other error, decoding is permanently failed for this buffer.
type Decode[T any] interface {
	Decode(buf *bytes.Buffer, state any) (item T, err error)
}

// DecodeFunc adapts a plain function to the Decode interface.
type DecodeFunc[T any] func(buf *bytes.Buffer, state any) (T, error)

func (f DecodeFunc[T]) Decode(buf *bytes.Buffer, state any) (T, error) {
	return f(buf, state)
}
