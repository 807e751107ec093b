package taps

import "bytes"

// Framer is a stateful, connection-scoped codec: it serializes outgoing
// items of type S and extracts incoming items of type R from the stream
// of bytes a Connection pumps through it. A Framer instance belongs to
// exactly one Connection at a time; Listener hands
// each accepted transport its own framer via CloneSimilar.
type Framer[S, R any] interface {
	// Frame serializes one outgoing item, appending its wire form to dst.
	Frame(item S, dst *bytes.Buffer) error

	// Deframe attempts to extract one incoming item from src. It returns
	// (item, true, nil) on success, (zero, false, nil) when more bytes
	// are needed (internal parse state is retained across calls until
	// Clear), or (zero, false, err) on a permanent failure.
	Deframe(src *bytes.Buffer) (item R, ok bool, err error)

	// Clear discards any partial-parse state. Invoked by Connection after
	// a successful Deframe and after Abort.
	Clear()

	// AddMetadata attaches per-protocol sideband configuration (e.g.
	// default headers for an HTTP framer). Reserved extension point:
	// The HTTP/1 reference framer accepts metadata but its
	// encoder does not yet consult it.
	AddMetadata(key, value any)

	// CloneSimilar returns a fresh Framer with the same configuration but
	// independent parse state, so no two Connections ever share one.
	CloneSimilar() Framer[S, R]
}
