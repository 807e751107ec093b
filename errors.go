package taps

import "fmt"

// The error types below cover resolution, initiation, listen, and
// transmission failures as a closed taxonomy. Each wraps an inner cause
// so callers can still `errors.As`/`errors.Unwrap` down to the underlying
// network or framer error; the wrapping type tells them which phase of the
// connection lifecycle failed.

// MissingEndpointError is returned when resolving an absent Endpoint.
type MissingEndpointError struct{}

func (e *MissingEndpointError) Error() string { return "endpoint is missing" }

// ResolveError wraps a failure to resolve an Endpoint into addresses.
type ResolveError struct {
	Err error
}

func (e *ResolveError) Error() string { return fmt.Sprintf("resolve endpoint: %s", e.Err) }
func (e *ResolveError) Unwrap() error { return e.Err }

// NoEndpointError is returned when a resolved address set is empty, or
// when every candidate address failed to connect during a race.
type NoEndpointError struct {
	// Err is the last per-address error observed by the race engine, if any.
	Err error
}

func (e *NoEndpointError) Error() string {
	if e.Err == nil {
		return "no endpoint available"
	}
	return fmt.Sprintf("no endpoint available: %s", e.Err)
}

func (e *NoEndpointError) Unwrap() error { return e.Err }

// OpenError wraps a dial failure for a single candidate address.
type OpenError struct {
	Addr string
	Err  error
}

func (e *OpenError) Error() string { return fmt.Sprintf("open %s: %s", e.Addr, e.Err) }
func (e *OpenError) Unwrap() error { return e.Err }

// InitiateError wraps any failure of Preconnection.Initiate (a missing
// remote endpoint, a resolution failure, or every candidate in the race
// being exhausted) and of Preconnection.Rendezvous.
type InitiateError struct {
	Err error
}

func (e *InitiateError) Error() string { return fmt.Sprintf("initiate connection: %s", e.Err) }
func (e *InitiateError) Unwrap() error { return e.Err }

// ListenError wraps a failure of Preconnection.Listen (a missing local
// endpoint, a resolution failure, or a failure to bind a listening
// transport) and a failed or filtered-out Listener.Accept.
type ListenError struct {
	Err error
}

func (e *ListenError) Error() string { return fmt.Sprintf("listen for connections: %s", e.Err) }
func (e *ListenError) Unwrap() error { return e.Err }

// SendError wraps a failure during Connection.Send: either a framing
// failure (FrameError) or a raw transport write failure.
type SendError struct {
	Err error
}

func (e *SendError) Error() string { return fmt.Sprintf("send data: %s", e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

// ReceiveError wraps a failure during Connection.Receive: either a
// deframing failure (DeframeError) or a raw transport read failure.
type ReceiveError struct {
	Err error
}

func (e *ReceiveError) Error() string { return fmt.Sprintf("receive data: %s", e.Err) }
func (e *ReceiveError) Unwrap() error { return e.Err }

// FrameError wraps a Framer.Frame failure.
type FrameError struct {
	Err error
}

func (e *FrameError) Error() string { return fmt.Sprintf("frame message: %s", e.Err) }
func (e *FrameError) Unwrap() error { return e.Err }

// DeframeError wraps a Framer.Deframe failure (never the Incomplete
// signal, which is consumed internally by Connection.Receive and never
// escapes as an error).
type DeframeError struct {
	Err error
}

func (e *DeframeError) Error() string { return fmt.Sprintf("deframe message: %s", e.Err) }
func (e *DeframeError) Unwrap() error { return e.Err }

// CloseError wraps a failure during graceful Connection.Close.
type CloseError struct {
	Err error
}

func (e *CloseError) Error() string { return fmt.Sprintf("close connection: %s", e.Err) }
func (e *CloseError) Unwrap() error { return e.Err }

// unexpectedEOFError is returned (wrapped in ReceiveError/DeframeError) when a
// transport read returns 0 bytes while the receive buffer is still empty,
// signalling a peer that closed mid-frame.
type unexpectedEOFError struct{}

func (e *unexpectedEOFError) Error() string { return "unexpected EOF: no data and no bytes read" }
