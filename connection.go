package taps

import (
	"bytes"
	"context"
	"net"
	"sync"
	"time"
)

// receiveReserve is the per-iteration growth hint for the receive buffer
const receiveReserve = 1024

// Connection is the unique owner of one transport socket, one receive
// buffer, and one Framer. Send and Receive must be called sequentially by
// the owner; Connection itself does not serialize concurrent
// calls, matching the original's single-owner design — add your own
// mutex at the call site if a Connection must be shared across
// goroutines.
type Connection[S, R any] struct {
	transport rawTransport
	buffer    bytes.Buffer
	framer    Framer[S, R]
	local     net.Addr
	remote    net.Addr

	closeOnce sync.Once
	done      bool
}

// newConnection wraps an established raw transport with a framer,
// capturing the addresses at creation time.
func newConnection[S, R any](transport rawTransport, framer Framer[S, R]) *Connection[S, R] {
	return &Connection[S, R]{
		transport: transport,
		framer:    framer,
		local:     transport.LocalAddr(),
		remote:    transport.RemoteAddr(),
	}
}

// Send serializes item through the Connection's framer and writes the
// result to the transport in full before returning (write-all semantics).
func (c *Connection[S, R]) Send(ctx context.Context, item S) error {
	if c.done {
		return &SendError{Err: errConnectionClosed}
	}

	lower, upper, ok := sizeHintOf(item)
	capHint := lower
	if ok {
		capHint = upper
	}
	scratch := bytes.NewBuffer(make([]byte, 0, capHint))

	if err := c.framer.Frame(item, scratch); err != nil {
		return &SendError{Err: &FrameError{Err: err}}
	}

	if err := writeAll(ctx, c.transport, scratch.Bytes()); err != nil {
		return &SendError{Err: err}
	}
	return nil
}

// sizeHintOf extracts an Encode size hint from item when it implements
// the codec.Encode-shaped interface; otherwise falls back to (0, 0).
// Defined with a tiny local interface so Connection does not force every
// Framer's item type to import the codec package directly.
func sizeHintOf(item any) (lower, upper int, ok bool) {
	type sizeHinter interface {
		SizeHint() (int, int, bool)
	}
	if h, isHinter := item.(sizeHinter); isHinter {
		return h.SizeHint()
	}
	return 0, 0, false
}

// writeAll writes the full buffer to the transport, honoring ctx
// cancellation for transports that support deadlines.
func writeAll(ctx context.Context, conn net.Conn, data []byte) error {
	stop := watchCancellation(ctx, conn)
	defer stop()

	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// watchCancellation arranges for conn's pending I/O to unblock promptly
// when ctx is done, by forcing an immediate deadline. The net package has
// no native way to cancel a blocking Read/Write with a context, so this
// mirrors the common idiom of racing a deadline against cancellation
// rather than leaving callers stuck past ctx's lifetime.
func watchCancellation(ctx context.Context, conn net.Conn) (stop func()) {
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	if ctx.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetDeadline(time.Now())
		case <-done:
		}
	}()
	return func() {
		close(done)
		_ = conn.SetDeadline(time.Time{})
	}
}

// Receive loops until a whole framed item is available, growing the
// receive buffer and invoking the framer's Deframe on each iteration
// A successful Receive returns exactly one item; any
// bytes belonging to the next frame remain in the buffer for the next
// call — only the framer's resume state is cleared, never
// the buffer itself.
func (c *Connection[S, R]) Receive(ctx context.Context) (R, error) {
	var zero R
	if c.done {
		return zero, &ReceiveError{Err: errConnectionClosed}
	}

	for {
		item, ok, err := c.framer.Deframe(&c.buffer)
		if err != nil {
			c.framer.Clear()
			return zero, &ReceiveError{Err: &DeframeError{Err: err}}
		}
		if ok {
			c.framer.Clear()
			return item, nil
		}

		n, err := readMore(ctx, c.transport, &c.buffer)
		if err != nil {
			return zero, &ReceiveError{Err: err}
		}
		if n == 0 && c.buffer.Len() == 0 {
			return zero, &ReceiveError{Err: &DeframeError{Err: &unexpectedEOFError{}}}
		}
	}
}

// readMore reads up to receiveReserve additional bytes from conn into
// buf's tail.
func readMore(ctx context.Context, conn net.Conn, buf *bytes.Buffer) (int, error) {
	stop := watchCancellation(ctx, conn)
	defer stop()

	scratch := make([]byte, receiveReserve)
	n, err := conn.Read(scratch)
	if n > 0 {
		buf.Write(scratch[:n])
	}
	if err != nil {
		if n > 0 {
			// Data arrived alongside the error (e.g. EOF after the last
			// chunk); let the caller's framer see it before failing.
			return n, nil
		}
		return 0, err
	}
	return n, nil
}

// Close performs transport-specific graceful shutdown and consumes the
// Connection; no further operation is possible afterward.
func (c *Connection[S, R]) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.done = true
		err = c.transport.Close()
	})
	if err != nil {
		return &CloseError{Err: err}
	}
	return nil
}

// Abort drops the Connection without a shutdown handshake. Abort is
// infallible.
func (c *Connection[S, R]) Abort() {
	c.closeOnce.Do(func() {
		c.done = true
		c.framer.Clear()
		_ = c.transport.Close()
	})
}

// LocalEndpoint reports the address captured at Connection creation.
func (c *Connection[S, R]) LocalEndpoint() net.Addr { return c.local }

// RemoteEndpoint reports the address captured at Connection creation.
func (c *Connection[S, R]) RemoteEndpoint() net.Addr { return c.remote }

var errConnectionClosed = &closedError{}

type closedError struct{}

func (*closedError) Error() string { return "connection already closed or aborted" }
