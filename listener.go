package taps

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/oskarsh/taps/internal/socket"
)

// Listener accepts incoming transports and wraps each one in a Connection
// built from a clone of the template Framer, so no two
// accepted Connections ever share framer state.
type Listener[S, R any] struct {
	local          net.Addr
	remoteFilter   net.Addr
	framerTemplate Framer[S, R]

	tcpListener net.Listener // set when the selection ladder picked TCP
	udp         *udpMultiplexer // set when it picked UDP

	mu       sync.Mutex
	limit    int // 0 means unlimited
	accepted int
}

// newListener binds according to the same selection ladder dial() uses on
// the connect side: Require binds TCP only, Prohibit binds UDP only, and
// Prefer/Ignore/Avoid each try one family and fall back to the other on
// failure (TCP-then-UDP, or UDP-then-TCP for Avoid).
func newListener[S, R any](ctx context.Context, local net.Addr, remoteFilter net.Addr, props *TransportProperties, framer Framer[S, R]) (*Listener[S, R], error) {
	l := &Listener[S, R]{
		local:          local,
		remoteFilter:   remoteFilter,
		framerTemplate: framer,
	}

	bindTCP := func() error {
		tcpAddr, ok := toTCPAddr(local)
		if !ok {
			return errUnsupportedFamily
		}
		ln, err := socket.ListenTCP(ctx, tcpAddr)
		if err != nil {
			return err
		}
		l.tcpListener = ln
		l.local = ln.Addr()
		return nil
	}
	bindUDP := func() error {
		udpAddr, ok := toUDPAddr(local)
		if !ok {
			return errUnsupportedFamily
		}
		pc, err := socket.ListenUDP(ctx, udpAddr)
		if err != nil {
			return err
		}
		l.udp = newUDPMultiplexer(pc)
		l.local = pc.LocalAddr()
		return nil
	}

	var err error
	switch props.Get(Reliability) {
	case Require:
		err = bindTCP()
	case Prohibit:
		err = bindUDP()
	case Avoid:
		if err = bindUDP(); err != nil {
			err = bindTCP()
		}
	default: // Prefer, Ignore
		if err = bindTCP(); err != nil {
			err = bindUDP()
		}
	}
	if err != nil {
		return nil, &ListenError{Err: err}
	}
	return l, nil
}

// ConnectionLimit bounds the listener to at most n accepted connections;
// Accept returns errListenerExhausted once the limit is reached.
func (l *Listener[S, R]) ConnectionLimit(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limit = n
}

// errListenerExhausted is returned once ConnectionLimit has been reached.
var errListenerExhausted = errors.New("connection limit reached")

// Accept blocks until a new transport arrives, or the limit (if any) has
// been reached, or ctx is done. Acceptance errors are
// not fatal to the listener — a failed accept is returned as an error
// from this call, and the next call may still succeed — unless the
// underlying socket itself has been closed.
func (l *Listener[S, R]) Accept(ctx context.Context) (*Connection[S, R], error) {
	l.mu.Lock()
	if l.limit > 0 && l.accepted >= l.limit {
		l.mu.Unlock()
		return nil, errListenerExhausted
	}
	l.mu.Unlock()

	var transport rawTransport
	var err error
	if l.tcpListener != nil {
		transport, err = acceptTCP(ctx, l.tcpListener)
	} else {
		transport, err = l.udp.accept(ctx)
	}
	if err != nil {
		return nil, &ListenError{Err: err}
	}

	if l.remoteFilter != nil && transport.RemoteAddr().String() != l.remoteFilter.String() {
		_ = transport.Close()
		return nil, &ListenError{Err: errRemoteFiltered}
	}

	l.mu.Lock()
	l.accepted++
	l.mu.Unlock()

	conn := newConnection[S, R](transport, l.framerTemplate.CloneSimilar())
	return conn, nil
}

var errRemoteFiltered = errors.New("accepted peer does not match remote filter")

// Close releases the listener's bound socket. Any Connections already
// accepted are unaffected.
func (l *Listener[S, R]) Close() error {
	if l.tcpListener != nil {
		return l.tcpListener.Close()
	}
	return l.udp.close()
}

// LocalEndpoint reports the bound local address.
func (l *Listener[S, R]) LocalEndpoint() net.Addr { return l.local }

func acceptTCP(ctx context.Context, ln net.Listener) (rawTransport, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := ln.Accept()
		ch <- result{conn: c, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.conn, r.err
	}
}

// udpMultiplexer pseudo-multiplexes a single bound UDP socket across many
// peers: one background goroutine reads every incoming datagram and
// routes it to a per-peer queue, creating a new peerConn (and surfacing it
// through accept()) the first time a peer is seen.
type udpMultiplexer struct {
	pc net.PacketConn

	mu      sync.Mutex
	peers   map[string]*udpPeerConn
	newPeer chan *udpPeerConn
	readErr error
	closed  chan struct{}
}

func newUDPMultiplexer(pc net.PacketConn) *udpMultiplexer {
	m := &udpMultiplexer{
		pc:      pc,
		peers:   make(map[string]*udpPeerConn),
		newPeer: make(chan *udpPeerConn, 16),
		closed:  make(chan struct{}),
	}
	go m.readLoop()
	return m
}

func (m *udpMultiplexer) readLoop() {
	buf := make([]byte, 65536)
	for {
		n, addr, err := m.pc.ReadFrom(buf)
		if err != nil {
			m.mu.Lock()
			m.readErr = err
			for _, p := range m.peers {
				p.closeWithError(err)
			}
			m.mu.Unlock()
			close(m.closed)
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		m.mu.Lock()
		peer, ok := m.peers[addr.String()]
		if !ok {
			peer = newUDPPeerConn(m, addr)
			m.peers[addr.String()] = peer
			select {
			case m.newPeer <- peer:
			default:
				// Accept backlog full; hand the new-peer notification to a
				// goroutine that queues it once accept() drains the
				// backlog, and still deliver the datagram to the peer's own
				// queue so it is there when the peer is accepted.
				go func(p *udpPeerConn) {
					select {
					case m.newPeer <- p:
					case <-m.closed:
					}
				}(peer)
			}
		}
		m.mu.Unlock()

		peer.deliver(data)
	}
}

func (m *udpMultiplexer) accept(ctx context.Context) (rawTransport, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case peer := <-m.newPeer:
		return peer, nil
	case <-m.closed:
		m.mu.Lock()
		err := m.readErr
		m.mu.Unlock()
		return nil, err
	}
}

func (m *udpMultiplexer) close() error {
	return m.pc.Close()
}

func (m *udpMultiplexer) removePeer(addr net.Addr) {
	m.mu.Lock()
	delete(m.peers, addr.String())
	m.mu.Unlock()
}

// udpPeerConn adapts one demultiplexed peer of a shared UDP socket to the
// net.Conn-shaped rawTransport interface Connection expects.
type udpPeerConn struct {
	mux  *udpMultiplexer
	peer net.Addr

	incoming  chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newUDPPeerConn(mux *udpMultiplexer, peer net.Addr) *udpPeerConn {
	return &udpPeerConn{
		mux:      mux,
		peer:     peer,
		incoming: make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
}

func (p *udpPeerConn) deliver(data []byte) {
	select {
	case p.incoming <- data:
	case <-p.closed:
	}
}

func (p *udpPeerConn) closeWithError(error) {
	p.closeOnce.Do(func() { close(p.closed) })
}

func (p *udpPeerConn) Read(b []byte) (int, error) {
	select {
	case data, ok := <-p.incoming:
		if !ok {
			return 0, io.EOF
		}
		n := copy(b, data)
		return n, nil
	case <-p.closed:
		return 0, io.EOF
	}
}

func (p *udpPeerConn) Write(b []byte) (int, error) {
	return p.mux.pc.WriteTo(b, p.peer)
}

func (p *udpPeerConn) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	p.mux.removePeer(p.peer)
	return nil
}

func (p *udpPeerConn) LocalAddr() net.Addr  { return p.mux.pc.LocalAddr() }
func (p *udpPeerConn) RemoteAddr() net.Addr { return p.peer }

func (p *udpPeerConn) SetDeadline(t time.Time) error      { return nil }
func (p *udpPeerConn) SetReadDeadline(t time.Time) error  { return nil }
func (p *udpPeerConn) SetWriteDeadline(t time.Time) error { return nil }
