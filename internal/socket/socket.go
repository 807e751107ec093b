// Package socket provides the context-aware TCP/UDP dial and listen
// primitives the race engine and Listener build on. It is the one layer
// this layer depends on. The idiomatic implementation is the standard
// library's net package — there's no third-party dial/listen library
// worth reaching for here.
package socket

import (
	"context"
	"net"
)

// readBufferBytes matches conventional UDP socket tuning
// (internal/transport/udp.go: conn.SetReadBuffer(65536)).
const readBufferBytes = 65536

// DialTCP opens a TCP connection to addr, honoring ctx cancellation and
// deadline.
func DialTCP(ctx context.Context, addr *net.TCPAddr) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr.String())
}

// DialUDP "connects" a UDP socket to addr. UDP has no handshake, so this
// merely binds and associates a default peer; failures here are local
// (e.g. address family mismatch), not evidence the peer is reachable.
func DialUDP(ctx context.Context, addr *net.UDPAddr) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr.String())
	if err != nil {
		return nil, err
	}
	if uc, ok := conn.(*net.UDPConn); ok {
		_ = uc.SetReadBuffer(readBufferBytes)
	}
	return conn, nil
}

// ListenTCP binds a listening TCP socket on addr.
func ListenTCP(ctx context.Context, addr *net.TCPAddr) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", addr.String())
}

// ListenUDP binds a UDP socket on addr. The returned PacketConn is
// peer-multiplexed by the caller (see listener.go): one bound socket
// serves every sender, demultiplexed by source address on each Read.
func ListenUDP(ctx context.Context, addr *net.UDPAddr) (net.PacketConn, error) {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp", addr.String())
	if err != nil {
		return nil, err
	}
	if uc, ok := conn.(*net.UDPConn); ok {
		_ = uc.SetReadBuffer(readBufferBytes)
	}
	return conn, nil
}
