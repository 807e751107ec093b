package taps

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oskarsh/taps/internal/socket"
)

// Family-preference stagger constants: small, deterministic
// delays so an IPv6 candidate's RTT gets first crack at winning the race
// without starving IPv4 candidates that have no v6 competitor.
const (
	ipv6Stagger = 0 * time.Millisecond
	ipv4Stagger = 5 * time.Millisecond
)

// rawTransport is the minimal surface the race engine and listener need
// from an established transport, independent of whether it's backed by a
// stream (TCP) or datagram (UDP) socket. Both net.Conn values returned by
// the dialers below already satisfy it directly.
type rawTransport interface {
	net.Conn
}

// stagger returns the family-preference delay for addr.
func stagger(addr net.Addr) time.Duration {
	host := addrHost(addr)
	ip := net.ParseIP(host)
	if ip != nil && ip.To4() == nil {
		return ipv6Stagger
	}
	return ipv4Stagger
}

func addrHost(addr net.Addr) string {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP.String()
	case *net.UDPAddr:
		return a.IP.String()
	default:
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			return addr.String()
		}
		return host
	}
}

// dial runs the transport-selection ladder against a
// single resolved address, honoring the Reliability property.
func dial(ctx context.Context, addr net.Addr, props *TransportProperties) (rawTransport, error) {
	tcpAddr, tcpOK := toTCPAddr(addr)
	udpAddr, udpOK := toUDPAddr(addr)

	tryTCP := func() (rawTransport, error) {
		if !tcpOK {
			return nil, &OpenError{Addr: addr.String(), Err: errUnsupportedFamily}
		}
		c, err := socket.DialTCP(ctx, tcpAddr)
		if err != nil {
			return nil, &OpenError{Addr: addr.String(), Err: err}
		}
		return c, nil
	}
	tryUDP := func() (rawTransport, error) {
		if !udpOK {
			return nil, &OpenError{Addr: addr.String(), Err: errUnsupportedFamily}
		}
		c, err := socket.DialUDP(ctx, udpAddr)
		if err != nil {
			return nil, &OpenError{Addr: addr.String(), Err: err}
		}
		return c, nil
	}

	switch props.Get(Reliability) {
	case Require:
		return tryTCP()
	case Avoid:
		if c, err := tryUDP(); err == nil {
			return c, nil
		}
		return tryTCP()
	case Prohibit:
		return tryUDP()
	default: // Prefer, Ignore
		if c, err := tryTCP(); err == nil {
			return c, nil
		}
		return tryUDP()
	}
}

func toTCPAddr(addr net.Addr) (*net.TCPAddr, bool) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a, true
	case *net.UDPAddr:
		return &net.TCPAddr{IP: a.IP, Port: a.Port, Zone: a.Zone}, true
	default:
		return nil, false
	}
}

func toUDPAddr(addr net.Addr) (*net.UDPAddr, bool) {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return a, true
	case *net.TCPAddr:
		return &net.UDPAddr{IP: a.IP, Port: a.Port, Zone: a.Zone}, true
	default:
		return nil, false
	}
}

var errUnsupportedFamily = &addrFamilyError{}

type addrFamilyError struct{}

func (*addrFamilyError) Error() string { return "address type not convertible to TCP or UDP" }

// raceResult carries a winning transport's captured endpoints out of the
// errgroup goroutine that produced it.
type raceResult struct {
	transport rawTransport
	local     net.Addr
	remote    net.Addr
}

// race concurrently attempts a connection over every resolved address, a
// family-preference stagger ahead of each dial, and returns the first
// success. All other attempts are cancelled through ctx
// once one wins, mirroring the original's futures::select_ok using
// golang.org/x/sync/errgroup instead.
func race(ctx context.Context, addrs []net.Addr, props *TransportProperties) (*raceResult, error) {
	if len(addrs) == 0 {
		return nil, &NoEndpointError{}
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	winner := make(chan *raceResult, 1)
	g, gctx := errgroup.WithContext(raceCtx)

	var mu sync.Mutex
	var lastErr error

	for _, addr := range addrs {
		addr := addr
		g.Go(func() error {
			delay := stagger(addr)
			if delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-gctx.Done():
					return nil
				case <-timer.C:
				}
			}

			perAddrProps := props.Clone()
			transport, err := dial(gctx, addr, perAddrProps)
			if err != nil {
				mu.Lock()
				lastErr = err
				mu.Unlock()
				return nil
			}

			select {
			case winner <- &raceResult{transport: transport, local: transport.LocalAddr(), remote: transport.RemoteAddr()}:
				cancel()
			default:
				_ = transport.Close()
			}
			return nil
		})
	}

	_ = g.Wait()
	select {
	case w := <-winner:
		return w, nil
	default:
		mu.Lock()
		defer mu.Unlock()
		return nil, &NoEndpointError{Err: lastErr}
	}
}
