package taps

import (
	"context"
	"fmt"
	"net"
)

// Endpoint is an unresolved reference to a network location: a literal
// address, a (hostname, port) pair awaiting DNS, or the absent marker
// used by a Preconnection that hasn't been given one yet.
//
// Resolve turns any Endpoint into a finite, non-empty slice of addresses,
// or fails with a MissingEndpointError / ResolveError / NoEndpointError.
type Endpoint interface {
	resolve(ctx context.Context) ([]net.Addr, error)
}

// literalEndpoint wraps an already-resolved address: resolving it always
// yields [addr], infallibly.
type literalEndpoint struct {
	addr net.Addr
}

// LiteralEndpoint builds an Endpoint from a concrete address, such as one
// produced by net.ResolveTCPAddr.
func LiteralEndpoint(addr net.Addr) Endpoint {
	return literalEndpoint{addr: addr}
}

func (e literalEndpoint) resolve(context.Context) ([]net.Addr, error) {
	return []net.Addr{e.addr}, nil
}

// hostPortEndpoint resolves a hostname through DNS and pairs every
// returned IP with the given port, preserving DNS response order.
type hostPortEndpoint struct {
	host    string
	port    int
	network string // "tcp" or "udp"; only affects the concrete net.Addr type produced
}

// HostPortEndpoint builds an Endpoint that resolves hostname:port via DNS
// at race time. network selects which net.Addr type (TCPAddr/UDPAddr) the
// resolved addresses are wrapped in; it does not constrain which
// transport the race engine eventually dials — that's governed solely by
// TransportProperties.
func HostPortEndpoint(host string, port int, network string) Endpoint {
	return hostPortEndpoint{host: host, port: port, network: network}
}

func (e hostPortEndpoint) resolve(ctx context.Context) ([]net.Addr, error) {
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, e.host)
	if err != nil {
		return nil, err
	}
	addrs := make([]net.Addr, 0, len(ips))
	for _, ip := range ips {
		switch e.network {
		case "udp":
			addrs = append(addrs, &net.UDPAddr{IP: ip.IP, Port: e.port, Zone: ip.Zone})
		default:
			addrs = append(addrs, &net.TCPAddr{IP: ip.IP, Port: e.port, Zone: ip.Zone})
		}
	}
	return addrs, nil
}

// absentEndpoint is the marker used when no endpoint has been supplied;
// resolving it always fails with MissingEndpointError.
type absentEndpoint struct{}

// NoEndpointValue is the absent-endpoint marker a fresh Preconnection
// starts with for both local and remote slots.
var NoEndpointValue Endpoint = absentEndpoint{}

func (absentEndpoint) resolve(context.Context) ([]net.Addr, error) {
	return nil, &MissingEndpointError{}
}

// Resolve turns an Endpoint into a finite, ordered slice of network
// addresses. An empty result without error is treated as resolution
// failure by callers, surfaced here as
// NoEndpointError so every caller sees one consistent condition.
func Resolve(ctx context.Context, ep Endpoint) ([]net.Addr, error) {
	addrs, err := ep.resolve(ctx)
	if err != nil {
		if _, ok := err.(*MissingEndpointError); ok {
			return nil, err
		}
		return nil, &ResolveError{Err: err}
	}
	if len(addrs) == 0 {
		return nil, &NoEndpointError{Err: fmt.Errorf("endpoint resolved to zero addresses")}
	}
	return addrs, nil
}
