package taps

import (
	"context"
	"errors"
	"net"
)

// Preconnection gathers everything needed to establish a Connection before
// any socket exists: optional local and remote endpoints, a transport
// preference bag, and the Framer that will own every Connection it
// produces. A Preconnection is reusable — Initiate and Listen may each be
// called more than once, each producing an independent Connection or
// Listener with its own cloned framer state.
type Preconnection[S, R any] struct {
	local  Endpoint
	remote Endpoint
	props  *TransportProperties
	framer Framer[S, R]
}

// NewPreconnection builds a Preconnection with no endpoints set and
// default transport properties. framer is the template every produced
// Connection/Listener clones from — it is never mutated directly.
func NewPreconnection[S, R any](framer Framer[S, R]) *Preconnection[S, R] {
	return &Preconnection[S, R]{
		local:  NoEndpointValue,
		remote: NoEndpointValue,
		props:  NewTransportProperties(),
		framer: framer,
	}
}

// SetLocal sets the endpoint Listen will bind to.
func (p *Preconnection[S, R]) SetLocal(ep Endpoint) *Preconnection[S, R] {
	p.local = ep
	return p
}

// SetRemote sets the endpoint Initiate will connect to, and, if present
// when Listen is called, restricts accepted peers to the first address it
// resolves to.
func (p *Preconnection[S, R]) SetRemote(ep Endpoint) *Preconnection[S, R] {
	p.remote = ep
	return p
}

// SetTransportProperties replaces the preference bag consulted by the
// selection ladder.
func (p *Preconnection[S, R]) SetTransportProperties(props *TransportProperties) *Preconnection[S, R] {
	p.props = props
	return p
}

// Initiate resolves the remote endpoint, races a connection attempt
// across every resolved address, and returns the winning Connection. The
// race's own candidate-exhaustion error is wrapped one level further so
// callers can distinguish "nothing resolved" from "nothing connected"
// without inspecting the race internals.
func (p *Preconnection[S, R]) Initiate(ctx context.Context) (*Connection[S, R], error) {
	if isAbsent(p.remote) {
		return nil, &InitiateError{Err: &MissingEndpointError{}}
	}

	addrs, err := Resolve(ctx, p.remote)
	if err != nil {
		return nil, &InitiateError{Err: err}
	}

	result, err := race(ctx, addrs, p.props)
	if err != nil {
		return nil, &InitiateError{Err: err}
	}

	conn := newConnection[S, R](result.transport, p.framer.CloneSimilar())
	return conn, nil
}

// Listen resolves the local endpoint and binds a Listener. If a remote
// endpoint was also set, its first resolved address becomes a peer filter
// applied to every accepted connection.
func (p *Preconnection[S, R]) Listen(ctx context.Context) (*Listener[S, R], error) {
	if isAbsent(p.local) {
		return nil, &ListenError{Err: &MissingEndpointError{}}
	}

	localAddrs, err := Resolve(ctx, p.local)
	if err != nil {
		return nil, &ListenError{Err: err}
	}

	var remoteFilter net.Addr
	if !isAbsent(p.remote) {
		if remoteAddrs, err := Resolve(ctx, p.remote); err == nil && len(remoteAddrs) > 0 {
			remoteFilter = remoteAddrs[0]
		}
	}

	return newListener[S, R](ctx, localAddrs[0], remoteFilter, p.props, p.framer)
}

// errRendezvousUnsupported is the reason Rendezvous currently fails: a
// simultaneous-open peer-to-peer handshake needs its own NAT-traversal
// negotiation, which nothing in this module performs yet.
var errRendezvousUnsupported = errors.New("rendezvous is not supported")

// Rendezvous is reserved for a future simultaneous-open handshake between
// two peers that each initiate and listen at once. It is not implemented.
func (p *Preconnection[S, R]) Rendezvous(ctx context.Context) (*Connection[S, R], error) {
	return nil, &InitiateError{Err: errRendezvousUnsupported}
}

func isAbsent(ep Endpoint) bool {
	_, ok := ep.(absentEndpoint)
	return ok
}
