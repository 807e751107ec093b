package taps

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestPreconnectionInitiateMissingRemoteEndpoint(t *testing.T) {
	pc := NewPreconnection[[]byte, []byte](&testFramer{})
	_, err := pc.Initiate(context.Background())
	if err == nil {
		t.Fatalf("Initiate: expected an error with no remote endpoint set")
	}
	var initiateErr *InitiateError
	if ie, ok := err.(*InitiateError); ok {
		initiateErr = ie
	} else {
		t.Fatalf("Initiate error = %v (%T), want *InitiateError", err, err)
	}
	if _, ok := initiateErr.Err.(*MissingEndpointError); !ok {
		t.Fatalf("Initiate inner error = %v (%T), want *MissingEndpointError", initiateErr.Err, initiateErr.Err)
	}
}

func TestPreconnectionListenMissingLocalEndpoint(t *testing.T) {
	pc := NewPreconnection[[]byte, []byte](&testFramer{})
	_, err := pc.Listen(context.Background())
	if err == nil {
		t.Fatalf("Listen: expected an error with no local endpoint set")
	}
}

func TestPreconnectionInitiateConnectsToListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err == nil {
			c.Close()
		}
	}()

	pc := NewPreconnection[[]byte, []byte](&testFramer{})
	pc.SetRemote(LiteralEndpoint(ln.Addr()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := pc.Initiate(ctx)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	defer conn.Close()
}

func TestPreconnectionListenAndAcceptRoundTrip(t *testing.T) {
	pc := NewPreconnection[[]byte, []byte](&testFramer{})
	pc.SetLocal(HostPortEndpoint("127.0.0.1", 0, "tcp"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	listener, err := pc.Listen(ctx)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	dialed := make(chan error, 1)
	go func() {
		c, err := net.DialTimeout("tcp", listener.LocalEndpoint().String(), 2*time.Second)
		if err == nil {
			c.Close()
		}
		dialed <- err
	}()

	conn, err := listener.Accept(ctx)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer conn.Close()

	if err := <-dialed; err != nil {
		t.Fatalf("dial: %v", err)
	}
}
