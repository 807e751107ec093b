package taps

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestListenerAcceptsTCPConnection(t *testing.T) {
	local := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}
	ln, err := newListener[[]byte, []byte](context.Background(), local, nil, NewTransportProperties(), &testFramer{})
	if err != nil {
		t.Fatalf("newListener: %v", err)
	}
	defer ln.Close()

	dialed := make(chan error, 1)
	go func() {
		c, err := net.DialTimeout("tcp", ln.LocalEndpoint().String(), 2*time.Second)
		if err == nil {
			c.Close()
		}
		dialed <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := ln.Accept(ctx)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer conn.Close()

	if err := <-dialed; err != nil {
		t.Fatalf("dial: %v", err)
	}
}

func TestListenerConnectionLimitExhausted(t *testing.T) {
	local := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}
	ln, err := newListener[[]byte, []byte](context.Background(), local, nil, NewTransportProperties(), &testFramer{})
	if err != nil {
		t.Fatalf("newListener: %v", err)
	}
	defer ln.Close()
	ln.ConnectionLimit(1)

	go func() {
		c, err := net.DialTimeout("tcp", ln.LocalEndpoint().String(), 2*time.Second)
		if err == nil {
			c.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := ln.Accept(ctx)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	conn.Close()

	if _, err := ln.Accept(context.Background()); err != errListenerExhausted {
		t.Fatalf("Accept after limit = %v, want errListenerExhausted", err)
	}
}

func TestListenerRemoteFilterRejectsMismatch(t *testing.T) {
	local := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}
	bogusFilter := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1}
	ln, err := newListener[[]byte, []byte](context.Background(), local, bogusFilter, NewTransportProperties(), &testFramer{})
	if err != nil {
		t.Fatalf("newListener: %v", err)
	}
	defer ln.Close()

	go func() {
		c, err := net.DialTimeout("tcp", ln.LocalEndpoint().String(), 2*time.Second)
		if err == nil {
			c.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := ln.Accept(ctx); err == nil {
		t.Fatalf("Accept: expected a remote-filter rejection error, got nil")
	}
}

func TestUDPMultiplexerDemultiplexesByPeer(t *testing.T) {
	local := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}
	props := NewTransportProperties()
	props.Prohibit(Reliability)
	ln, err := newListener[[]byte, []byte](context.Background(), local, nil, props, &testFramer{})
	if err != nil {
		t.Fatalf("newListener: %v", err)
	}
	defer ln.Close()

	peerConn, err := net.DialUDP("udp", nil, ln.LocalEndpoint().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer peerConn.Close()

	// Frame "ping" with the same four-byte length prefix testFramer
	// expects on decode, so Connection.Receive can decode it directly.
	payload := []byte{0, 0, 0, 4, 'p', 'i', 'n', 'g'}
	if _, err := peerConn.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := ln.Accept(ctx)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer conn.Close()

	got, err := conn.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(got) != "ping" {
		t.Fatalf("Receive = %q, want %q", got, "ping")
	}
}
