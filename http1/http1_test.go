package http1

import (
	"bytes"
	"errors"
	"net/http"
	"testing"

	"github.com/oskarsh/taps/codec"
)

func TestClientFramerEncodeDecodeRoundTrip(t *testing.T) {
	client := NewClientFramer[codec.Bytes](FixedLengthBytes())
	server := NewServerFramer[codec.Bytes](FixedLengthBytes())

	req := &Request[codec.Bytes]{
		Method:  http.MethodGet,
		Target:  "/widgets?id=1",
		Version: "1.1",
		Host:    "example.com",
		Header:  http.Header{"Accept": []string{"application/json"}},
		Body:    nil,
	}

	var wire bytes.Buffer
	if err := client.Frame(req, &wire); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	got, ok, err := server.Deframe(&wire)
	if err != nil {
		t.Fatalf("Deframe: %v", err)
	}
	if !ok {
		t.Fatalf("Deframe: expected a complete request, got Incomplete")
	}
	if got.Method != http.MethodGet || got.Target != req.Target || got.Version != "1.1" {
		t.Fatalf("decoded request mismatch: %+v", got)
	}
	if got.Host != "example.com" {
		t.Fatalf("Host = %q, want example.com", got.Host)
	}
	if got.Header.Get("Accept") != "application/json" {
		t.Fatalf("Accept header not preserved: %+v", got.Header)
	}
}

func TestClientFramerDeframeIncompleteStatusLine(t *testing.T) {
	client := NewClientFramer[codec.Bytes](FixedLengthBytes())

	var wire bytes.Buffer
	wire.WriteString("HTTP/1.1 200")

	resp, ok, err := client.Deframe(&wire)
	if err != nil {
		t.Fatalf("Deframe: unexpected error %v", err)
	}
	if ok {
		t.Fatalf("Deframe: expected Incomplete, got %+v", resp)
	}
	if wire.Len() != len("HTTP/1.1 200") {
		t.Fatalf("Deframe consumed bytes on an incomplete status line: %d remain, want %d", wire.Len(), len("HTTP/1.1 200"))
	}
}

func TestClientFramerDeframeMissingColon(t *testing.T) {
	client := NewClientFramer[codec.Bytes](FixedLengthBytes())

	var wire bytes.Buffer
	wire.WriteString("HTTP/1.1 200 OK\r\nBadHeaderLine\r\n\r\n")

	_, _, err := client.Deframe(&wire)
	if err == nil {
		t.Fatalf("Deframe: expected MissingColonError, got nil")
	}
	var missingColon *MissingColonError
	if !errors.As(err, &missingColon) {
		t.Fatalf("Deframe error = %v (%T), want *MissingColonError", err, err)
	}
}

func TestClientFramerDeframeFeedByteAtATime(t *testing.T) {
	client := NewClientFramer[codec.Bytes](FixedLengthBytes())

	body := "hello"
	full := "HTTP/1.1 200 OK\r\nContent-Length:5\r\n\r\n" + body

	var wire bytes.Buffer
	var resp *Response[codec.Bytes]
	var ok bool
	var err error

	for i := 0; i < len(full); i++ {
		wire.WriteByte(full[i])
		resp, ok, err = client.Deframe(&wire)
		if err != nil {
			t.Fatalf("Deframe at byte %d: %v", i, err)
		}
		if ok {
			break
		}
	}

	if !ok {
		t.Fatalf("Deframe never completed after feeding the whole message")
	}
	if resp.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != body {
		t.Fatalf("Body = %q, want %q", resp.Body, body)
	}

	// Clear is expected to run exactly once, by Connection, after a
	// successful Deframe; simulate it and confirm the framer is ready to
	// decode a second response from any bytes left in the buffer.
	client.Clear()
	if client.decodeState != nil {
		t.Fatalf("Clear() left decode state behind: %+v", client.decodeState)
	}
}

func TestClientFramerDuplicateContentLengthLastWins(t *testing.T) {
	client := NewClientFramer[codec.Bytes](FixedLengthBytes())

	var wire bytes.Buffer
	wire.WriteString("HTTP/1.1 200 OK\r\nContent-Length:99\r\nContent-Length:2\r\n\r\nhi")

	resp, ok, err := client.Deframe(&wire)
	if err != nil {
		t.Fatalf("Deframe: %v", err)
	}
	if !ok {
		t.Fatalf("Deframe: expected complete response")
	}
	if string(resp.Body) != "hi" {
		t.Fatalf("Body = %q, want %q (last Content-Length should win)", resp.Body, "hi")
	}
}

func TestClientFramerDeframeInvalidHeaderName(t *testing.T) {
	client := NewClientFramer[codec.Bytes](FixedLengthBytes())

	var wire bytes.Buffer
	wire.WriteString("HTTP/1.1 200 OK\r\nBad Name:value\r\n\r\n")

	_, _, err := client.Deframe(&wire)
	if err == nil {
		t.Fatalf("Deframe: expected InvalidHeaderError, got nil")
	}
	var invalidHeader *InvalidHeaderError
	if !errors.As(err, &invalidHeader) {
		t.Fatalf("Deframe error = %v (%T), want *InvalidHeaderError", err, err)
	}
}

func TestClientFramerDeframeInvalidHeaderValue(t *testing.T) {
	client := NewClientFramer[codec.Bytes](FixedLengthBytes())

	var wire bytes.Buffer
	wire.WriteString("HTTP/1.1 200 OK\r\nX-Test:bad\x01value\r\n\r\n")

	_, _, err := client.Deframe(&wire)
	if err == nil {
		t.Fatalf("Deframe: expected InvalidHeaderError, got nil")
	}
	var invalidHeader *InvalidHeaderError
	if !errors.As(err, &invalidHeader) {
		t.Fatalf("Deframe error = %v (%T), want *InvalidHeaderError", err, err)
	}
}

func TestClientFramerEncodeNoHostSynthesizedWhenPresent(t *testing.T) {
	client := NewClientFramer[codec.Bytes](FixedLengthBytes())

	req := &Request[codec.Bytes]{
		Method:  http.MethodGet,
		Target:  "/",
		Version: "1.1",
		Header:  http.Header{"Host": []string{"override.example"}},
	}

	var wire bytes.Buffer
	if err := client.Frame(req, &wire); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if bytes.Count(wire.Bytes(), []byte("Host:")) != 1 {
		t.Fatalf("expected exactly one Host header, got wire:\n%s", wire.String())
	}
	if !bytes.Contains(wire.Bytes(), []byte("Host:override.example")) {
		t.Fatalf("user-supplied Host header was overwritten, got wire:\n%s", wire.String())
	}
}

func TestClientFramerEncodeMissingHostIsError(t *testing.T) {
	client := NewClientFramer[codec.Bytes](FixedLengthBytes())

	req := &Request[codec.Bytes]{Method: http.MethodGet, Target: "/", Version: "1.1"}

	var wire bytes.Buffer
	err := client.Frame(req, &wire)
	var noHost *NoHostError
	if !errors.As(err, &noHost) {
		t.Fatalf("Frame error = %v (%T), want *NoHostError", err, err)
	}
}
