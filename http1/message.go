// Package http1 is a reference Framer for HTTP/1.x request/response
// framing, built the same way any other Framer in this module is: a
// stateful decode resume record plus a one-shot encoder, generic over the
// body type so callers choose how a request or response body is
// serialized and parsed.
package http1

import "net/http"

// knownVersions enumerates the HTTP versions this framer can parse and
// write. 2.0 and 3.0 appear in the wire grammar (their text form can show
// up in a status or request line) even though this framer never
// negotiates either protocol itself.
var knownVersions = map[string]bool{
	"0.9": true,
	"1.0": true,
	"1.1": true,
	"2.0": true,
	"3.0": true,
}

// knownMethods is the set of request-line method prefixes the server
// decoder looks for at the start of a request line.
var knownMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodHead,
	http.MethodOptions,
	http.MethodConnect,
	http.MethodPatch,
	http.MethodTrace,
}

// Request is one HTTP/1 request, generic over its body representation.
type Request[Body any] struct {
	Method  string
	Target  string // request-target: path and, if present, query
	Version string // e.g. "1.1"
	Host    string // authority to synthesize a Host header from if absent
	Header  http.Header
	Body    Body
}

// Response is one HTTP/1 response, generic over its body representation.
type Response[Body any] struct {
	Version    string
	StatusCode int
	Reason     string // canonical reason phrase; derived from StatusCode if empty
	Header     http.Header
	Body       Body
}
