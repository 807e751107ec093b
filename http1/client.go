package http1

import (
	"bytes"
	"net/http"

	"github.com/oskarsh/taps"
	"github.com/oskarsh/taps/codec"
)

// clientStage names where a response decode currently sits.
type clientStage int

const (
	clientStageStatus clientStage = iota
	clientStageHeaders
	clientStageBody
)

// clientDecodeState is the resume record a ClientFramer keeps across
// Deframe calls for one in-flight response.
type clientDecodeState struct {
	stage             clientStage
	version           string
	statusCode        int
	header            http.Header
	contentLength     int
	haveContentLength bool
	bodyState         any
}

// ClientFramer sends Requests and decodes Responses, the client side of
// the HTTP/1 reference framer. ReqBody must know how to serialize itself;
// RespBody is decoded by the supplied BodyDecoder.
type ClientFramer[ReqBody codec.Encode, RespBody any] struct {
	bodyDecoder BodyDecoder[RespBody]
	decodeState *clientDecodeState
}

// NewClientFramer builds a ClientFramer that decodes response bodies with
// bodyDecoder.
func NewClientFramer[ReqBody codec.Encode, RespBody any](bodyDecoder BodyDecoder[RespBody]) *ClientFramer[ReqBody, RespBody] {
	return &ClientFramer[ReqBody, RespBody]{bodyDecoder: bodyDecoder}
}

// Frame writes req's wire form to dst.
func (c *ClientFramer[ReqBody, RespBody]) Frame(req *Request[ReqBody], dst *bytes.Buffer) error {
	if err := writeRequestLine(req, dst); err != nil {
		return err
	}
	if err := synthesizeHost(req, dst); err != nil {
		return err
	}
	if req.Header == nil {
		req.Header = http.Header{}
	}
	if err := writeHeaders(req.Header, dst); err != nil {
		return err
	}
	return req.Body.EncodeTo(dst)
}

// Deframe decodes one Response from src, resuming from whatever state a
// prior Incomplete left behind.
func (c *ClientFramer[ReqBody, RespBody]) Deframe(src *bytes.Buffer) (*Response[RespBody], bool, error) {
	if c.decodeState == nil {
		c.decodeState = &clientDecodeState{header: http.Header{}}
	}
	state := c.decodeState

	for {
		switch state.stage {
		case clientStageStatus:
			line, ok := findLine(src)
			if !ok {
				return nil, false, nil
			}
			version, statusCode, err := parseStatusLine(line)
			if err != nil {
				return nil, false, err
			}
			state.version = version
			state.statusCode = statusCode
			state.stage = clientStageHeaders

		case clientStageHeaders:
			line, ok := findLine(src)
			if !ok {
				return nil, false, nil
			}
			parsed, err := parseHeaderLine(line)
			if err != nil {
				return nil, false, err
			}
			if parsed.empty {
				state.stage = clientStageBody
				continue
			}
			state.header.Add(parsed.name, parsed.value)
			if isContentLength(parsed.name) {
				n, err := parseContentLength(parsed.value)
				if err != nil {
					return nil, false, err
				}
				state.contentLength = n
				state.haveContentLength = true
			}

		case clientStageBody:
			body, err := c.bodyDecoder.DecodeBody(src, state.contentLength, state.haveContentLength, state.bodyState)
			if err != nil {
				if incomplete, ok := err.(*codec.Incomplete); ok {
					state.bodyState = incomplete.State
					return nil, false, nil
				}
				return nil, false, &InvalidBodyError{Err: err}
			}
			return &Response[RespBody]{
				Version:    state.version,
				StatusCode: state.statusCode,
				Reason:     http.StatusText(state.statusCode),
				Header:     state.header,
				Body:       body,
			}, true, nil
		}
	}
}

// Clear discards any in-progress response decode.
func (c *ClientFramer[ReqBody, RespBody]) Clear() {
	c.decodeState = nil
}

// AddMetadata is an inert extension point: nothing in the HTTP/1 wire
// format this framer speaks uses out-of-band metadata.
func (c *ClientFramer[ReqBody, RespBody]) AddMetadata(key, value any) {}

// CloneSimilar returns a fresh ClientFramer sharing this one's body
// decoder but none of its in-progress decode state, for a Listener to
// hand to a newly accepted Connection.
func (c *ClientFramer[ReqBody, RespBody]) CloneSimilar() taps.Framer[*Request[ReqBody], *Response[RespBody]] {
	return &ClientFramer[ReqBody, RespBody]{bodyDecoder: c.bodyDecoder}
}

// parseStatusLine locates "HTTP/" within line, then the version and
// three-digit status code that follow it.
func parseStatusLine(line []byte) (version string, statusCode int, err error) {
	marker := []byte("HTTP/")
	idx := bytes.Index(line, marker)
	if idx < 0 {
		return "", 0, &InvalidStatusError{Raw: string(line)}
	}
	rest := line[idx+len(marker):]
	if len(rest) < 7 { // "1.1 200"
		return "", 0, &InvalidStatusError{Raw: string(line)}
	}
	version, err = parseVersion(rest[0:3])
	if err != nil {
		return "", 0, err
	}
	rest = rest[4:] // skip version + one space
	code, convErr := parseStatusCode(rest[0:3])
	if convErr != nil {
		return "", 0, convErr
	}
	return version, code, nil
}

func parseStatusCode(raw []byte) (int, error) {
	if len(raw) != 3 {
		return 0, &InvalidStatusError{Raw: string(raw)}
	}
	n := 0
	for _, b := range raw {
		if b < '0' || b > '9' {
			return 0, &InvalidStatusError{Raw: string(raw)}
		}
		n = n*10 + int(b-'0')
	}
	return n, nil
}
