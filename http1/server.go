package http1

import (
	"bytes"
	"net/http"

	"github.com/oskarsh/taps"
	"github.com/oskarsh/taps/codec"
)

type serverStage int

const (
	serverStageRequestLine serverStage = iota
	serverStageHeaders
	serverStageBody
)

// serverDecodeState is the resume record a ServerFramer keeps across
// Deframe calls for one in-flight request.
type serverDecodeState struct {
	stage             serverStage
	method            string
	target            string
	version           string
	header            http.Header
	contentLength     int
	haveContentLength bool
	bodyState         any
}

// ServerFramer sends Responses and decodes Requests, the server side of
// the HTTP/1 reference framer. RespBody must know how to serialize
// itself; ReqBody is decoded by the supplied BodyDecoder.
type ServerFramer[RespBody codec.Encode, ReqBody any] struct {
	bodyDecoder BodyDecoder[ReqBody]
	decodeState *serverDecodeState
}

// NewServerFramer builds a ServerFramer that decodes request bodies with
// bodyDecoder.
func NewServerFramer[RespBody codec.Encode, ReqBody any](bodyDecoder BodyDecoder[ReqBody]) *ServerFramer[RespBody, ReqBody] {
	return &ServerFramer[RespBody, ReqBody]{bodyDecoder: bodyDecoder}
}

// Frame writes res's wire form to dst.
func (s *ServerFramer[RespBody, ReqBody]) Frame(res *Response[RespBody], dst *bytes.Buffer) error {
	if err := writeResponseLine(res, dst); err != nil {
		return err
	}
	if res.Header == nil {
		res.Header = http.Header{}
	}
	if err := writeHeaders(res.Header, dst); err != nil {
		return err
	}
	return res.Body.EncodeTo(dst)
}

// Deframe decodes one Request from src, resuming from whatever state a
// prior Incomplete left behind.
func (s *ServerFramer[RespBody, ReqBody]) Deframe(src *bytes.Buffer) (*Request[ReqBody], bool, error) {
	if s.decodeState == nil {
		s.decodeState = &serverDecodeState{header: http.Header{}}
	}
	state := s.decodeState

	for {
		switch state.stage {
		case serverStageRequestLine:
			line, ok := findLine(src)
			if !ok {
				return nil, false, nil
			}
			method, target, version, err := parseRequestLine(line)
			if err != nil {
				return nil, false, err
			}
			state.method = method
			state.target = target
			state.version = version
			state.stage = serverStageHeaders

		case serverStageHeaders:
			line, ok := findLine(src)
			if !ok {
				return nil, false, nil
			}
			parsed, err := parseHeaderLine(line)
			if err != nil {
				return nil, false, err
			}
			if parsed.empty {
				state.stage = serverStageBody
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

		case serverStageBody:
			body, err := s.bodyDecoder.DecodeBody(src, state.contentLength, state.haveContentLength, state.bodyState)
			if err != nil {
				if incomplete, ok := err.(*codec.Incomplete); ok {
					state.bodyState = incomplete.State
					return nil, false, nil
				}
				return nil, false, &InvalidBodyError{Err: err}
			}
			return &Request[ReqBody]{
				Method:  state.method,
				Target:  state.target,
				Version: state.version,
				Host:    state.header.Get("Host"),
				Header:  state.header,
				Body:    body,
			}, true, nil
		}
	}
}

// Clear discards any in-progress request decode.
func (s *ServerFramer[RespBody, ReqBody]) Clear() {
	s.decodeState = nil
}

// AddMetadata is an inert extension point: nothing in the HTTP/1 wire
// format this framer speaks uses out-of-band metadata.
func (s *ServerFramer[RespBody, ReqBody]) AddMetadata(key, value any) {}

// CloneSimilar returns a fresh ServerFramer sharing this one's body
// decoder but none of its in-progress decode state, for a Listener to
// hand to a newly accepted Connection.
func (s *ServerFramer[RespBody, ReqBody]) CloneSimilar() taps.Framer[*Response[RespBody], *Request[ReqBody]] {
	return &ServerFramer[RespBody, ReqBody]{bodyDecoder: s.bodyDecoder}
}

// parseRequestLine locates a known method prefix, then splits method,
// request-target, and version on single spaces.
func parseRequestLine(line []byte) (method, target, version string, err error) {
	methodEnd := bytes.IndexByte(line, ' ')
	if methodEnd < 0 {
		return "", "", "", &InvalidRequestLineError{}
	}
	candidate := string(line[:methodEnd])
	if !isKnownMethod(candidate) {
		return "", "", "", &InvalidRequestLineError{}
	}
	rest := line[methodEnd+1:]

	targetEnd := bytes.IndexByte(rest, ' ')
	if targetEnd < 0 {
		return "", "", "", &InvalidRequestLineError{}
	}
	target = string(rest[:targetEnd])
	rest = rest[targetEnd+1:]

	marker := []byte("HTTP/")
	if !bytes.HasPrefix(rest, marker) || len(rest) < len(marker)+3 {
		return "", "", "", &InvalidRequestLineError{}
	}
	version, err = parseVersion(rest[len(marker) : len(marker)+3])
	if err != nil {
		return "", "", "", err
	}
	return candidate, target, version, nil
}

func isKnownMethod(m string) bool {
	for _, known := range knownMethods {
		if m == known {
			return true
		}
	}
	return false
}
