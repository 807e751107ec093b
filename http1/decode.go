package http1

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/oskarsh/taps/codec"
)

// crlf is the only accepted line terminator; a lone LF never ends a line.
var crlf = []byte("\r\n")

// findLine extracts one CRLF-terminated line from buf, consuming the line
// and its terminator. ok is false when no CRLF is present yet, in which
// case buf is left untouched so the caller can retry once more bytes
// arrive.
func findLine(buf *bytes.Buffer) (line []byte, ok bool) {
	idx := bytes.Index(buf.Bytes(), crlf)
	if idx < 0 {
		return nil, false
	}
	raw := buf.Next(idx)
	line = make([]byte, len(raw))
	copy(line, raw)
	buf.Next(len(crlf))
	return line, true
}

// parseVersion validates a three-byte version token (e.g. "1.1").
func parseVersion(raw []byte) (string, error) {
	v := string(raw)
	if !knownVersions[v] {
		return "", &InvalidVersionError{Raw: v}
	}
	return v, nil
}

// formatVersion is the inverse of parseVersion, validating before write.
func formatVersion(v string) (string, error) {
	if !knownVersions[v] {
		return "", &InvalidVersionError{Raw: v}
	}
	return "HTTP/" + v, nil
}

// headerLine is one parsed "name: value" pair, or the empty-line marker
// that ends a header block.
type headerLine struct {
	name  string
	value string
	empty bool
}

// parseHeaderLine splits a header line on its first colon, then validates
// both the name and value with the same httpguts rules writeHeader
// enforces on encode, so a malformed incoming header surfaces as
// InvalidHeaderError instead of being passed through silently. The value
// retains no leading-colon byte but is not trimmed of surrounding
// whitespace, matching this framer's deliberately literal parse (callers
// that want trimmed values should do so themselves).
func parseHeaderLine(raw []byte) (headerLine, error) {
	if len(raw) == 0 {
		return headerLine{empty: true}, nil
	}
	i := bytes.IndexByte(raw, ':')
	if i < 0 {
		return headerLine{}, &MissingColonError{Raw: string(raw)}
	}
	name := string(raw[:i])
	value := string(raw[i+1:])
	if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
		return headerLine{}, &InvalidHeaderError{Name: name, Value: value}
	}
	return headerLine{name: name, value: value}, nil
}

// parseContentLength parses a Content-Length header value.
func parseContentLength(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, &InvalidContentLengthError{Raw: raw}
	}
	return n, nil
}

// isContentLength reports whether name is "content-length", ASCII
// case-insensitively.
func isContentLength(name string) bool {
	return strings.EqualFold(name, "Content-Length")
}

// BodyDecoder decodes a message body once Content-Length (if any) is
// known. Unlike codec.Decode, it is handed the content length on every
// call, since a body's framing in HTTP/1 is governed by a header the body
// codec itself cannot see any other way. state is nil on the first call
// for a given message and whatever was returned alongside a
// *codec.Incomplete on every call thereafter.
type BodyDecoder[T any] interface {
	DecodeBody(buf *bytes.Buffer, contentLength int, haveContentLength bool, state any) (T, error)
}

// BodyDecoderFunc adapts a plain function to BodyDecoder.
type BodyDecoderFunc[T any] func(buf *bytes.Buffer, contentLength int, haveContentLength bool, state any) (T, error)

func (f BodyDecoderFunc[T]) DecodeBody(buf *bytes.Buffer, contentLength int, haveContentLength bool, state any) (T, error) {
	return f(buf, contentLength, haveContentLength, state)
}

// FixedLengthBytes decodes a body of exactly Content-Length bytes,
// treating a message with no Content-Length as having an empty body
// (this framer does not implement chunked transfer coding).
func FixedLengthBytes() BodyDecoder[codec.Bytes] {
	return BodyDecoderFunc[codec.Bytes](func(buf *bytes.Buffer, contentLength int, haveContentLength bool, _ any) (codec.Bytes, error) {
		if !haveContentLength || contentLength == 0 {
			return codec.Bytes{}, nil
		}
		if buf.Len() < contentLength {
			return nil, &codec.Incomplete{}
		}
		return codec.Bytes(buf.Next(contentLength)), nil
	})
}
