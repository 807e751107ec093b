package http1

import (
	"bytes"
	"net/http"
	"strconv"

	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/idna"
)

// writeRequestLine writes "METHOD SP request-target SP HTTP/x.y CRLF".
func writeRequestLine[Body any](req *Request[Body], dst *bytes.Buffer) error {
	versionBytes, err := formatVersion(req.Version)
	if err != nil {
		return err
	}
	target := req.Target
	if target == "" {
		target = "/"
	}
	dst.WriteString(req.Method)
	dst.WriteByte(' ')
	dst.WriteString(target)
	dst.WriteByte(' ')
	dst.WriteString(versionBytes)
	dst.Write(crlf)
	return nil
}

// writeResponseLine writes "HTTP/x.y SP status SP reason CRLF".
func writeResponseLine[Body any](res *Response[Body], dst *bytes.Buffer) error {
	versionBytes, err := formatVersion(res.Version)
	if err != nil {
		return err
	}
	dst.WriteString(versionBytes)
	dst.WriteByte(' ')
	dst.WriteString(strconv.Itoa(res.StatusCode))
	dst.WriteByte(' ')
	reason := res.Reason
	if reason == "" {
		reason = http.StatusText(res.StatusCode)
	}
	dst.WriteString(reason)
	dst.Write(crlf)
	return nil
}

// writeHeader writes one "name:value CRLF" line, rejecting names or
// values httpguts considers malformed rather than letting them corrupt
// the framing of subsequent lines.
func writeHeader(name, value string, dst *bytes.Buffer) error {
	if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
		return &InvalidHeaderError{Name: name, Value: value}
	}
	dst.WriteString(name)
	dst.WriteByte(':')
	dst.WriteString(value)
	dst.Write(crlf)
	return nil
}

// writeHeaders writes every header in map iteration order (which is not
// defined), then the single blank line that terminates the header block.
func writeHeaders(h map[string][]string, dst *bytes.Buffer) error {
	for name, values := range h {
		for _, v := range values {
			if err := writeHeader(name, v, dst); err != nil {
				return err
			}
		}
	}
	dst.Write(crlf)
	return nil
}

// synthesizeHost writes a Host header derived from req.Host,
// punycode-normalizing it the way a production HTTP/1 client would for
// internationalized domain names.
func synthesizeHost[Body any](req *Request[Body], dst *bytes.Buffer) error {
	if req.Header.Get("Host") != "" {
		return nil
	}
	if req.Host == "" {
		return &NoHostError{}
	}
	ascii, err := idna.ToASCII(req.Host)
	if err != nil {
		return &InvalidHostError{Host: req.Host, Err: err}
	}
	return writeHeader("Host", ascii, dst)
}
