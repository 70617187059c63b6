package plugin

import (
	"errors"
	"net/http"
)

// Plugin errors.
var (
	ErrNoHandler = errors.New("plugin has no handler")
)

// Request is a protocol neutral view of a received request.
type Request struct {
	// ID identifies the request (oneM2M request identifier or a generated UUID).
	ID string

	// Protocol is the name of the protocol that carried the request.
	Protocol string

	// Method is the protocol specific method (GET, POST, ...).
	Method string

	// URI is the target resource path used for plugin lookup.
	URI string

	// ContentType describes Payload.
	ContentType string

	// Payload is the raw request body.
	Payload []byte

	// Header carries protocol specific options (HTTP headers, CoAP options).
	Header map[string][]string

	// RemoteAddr is the peer address.
	RemoteAddr string
}

// HeaderValue returns the first value of the named header.
func (r *Request) HeaderValue(name string) string {
	if r.Header == nil {
		return ""
	}
	if v := r.Header[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Response is filled by a plugin and written back by the channel.
type Response struct {
	// Code is the protocol return code. Zero means 200.
	Code int

	// ContentType describes Payload.
	ContentType string

	// Payload is the response body.
	Payload []byte
}

// NewResponse creates a response.
func NewResponse(code int, contentType string, payload []byte) *Response {
	return &Response{Code: code, ContentType: contentType, Payload: payload}
}

// StatusCode returns Code, defaulting to 200.
func (r *Response) StatusCode() int {
	if r == nil || r.Code == 0 {
		return http.StatusOK
	}
	return r.Code
}
