// Package transport defines the boundary between the request pipeline and
// whatever mechanism actually carries HTTP traffic. The pipeline treats
// implementations as black boxes: one request in, one streamed response or
// one error out.
package transport

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"restbound/header"
)

// ErrResponseTooLarge is surfaced by transports that enforce
// [Options.MaxResponseBytes] once a response body crosses the limit.
var ErrResponseTooLarge = errors.New("response body exceeds configured limit")

// Options is the tuning bag a client forwards verbatim on every request.
// It never influences pipeline semantics, only how the exchange is carried.
type Options struct {
	// Timeout bounds a single exchange including body delivery.
	// Zero means no transport-level bound.
	Timeout time.Duration

	// TLSInsecure skips server certificate verification.
	TLSInsecure bool

	// DisableCompression turns off transparent content decoding.
	DisableCompression bool

	// MaxResponseBytes caps how much response body may be read.
	// Zero or negative means unlimited.
	MaxResponseBytes int64
}

// Request is a fully resolved exchange: target fields from the client's
// origin, the rest from the caller's request. Body is nil when the request
// carries none.
type Request struct {
	Method  string
	Scheme  string
	Host    string
	Port    uint16
	Path    string
	Headers header.Headers
	Body    []byte

	Options Options
}

// URL renders the absolute request target.
func (r *Request) URL() string {
	return fmt.Sprintf("%s://%s:%d%s", r.Scheme, r.Host, r.Port, r.Path)
}

// Response is the transport's view of the exchange result. Body streams the
// payload chunk by chunk until EOF; the reader owning it must close it.
type Response struct {
	StatusCode int
	Headers    header.Headers
	Body       io.ReadCloser
}

// Transport carries a single request attempt. Returning an error means the
// exchange failed below HTTP semantics (dial, TLS, timeout, protocol);
// any status code, including 5xx, is a successful round trip.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}
