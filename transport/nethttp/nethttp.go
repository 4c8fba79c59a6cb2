// Package nethttp is the default Transport, backed by net/http for HTTP/1.1
// and golang.org/x/net/http2 for HTTP/2.
package nethttp

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/http2"

	"restbound/header"
	"restbound/transport"
)

const dialTimeout = 30 * time.Second

type Transport struct {
	client *http.Client
}

// New creates an HTTP/1.1 transport. Redirects are never followed; the
// redirect response itself is handed back so the pipeline can classify it.
func New(opts transport.Options) *Transport {
	t := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: dialTimeout,
		}).DialContext,
		DisableCompression: opts.DisableCompression,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.TLSInsecure,
		},
	}

	return &Transport{client: newClient(t)}
}

// NewHTTP2 creates an HTTP/2 transport. AllowHTTP plus the plain-TCP dial
// makes it speak h2c against http origins.
func NewHTTP2(opts transport.Options) *Transport {
	t := &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			d := &net.Dialer{
				Timeout:   dialTimeout,
				KeepAlive: dialTimeout,
			}
			return d.DialContext(ctx, network, addr)
		},
		DisableCompression: opts.DisableCompression,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.TLSInsecure,
		},
	}

	return &Transport{client: newClient(t)}
}

func newClient(rt http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: rt,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (t *Transport) RoundTrip(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	var cancel context.CancelFunc
	if req.Options.Timeout > 0 {
		// The bound covers body delivery, so cancellation is deferred to
		// body close rather than to RoundTrip returning.
		ctx, cancel = context.WithTimeout(ctx, req.Options.Timeout)
	}

	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}

	httpRes, err := t.client.Do(httpReq)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, errors.Wrap(err, "sending request")
	}

	body := &responseBody{reader: httpRes.Body, closer: httpRes.Body, cancel: cancel}
	if max := req.Options.MaxResponseBytes; max > 0 {
		body.reader = &limitReader{r: httpRes.Body, remain: max}
	}

	return &transport.Response{
		StatusCode: httpRes.StatusCode,
		Headers:    header.New(httpRes.Header),
		Body:       body,
	}, nil
}

func (t *Transport) buildRequest(ctx context.Context, req *transport.Request) (*http.Request, error) {
	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL(), bodyReader)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}

	for name, values := range req.Headers.Fields() {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	return httpReq, nil
}

// Close releases idle connections.
func (t *Transport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

type responseBody struct {
	reader io.Reader
	closer io.Closer
	cancel context.CancelFunc
}

func (b *responseBody) Read(p []byte) (int, error) { return b.reader.Read(p) }

func (b *responseBody) Close() error {
	if b.cancel != nil {
		defer b.cancel()
	}
	return b.closer.Close()
}

// limitReader fails the stream once more than remain bytes have arrived.
type limitReader struct {
	r      io.Reader
	remain int64
}

func (l *limitReader) Read(p []byte) (n int, err error) {
	n, err = l.r.Read(p)
	l.remain -= int64(n)
	if l.remain < 0 {
		return n, transport.ErrResponseTooLarge
	}
	return n, err
}
