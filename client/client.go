// Package client implements an HTTP request pipeline bound to a fixed
// origin: body serialization, transport invocation, response buffering,
// classification, and error synthesis. The transport itself and the status
// registry are collaborators; everything here is protocol-agnostic glue
// between them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"restbound/media"
	"restbound/origin"
	"restbound/status"
	"restbound/transport"
	"restbound/transport/nethttp"
)

type Options struct {
	// Transport carries the exchanges. Default: nethttp.New built from
	// TransportOptions.
	Transport transport.Transport

	// TransportOptions rides along verbatim on every transport request.
	TransportOptions transport.Options

	// Decorate runs against each request's cloned headers, in order,
	// before body serialization.
	Decorate []HeaderDecorator

	// Extractors replaces the server-error message extraction chain.
	// Default: DefaultMessageExtractors.
	Extractors []MessageExtractor

	// Limiter, when set, gates request starts client-side.
	Limiter *rate.Limiter

	Logger *slog.Logger
	Clock  clock.Clock
}

// Client executes requests against one fixed origin. Safe for concurrent
// use: per-request state never escapes the calling goroutine.
type Client struct {
	origin origin.Origin
	opts   Options

	transport  transport.Transport
	extractors []MessageExtractor

	logger *slog.Logger
	clock  clock.Clock
}

// New parses rawOrigin ("scheme://host[:port][/basepath]") and binds a
// client to it. An unparsable origin fails construction; nothing else does.
func New(rawOrigin string, opts Options) (*Client, error) {
	o, err := origin.Parse(rawOrigin)
	if err != nil {
		return nil, errors.Wrap(err, "parsing origin")
	}

	c := &Client{origin: o, opts: opts}

	c.transport = opts.Transport
	if c.transport == nil {
		c.transport = nethttp.New(opts.TransportOptions)
	}

	c.extractors = opts.Extractors
	if c.extractors == nil {
		c.extractors = DefaultMessageExtractors()
	}

	c.logger = opts.Logger
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c.clock = opts.Clock
	if c.clock == nil {
		c.clock = clock.New()
	}

	return c, nil
}

func (c *Client) Origin() origin.Origin { return c.origin }

// Do runs the full pipeline for one request:
//
//  1. validate the method, clone headers, apply decorators, serialize the
//     body (failures here never reach the transport);
//  2. hand the resolved request to the transport;
//  3. buffer the whole response body, closing the stream;
//  4. classify the status, resolve the body per its media type;
//  5. synthesize a [status.Error] for 4xx/5xx, else return the Outcome.
//
// Failure precedence: transport failure, then body parse failure, then
// server-reported error.
func (c *Client) Do(ctx context.Context, req Request) (*Outcome, error) {
	method, err := canonicalMethod(req.Method)
	if err != nil {
		return nil, err
	}

	headers := req.Headers.Clone()
	for _, decorate := range c.opts.Decorate {
		decorate(&headers)
	}

	payload, err := serialize(method, req.Body, &headers)
	if err != nil {
		return nil, err
	}

	if limiter := c.opts.Limiter; limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "waiting on rate limiter")
		}
	}

	treq := &transport.Request{
		Method:  method,
		Scheme:  c.origin.Scheme,
		Host:    c.origin.Host,
		Port:    c.origin.Port,
		Path:    c.origin.RequestPath(req.Path),
		Headers: headers,
		Body:    payload,
		Options: c.opts.TransportOptions,
	}

	start := c.clock.Now()
	c.logger.DebugContext(ctx, "sending request", "method", method, "url", treq.URL())

	tres, err := c.transport.RoundTrip(ctx, treq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	raw, err := buffer(tres.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	outcome, err := c.resolve(method, treq.Path, tres, raw)
	if err != nil {
		return nil, err
	}

	outcome.Duration = c.clock.Since(start)
	c.logger.DebugContext(ctx, "request done",
		"method", method, "url", treq.URL(),
		"status", outcome.Status.Code, "duration", outcome.Duration)

	return outcome, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Outcome, error) {
	return c.Do(ctx, Request{Method: MethodGet, Path: AppendQuery(path, query)})
}

func (c *Client) Head(ctx context.Context, path string, query url.Values) (*Outcome, error) {
	return c.Do(ctx, Request{Method: MethodHead, Path: AppendQuery(path, query)})
}

func (c *Client) Post(ctx context.Context, path string, body Body) (*Outcome, error) {
	return c.Do(ctx, Request{Method: MethodPost, Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body Body) (*Outcome, error) {
	return c.Do(ctx, Request{Method: MethodPut, Path: path, Body: body})
}

func (c *Client) Patch(ctx context.Context, path string, body Body) (*Outcome, error) {
	return c.Do(ctx, Request{Method: MethodPatch, Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (*Outcome, error) {
	return c.Do(ctx, Request{Method: MethodDelete, Path: path})
}

// Close releases transport resources when the transport supports it.
func (c *Client) Close() error {
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// buffer accumulates the whole body stream, chunk by chunk in arrival
// order, then closes it.
func buffer(body io.ReadCloser) ([]byte, error) {
	defer body.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, body); err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}

	return buf.Bytes(), nil
}

// resolve turns a buffered transport response into an Outcome or, for
// error categories, a synthesized *status.Error. Exactly one of the two is
// returned.
func (c *Client) resolve(method, path string, res *transport.Response, raw []byte) (*Outcome, error) {
	st, _ := status.FromCode(res.StatusCode)
	category := status.Classify(res.StatusCode)

	mediaType := ""
	if contentType, ok := res.Headers.Get("Content-Type"); ok {
		mediaType = media.RemoveParameters(contentType)
	}

	outcome := &Outcome{
		Status:    st,
		Category:  category,
		MediaType: mediaType,
		Headers:   res.Headers,
	}

	var decoded any
	decodedJSON := false
	switch {
	case category == status.CategoryNoContent || method == MethodHead:
		// Body stays absent no matter what arrived.
	case media.IsJSON(mediaType):
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, &ParseError{Err: err}
		}
		decodedJSON = true
		outcome.body = outcomeBody{kind: BodyJSON, json: decoded}
	case media.IsTextual(mediaType):
		outcome.body = outcomeBody{kind: BodyText, text: string(raw)}
	default:
		outcome.body = outcomeBody{kind: BodyRaw, raw: raw}
	}

	if category.IsError() {
		message := ""
		if decodedJSON {
			message = c.extractMessage(decoded)
		}
		if message == "" {
			message = genericMessage(st)
		}

		target := fmt.Sprintf("[%s %s://%s:%d %s]",
			method, c.origin.Scheme, c.origin.Host, c.origin.Port, path)
		return nil, status.NewError(res.StatusCode, target+" "+message)
	}

	return outcome, nil
}

func (c *Client) extractMessage(decoded any) string {
	for _, extract := range c.extractors {
		if message, ok := extract(decoded); ok {
			return message
		}
	}
	return ""
}

func genericMessage(st status.Status) string {
	if st.ReasonPhrase != "" {
		return st.ReasonPhrase
	}
	return "request failed"
}
