// Package transporttest provides a scripted Transport for exercising the
// request pipeline without touching a network.
package transporttest

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"restbound/header"
	"restbound/transport"
)

// Script describes one canned exchange. Either Err is returned as the
// round-trip failure, or a response is delivered with Body split into
// Chunks so callers can observe buffering behavior.
type Script struct {
	Status  int
	Headers map[string][]string
	Chunks  [][]byte

	// Delay is waited on the injected clock before each chunk.
	Delay time.Duration

	Err error
}

// Transport replays scripts in order, one per round trip, and records every
// request it saw. Safe for concurrent use.
type Transport struct {
	clock clock.Clock

	mu       sync.Mutex
	scripts  []Script
	requests []transport.Request
}

func New(clk clock.Clock, scripts ...Script) *Transport {
	return &Transport{clock: clk, scripts: scripts}
}

// Append queues more scripts behind the remaining ones.
func (t *Transport) Append(scripts ...Script) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scripts = append(t.scripts, scripts...)
}

// Requests returns a snapshot of every recorded request, in arrival order.
func (t *Transport) Requests() []transport.Request {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make([]transport.Request, len(t.requests))
	copy(snapshot, t.requests)
	return snapshot
}

func (t *Transport) RoundTrip(_ context.Context, req *transport.Request) (*transport.Response, error) {
	t.mu.Lock()

	record := *req
	record.Headers = req.Headers.Clone()
	record.Body = append([]byte(nil), req.Body...)
	t.requests = append(t.requests, record)

	if len(t.scripts) == 0 {
		t.mu.Unlock()
		return nil, errors.Errorf("no script for %s %s", req.Method, req.Path)
	}
	script := t.scripts[0]
	t.scripts = t.scripts[1:]
	t.mu.Unlock()

	if script.Err != nil {
		return nil, script.Err
	}

	return &transport.Response{
		StatusCode: script.Status,
		Headers:    header.New(script.Headers),
		Body: &chunkReader{
			clock:  t.clock,
			delay:  script.Delay,
			chunks: script.Chunks,
		},
	}, nil
}

// chunkReader hands out one scripted chunk per Read call, never more, so
// chunk boundaries survive into the consumer.
type chunkReader struct {
	clock  clock.Clock
	delay  time.Duration
	chunks [][]byte
	cur    []byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.cur) == 0 {
		if len(r.chunks) == 0 {
			return 0, io.EOF
		}
		if r.delay > 0 {
			r.clock.Sleep(r.delay)
		}
		r.cur = r.chunks[0]
		r.chunks = r.chunks[1:]
	}

	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}

func (r *chunkReader) Close() error { return nil }

// Func adapts a bare function into a Transport, for tests that need custom
// behavior per round trip.
type Func func(ctx context.Context, req *transport.Request) (*transport.Response, error)

func (f Func) RoundTrip(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	return f(ctx, req)
}

// Respond builds a single-chunk response for use inside [Func] bodies.
func Respond(status int, headers map[string][]string, body []byte) *transport.Response {
	return &transport.Response{
		StatusCode: status,
		Headers:    header.New(headers),
		Body:       &chunkReader{chunks: [][]byte{body}},
	}
}
