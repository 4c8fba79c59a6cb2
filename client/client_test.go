package client

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"

	"restbound/header"
	"restbound/media"
	"restbound/origin"
	"restbound/status"
	"restbound/transport"
	"restbound/transport/transporttest"
)

type ClientTestSuite struct {
	suite.Suite

	transport *transporttest.Transport
	clock     *clock.Mock
	client    *Client
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	// Chunk delays in scripts use real time; the mock clock only drives
	// the client's duration measurement.
	s.transport = transporttest.New(clock.New())
	s.clock = clock.NewMock()

	s.client = s.newClient(Options{})
}

func (s *ClientTestSuite) TearDownTest() {
	goleak.VerifyNone(s.T())
}

func (s *ClientTestSuite) newClient(opts Options) *Client {
	if opts.Transport == nil {
		opts.Transport = s.transport
	}
	if opts.Clock == nil {
		opts.Clock = s.clock
	}

	client, err := New("https://api.example.com:8443/v2", opts)
	s.Require().NoError(err)
	return client
}

func (s *ClientTestSuite) TestGetJSON() {
	s.transport.Append(transporttest.Script{
		Status:  200,
		Headers: map[string][]string{"Content-Type": {"application/json; charset=utf-8"}},
		Chunks:  [][]byte{[]byte(`{"name":`), []byte(`"box"}`)},
	})

	outcome, err := s.client.Get(context.Background(), "/users", nil)
	s.Require().NoError(err)

	s.Equal(200, outcome.Status.Code)
	s.Equal("OK", outcome.Status.ReasonPhrase)
	s.Equal(status.CategorySuccess, outcome.Category)
	s.Equal(media.TypeJSON, outcome.MediaType)

	decoded, ok := outcome.JSON()
	s.Require().True(ok)
	s.Equal(map[string]any{"name": "box"}, decoded)

	requests := s.transport.Requests()
	s.Require().Len(requests, 1)
	s.Equal("GET", requests[0].Method)
	s.Equal("https", requests[0].Scheme)
	s.Equal("api.example.com", requests[0].Host)
	s.Equal(uint16(8443), requests[0].Port)
	s.Equal("/v2/users", requests[0].Path)
}

func (s *ClientTestSuite) TestGetAppendsQuery() {
	s.transport.Append(transporttest.Script{Status: 200})

	_, err := s.client.Get(context.Background(), "/search", url.Values{
		"q":    {"a b"},
		"page": {"2"},
	})
	s.Require().NoError(err)

	requests := s.transport.Requests()
	s.Require().Len(requests, 1)
	s.Equal("/v2/search?page=2&q=a+b", requests[0].Path)
}

func (s *ClientTestSuite) TestPostObjectDefaultsToJSON() {
	s.transport.Append(transporttest.Script{Status: 201})

	_, err := s.client.Post(context.Background(), "/users", Object{
		Value: map[string]any{"name": "box"},
	})
	s.Require().NoError(err)

	requests := s.transport.Requests()
	s.Require().Len(requests, 1)
	s.Equal([]byte(`{"name":"box"}`), requests[0].Body)

	contentType, ok := requests[0].Headers.Get("Content-Type")
	s.Require().True(ok)
	s.Equal(media.TypeJSON, contentType)

	contentLength, ok := requests[0].Headers.Get("Content-Length")
	s.Require().True(ok)
	s.Equal("14", contentLength)
}

func (s *ClientTestSuite) TestPostObjectFormEncoded() {
	s.transport.Append(transporttest.Script{Status: 200})

	_, err := s.client.Do(context.Background(), Request{
		Method:  MethodPost,
		Path:    "/login",
		Headers: header.New(map[string][]string{"Content-Type": {media.TypeForm}}),
		Body:    Object{Value: map[string]string{"user": "bob", "pass": "s3cret"}},
	})
	s.Require().NoError(err)

	requests := s.transport.Requests()
	s.Require().Len(requests, 1)
	s.Equal("pass=s3cret&user=bob", string(requests[0].Body))
}

func (s *ClientTestSuite) TestPostObjectUnsupportedContentType() {
	_, err := s.client.Do(context.Background(), Request{
		Method:  MethodPost,
		Path:    "/things",
		Headers: header.New(map[string][]string{"Content-Type": {"application/xml"}}),
		Body:    Object{Value: map[string]any{"a": 1}},
	})

	s.Require().Error(err)
	s.True(errors.Is(err, ErrUnsupportedBodyType))
	s.Empty(s.transport.Requests(), "transport must not be reached")
}

func (s *ClientTestSuite) TestUnsupportedMethod() {
	_, err := s.client.Do(context.Background(), Request{Method: "BREW", Path: "/coffee"})

	s.Require().Error(err)
	s.True(errors.Is(err, ErrUnsupportedMethod))
	s.Empty(s.transport.Requests())
}

func (s *ClientTestSuite) TestMethodCaseNormalized() {
	s.transport.Append(transporttest.Script{Status: 200})

	_, err := s.client.Do(context.Background(), Request{Method: "delete", Path: "/users/1"})
	s.Require().NoError(err)

	requests := s.transport.Requests()
	s.Require().Len(requests, 1)
	s.Equal("DELETE", requests[0].Method)
}

func (s *ClientTestSuite) TestNoContent() {
	// A perverse server sending bytes on a 204 still yields an absent body.
	s.transport.Append(transporttest.Script{
		Status:  204,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Chunks:  [][]byte{[]byte("junk")},
	})

	outcome, err := s.client.Delete(context.Background(), "/users/1")
	s.Require().NoError(err)

	s.Equal(status.CategoryNoContent, outcome.Category)
	s.False(outcome.HasBody())
	_, ok := outcome.JSON()
	s.False(ok)
}

func (s *ClientTestSuite) TestHeadForcesAbsentBody() {
	s.transport.Append(transporttest.Script{
		Status:  200,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Chunks:  [][]byte{[]byte(`{}`)},
	})

	outcome, err := s.client.Head(context.Background(), "/users", nil)
	s.Require().NoError(err)
	s.False(outcome.HasBody())
}

func (s *ClientTestSuite) TestHeadSkipsRequestBody() {
	s.transport.Append(transporttest.Script{Status: 200})

	_, err := s.client.Do(context.Background(), Request{
		Method: MethodHead,
		Path:   "/users",
		Body:   Text("ignored"),
	})
	s.Require().NoError(err)

	requests := s.transport.Requests()
	s.Require().Len(requests, 1)
	s.Empty(requests[0].Body)
	_, ok := requests[0].Headers.Get("Content-Length")
	s.False(ok)
}

func (s *ClientTestSuite) TestTextBody() {
	s.transport.Append(transporttest.Script{
		Status:  200,
		Headers: map[string][]string{"Content-Type": {"text/plain; charset=utf-8"}},
		Chunks:  [][]byte{[]byte("hel"), []byte("lo")},
	})

	outcome, err := s.client.Get(context.Background(), "/greeting", nil)
	s.Require().NoError(err)

	s.Equal("text/plain", outcome.MediaType)
	text, ok := outcome.Text()
	s.Require().True(ok)
	s.Equal("hello", text)
}

func (s *ClientTestSuite) TestXMLSuffixIsTextual() {
	s.transport.Append(transporttest.Script{
		Status:  200,
		Headers: map[string][]string{"Content-Type": {"image/svg+xml"}},
		Chunks:  [][]byte{[]byte("<svg/>")},
	})

	outcome, err := s.client.Get(context.Background(), "/logo.svg", nil)
	s.Require().NoError(err)

	text, ok := outcome.Text()
	s.Require().True(ok)
	s.Equal("<svg/>", text)
}

func (s *ClientTestSuite) TestRawBody() {
	payload := []byte{0x1f, 0x8b, 0x00, 0xff}
	s.transport.Append(transporttest.Script{
		Status:  200,
		Headers: map[string][]string{"Content-Type": {"application/octet-stream"}},
		Chunks:  [][]byte{payload[:2], payload[2:]},
	})

	outcome, err := s.client.Get(context.Background(), "/blob", nil)
	s.Require().NoError(err)

	raw, ok := outcome.Bytes()
	s.Require().True(ok)
	s.Equal(payload, raw)
}

func (s *ClientTestSuite) TestMissingContentTypeIsRaw() {
	s.transport.Append(transporttest.Script{
		Status: 200,
		Chunks: [][]byte{[]byte("whatever")},
	})

	outcome, err := s.client.Get(context.Background(), "/thing", nil)
	s.Require().NoError(err)

	s.Equal("", outcome.MediaType)
	raw, ok := outcome.Bytes()
	s.Require().True(ok)
	s.Equal("whatever", string(raw))
}

func (s *ClientTestSuite) TestServerErrorWithExtractedMessage() {
	s.transport.Append(transporttest.Script{
		Status:  401,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Chunks:  [][]byte{[]byte(`{"error":{"message":"bad token"}}`)},
	})

	outcome, err := s.client.Get(context.Background(), "/users", nil)
	s.Require().Error(err)
	s.Nil(outcome)

	var statusErr *status.Error
	s.Require().True(errors.As(err, &statusErr))
	s.Equal(401, statusErr.Status.Code)
	s.Equal("[GET https://api.example.com:8443 /v2/users] bad token", statusErr.Message)
}

func (s *ClientTestSuite) TestServerErrorGenericMessage() {
	s.transport.Append(transporttest.Script{Status: 503})

	_, err := s.client.Get(context.Background(), "/users", nil)

	var statusErr *status.Error
	s.Require().True(errors.As(err, &statusErr))
	s.Equal("[GET https://api.example.com:8443 /v2/users] Service Unavailable", statusErr.Message)
}

func (s *ClientTestSuite) TestServerErrorUnknownCodeFallback() {
	s.transport.Append(transporttest.Script{Status: 599})

	_, err := s.client.Get(context.Background(), "/users", nil)

	var statusErr *status.Error
	s.Require().True(errors.As(err, &statusErr))
	s.Equal(599, statusErr.Status.Code)
	s.Equal("[GET https://api.example.com:8443 /v2/users] request failed", statusErr.Message)
}

func (s *ClientTestSuite) TestServerErrorExtractionPrecedence() {
	s.transport.Append(transporttest.Script{
		Status:  400,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Chunks: [][]byte{[]byte(
			`{"error_description":"first line\nsecond line","error":{"message":"later"}}`,
		)},
	})

	_, err := s.client.Get(context.Background(), "/users", nil)

	var statusErr *status.Error
	s.Require().True(errors.As(err, &statusErr))
	s.Equal("[GET https://api.example.com:8443 /v2/users] first line", statusErr.Message)
}

func (s *ClientTestSuite) TestParseFailureWinsOverServerError() {
	s.transport.Append(transporttest.Script{
		Status:  500,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Chunks:  [][]byte{[]byte("<html>oops</html>")},
	})

	_, err := s.client.Get(context.Background(), "/users", nil)
	s.Require().Error(err)

	var parseErr *ParseError
	s.True(errors.As(err, &parseErr))
	var statusErr *status.Error
	s.False(errors.As(err, &statusErr))
}

func (s *ClientTestSuite) TestEmptyDeclaredJSONBodyIsParseFailure() {
	s.transport.Append(transporttest.Script{
		Status:  200,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
	})

	_, err := s.client.Get(context.Background(), "/users", nil)

	var parseErr *ParseError
	s.Require().True(errors.As(err, &parseErr))
}

func (s *ClientTestSuite) TestJSONNullBody() {
	s.transport.Append(transporttest.Script{
		Status:  200,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Chunks:  [][]byte{[]byte("null")},
	})

	outcome, err := s.client.Get(context.Background(), "/users", nil)
	s.Require().NoError(err)

	s.True(outcome.HasBody())
	decoded, ok := outcome.JSON()
	s.Require().True(ok)
	s.Nil(decoded)
}

func (s *ClientTestSuite) TestTransportFailure() {
	cause := errors.New("connection refused")
	s.transport.Append(transporttest.Script{Err: cause})

	outcome, err := s.client.Get(context.Background(), "/users", nil)
	s.Require().Error(err)
	s.Nil(outcome)

	var transportErr *TransportError
	s.Require().True(errors.As(err, &transportErr))
	s.True(errors.Is(err, cause))
}

func (s *ClientTestSuite) TestBodyStreamFailure() {
	streamErr := errors.New("stream reset")
	tr := transporttest.Func(func(context.Context, *transport.Request) (*transport.Response, error) {
		res := transporttest.Respond(200, nil, []byte("partial"))
		res.Body = &failingBody{data: []byte("par"), err: streamErr}
		return res, nil
	})

	client := s.newClient(Options{Transport: tr})

	_, err := client.Get(context.Background(), "/users", nil)
	s.Require().Error(err)

	var transportErr *TransportError
	s.Require().True(errors.As(err, &transportErr))
	s.True(errors.Is(err, streamErr))
}

func (s *ClientTestSuite) TestDecorators() {
	s.transport.Append(transporttest.Script{Status: 200})

	client := s.newClient(Options{
		Decorate: []HeaderDecorator{
			StaticHeaders(map[string]string{"Accept": media.TypeJSON}),
			BearerAuth("t0ken"),
			RequestID(),
		},
	})

	_, err := client.Get(context.Background(), "/users", nil)
	s.Require().NoError(err)

	requests := s.transport.Requests()
	s.Require().Len(requests, 1)
	headers := requests[0].Headers

	accept, _ := headers.Get("Accept")
	s.Equal(media.TypeJSON, accept)

	auth, _ := headers.Get("Authorization")
	s.Equal("Bearer t0ken", auth)

	requestID, ok := headers.Get("X-Request-Id")
	s.Require().True(ok)
	_, err = uuid.Parse(requestID)
	s.NoError(err)
}

func (s *ClientTestSuite) TestDecoratorsRunBeforeSerialization() {
	s.transport.Append(transporttest.Script{Status: 200})

	client := s.newClient(Options{
		Decorate: []HeaderDecorator{
			StaticHeaders(map[string]string{"Content-Type": media.TypeForm}),
		},
	})

	_, err := client.Post(context.Background(), "/login", Object{
		Value: map[string]string{"user": "bob"},
	})
	s.Require().NoError(err)

	requests := s.transport.Requests()
	s.Require().Len(requests, 1)
	s.Equal("user=bob", string(requests[0].Body))
}

func (s *ClientTestSuite) TestCallerHeadersNotMutated() {
	s.transport.Append(transporttest.Script{Status: 200})

	client := s.newClient(Options{
		Decorate: []HeaderDecorator{BearerAuth("t0ken")},
	})

	callerHeaders := header.New(map[string][]string{"Accept": {"text/plain"}})
	_, err := client.Do(context.Background(), Request{
		Method:  MethodGet,
		Path:    "/users",
		Headers: callerHeaders,
	})
	s.Require().NoError(err)

	_, ok := callerHeaders.Get("Authorization")
	s.False(ok, "decorators must work on a clone")
}

func (s *ClientTestSuite) TestExplicitContentLengthPreserved() {
	s.transport.Append(transporttest.Script{Status: 200})

	_, err := s.client.Do(context.Background(), Request{
		Method:  MethodPost,
		Path:    "/upload",
		Headers: header.New(map[string][]string{"Content-Length": {"999"}}),
		Body:    Text("abc"),
	})
	s.Require().NoError(err)

	requests := s.transport.Requests()
	s.Require().Len(requests, 1)
	contentLength, _ := requests[0].Headers.Get("Content-Length")
	s.Equal("999", contentLength)
}

func (s *ClientTestSuite) TestTransportOptionsForwarded() {
	s.transport.Append(transporttest.Script{Status: 200})

	opts := transport.Options{
		Timeout:          5 * time.Second,
		TLSInsecure:      true,
		MaxResponseBytes: 1 << 20,
	}
	client := s.newClient(Options{TransportOptions: opts})

	_, err := client.Get(context.Background(), "/users", nil)
	s.Require().NoError(err)

	requests := s.transport.Requests()
	s.Require().Len(requests, 1)
	s.Equal(opts, requests[0].Options)
}

func (s *ClientTestSuite) TestDuration() {
	advance := 150 * time.Millisecond
	tr := transporttest.Func(func(context.Context, *transport.Request) (*transport.Response, error) {
		s.clock.Add(advance)
		return transporttest.Respond(200, nil, nil), nil
	})

	client := s.newClient(Options{Transport: tr})

	outcome, err := client.Get(context.Background(), "/users", nil)
	s.Require().NoError(err)
	s.Equal(advance, outcome.Duration)
}

func (s *ClientTestSuite) TestLimiterRejection() {
	// Zero burst can never admit a request.
	client := s.newClient(Options{Limiter: rate.NewLimiter(rate.Limit(1), 0)})

	_, err := client.Get(context.Background(), "/users", nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "rate limiter")
	s.Empty(s.transport.Requests())
}

func (s *ClientTestSuite) TestLimiterAdmission() {
	s.transport.Append(transporttest.Script{Status: 200})

	client := s.newClient(Options{Limiter: rate.NewLimiter(rate.Inf, 1)})

	_, err := client.Get(context.Background(), "/users", nil)
	s.NoError(err)
}

func (s *ClientTestSuite) TestConcurrentOutcomesStayIsolated() {
	const n = 4

	expected := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		body := "body-" + string(rune('0'+i))
		expected[body] = struct{}{}
		s.transport.Append(transporttest.Script{
			Status:  200,
			Headers: map[string][]string{"Content-Type": {"text/plain"}},
			Chunks:  [][]byte{[]byte("body-"), {byte('0' + i)}},
			Delay:   5 * time.Millisecond,
		})
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	got := make(map[string]struct{}, n)

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()

			outcome, err := s.client.Get(context.Background(), "/chunked", nil)
			if !s.NoError(err) {
				return
			}

			text, ok := outcome.Text()
			if !s.True(ok) {
				return
			}

			mu.Lock()
			got[text] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Interleaved chunk delivery must never blend buffers across calls.
	s.Equal(expected, got)
	s.Len(s.transport.Requests(), n)
}

func (s *ClientTestSuite) TestNewInvalidOrigin() {
	_, err := New("ftp://example.com", Options{})
	s.Require().Error(err)
	s.True(errors.Is(err, origin.ErrUnsupportedScheme))
}

func (s *ClientTestSuite) TestOriginAccessor() {
	o := s.client.Origin()
	s.Equal("api.example.com", o.Host)
	s.Equal("/v2", o.BasePath)
}

func (s *ClientTestSuite) TestCloseDelegates() {
	closed := false
	client := s.newClient(Options{Transport: &closableTransport{closed: &closed}})

	s.Require().NoError(client.Close())
	s.True(closed)
}

type failingBody struct {
	data []byte
	err  error
}

func (b *failingBody) Read(p []byte) (int, error) {
	if len(b.data) == 0 {
		return 0, b.err
	}
	n := copy(p, b.data)
	b.data = b.data[n:]
	return n, nil
}

func (b *failingBody) Close() error { return nil }

type closableTransport struct {
	closed *bool
}

func (t *closableTransport) RoundTrip(context.Context, *transport.Request) (*transport.Response, error) {
	return transporttest.Respond(200, nil, nil), nil
}

func (t *closableTransport) Close() error {
	*t.closed = true
	return nil
}
