package client

import "github.com/pkg/errors"

var (
	// ErrUnsupportedBodyType rejects a structured body whose declared
	// Content-Type the pipeline cannot serialize. Raised before any
	// transport activity.
	ErrUnsupportedBodyType = errors.New("unsupported body content type")

	// ErrUnsupportedMethod rejects request methods outside the supported
	// set.
	ErrUnsupportedMethod = errors.New("unsupported request method")
)

// TransportError reports a failure below HTTP semantics: dial, TLS,
// timeout, or a broken body stream. No response outcome exists.
type TransportError struct{ Err error }

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a response that declared JSON but did not decode.
// It takes precedence over any error the status code alone would imply.
type ParseError struct{ Err error }

func (e *ParseError) Error() string { return "parsing response body: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }
