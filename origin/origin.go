// Package origin describes the fixed target a client is bound to: scheme,
// host, port, and the base path prepended to every request path.
package origin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

var ErrUnsupportedScheme = errors.New("scheme must be http or https")

// Origin is immutable once parsed; all client requests resolve against it.
type Origin struct {
	Scheme   string
	Host     string
	Port     uint16
	BasePath string
}

// Parse reads an origin of the form "scheme://host[:port][/basepath]".
//
// The scheme decides the default port (80/443) when none is given. Query
// and fragment parts are rejected: an origin names where requests go, not a
// full URL. IPv6 hosts must be bracketed.
func Parse(raw string) (Origin, error) {
	scheme, rest, found := strings.Cut(raw, "://")
	if !found {
		return Origin{}, errors.Errorf("%q is missing a scheme", raw)
	}

	scheme = strings.ToLower(scheme)
	if scheme != SchemeHTTP && scheme != SchemeHTTPS {
		return Origin{}, errors.Wrapf(ErrUnsupportedScheme, "got %q", scheme)
	}

	if strings.ContainsAny(rest, "?#") {
		return Origin{}, errors.New("origin must not carry a query or fragment")
	}

	authority, basePath := rest, "/"
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		authority, basePath = rest[:idx], rest[idx:]
	}

	if strings.Contains(authority, "@") {
		return Origin{}, errors.New("origin must not carry user information")
	}

	host, portPart, err := splitHostPort(authority)
	if err != nil {
		return Origin{}, errors.Wrap(err, "parsing host")
	}

	port := DefaultPort(scheme)
	if portPart != "" {
		if port, err = parsePort(portPart); err != nil {
			return Origin{}, errors.Wrap(err, "parsing port")
		}
	}

	return Origin{
		Scheme:   scheme,
		Host:     strings.ToLower(host),
		Port:     port,
		BasePath: basePath,
	}, nil
}

// DefaultPort returns the conventional port for scheme, or 0 when the
// scheme has none.
func DefaultPort(scheme string) uint16 {
	switch scheme {
	case SchemeHTTP:
		return 80
	case SchemeHTTPS:
		return 443
	}
	return 0
}

// RequestPath joins path onto the base path by plain concatenation. No
// separator is inserted or deduplicated; callers control the exact shape.
func (o Origin) RequestPath(path string) string {
	return o.BasePath + path
}

func (o Origin) String() string {
	s := fmt.Sprintf("%s://%s:%d", o.Scheme, o.Host, o.Port)
	if o.BasePath != "/" {
		s += o.BasePath
	}
	return s
}

func splitHostPort(raw string) (host, portPart string, err error) {
	if strings.HasPrefix(raw, "[") {
		// IP literal.
		idx := strings.LastIndex(raw, "]")
		if idx < 0 {
			return "", "", errors.New("missing ']' in IP literal")
		}

		host = raw[:idx+1]
		portPart = raw[idx+1:]
	} else {
		host = raw
		if idx := strings.LastIndex(raw, ":"); idx >= 0 {
			host = raw[:idx]
			portPart = raw[idx:]
		}

		if strings.Contains(host, ":") {
			return "", "", errors.New("IPv6 host must be bracketed")
		}
	}

	if host == "" {
		return "", "", errors.New("host is empty")
	}

	return host, portPart, nil
}

func parsePort(s string) (port uint16, err error) {
	if s[0] != ':' {
		return 0, errors.New("colon delimiter not found on port")
	}

	s = s[1:]

	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, errors.Wrap(err, "failed to parse uint")
	}

	if n == 0 {
		return 0, errors.New("port must be positive")
	}

	if s[0] == '0' {
		return 0, errors.New("port has leading zero")
	}

	return uint16(n), nil
}
