package client

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"restbound/header"
)

const (
	MethodGet     = "GET"
	MethodHead    = "HEAD"
	MethodOptions = "OPTIONS"
	MethodTrace   = "TRACE"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodPatch   = "PATCH"
	MethodDelete  = "DELETE"
)

var supportedMethods = map[string]struct{}{
	MethodGet:     {},
	MethodHead:    {},
	MethodOptions: {},
	MethodTrace:   {},
	MethodPost:    {},
	MethodPut:     {},
	MethodPatch:   {},
	MethodDelete:  {},
}

// Request describes one exchange against the client's origin. Path is
// appended to the origin's base path verbatim.
type Request struct {
	Method  string
	Path    string
	Headers header.Headers
	Body    Body
}

// canonicalMethod uppercases method and checks it against the supported
// set.
func canonicalMethod(method string) (string, error) {
	method = strings.ToUpper(method)
	if _, ok := supportedMethods[method]; !ok {
		return "", errors.Wrapf(ErrUnsupportedMethod, "got %q", method)
	}
	return method, nil
}

// AppendQuery form-encodes query onto path, choosing "?" or "&" by whether
// path already carries a query.
func AppendQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return path + separator + query.Encode()
}
