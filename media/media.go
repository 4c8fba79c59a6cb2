// Package media holds the media types the client understands natively and
// helpers for classifying response content types.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110#section-8.3
package media

import "strings"

const (
	TypeJSON = "application/json"
	TypeForm = "application/x-www-form-urlencoded"
)

// RemoveParameters strips everything from the first ";" on, reducing a
// Content-Type value such as "text/html; charset=utf-8" to its bare media
// type. Values without parameters come back unchanged.
func RemoveParameters(contentType string) string {
	bare, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(bare)
}

// IsJSON reports whether mediaType is exactly [TypeJSON]. Callers are
// expected to have stripped parameters first.
func IsJSON(mediaType string) bool { return mediaType == TypeJSON }

// IsTextual reports whether the body under mediaType decodes meaningfully
// into a string: any text/* type, or an XML-suffixed structured syntax
// ("+xml").
func IsTextual(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/") || strings.HasSuffix(mediaType, "+xml")
}
