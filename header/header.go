// Package header provides an order-agnostic, case-insensitive header map.
//
// Field names are stored in canonical form ("Content-Type") so lookups cost
// a single map access regardless of the caller's casing. Values are kept
// verbatim.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110#section-5
package header

// Headers maps canonical field names to their values.
//
// The zero value is safe to use; mutating methods allocate on demand.
type Headers struct{ underlying map[string][]string }

// New clones initial into a Headers, canonicalizing every field name.
func New(initial map[string][]string) Headers {
	clone := make(map[string][]string, len(initial))
	for k, v := range initial {
		slice := make([]string, len(v))
		copy(slice, v)

		clone[canonical(k)] = slice
	}

	return Headers{underlying: clone}
}

// Get assumes the field is a singleton field.
// Even if the key has multiple values, only the first one is returned.
// For list-based fields, use [Headers.Values].
func (h *Headers) Get(key string) (value string, ok bool) {
	v, ok := h.underlying[canonical(key)]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (h *Headers) Values(key string) (values []string, ok bool) {
	values, ok = h.underlying[canonical(key)]
	return
}

// Set assumes the field is a singleton field.
// It overwrites existing values instead of appending to them.
// For list-based fields, use [Headers.Add].
func (h *Headers) Set(key, value string) {
	h.ensure()
	h.underlying[canonical(key)] = []string{value}
}

func (h *Headers) Add(key, value string) {
	h.ensure()
	key = canonical(key)
	h.underlying[key] = append(h.underlying[key], value)
}

func (h *Headers) Del(key string) {
	delete(h.underlying, canonical(key))
}

// Fields returns all the key-values in the header as a deep clone.
func (h *Headers) Fields() (fields map[string][]string) {
	clone := make(map[string][]string, len(h.underlying))
	for k, v := range h.underlying {
		sliceClone := make([]string, len(v))
		copy(sliceClone, v)

		clone[k] = sliceClone
	}

	return clone
}

// Clone returns an independent copy. Mutating either side afterwards leaves
// the other untouched.
func (h *Headers) Clone() Headers {
	return Headers{underlying: h.Fields()}
}

func (h *Headers) Len() int { return len(h.underlying) }

func (h *Headers) ensure() {
	if h.underlying == nil {
		h.underlying = make(map[string][]string)
	}
}

func canonical(s string) string {
	if isValidToken(s) {
		s = toCanonicalFieldName(s)
	}
	return s
}

// This only works for a valid token.
func toCanonicalFieldName(s string) string {
	const capitalDiff = 'a' - 'A'
	b := []byte(s)
	upper := true
	for i, c := range b {
		if upper && 'a' <= c && c <= 'z' {
			c -= capitalDiff
		} else if !upper && 'A' <= c && c <= 'Z' {
			c += capitalDiff
		}
		b[i] = c
		upper = c == '-'
	}
	return string(b)
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2
func isValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isTokenChar(s[i]) {
			return false
		}
	}
	return true
}

func isTokenChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
