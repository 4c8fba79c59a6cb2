package client

import (
	"github.com/google/uuid"

	"restbound/header"
)

// HeaderDecorator mutates the (already cloned) request headers before body
// serialization. Decorators run in registration order, so later ones see
// earlier ones' writes.
type HeaderDecorator func(h *header.Headers)

// RequestID stamps a fresh UUID into X-Request-Id unless the request
// already set one.
func RequestID() HeaderDecorator {
	return func(h *header.Headers) {
		if _, ok := h.Get("X-Request-Id"); ok {
			return
		}
		h.Set("X-Request-Id", uuid.NewString())
	}
}

// BearerAuth sets the Authorization header on every request, overriding
// whatever the request carried.
func BearerAuth(token string) HeaderDecorator {
	return func(h *header.Headers) {
		h.Set("Authorization", "Bearer "+token)
	}
}

// StaticHeaders fills defaults for fields the request left unset.
func StaticHeaders(defaults map[string]string) HeaderDecorator {
	return func(h *header.Headers) {
		for name, value := range defaults {
			if _, ok := h.Get(name); !ok {
				h.Set(name, value)
			}
		}
	}
}
