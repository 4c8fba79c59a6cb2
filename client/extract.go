package client

import "strings"

// MessageExtractor probes a decoded JSON error body for a human-readable
// message. Extractors run in order; the first match wins.
type MessageExtractor func(v any) (message string, ok bool)

// DefaultMessageExtractors covers the common REST error shapes:
// OAuth-style error_description, the {"error": {"message": ...}} envelope,
// and OData's nested variant.
func DefaultMessageExtractors() []MessageExtractor {
	return []MessageExtractor{
		ExtractErrorDescription,
		ExtractErrorMessage,
		ExtractODataMessage,
	}
}

// ExtractErrorDescription reads the top-level error_description field,
// keeping only the text before the first line break.
func ExtractErrorDescription(v any) (string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}

	description, ok := obj["error_description"].(string)
	if !ok || description == "" {
		return "", false
	}

	if idx := strings.IndexAny(description, "\r\n"); idx >= 0 {
		description = description[:idx]
	}
	return description, true
}

// ExtractErrorMessage reads error.message.
func ExtractErrorMessage(v any) (string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}

	inner, ok := obj["error"].(map[string]any)
	if !ok {
		return "", false
	}

	message, ok := inner["message"].(string)
	if !ok || message == "" {
		return "", false
	}
	return message, true
}

// ExtractODataMessage reads odata.error.message.value.
func ExtractODataMessage(v any) (string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}

	inner, ok := obj["odata.error"].(map[string]any)
	if !ok {
		return "", false
	}

	messageObj, ok := inner["message"].(map[string]any)
	if !ok {
		return "", false
	}

	value, ok := messageObj["value"].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
