package client

import (
	"time"

	"restbound/header"
	"restbound/status"
)

type BodyKind uint8

const (
	BodyAbsent BodyKind = iota
	BodyJSON
	BodyText
	BodyRaw
)

// Outcome is the resolved result of a non-error exchange: classification
// plus the parsed body, in exactly one representation.
type Outcome struct {
	Status    status.Status
	Category  status.Category
	MediaType string
	Headers   header.Headers
	Duration  time.Duration

	body outcomeBody
}

// outcomeBody is a tagged union; kind selects which field is meaningful.
type outcomeBody struct {
	kind BodyKind
	json any
	text string
	raw  []byte
}

func (o *Outcome) BodyKind() BodyKind { return o.body.kind }

func (o *Outcome) HasBody() bool { return o.body.kind != BodyAbsent }

// JSON returns the decoded body value when the response carried JSON.
// A JSON null body yields (nil, true).
func (o *Outcome) JSON() (any, bool) {
	return o.body.json, o.body.kind == BodyJSON
}

// Text returns the body decoded as a string when the media type was
// textual.
func (o *Outcome) Text() (string, bool) {
	return o.body.text, o.body.kind == BodyText
}

// Bytes returns the unparsed body for media types the pipeline does not
// interpret.
func (o *Outcome) Bytes() ([]byte, bool) {
	return o.body.raw, o.body.kind == BodyRaw
}
