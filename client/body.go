package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"restbound/header"
	"restbound/media"
)

// Body is a tagged request payload. The three variants cover everything the
// pipeline knows how to serialize: pass-through bytes, pass-through text,
// and structured values encoded per the declared Content-Type.
type Body interface{ isBody() }

type Raw []byte

type Text string

// Object is a structured value. With no Content-Type declared it is sent as
// JSON (and the header is set accordingly); with [media.TypeForm] declared
// it is form-encoded; any other declared type fails with
// [ErrUnsupportedBodyType] before the transport is touched.
type Object struct{ Value any }

func (Raw) isBody()    {}
func (Text) isBody()   {}
func (Object) isBody() {}

// serialize resolves body into wire bytes, mutating headers as negotiation
// requires. HEAD never carries a payload, whatever the request says.
func serialize(method string, body Body, headers *header.Headers) ([]byte, error) {
	if body == nil || method == MethodHead {
		return nil, nil
	}

	var payload []byte
	switch b := body.(type) {
	case Raw:
		payload = []byte(b)
	case Text:
		payload = []byte(b)
	case Object:
		declared, ok := headers.Get("Content-Type")
		if !ok {
			declared = media.TypeJSON
			headers.Set("Content-Type", declared)
		}

		var err error
		if payload, err = encodeObject(b.Value, declared); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedBodyType, "body variant %T", body)
	}

	if _, ok := headers.Get("Content-Length"); !ok {
		headers.Set("Content-Length", strconv.Itoa(len(payload)))
	}

	return payload, nil
}

func encodeObject(value any, declared string) ([]byte, error) {
	switch media.RemoveParameters(declared) {
	case media.TypeJSON:
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Wrap(err, "encoding JSON body")
		}
		return payload, nil
	case media.TypeForm:
		encoded, err := formEncode(value)
		if err != nil {
			return nil, err
		}
		return []byte(encoded), nil
	}

	return nil, errors.Wrapf(ErrUnsupportedBodyType, "content type %q", declared)
}

func formEncode(value any) (string, error) {
	switch v := value.(type) {
	case url.Values:
		return v.Encode(), nil
	case map[string][]string:
		return url.Values(v).Encode(), nil
	case map[string]string:
		values := make(url.Values, len(v))
		for k, item := range v {
			values.Set(k, item)
		}
		return values.Encode(), nil
	case map[string]any:
		values := make(url.Values, len(v))
		for k, item := range v {
			values.Set(k, fmt.Sprint(item))
		}
		return values.Encode(), nil
	}

	return "", errors.Wrapf(ErrUnsupportedBodyType, "cannot form-encode %T", value)
}
