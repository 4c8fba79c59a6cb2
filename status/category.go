package status

type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryInformational
	CategorySuccess
	CategoryNoContent
	CategoryRedirection
	CategoryClientError
	CategoryServerError
)

// Classify buckets a status code. 204 and 304 form their own "no content"
// category since they forbid a response body regardless of headers.
func Classify(code int) Category {
	switch {
	case code == 204 || code == 304:
		return CategoryNoContent
	case 100 <= code && code < 200:
		return CategoryInformational
	case 200 <= code && code < 300:
		return CategorySuccess
	case 300 <= code && code < 400:
		return CategoryRedirection
	case 400 <= code && code < 500:
		return CategoryClientError
	case 500 <= code && code < 600:
		return CategoryServerError
	}
	return CategoryUnknown
}

// IsError reports whether the category is a client or server error, the two
// buckets the pipeline turns into an [Error].
func (c Category) IsError() bool {
	return c == CategoryClientError || c == CategoryServerError
}

func (c Category) String() string {
	switch c {
	case CategoryInformational:
		return "informational"
	case CategorySuccess:
		return "success"
	case CategoryNoContent:
		return "no content"
	case CategoryRedirection:
		return "redirection"
	case CategoryClientError:
		return "client error"
	case CategoryServerError:
		return "server error"
	}
	return "unknown"
}
