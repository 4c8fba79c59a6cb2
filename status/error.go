package status

import "fmt"

// Error is the failure a server reported through its status code. Message
// holds whatever human-readable detail could be recovered from the response
// body, or a generic fallback.
type Error struct {
	Status  Status
	Message string
}

// NewError builds an Error for code, filling the reason phrase from the
// registry when the code is known.
func NewError(code int, message string) *Error {
	status, _ := FromCode(code)
	return &Error{Status: status, Message: message}
}

func (e *Error) Error() string {
	if e.Status.ReasonPhrase == "" {
		return fmt.Sprintf("%d: %s", e.Status.Code, e.Message)
	}
	return fmt.Sprintf("%d %s: %s", e.Status.Code, e.Status.ReasonPhrase, e.Message)
}
