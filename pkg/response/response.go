package response

import (
	"errors"
)

// Error is an API error carrying the HTTP status to answer with and a stable
// machine readable reason such as INVALID_TEXT.
type Error struct {
	Code   int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Reason == t.Reason
}

// WithMessage returns a copy of the error with a request specific message.
// The copy still matches the original with errors.Is.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Reason: e.Reason, Err: errors.New(msg)}
}

func NewError(code int, reason string, msg string) *Error {
	return &Error{Code: code, Reason: reason, Err: errors.New(msg)}
}

// Body is the JSON envelope for API errors: {"error": {"code", "message"}}.
type Body struct {
	Error Detail `json:"error"`
}

type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	TraceID string `json:"traceId,omitempty"`
}

func NewBody(reason, message string) Body {
	return Body{Error: Detail{Code: reason, Message: message}}
}
