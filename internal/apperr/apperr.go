package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure for the HTTP boundary.
type Kind string

const (
	KindBadRequest       Kind = "bad_request"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindMethodNotAllowed Kind = "method_not_allowed"
	KindTooManyRequests  Kind = "too_many_requests"
	KindConfiguration    Kind = "configuration"
	KindOperationFailed  Kind = "operation_failed"
)

// Error is the only error shape handlers render. Message is user-facing;
// Details are merged into the JSON envelope next to "error".
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON error envelope: {"error": message, ...details}.
func (e *Error) Body() map[string]any {
	out := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		out[k] = v
	}
	out["error"] = e.Message
	return out
}

// With returns a copy of e with an extra detail field.
func (e *Error) With(key string, value any) *Error {
	out := *e
	out.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

func newErr(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func BadRequest(msg string) *Error { return newErr(KindBadRequest, msg) }
func Unauthorized(msg string) *Error { return newErr(KindUnauthorized, msg) }
func Forbidden(msg string) *Error { return newErr(KindForbidden, msg) }
func NotFound(msg string) *Error { return newErr(KindNotFound, msg) }
func MethodNotAllowed() *Error { return newErr(KindMethodNotAllowed, "Method not allowed") }
func TooManyRequests(msg string) *Error { return newErr(KindTooManyRequests, msg) }
func Configuration(msg string) *Error { return newErr(KindConfiguration, msg) }

// OperationFailed wraps a downstream failure; its message is passed through
// to the client under "message" for diagnostics.
func OperationFailed(msg string, err error) *Error {
	e := &Error{Kind: KindOperationFailed, Message: msg, Err: err}
	if err != nil {
		e.Details = map[string]any{"message": err.Error()}
	}
	return e
}

// As extracts an *Error from err. Unknown errors become OperationFailed.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return OperationFailed("Operation failed", err)
}
