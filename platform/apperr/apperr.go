// Package apperr defines the typed errors services return. The HTTP layer
// turns a Kind into a status code; everything else is an internal error.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for HTTP mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindBadRequest
	// KindRateLimited means the caller, or an upstream on its behalf, is over quota.
	KindRateLimited
	// KindUnavailable means a dependency such as the lookup provider or the
	// record store could not serve the request.
	KindUnavailable
	KindInternal
)

var kindInfo = map[Kind]struct {
	name   string
	status int
}{
	KindUnknown:     {"unknown", http.StatusBadRequest},
	KindNotFound:    {"not_found", http.StatusNotFound},
	KindValidation:  {"validation", http.StatusBadRequest},
	KindConflict:    {"conflict", http.StatusConflict},
	KindBadRequest:  {"bad_request", http.StatusBadRequest},
	KindRateLimited: {"rate_limited", http.StatusTooManyRequests},
	KindUnavailable: {"unavailable", http.StatusBadGateway},
	KindInternal:    {"internal", http.StatusInternalServerError},
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return kindInfo[KindUnknown].name
}

// Error is a classified error with a user-safe Message.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
	Details any
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the response status for the error's kind.
func (e *Error) HTTPStatus() int {
	if info, ok := kindInfo[e.Kind]; ok {
		return info.status
	}
	return http.StatusBadRequest
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err. The cause stays reachable through errors.Is and As
// but is never shown to clients.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func NotFound(message string) *Error    { return New(KindNotFound, message) }
func Validation(message string) *Error  { return New(KindValidation, message) }
func Conflict(message string) *Error    { return New(KindConflict, message) }
func BadRequest(message string) *Error  { return New(KindBadRequest, message) }
func RateLimited(message string) *Error { return New(KindRateLimited, message) }
func Unavailable(message string) *Error { return New(KindUnavailable, message) }
func Internal(message string) *Error    { return New(KindInternal, message) }

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetKind returns the kind of the first *Error in err's chain, or KindUnknown.
func GetKind(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// UserMessage returns the Message of a classified error, or err.Error()
// for anything else.
func UserMessage(err error) string {
	if e, ok := As(err); ok && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
