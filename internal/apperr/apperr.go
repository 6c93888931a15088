// Package apperr defines the error taxonomy surfaced to API clients.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindServerFailed Kind = iota
	KindBadRequest
	KindNotFound
	KindInvalidCredential
	KindInvalidToken
	KindUnauthorized
	KindConflict
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindInvalidToken:
		return "invalid_token"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "server_failed"
	}
}

// HTTPStatus maps a kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindBadRequest, KindInvalidCredential, KindInvalidToken:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

const (
	StatusFail  = "fail"
	StatusError = "error"
)

// Status is the coarse discriminator clients see: "fail" for client faults,
// "error" for server faults.
func (k Kind) Status() string {
	if k.HTTPStatus() >= http.StatusInternalServerError {
		return StatusError
	}
	return StatusFail
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Wrap(kind Kind, msg string, err error) *Error { return &Error{Kind: kind, Message: msg, Err: err} }

func BadRequest(msg string) *Error        { return New(KindBadRequest, msg) }
func NotFound(msg string) *Error          { return New(KindNotFound, msg) }
func InvalidCredential(msg string) *Error { return New(KindInvalidCredential, msg) }
func InvalidToken(msg string) *Error      { return New(KindInvalidToken, msg) }
func Unauthorized(msg string) *Error      { return New(KindUnauthorized, msg) }
func Conflict(msg string) *Error          { return New(KindConflict, msg) }
func RateLimited(msg string) *Error       { return New(KindRateLimited, msg) }

func ServerFailed(err error) *Error {
	return Wrap(KindServerFailed, "Internal server error.", err)
}

// As extracts an *Error from err. Anything else becomes ServerFailed so the
// original message never reaches the client.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return ServerFailed(err)
}

// Body is the JSON shape of every error response.
type Body struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func (e *Error) Body() Body {
	return Body{Error: e.Message, Status: e.Kind.Status()}
}
