package weberr

import (
	"net/http"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const (
	MsgNotFound        = "Endpoint not found"
	MsgInternal        = "Internal server error"
	MsgTooManyRequests = "Too many requests from this IP, please try again later."
)

type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

func NewError(err error, msg string, status int, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		&ErrorResponse{Message: msg},
		status,
	))

	return Wrap(e, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(err, MsgNotFound, http.StatusNotFound, opts...)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(err, MsgInternal, http.StatusInternalServerError, opts...)
}

// BadRequest carries a message meant for the client, usually naming the bad input.
func BadRequest(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusBadRequest, opts...)
}

func TooManyRequests(err error, opts ...Opt) error {
	return NewError(err, MsgTooManyRequests, http.StatusTooManyRequests, opts...)
}
