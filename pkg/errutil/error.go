package errutil

import (
	"errors"
	"fmt"
	"net/http"
)

type CoreStatus string

const (
	StatusBadRequest  CoreStatus = "BAD_REQUEST"
	StatusNotFound    CoreStatus = "NOT_FOUND"
	StatusConflict    CoreStatus = "CONFLICT"
	StatusUnavailable CoreStatus = "UNAVAILABLE"
	StatusInternal    CoreStatus = "INTERNAL"
)

type BaseError struct {
	Code    CoreStatus `json:"code"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
}

func (e BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e BaseError) Unwrap() error {
	return e.Err
}

func (e BaseError) JSON() interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":    e.Code,
			"message": e.Message,
		},
	}
}

type Option func(*BaseError)

func WithErr(err error) Option {
	return func(be *BaseError) { be.Err = err }
}

func New(code CoreStatus, message string, opts ...Option) error {
	be := BaseError{Code: code, Message: message}
	for _, opt := range opts {
		opt(&be)
	}
	return be
}

func BadRequest(message string, opts ...Option) error {
	return New(StatusBadRequest, message, opts...)
}

func NotFound(message string, opts ...Option) error {
	return New(StatusNotFound, message, opts...)
}

func Unavailable(message string, opts ...Option) error {
	return New(StatusUnavailable, message, opts...)
}

func Internal(message string, opts ...Option) error {
	return New(StatusInternal, message, opts...)
}

// HTTPStatus maps a domain error onto the closest HTTP status code.
func HTTPStatus(err error) int {
	var be BaseError
	if !errors.As(err, &be) {
		return http.StatusInternalServerError
	}
	switch be.Code {
	case StatusBadRequest:
		return http.StatusBadRequest
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	case StatusUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
