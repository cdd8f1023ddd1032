package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies failed calls.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindRateLimited  ErrorKind = "rate_limited"
	KindNetwork      ErrorKind = "network"
	KindTimeout      ErrorKind = "timeout"
	KindCanceled     ErrorKind = "canceled"
	KindServer       ErrorKind = "server"
)

// User-facing messages for failures that carry no server message.
const (
	MsgNetwork  = "Unable to reach TourismCam. Check your connection and try again."
	MsgTimeout  = "The request timed out. Please try again."
	MsgServer   = "Something went wrong on our side. Please try again later."
	MsgCanceled = "The request was cancelled."
)

// ErrSessionReset cancels requests that were in flight when the session ended.
var ErrSessionReset = errors.New("client session was reset")

// APIError is the single error type returned by service methods. Status is
// zero when no response arrived.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Code    string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsKind reports whether err is an *APIError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

// statusError builds the error for a non-2xx response body.
func statusError(status int, body []byte) *APIError {
	e := &APIError{Kind: kindForStatus(status), Status: status}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		e.Message, e.Code = eb.Error, eb.Code
	}
	switch {
	case e.Kind == KindServer:
		// 5xx bodies are internal detail; callers show the generic text.
		e.Message = MsgServer
	case e.Message == "":
		e.Message = http.StatusText(status)
	}
	return e
}

// transportError classifies a failure where no response arrived.
func transportError(ctx context.Context, err error) *APIError {
	if errors.Is(context.Cause(ctx), ErrSessionReset) {
		return &APIError{Kind: KindCanceled, Message: MsgCanceled, Err: ErrSessionReset}
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &APIError{Kind: KindTimeout, Message: MsgTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &APIError{Kind: KindCanceled, Message: MsgCanceled, Err: err}
	default:
		return &APIError{Kind: KindNetwork, Message: MsgNetwork, Err: err}
	}
}
