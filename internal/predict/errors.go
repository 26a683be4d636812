package predict

import (
	"errors"
	"fmt"
)

// RequestError is a non-success HTTP response from the prediction backend.
// Detail holds the backend's detail string, if it sent one.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("prediction request failed: status=%d", e.Status)
}

// NetworkError means no response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return "prediction request failed"
	}
	return "prediction request failed: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError is a 2xx response that cannot be rendered.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	msg := "malformed prediction response"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Kind classifies err for logs and metrics.
func Kind(err error) string {
	var (
		reqErr *RequestError
		netErr *NetworkError
		badErr *MalformedResponseError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &reqErr):
		return "request"
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &badErr):
		return "malformed"
	default:
		return "unknown"
	}
}
