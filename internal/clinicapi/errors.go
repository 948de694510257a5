package clinicapi

import (
	"errors"
	"fmt"
)

// RequestError is a non-2xx answer from the clinic API.
type RequestError struct {
	Resource string
	Op       string
	Status   int
	// Message is the server-supplied message, empty when the body carried none.
	Message string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("clinicapi: %s %s: status %d", e.Resource, e.Op, e.Status)
	}
	return fmt.Sprintf("clinicapi: %s %s: status %d: %s", e.Resource, e.Op, e.Status, e.Message)
}

// NetworkError means the request never completed.
type NetworkError struct {
	Resource string
	Op       string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("clinicapi: %s %s: request failed: %v", e.Resource, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ErrInvalidConfig is returned by New for unusable settings.
var ErrInvalidConfig = errors.New("clinicapi: invalid config")

// MsgNetworkFailure is shown when the API could not be reached at all.
const MsgNetworkFailure = "Não foi possível conectar ao servidor. Tente novamente."

// UserMessage turns a gateway error into a notice for the operator. A server
// message wins; otherwise fallback (the per-operation default) is used.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Message != "" {
			return reqErr.Message
		}
		return fallback
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return MsgNetworkFailure
	}
	return fallback
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}
