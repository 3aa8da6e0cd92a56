package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// NetworkError means the request never produced an HTTP response: the
// server was unreachable, the connection dropped or the context ended.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is an error envelope returned by the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	Details   json.RawMessage
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

// Conflict reports whether the server refused a stale or invalid transition.
// Details then carries the evaluation as the server holds it.
func (e *APIError) Conflict() bool {
	return e.Status == http.StatusConflict
}

func IsNetwork(err error) bool {
	var nErr *NetworkError
	return errors.As(err, &nErr)
}

// AsAPIError returns the *APIError inside err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var aErr *APIError
	if errors.As(err, &aErr) {
		return aErr, true
	}
	return nil, false
}
