package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// APIError is a non-2xx response from Jira. FieldErrors maps field keys to
// the server's per-field messages (the "errors" object of the body).
type APIError struct {
	StatusCode  int
	Messages    []string
	FieldErrors map[string]string
	Body        string
}

func (e *APIError) Error() string {
	reason := e.Reason()
	if reason == "" {
		return fmt.Sprintf("API error %d", e.StatusCode)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, reason)
}

// Reason returns a human-readable summary of the error body.
func (e *APIError) Reason() string {
	parts := append([]string(nil), e.Messages...)
	keys := make([]string, 0, len(e.FieldErrors))
	for k := range e.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+e.FieldErrors[k])
	}
	if len(parts) == 0 {
		return strings.TrimSpace(e.Body)
	}
	return strings.Join(parts, "; ")
}

// FieldKeys returns the keys of the fields the server rejected, sorted.
func (e *APIError) FieldKeys() []string {
	keys := make([]string, 0, len(e.FieldErrors))
	for k := range e.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}
	var parsed struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Messages = parsed.ErrorMessages
		apiErr.FieldErrors = parsed.Errors
	}
	return apiErr
}

// AsAPIError unwraps err into an *APIError when possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
