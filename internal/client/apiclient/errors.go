package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Status         int
	Message        string
	Details        string
	Errors         []string
	SessionExpired bool

	// Results holds the per-file outcomes of a failed sentiment run.
	Results []SentimentResult
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Errors) > 0 {
		msg += " (" + strings.Join(e.Errors, "; ") + ")"
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return fmt.Sprintf("%s [%d]", msg, e.Status)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var payload struct {
		Message        string            `json:"message"`
		Details        json.RawMessage   `json:"details"`
		Errors         []string          `json:"error"`
		SessionExpired bool              `json:"sessionExpired"`
		Results        []SentimentResult `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	apiErr.Message = payload.Message
	apiErr.Errors = payload.Errors
	apiErr.SessionExpired = payload.SessionExpired
	apiErr.Results = payload.Results
	if len(payload.Details) > 0 && string(payload.Details) != "null" {
		var s string
		if json.Unmarshal(payload.Details, &s) == nil {
			apiErr.Details = s
		} else {
			apiErr.Details = string(payload.Details)
		}
	}
	return apiErr
}
