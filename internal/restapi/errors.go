package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx answer from the restaurant API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("restaurant api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("restaurant api returned %d: %s", e.StatusCode, e.Message)
}

func newStatusError(r response) *StatusError {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(r.body, &body)

	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(r.status)
	}
	return &StatusError{StatusCode: r.status, Message: msg}
}
