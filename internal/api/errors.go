package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// maxTextMessage is the longest plain-text body surfaced as a message.
const maxTextMessage = 200

// Error is a non-2xx backend answer.
type Error struct {
	Status int
	Method string
	Path   string

	// Message is the server's own explanation, when it sent one.
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

func newError(method, path string, status int, body []byte) *Error {
	return &Error{
		Status:  status,
		Method:  method,
		Path:    path,
		Message: serverMessage(body),
	}
}

// serverMessage pulls "message" or "error" out of a JSON body, or uses a short
// plain-text body verbatim.
func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	if body[0] == '{' {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			if payload.Message != "" {
				return payload.Message
			}
			return payload.Error
		}
		return ""
	}

	if body[0] == '<' || len(body) > maxTextMessage || !utf8.Valid(body) {
		return ""
	}
	return string(body)
}

// Message returns the server's message carried by err, or "".
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsStatus reports whether err is an *Error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}
