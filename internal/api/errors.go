package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FallbackMessage is shown when neither the server nor the transport gave a
// usable message.
const FallbackMessage = "Something went wrong, please try again"

var ErrNotAuthenticated = errors.New("not logged in")

type Kind int

const (
	// KindRemote is a non-2xx answer from the backend.
	KindRemote Kind = iota
	// KindNetwork means no usable answer was received.
	KindNetwork
	// KindDecode means a 2xx answer could not be decoded.
	KindDecode
)

type Detail struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Name    string   `json:"name"`
}

type Error struct {
	Kind    Kind
	Status  int
	Name    string
	Message string
	Details []Detail
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("request failed: %v", e.Err)
	case KindDecode:
		return fmt.Sprintf("decode response: %v", e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Name, e.Message)
	}
	return fmt.Sprintf("status %d", e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage never returns an empty string.
func (e *Error) UserMessage() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	for _, detail := range e.Details {
		if msg := strings.TrimSpace(detail.Message); msg != "" {
			return msg
		}
	}
	if e.Kind == KindRemote && e.Status > 0 {
		if text := http.StatusText(e.Status); text != "" {
			return text
		}
	}
	return FallbackMessage
}

// Message turns any error into text for a notification.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return "Please log in first"
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return FallbackMessage
}

func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindRemote && apiErr.Status == status
}

// errorEnvelope is the backend's error body:
// {"data": null, "error": {"status", "name", "message", "details": {"errors": [...]}}}
type errorEnvelope struct {
	Error struct {
		Status  int             `json:"status"`
		Name    string          `json:"name"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// parseDetails accepts both {"errors": [...]} and a bare list of
// {"errors": {...}} entries; the backend has used each.
func parseDetails(raw json.RawMessage) []Detail {
	if len(raw) == 0 {
		return nil
	}

	var wrapped struct {
		Errors []Detail `json:"errors"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Errors
	}

	var list []struct {
		Errors Detail `json:"errors"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		details := make([]Detail, 0, len(list))
		for _, entry := range list {
			details = append(details, entry.Errors)
		}
		return details
	}
	return nil
}
