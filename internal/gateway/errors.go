package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/abelbrown/catalog/internal/product"
)

// ErrNotFound is returned when the server has no product with the requested id,
// e.g. it was deleted by another actor between load and save.
var ErrNotFound = errors.New("product not found")

// ValidationError is a 400/422 rejection of a create or update payload.
type ValidationError struct {
	Status int
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation failed (status %d)", e.Status)
	}
	return "validation failed: " + e.Detail
}

// StatusError is any other non-2xx response.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("catalog API error (status %d)", e.Status)
	}
	return fmt.Sprintf("catalog API error (status %d): %s", e.Status, e.Detail)
}

// IsCanceled reports whether err comes from a superseded or aborted request.
// Cancellation is not a failure and must never reach a user-visible path.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Message is the text shown to the user for a failed mutation.
func Message(err error) string {
	var verr *ValidationError
	var serr *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Product no longer exists"
	case errors.Is(err, product.ErrInvalid):
		return err.Error()
	case errors.As(err, &verr) && verr.Detail != "":
		return verr.Detail
	case errors.As(err, &serr) && serr.Detail != "":
		return serr.Detail
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	}
	return "Operation failed: " + err.Error()
}

// statusError maps a non-2xx response to the error taxonomy.
func statusError(status int, body []byte) error {
	detail := parseDetail(body)
	switch {
	case status == http.StatusNotFound:
		if detail != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, detail)
		}
		return ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &ValidationError{Status: status, Detail: detail}
	}
	return &StatusError{Status: status, Detail: detail}
}

// parseDetail extracts a human message from an error body. Accepts
// {"detail": "..."}, {"detail": [{"msg": "..."}]}, {"error": "...", "message": "..."}
// and falls back to the raw (truncated) body.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return truncate(strings.TrimSpace(string(body)), 200)
	}

	if len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}

// truncate shortens s to n runes, appending "..." if truncated.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
