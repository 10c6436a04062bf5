package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/hupe1980/schoolmesh/core"
)

// Client facing messages.
const (
	msgMissingMessage      = "message is required and must be a string"
	msgEmptyMessage        = "message must not be empty"
	msgInvalidBody         = "request body must be valid JSON"
	msgProviderUnavailable = "The AI model is unavailable or misconfigured. Check the configured model name and API credentials."
	msgCancelled           = "The request was cancelled before an answer was ready."
	msgInternal            = "Sorry, something went wrong while answering your message."
	msgSessionNotFound     = "session not found"
	msgMissingSession      = "sessionId is required"
)

var providerPatterns = []string{
	"model not found",
	"does not exist",
	"unknown model",
	"not_found_error",
	"connection refused",
	"no such host",
	"unauthorized",
	"invalid api key",
	"invalid x-api-key",
}

// IsProviderUnavailable reports whether err reads like an unreachable or
// misconfigured model provider.
func IsProviderUnavailable(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	for _, p := range providerPatterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// classify maps a turn error to a status code and a client message that
// carries no internal details.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrEmptyUtterance):
		return http.StatusBadRequest, msgEmptyMessage
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, msgCancelled
	case IsProviderUnavailable(err):
		return http.StatusServiceUnavailable, msgProviderUnavailable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
