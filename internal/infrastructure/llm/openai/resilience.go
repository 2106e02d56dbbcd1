package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	sdk "github.com/openai/openai-go/v3"

	"github.com/kirillkom/lesson-portal/internal/infrastructure/resilience"
)

// classifyOpenAIError reports whether err should count against the breaker.
// Caller cancellations and client-side request errors do not.
func classifyOpenAIError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if resilience.IsCircuitOpen(err) {
		return true
	}

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return isUpstreamHTTPStatus(apiErr.StatusCode)
	}
	return true
}

func describeError(err error) error {
	if resilience.IsCircuitOpen(err) {
		return fmt.Errorf("circuit open: %w", err)
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai status %d: %w", apiErr.StatusCode, err)
	}
	return err
}

func isUpstreamHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return statusCode >= 500
	}
}
