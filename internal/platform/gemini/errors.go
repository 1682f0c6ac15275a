package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/lexis/internal/generation"
	"google.golang.org/genai"
)

// ErrEmptyInput is returned when a request has nothing to send.
var ErrEmptyInput = errors.New("gemini request input cannot be empty")

// isTransient reports whether a failed API call may succeed on retry.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	default:
		// Transport failures carry no status.
		return true
	}
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// wrapCallError maps a final API error onto the generation sentinels.
func wrapCallError(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%w: %s: %w", generation.ErrTransientFailure, op, err)
	}
	return fmt.Errorf("%w: %s: %w", generation.ErrGenerationFailed, op, err)
}
