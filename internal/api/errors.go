package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/lexis/internal/api/shared"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/domain/srs"
	"github.com/phrazzld/lexis/internal/engine"
	"github.com/phrazzld/lexis/internal/service"
	"github.com/phrazzld/lexis/internal/service/auth"
	"github.com/phrazzld/lexis/internal/session"
	"github.com/phrazzld/lexis/internal/store"
	"github.com/phrazzld/lexis/internal/task"
)

// errUnauthenticated is used when a protected handler runs without a
// learner in its context.
var errUnauthenticated = errors.New("learner not authenticated")

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, errUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, engine.ErrForeignCard):
		return http.StatusForbidden

	case store.IsNotFoundError(err),
		errors.Is(err, session.ErrItemNotFound),
		errors.Is(err, engine.ErrUnknownEdge),
		errors.Is(err, engine.ErrNoGroups):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, engine.ErrClosed):
		return http.StatusConflict

	case errors.As(err, &validationErrs),
		errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, errBadRequest),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, service.ErrEmptyDeck),
		errors.Is(err, srs.ErrInvalidDays):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrQueueFull):
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes internal details.
func GetSafeErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, errUnauthenticated):
		return "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"
	case errors.Is(err, service.ErrNotOwned), errors.Is(err, engine.ErrForeignCard):
		return "You do not own this card"
	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, session.ErrItemNotFound):
		return "Card is not in the session queue"
	case errors.Is(err, engine.ErrUnknownEdge):
		return "Edge is not part of the current graph"
	case errors.Is(err, engine.ErrNoGroups):
		return "No study groups; import a deck first"
	case store.IsNotFoundError(err):
		return "Not found"
	case errors.Is(err, store.ErrDuplicate):
		return "Already exists"
	case errors.Is(err, engine.ErrClosed):
		return "Session was closed; retry the request"
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(validationErrs)
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, errBadRequest):
		return "Invalid request"
	case errors.Is(err, service.ErrEmptyDeck):
		return "Deck has no cards"
	case errors.Is(err, srs.ErrInvalidDays):
		return "Days must be at least 1"
	case errors.Is(err, store.ErrInvalidEntity), errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidID):
		return "Invalid data"
	case errors.Is(err, task.ErrQueueFull):
		return "Too many pending requests"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError describes the first failed field without echoing
// the submitted value.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	return "Invalid " + strings.ToLower(fe.Field()) + ": " + validationTagMessage(fe.Tag())
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err. message overrides the safe
// message when non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
