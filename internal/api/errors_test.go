package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/lexis/internal/domain/srs"
	"github.com/phrazzld/lexis/internal/engine"
	"github.com/phrazzld/lexis/internal/service"
	"github.com/phrazzld/lexis/internal/service/auth"
	"github.com/phrazzld/lexis/internal/session"
	"github.com/phrazzld/lexis/internal/store"
	"github.com/phrazzld/lexis/internal/task"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrExpiredToken, http.StatusUnauthorized},
		{service.ErrNotOwned, http.StatusForbidden},
		{fmt.Errorf("get: %w", store.ErrCardNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: x", session.ErrItemNotFound), http.StatusNotFound},
		{engine.ErrNoGroups, http.StatusNotFound},
		{engine.ErrUnknownEdge, http.StatusNotFound},
		{store.ErrDuplicate, http.StatusConflict},
		{service.ErrEmptyDeck, http.StatusBadRequest},
		{srs.ErrInvalidDays, http.StatusBadRequest},
		{task.ErrQueueFull, http.StatusTooManyRequests},
		{errors.New("db exploded at postgres://user:pw@host"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err), tc.err.Error())
	}
}

func TestGetSafeErrorMessageHidesInternals(t *testing.T) {
	t.Parallel()

	err := service.NewCardServiceError("list_cards", "failed", errors.New("SELECT * FROM cards failed"))
	msg := GetSafeErrorMessage(err)
	assert.Equal(t, "An unexpected error occurred", msg)
	assert.Equal(t, "Card not found", GetSafeErrorMessage(fmt.Errorf("x: %w", store.ErrCardNotFound)))
}
