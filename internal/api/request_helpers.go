package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/api/shared"
)

var errBadRequest = errors.New("bad request")

// learnerFromRequest returns the authenticated learner, writing a 401 when
// there is none.
func learnerFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := shared.LearnerID(r.Context())
	if !ok {
		HandleAPIError(w, r, errUnauthenticated, "")
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses the named chi path parameter, writing a 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %s", errBadRequest, name), "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s", errBadRequest, name)
	}
	return v, nil
}

// decode decodes and validates the body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeAndValidate(w, r, v); err != nil {
		var bad error = err
		if !errors.Is(err, shared.ErrEmptyBody) && MapErrorToStatusCode(err) != http.StatusBadRequest {
			bad = fmt.Errorf("%w: %w", errBadRequest, err)
		}
		HandleAPIError(w, r, bad, "")
		return false
	}
	return true
}
