package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/api/middleware"
	"github.com/phrazzld/lexis/internal/api/shared"
	"github.com/phrazzld/lexis/internal/config"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddlewareStoresLogger(t *testing.T) {
	buf, base := logger.NewTestLogger(t)

	var traceID string
	handler := middleware.NewTraceMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		log, ok := logger.FromContext(r.Context())
		require.True(t, ok)
		log.Info("inside handler")
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotEmpty(t, traceID)
	logger.AssertLogContains(t, buf, "inside handler")
	logger.AssertLogField(t, buf, "trace_id", traceID)
	logger.AssertLogField(t, buf, "path", "/api/session")
}

func TestAuthenticate(t *testing.T) {
	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "0123456789abcdef0123456789abcdef",
		TokenLifetimeMinutes: 5,
	})
	require.NoError(t, err)

	learner := uuid.New()
	valid, err := jwtService.GenerateToken(context.Background(), learner)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "missing header", status: http.StatusUnauthorized, message: "Authorization header required"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, message: "Invalid authorization format"},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized, message: "Invalid authorization format"},
		{name: "garbage token", header: "Bearer not.a.jwt", status: http.StatusUnauthorized, message: "Invalid token"},
		{name: "valid token", header: "Bearer " + valid, status: http.StatusOK},
		{name: "case insensitive scheme", header: "bearer " + valid, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got uuid.UUID
			handler := middleware.NewAuthMiddleware(jwtService).Authenticate(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					id, ok := shared.LearnerID(r.Context())
					require.True(t, ok)
					got = id
					w.WriteHeader(http.StatusOK)
				}))

			req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				var body shared.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.message, body.Error)
				return
			}
			assert.Equal(t, learner, got)
		})
	}
}
