package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/lexis/internal/api/middleware"
	"github.com/phrazzld/lexis/internal/service/auth"
)

// RequestTimeout bounds the handling of a single request.
const RequestTimeout = 30 * time.Second

// NewRouter wires the handlers, authentication and standard middleware.
func NewRouter(
	sessions *SessionHandler,
	cards *CardHandler,
	jwtService auth.JWTService,
	logger *slog.Logger,
) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))
	r.Use(middleware.Timeout(RequestTimeout))

	authMiddleware := apiMiddleware.NewAuthMiddleware(jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Route("/session", sessions.Routes)
		r.Route("/cards", cards.Routes)
		r.Post("/decks", cards.ImportDeck)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
