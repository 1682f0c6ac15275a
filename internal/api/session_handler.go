package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/api/shared"
	"github.com/phrazzld/lexis/internal/engine"
	"github.com/phrazzld/lexis/internal/events"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/session"
	"github.com/phrazzld/lexis/internal/viewport"
)

// SessionHandler serves the caller's live learning session.
type SessionHandler struct {
	sessions *engine.Registry
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *engine.Registry, log *slog.Logger) *SessionHandler {
	if sessions == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("session registry cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &SessionHandler{sessions: sessions, logger: log.With(slog.String("component", "session_handler"))}
}

// Routes mounts the session routes on r.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Get("/", h.GetSnapshot)
	r.Delete("/", h.CloseSession)
	r.Get("/events", h.ListEvents)

	r.Route("/items/{id}", func(r chi.Router) {
		r.Get("/choices", h.GetChoices)
		r.Post("/know", h.Know)
		r.Post("/forgot", h.Forgot)
		r.Post("/choice", h.ChooseAnswer)
		r.Post("/spelling", h.SubmitSpelling)
		r.Post("/familiar", h.MarkFamiliar)
	})

	r.Post("/nodes/{nodeID}/click", h.NodeClicked)
	r.Put("/overlay", h.MoveOverlay)
	r.Put("/positions", h.UpdatePositions)
	r.Get("/edges/example", h.EdgeExample)
	r.Post("/graph/rebuild", h.RebuildGraph)
}

// session resolves the caller's session, writing the error response when
// it cannot.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*engine.Session, bool) {
	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return nil, false
	}
	s, err := h.sessions.Get(r.Context(), learnerID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return nil, false
	}
	return s, true
}

// GetSnapshot handles GET /session.
func (h *SessionHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snap, err := s.Snapshot()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, snap)
}

// CloseSession handles DELETE /session. The next request starts a fresh
// session from stored state.
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return
	}
	if h.sessions.Close(learnerID) {
		logger.FromContextOrDefault(r.Context()).Info("session closed by learner")
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEvents handles GET /session/events?since=RFC3339.
func (h *SessionHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			HandleAPIError(w, r, errBadRequest, "Invalid since")
			return
		}
		since = t
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	out := make([]*events.Event, 0)
	for _, e := range s.Events() {
		if e.CreatedAt.After(since) {
			out = append(out, e)
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// GetChoices handles GET /session/items/{id}/choices.
func (h *SessionHandler) GetChoices(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	choices, err := s.Choices(cardID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string][]string{"choices": choices})
}

// Know handles POST /session/items/{id}/know.
func (h *SessionHandler) Know(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, nil, func(ctx context.Context, s *engine.Session, id uuid.UUID) (session.Transition, error) {
		return s.Know(ctx, id)
	})
}

// Forgot handles POST /session/items/{id}/forgot.
func (h *SessionHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, nil, func(ctx context.Context, s *engine.Session, id uuid.UUID) (session.Transition, error) {
		return s.Forgot(ctx, id)
	})
}

// ChooseAnswer handles POST /session/items/{id}/choice.
func (h *SessionHandler) ChooseAnswer(w http.ResponseWriter, r *http.Request) {
	var req ChoiceRequest
	h.intent(w, r, &req, func(ctx context.Context, s *engine.Session, id uuid.UUID) (session.Transition, error) {
		return s.ChooseAnswer(ctx, id, req.Answer)
	})
}

// SubmitSpelling handles POST /session/items/{id}/spelling.
func (h *SessionHandler) SubmitSpelling(w http.ResponseWriter, r *http.Request) {
	var req SpellingRequest
	h.intent(w, r, &req, func(ctx context.Context, s *engine.Session, id uuid.UUID) (session.Transition, error) {
		return s.SubmitSpelling(ctx, id, req.Text)
	})
}

// MarkFamiliar handles POST /session/items/{id}/familiar.
func (h *SessionHandler) MarkFamiliar(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, nil, func(ctx context.Context, s *engine.Session, id uuid.UUID) (session.Transition, error) {
		return s.MarkFamiliar(ctx, id)
	})
}

// intent decodes body (when non-nil), runs apply and responds with the
// transition. Stale intents are not errors: they come back with
// applied=false.
func (h *SessionHandler) intent(
	w http.ResponseWriter,
	r *http.Request,
	body any,
	apply func(ctx context.Context, s *engine.Session, id uuid.UUID) (session.Transition, error),
) {
	cardID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if body != nil && !decode(w, r, body) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	tr, err := apply(r.Context(), s, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if !tr.Applied {
		logger.FromContextOrDefault(r.Context()).Debug("intent ignored",
			slog.String("card_id", cardID.String()),
			slog.String("outcome", string(tr.Outcome)))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tr)
}

// NodeClicked handles POST /session/nodes/{nodeID}/click.
func (h *SessionHandler) NodeClicked(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	cam, framed := s.NodeClicked(r.Context(), chi.URLParam(r, "nodeID"))
	shared.RespondWithJSON(w, r, http.StatusOK, cameraResponse(cam, framed))
}

// MoveOverlay handles PUT /session/overlay.
func (h *SessionHandler) MoveOverlay(w http.ResponseWriter, r *http.Request) {
	var req OverlayRequest
	if !decode(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	cam, framed := s.OverlayMoved(req.Rect(), req.Dragging)
	shared.RespondWithJSON(w, r, http.StatusOK, cameraResponse(cam, framed))
}

// UpdatePositions handles PUT /session/positions.
func (h *SessionHandler) UpdatePositions(w http.ResponseWriter, r *http.Request) {
	var req engine.PositionUpdate
	if !decode(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PositionsResponse{Accepted: s.UpdatePositions(req)})
}

// EdgeExample handles GET /session/edges/example?source=&target=.
func (h *SessionHandler) EdgeExample(w http.ResponseWriter, r *http.Request) {
	source, target := r.URL.Query().Get("source"), r.URL.Query().Get("target")
	if source == "" || target == "" {
		HandleAPIError(w, r, errBadRequest, "source and target are required")
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	text, err := s.EdgeExample(r.Context(), source, target)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ExampleResponse{Source: source, Target: target, Example: text})
}

// RebuildGraph handles POST /session/graph/rebuild. The rebuilt graph
// arrives through the snapshot and a graph.ready event.
func (h *SessionHandler) RebuildGraph(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.RebuildGraph(r.Context()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func cameraResponse(cam viewport.Camera, framed bool) CameraResponse {
	if !framed {
		return CameraResponse{}
	}
	return CameraResponse{Framed: true, Camera: &cam}
}
