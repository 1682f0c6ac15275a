package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/api/shared"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/engine"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/service"
)

// CardHandler serves stored cards and deck import.
type CardHandler struct {
	cards    *service.CardService
	sessions *engine.Registry
	logger   *slog.Logger
}

// NewCardHandler creates a CardHandler. Changes that alter a learner's
// study groups close their live session so the next request reloads it.
func NewCardHandler(cards *service.CardService, sessions *engine.Registry, log *slog.Logger) *CardHandler {
	if cards == nil || sessions == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("card service and session registry are required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &CardHandler{cards: cards, sessions: sessions, logger: log.With(slog.String("component", "card_handler"))}
}

// Routes mounts the card routes on r.
func (h *CardHandler) Routes(r chi.Router) {
	r.Get("/", h.ListCards)
	r.Get("/{id}", h.GetCard)
	r.Get("/{id}/graph", h.GetCardGraph)
	r.Post("/{id}/familiar", h.SetFamiliar)
	r.Post("/{id}/postpone", h.Postpone)
}

// ImportDeck handles POST /decks.
func (h *CardHandler) ImportDeck(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return
	}
	var req ImportRequest
	if !decode(w, r, &req) {
		return
	}

	deck := make([]service.GroupInput, len(req.Groups))
	for i, g := range req.Groups {
		deck[i].Label = g.Label
		for _, c := range g.Cards {
			deck[i].Cards = append(deck[i].Cards, service.CardInput{
				Word:    c.Word,
				Meaning: c.Meaning,
				Enrichment: domain.Enrichment{
					Phonetic: c.Phonetic,
					Example:  c.Example,
					Notes:    c.Notes,
				},
			})
		}
	}

	result, err := h.cards.ImportDeck(r.Context(), learnerID, deck)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.sessions.Close(learnerID)
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// ListCards handles GET /cards.
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return
	}
	cards, err := h.cards.ListCards(r.Context(), learnerID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	out := make([]CardResponse, len(cards))
	for i, c := range cards {
		out[i] = cardToResponse(c)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// GetCard handles GET /cards/{id}.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	learnerID, cardID, ok := h.ids(w, r)
	if !ok {
		return
	}
	card, err := h.cards.GetCard(r.Context(), learnerID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// GetCardGraph handles GET /cards/{id}/graph?refresh=bool.
func (h *CardHandler) GetCardGraph(w http.ResponseWriter, r *http.Request) {
	learnerID, cardID, ok := h.ids(w, r)
	if !ok {
		return
	}
	refresh, err := queryBool(r, "refresh")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid refresh")
		return
	}
	if _, err := h.cards.GetCard(r.Context(), learnerID, cardID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	s, err := h.sessions.Get(r.Context(), learnerID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	graph, err := s.CardGraph(r.Context(), cardID, refresh)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, graph)
}

// SetFamiliar handles POST /cards/{id}/familiar.
func (h *CardHandler) SetFamiliar(w http.ResponseWriter, r *http.Request) {
	learnerID, cardID, ok := h.ids(w, r)
	if !ok {
		return
	}
	var req FamiliarRequest
	if !decode(w, r, &req) {
		return
	}
	card, err := h.cards.SetFamiliar(r.Context(), learnerID, cardID, req.Familiar)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.sessions.Close(learnerID)
	logger.FromContextOrDefault(r.Context()).Info("familiar flag updated",
		slog.String("card_id", cardID.String()),
		slog.Bool("familiar", req.Familiar))
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// Postpone handles POST /cards/{id}/postpone.
func (h *CardHandler) Postpone(w http.ResponseWriter, r *http.Request) {
	learnerID, cardID, ok := h.ids(w, r)
	if !ok {
		return
	}
	var req PostponeRequest
	if !decode(w, r, &req) {
		return
	}
	card, err := h.cards.Postpone(r.Context(), learnerID, cardID, req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

func (h *CardHandler) ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	learnerID, ok := learnerFromRequest(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	cardID, ok := pathUUID(w, r, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return learnerID, cardID, true
}
