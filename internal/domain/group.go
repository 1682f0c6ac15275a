package domain

import "github.com/google/uuid"

// GroupDescriptor is a batch of cards studied together and sharing one graph.
//
// CardIDs is the persisted membership; Items holds the canonical cards resolved
// for the current session and may be shorter when ids no longer resolve.
type GroupDescriptor struct {
	ID       uuid.UUID   `json:"id"`
	UserID   uuid.UUID   `json:"user_id"`
	Label    string      `json:"label"`
	Position int         `json:"position"`
	CardIDs  []uuid.UUID `json:"card_ids"`
	Items    []*Card     `json:"-"`
}

// IsComplete reports whether every resolved item is terminal.
// An empty group is complete.
func (g *GroupDescriptor) IsComplete() bool {
	for _, card := range g.Items {
		if !card.IsTerminal() {
			return false
		}
	}
	return true
}

// Pending returns the items that still need rehearsal, in their current order.
func (g *GroupDescriptor) Pending() []*Card {
	pending := make([]*Card, 0, len(g.Items))
	for _, card := range g.Items {
		if !card.IsTerminal() {
			pending = append(pending, card)
		}
	}
	return pending
}
