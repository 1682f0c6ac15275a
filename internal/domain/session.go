package domain

// Phase is the rehearsal stage of a session item.
type Phase string

// Rehearsal phases, in the order an item normally moves through them.
const (
	PhaseLearn  Phase = "learn"
	PhaseChoice Phase = "choice"
	PhaseTest   Phase = "test"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseLearn, PhaseChoice, PhaseTest:
		return true
	default:
		return false
	}
}

// SessionItem is a card being rehearsed in the active batch.
type SessionItem struct {
	Card   *Card  `json:"card"`
	Phase  Phase  `json:"phase"`
	NodeID string `json:"node_id"`

	// Misses counts failed attempts within this session.
	Misses int `json:"misses"`
}

// NewSessionItem creates an item for card in the Learn phase.
func NewSessionItem(card *Card) *SessionItem {
	return &SessionItem{
		Card:   card,
		Phase:  PhaseLearn,
		NodeID: NodeIDForWord(card.Word),
	}
}
