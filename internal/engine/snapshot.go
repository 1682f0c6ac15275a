package engine

import (
	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/layout"
	"github.com/phrazzld/lexis/internal/viewport"
)

// GroupView summarizes the active group.
type GroupView struct {
	Index int       `json:"index"`
	Count int       `json:"count"`
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Words []string  `json:"words"`
}

// Snapshot is the read model of a session handed to the presentation layer.
type Snapshot struct {
	LearnerID   uuid.UUID                 `json:"learner_id"`
	Group       *GroupView                `json:"group,omitempty"`
	Head        *domain.SessionItem       `json:"head,omitempty"`
	QueueLength int                       `json:"queue_length"`
	Choices     []string                  `json:"choices,omitempty"`
	Graph       *domain.Graph             `json:"graph,omitempty"`
	GraphError  string                    `json:"graph_error,omitempty"`
	Gravity     []layout.GravityEdge      `json:"gravity,omitempty"`
	Positions   map[string]viewport.Point `json:"positions,omitempty"`
	Camera      *viewport.Camera          `json:"camera,omitempty"`
	Notice      string                    `json:"notice,omitempty"`
	Complete    bool                      `json:"complete"`
	Epoch       uint64                    `json:"epoch"`
}

// Snapshot returns the current session state. A pending notice is included
// once and then cleared.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, ErrClosed
	}
	if !s.started {
		return Snapshot{}, ErrNotStarted
	}

	snap := Snapshot{
		LearnerID:   s.learnerID,
		QueueLength: s.controller.Len(),
		Graph:       s.graph,
		GraphError:  s.graphError,
		Gravity:     s.gravity,
		Complete:    s.complete,
		Epoch:       s.sched.Epoch(),
	}

	if index, group := s.sched.Current(); group != nil && !s.complete {
		snap.Group = &GroupView{
			Index: index,
			Count: len(s.sched.Groups()),
			ID:    group.ID,
			Label: group.Label,
			Words: groupWords(group),
		}
	}

	if head, ok := s.controller.Head(); ok {
		snap.Head = &head
		if head.Phase == domain.PhaseChoice {
			choices, err := s.choicesFor(head.Card.ID)
			if err != nil {
				return Snapshot{}, err
			}
			snap.Choices = choices
		}
	}

	if len(s.positions) > 0 {
		snap.Positions = make(map[string]viewport.Point, len(s.positions))
		for id, p := range s.positions {
			snap.Positions[id] = p
		}
		if cam, ok := s.frame(nil); ok {
			snap.Camera = &cam
		}
	}

	if n := s.controller.TakeNotice(); n != "" {
		snap.Notice = n
	} else if s.notice != "" {
		snap.Notice = s.notice
		s.notice = ""
	}
	return snap, nil
}
