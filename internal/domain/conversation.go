package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ConversationStatus string

const (
	StatusActive          ConversationStatus = "active"
	StatusSearchCompleted ConversationStatus = "search_completed"
	StatusCompleted       ConversationStatus = "completed"
	StatusFailed          ConversationStatus = "failed"
)

var ErrIllegalTransition = errors.New("illegal status transition")

// A new search cycle may start from any settled state; nothing ever goes
// back to active.
var statusTransitions = map[ConversationStatus][]ConversationStatus{
	StatusActive:          {StatusSearchCompleted, StatusFailed},
	StatusSearchCompleted: {StatusSearchCompleted, StatusCompleted, StatusFailed},
	StatusCompleted:       {StatusSearchCompleted},
	StatusFailed:          {StatusSearchCompleted},
}

func (s ConversationStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s ConversationStatus) CanTransition(to ConversationStatus) bool {
	for _, next := range statusTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s ConversationStatus) Transition(to ConversationStatus) (ConversationStatus, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, to)
	}
	return to, nil
}

type Conversation struct {
	ID                  uuid.UUID          `json:"conversation_id"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	UserInstructionLast string             `json:"user_instruction_last"`
	ParsedConstraints   *Constraint        `json:"parsed_constraints"`
	Status              ConversationStatus `json:"status"`
}
