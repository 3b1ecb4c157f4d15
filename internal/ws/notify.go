package ws

import (
	"context"
	"encoding/json"

	"syllabus-gap/internal/domain"
)

// StageNotifier publishes pipeline stage events on a Hub.
type StageNotifier struct {
	hub *Hub
}

func NewStageNotifier(hub *Hub) *StageNotifier {
	return &StageNotifier{hub: hub}
}

func (n *StageNotifier) NotifyStage(_ context.Context, evt domain.StageEvent) {
	if n == nil || n.hub == nil {
		return
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	n.hub.Broadcast(evt.ConversationID.String(), b)
}
