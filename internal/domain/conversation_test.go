package domain

import (
	"errors"
	"testing"
)

func TestConversationStatus_Transitions(t *testing.T) {
	allowed := []struct{ from, to ConversationStatus }{
		{StatusActive, StatusSearchCompleted},
		{StatusActive, StatusFailed},
		{StatusSearchCompleted, StatusSearchCompleted},
		{StatusSearchCompleted, StatusCompleted},
		{StatusCompleted, StatusSearchCompleted},
		{StatusFailed, StatusSearchCompleted},
	}
	for _, tc := range allowed {
		got, err := tc.from.Transition(tc.to)
		if err != nil {
			t.Fatalf("%s -> %s: unexpected err: %v", tc.from, tc.to, err)
		}
		if got != tc.to {
			t.Fatalf("%s -> %s: got %s", tc.from, tc.to, got)
		}
	}

	rejected := []struct{ from, to ConversationStatus }{
		{StatusActive, StatusCompleted},
		{StatusSearchCompleted, StatusActive},
		{StatusCompleted, StatusActive},
		{StatusFailed, StatusCompleted},
		{ConversationStatus("bogus"), StatusSearchCompleted},
	}
	for _, tc := range rejected {
		got, err := tc.from.Transition(tc.to)
		if !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("%s -> %s: expected ErrIllegalTransition, got %v", tc.from, tc.to, err)
		}
		if got != tc.from {
			t.Fatalf("%s -> %s: status changed on rejection", tc.from, tc.to)
		}
	}
}

func TestConversationStatus_Valid(t *testing.T) {
	for _, s := range []ConversationStatus{StatusActive, StatusSearchCompleted, StatusCompleted, StatusFailed} {
		if !s.Valid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if ConversationStatus("archived").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
}
