package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"syllabus-gap/internal/domain"

	"github.com/google/uuid"
)

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) ([]byte, bool) {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		return msg, ok
	case <-time.After(200 * time.Millisecond):
		return nil, false
	}
}

func TestHub_TopicFiltering(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(nil)
	go h.Run(ctx)

	all := NewClient(h, nil, "")
	mine := NewClient(h, nil, "conv-a")
	other := NewClient(h, nil, "conv-b")
	h.Register(all)
	h.Register(mine)
	h.Register(other)
	waitForClients(t, h, 3)

	h.Broadcast("conv-a", []byte("hello"))

	if msg, ok := receive(t, all); !ok || string(msg) != "hello" {
		t.Fatalf("expected unfiltered client to receive, got %q", msg)
	}
	if msg, ok := receive(t, mine); !ok || string(msg) != "hello" {
		t.Fatalf("expected matching client to receive, got %q", msg)
	}
	if _, ok := receive(t, other); ok {
		t.Fatalf("expected other topic to be filtered")
	}

	h.Unregister(mine)
	waitForClients(t, h, 2)
	if _, ok := <-mine.send; ok {
		t.Fatalf("expected send channel closed after unregister")
	}
}

func TestHub_CloseAllOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(nil)
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := NewClient(h, nil, "")
	h.Register(c)
	waitForClients(t, h, 1)

	cancel()
	<-done
	if h.ClientCount() != 0 {
		t.Fatalf("expected hub to drop clients on shutdown")
	}
	if _, ok := <-c.send; ok {
		t.Fatalf("expected send channel closed")
	}
}

func TestHub_RegisterAfterStopDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(nil)
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			c := NewClient(h, nil, "")
			h.Register(c)
			h.Unregister(c)
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatalf("register/unregister blocked after hub stopped")
	}
}

func TestStageNotifier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(nil)
	go h.Run(ctx)

	id := uuid.New()
	c := NewClient(h, nil, id.String())
	h.Register(c)
	waitForClients(t, h, 1)

	NewStageNotifier(h).NotifyStage(ctx, domain.StageEvent{
		Type:           "search_stage",
		ConversationID: id,
		Stage:          domain.StageCollected,
		Count:          4,
	})

	msg, ok := receive(t, c)
	if !ok {
		t.Fatalf("expected stage event")
	}
	var evt domain.StageEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if evt.Stage != domain.StageCollected || evt.Count != 4 || evt.ConversationID != id {
		t.Fatalf("unexpected event %+v", evt)
	}

	var nilNotifier *StageNotifier
	nilNotifier.NotifyStage(ctx, domain.StageEvent{})
}
