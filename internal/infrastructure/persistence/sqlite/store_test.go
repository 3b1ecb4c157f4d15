package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func seedSource(t *testing.T, store *JobSourceStore, conv uuid.UUID, hash string) domain.JobSource {
	t.Helper()
	src := domain.JobSource{
		ConversationID: conv,
		URL:            "https://example.com/" + hash,
		Title:          "Data Engineer",
		AccessStatus:   domain.AccessSuccess,
		ContentHash:    hash,
		RawText:        "text " + hash,
	}
	if err := store.Create(context.Background(), &src); err != nil {
		t.Fatalf("create source: %v", err)
	}
	return src
}

func TestConversationStore_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(openTestDB(t))
	id := uuid.New()

	first, err := store.GetOrCreate(ctx, id, "first instruction")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if first.Status != domain.StatusActive || first.UserInstructionLast != "first instruction" {
		t.Fatalf("unexpected conversation %+v", first)
	}

	second, err := store.GetOrCreate(ctx, id, "second instruction")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if second.UserInstructionLast != "second instruction" {
		t.Fatalf("expected instruction to be updated, got %q", second.UserInstructionLast)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected created_at to be kept")
	}
}

func TestConversationStore_UpdateSearchState(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(openTestDB(t))
	id := uuid.New()
	if _, err := store.GetOrCreate(ctx, id, "x"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c := domain.Constraint{RoleKeywords: []string{"Analytics Engineer"}, CompanyTier: domain.CompanyTierTop}
	if err := store.UpdateSearchState(ctx, id, c, domain.StatusSearchCompleted); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != domain.StatusSearchCompleted {
		t.Fatalf("unexpected status %s", got.Status)
	}
	if got.ParsedConstraints == nil || got.ParsedConstraints.PrimaryRole() != "Analytics Engineer" {
		t.Fatalf("unexpected constraints %+v", got.ParsedConstraints)
	}

	if err := store.UpdateSearchState(ctx, uuid.New(), c, domain.StatusSearchCompleted); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateSearchState(ctx, id, c, "bogus"); err == nil {
		t.Fatalf("expected invalid status to be rejected")
	}
}

func TestJobSourceStore_DedupByContentHash(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	convs := NewConversationStore(db)
	sources := NewJobSourceStore(db)
	conv := uuid.New()
	if _, err := convs.GetOrCreate(ctx, conv, "x"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	first := seedSource(t, sources, conv, "abc123")
	if first.ID == 0 {
		t.Fatalf("expected id to be set")
	}

	dup := domain.JobSource{ConversationID: conv, URL: "https://mirror.example.com", AccessStatus: domain.AccessSuccess, ContentHash: "abc123"}
	if err := sources.Create(ctx, &dup); !errors.Is(err, repository.ErrDuplicateContent) {
		t.Fatalf("expected ErrDuplicateContent, got %v", err)
	}

	got, err := sources.GetByContentHash(ctx, "abc123")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ID != first.ID || got.URL != first.URL {
		t.Fatalf("expected the first row, got %+v", got)
	}
	if _, err := sources.GetByContentHash(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := sources.ListByConversation(ctx, conv)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one stored source, got %d (%v)", len(list), err)
	}
}

func TestJobTopicStore_TopTopics(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	convs := NewConversationStore(db)
	sources := NewJobSourceStore(db)
	topics := NewJobTopicStore(db)
	conv := uuid.New()
	if _, err := convs.GetOrCreate(ctx, conv, "x"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a := seedSource(t, sources, conv, "a")
	b := seedSource(t, sources, conv, "b")

	for _, tc := range []struct {
		src   domain.JobSource
		topic string
	}{
		{a, "sql"}, {a, "sql"}, {b, "sql"}, {a, "dbt"}, {b, "airflow"},
	} {
		topic := domain.JobTopic{JobSourceID: tc.src.ID, ConversationID: conv, NormalizedTopic: tc.topic, RawTopic: tc.topic, FrequencyWeight: 1, Confidence: 0.8}
		if err := topics.Create(ctx, &topic); err != nil {
			t.Fatalf("create topic: %v", err)
		}
	}

	top, err := topics.TopTopics(ctx, conv, 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 topics, got %#v", top)
	}
	if top[0].Topic != "sql" || top[0].Count != 2 {
		t.Fatalf("expected sql counted once per source, got %+v", top[0])
	}
	if top[1].Topic != "airflow" || top[2].Topic != "dbt" {
		t.Fatalf("expected ties ordered by name, got %#v", top)
	}
}

func TestConversationStore_DeleteOlderThanCascades(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	convs := NewConversationStore(db)
	sources := NewJobSourceStore(db)
	topics := NewJobTopicStore(db)

	old, fresh := uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{old, fresh} {
		if _, err := convs.GetOrCreate(ctx, id, "x"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	past := time.Now().UTC().Add(-90 * 24 * time.Hour)
	if err := db.Model(&conversationModel{}).Where("id = ?", old.String()).Update("created_at", past).Error; err != nil {
		t.Fatalf("age conversation: %v", err)
	}

	src := seedSource(t, sources, old, "old-hash")
	keep := seedSource(t, sources, fresh, "fresh-hash")
	for _, s := range []domain.JobSource{src, keep} {
		topic := domain.JobTopic{JobSourceID: s.ID, ConversationID: s.ConversationID, NormalizedTopic: "sql", FrequencyWeight: 1}
		if err := topics.Create(ctx, &topic); err != nil {
			t.Fatalf("create topic: %v", err)
		}
	}

	n, err := convs.DeleteOlderThan(ctx, time.Now().UTC().Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted conversation, got %d", n)
	}
	if _, err := convs.Get(ctx, old); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected old conversation to be gone, got %v", err)
	}
	if _, err := sources.GetByContentHash(ctx, "old-hash"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected old source to be gone, got %v", err)
	}
	if left, _ := topics.ListByConversation(ctx, old); len(left) != 0 {
		t.Fatalf("expected old topics to be gone")
	}
	if left, _ := topics.ListByConversation(ctx, fresh); len(left) != 1 {
		t.Fatalf("expected fresh topics to stay")
	}
}
