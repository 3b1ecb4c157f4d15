package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationStore struct {
	db *gorm.DB
}

var _ repository.ConversationRepository = (*ConversationStore)(nil)

func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

func (s *ConversationStore) Get(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	var m conversationModel
	err := s.db.WithContext(ctx).Where("id = ?", id.String()).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversation{}, repository.ErrNotFound
		}
		return domain.Conversation{}, err
	}
	return m.toDomain()
}

func (s *ConversationStore) GetOrCreate(ctx context.Context, id uuid.UUID, instruction string) (domain.Conversation, error) {
	if id == uuid.Nil {
		return domain.Conversation{}, fmt.Errorf("nil conversation id")
	}
	now := time.Now().UTC()
	m := conversationModel{
		ID:        id.String(),
		CreatedAt: now,
		UpdatedAt: now,
		Status:    string(domain.StatusActive),
	}
	if instruction != "" {
		m.UserInstructionLast = &instruction
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_instruction_last", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return domain.Conversation{}, err
	}
	return s.Get(ctx, id)
}

func (s *ConversationStore) UpdateSearchState(ctx context.Context, id uuid.UUID, constraints domain.Constraint, status domain.ConversationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	b, err := json.Marshal(constraints)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&conversationModel{}).Where("id = ?", id.String()).Updates(map[string]any{
		"parsed_constraints_json": string(b),
		"status":                  string(status),
		"updated_at":              time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *ConversationStore) Delete(ctx context.Context, id uuid.UUID) error {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = deleteConversations(tx, []string{id.String()})
		return err
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *ConversationStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&conversationModel{}).Where("created_at < ?", cutoff.UTC()).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		var err error
		n, err = deleteConversations(tx, ids)
		return err
	})
	return n, err
}

// deleteConversations removes conversations together with their sources and
// every topic that points at either.
func deleteConversations(tx *gorm.DB, ids []string) (int64, error) {
	sourceIDs := tx.Model(&jobSourceModel{}).Select("id").Where("conversation_id IN ?", ids)
	if err := tx.Where("conversation_id IN ? OR job_source_id IN (?)", ids, sourceIDs).Delete(&jobTopicModel{}).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("conversation_id IN ?", ids).Delete(&jobSourceModel{}).Error; err != nil {
		return 0, err
	}
	res := tx.Where("id IN ?", ids).Delete(&conversationModel{})
	return res.RowsAffected, res.Error
}
