package sqlite

import (
	"context"
	"errors"
	"strings"
	"time"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobSourceStore struct {
	db *gorm.DB
}

var _ repository.JobSourceRepository = (*JobSourceStore)(nil)

func NewJobSourceStore(db *gorm.DB) *JobSourceStore {
	return &JobSourceStore{db: db}
}

func (s *JobSourceStore) GetByContentHash(ctx context.Context, hash string) (domain.JobSource, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return domain.JobSource{}, repository.ErrNotFound
	}
	var m jobSourceModel
	err := s.db.WithContext(ctx).Where("content_hash = ?", hash).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.JobSource{}, repository.ErrNotFound
		}
		return domain.JobSource{}, err
	}
	return m.toDomain(), nil
}

func (s *JobSourceStore) Create(ctx context.Context, src *domain.JobSource) error {
	if src.FetchedAt.IsZero() {
		src.FetchedAt = time.Now().UTC()
	}
	m := jobSourceFromDomain(*src)
	m.ID = 0

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "content_hash"}},
		DoNothing: true,
	}).Create(&m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return repository.ErrDuplicateContent
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrDuplicateContent
	}
	src.ID = m.ID
	return nil
}

func (s *JobSourceStore) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.JobSource, error) {
	var ms []jobSourceModel
	err := s.db.WithContext(ctx).Where("conversation_id = ?", conversationID.String()).Order("id").Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.JobSource, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.toDomain())
	}
	return out, nil
}
