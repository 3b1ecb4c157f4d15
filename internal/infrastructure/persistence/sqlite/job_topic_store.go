package sqlite

import (
	"context"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobTopicStore struct {
	db *gorm.DB
}

var _ repository.JobTopicRepository = (*JobTopicStore)(nil)

func NewJobTopicStore(db *gorm.DB) *JobTopicStore {
	return &JobTopicStore{db: db}
}

func (s *JobTopicStore) Create(ctx context.Context, topic *domain.JobTopic) error {
	m := jobTopicModel{
		JobSourceID:     topic.JobSourceID,
		ConversationID:  topic.ConversationID.String(),
		NormalizedTopic: topic.NormalizedTopic,
		RawTopic:        topic.RawTopic,
		FrequencyWeight: topic.FrequencyWeight,
		Confidence:      topic.Confidence,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	topic.ID = m.ID
	return nil
}

func (s *JobTopicStore) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.JobTopic, error) {
	var ms []jobTopicModel
	err := s.db.WithContext(ctx).Where("conversation_id = ?", conversationID.String()).Order("id").Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.JobTopic, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *JobTopicStore) TopTopics(ctx context.Context, conversationID uuid.UUID, limit int) ([]repository.TopicCount, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	out := make([]repository.TopicCount, 0)
	err := s.db.WithContext(ctx).
		Model(&jobTopicModel{}).
		Select("normalized_topic AS topic, COUNT(DISTINCT job_source_id) AS count").
		Where("conversation_id = ?", conversationID.String()).
		Group("normalized_topic").
		Order("count DESC, topic ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
