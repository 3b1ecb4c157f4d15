package repository

import (
	"context"

	"syllabus-gap/internal/database"
	"syllabus-gap/internal/domain"

	"github.com/google/uuid"
)

type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

type JobTopicRepository interface {
	Create(ctx context.Context, topic *domain.JobTopic) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.JobTopic, error)
	TopTopics(ctx context.Context, conversationID uuid.UUID, limit int) ([]TopicCount, error)
}

type PostgresJobTopicRepository struct {
	db database.DB
}

func NewPostgresJobTopicRepository(db database.DB) *PostgresJobTopicRepository {
	return &PostgresJobTopicRepository{db: db}
}

func (r *PostgresJobTopicRepository) Create(ctx context.Context, topic *domain.JobTopic) error {
	row := r.db.QueryRow(ctx,
		`INSERT INTO job_topics (job_source_id, conversation_id, normalized_topic, raw_topic, frequency_weight, confidence)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id`,
		topic.JobSourceID,
		topic.ConversationID,
		topic.NormalizedTopic,
		nullableText(topic.RawTopic),
		topic.FrequencyWeight,
		topic.Confidence,
	)
	return row.Scan(&topic.ID)
}

func (r *PostgresJobTopicRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.JobTopic, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, job_source_id, conversation_id, normalized_topic, COALESCE(raw_topic, ''),
			frequency_weight, COALESCE(confidence, 0)
		 FROM job_topics
		 WHERE conversation_id = $1
		 ORDER BY id`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.JobTopic, 0)
	for rows.Next() {
		var t domain.JobTopic
		if err := rows.Scan(&t.ID, &t.JobSourceID, &t.ConversationID, &t.NormalizedTopic, &t.RawTopic, &t.FrequencyWeight, &t.Confidence); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresJobTopicRepository) TopTopics(ctx context.Context, conversationID uuid.UUID, limit int) ([]TopicCount, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT normalized_topic, COUNT(DISTINCT job_source_id)
		 FROM job_topics
		 WHERE conversation_id = $1
		 GROUP BY normalized_topic
		 ORDER BY COUNT(DISTINCT job_source_id) DESC, normalized_topic ASC
		 LIMIT $2`,
		conversationID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TopicCount, 0)
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
