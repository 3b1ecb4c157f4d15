package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"syllabus-gap/internal/domain"

	"github.com/google/uuid"
)

type conversationModel struct {
	ID                    string    `gorm:"primaryKey;size:36"`
	CreatedAt             time.Time `gorm:"index"`
	UpdatedAt             time.Time
	UserInstructionLast   *string
	ParsedConstraintsJSON *string
	Status                string `gorm:"size:32;not null;default:active"`
}

func (conversationModel) TableName() string { return "conversations" }

type jobSourceModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	ConversationID string `gorm:"size:36;not null;index"`
	URL            string `gorm:"not null;index"`
	SourceSite     string `gorm:"size:100"`
	Title          string
	Company        string `gorm:"size:255"`
	Role           string `gorm:"size:255"`
	DatePosted     *time.Time
	FetchedAt      time.Time
	Snippet        string
	RawText        string
	AccessStatus   string  `gorm:"size:16;not null"`
	ContentHash    *string `gorm:"size:64;uniqueIndex"`
}

func (jobSourceModel) TableName() string { return "job_sources" }

type jobTopicModel struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	JobSourceID     int64  `gorm:"not null;index"`
	ConversationID  string `gorm:"size:36;not null;index"`
	NormalizedTopic string `gorm:"size:255;not null;index"`
	RawTopic        string
	FrequencyWeight float64 `gorm:"not null;default:1"`
	Confidence      float64
}

func (jobTopicModel) TableName() string { return "job_topics" }

func (m conversationModel) toDomain() (domain.Conversation, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("conversation id %q: %w", m.ID, err)
	}
	conv := domain.Conversation{
		ID:        id,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Status:    domain.ConversationStatus(m.Status),
	}
	if m.UserInstructionLast != nil {
		conv.UserInstructionLast = *m.UserInstructionLast
	}
	if m.ParsedConstraintsJSON != nil && *m.ParsedConstraintsJSON != "" {
		var c domain.Constraint
		if err := json.Unmarshal([]byte(*m.ParsedConstraintsJSON), &c); err != nil {
			return domain.Conversation{}, fmt.Errorf("decode parsed constraints: %w", err)
		}
		conv.ParsedConstraints = &c
	}
	return conv, nil
}

func jobSourceFromDomain(s domain.JobSource) jobSourceModel {
	m := jobSourceModel{
		ID:             s.ID,
		ConversationID: s.ConversationID.String(),
		URL:            s.URL,
		SourceSite:     s.SourceSite,
		Title:          s.Title,
		Company:        s.Company,
		Role:           s.Role,
		DatePosted:     s.DatePosted,
		FetchedAt:      s.FetchedAt,
		Snippet:        s.Snippet,
		RawText:        s.RawText,
		AccessStatus:   string(s.AccessStatus),
	}
	if s.ContentHash != "" {
		h := s.ContentHash
		m.ContentHash = &h
	}
	return m
}

func (m jobSourceModel) toDomain() domain.JobSource {
	s := domain.JobSource{
		ID:           m.ID,
		URL:          m.URL,
		SourceSite:   m.SourceSite,
		Title:        m.Title,
		Company:      m.Company,
		Role:         m.Role,
		DatePosted:   m.DatePosted,
		FetchedAt:    m.FetchedAt,
		Snippet:      m.Snippet,
		RawText:      m.RawText,
		AccessStatus: domain.AccessStatus(m.AccessStatus),
	}
	s.ConversationID, _ = uuid.Parse(m.ConversationID)
	if m.ContentHash != nil {
		s.ContentHash = *m.ContentHash
	}
	return s
}

func (m jobTopicModel) toDomain() domain.JobTopic {
	t := domain.JobTopic{
		ID:              m.ID,
		JobSourceID:     m.JobSourceID,
		NormalizedTopic: m.NormalizedTopic,
		RawTopic:        m.RawTopic,
		FrequencyWeight: m.FrequencyWeight,
		Confidence:      m.Confidence,
	}
	t.ConversationID, _ = uuid.Parse(m.ConversationID)
	return t
}
