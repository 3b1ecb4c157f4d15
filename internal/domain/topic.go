package domain

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	DefaultTopicConfidence = 0.8
	DefaultFrequencyWeight = 1.0

	minTopicLength = 3
)

var ErrInvalidTopic = errors.New("invalid topic")

var (
	leadingArticleRe      = regexp.MustCompile(`^(the|a|an)\s+`)
	trailingPunctuationRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]+$`)
)

// ExtractedTopic is one item of a topic-extraction reply.
type ExtractedTopic struct {
	Topic      string   `json:"topic"`
	RawTopic   string   `json:"raw_topic"`
	Confidence *float64 `json:"confidence"`
}

type JobTopic struct {
	ID              int64     `json:"id"`
	JobSourceID     int64     `json:"job_source_id"`
	ConversationID  uuid.UUID `json:"conversation_id"`
	NormalizedTopic string    `json:"normalized_topic"`
	RawTopic        string    `json:"raw_topic"`
	FrequencyWeight float64   `json:"frequency_weight"`
	Confidence      float64   `json:"confidence"`
}

// NormalizeTopic lowercases a topic, drops a leading article and trailing
// punctuation. "The SQL Queries!!" becomes "sql queries".
func NormalizeTopic(s string) string {
	n := strings.TrimSpace(strings.ToLower(s))
	if n == "" {
		return ""
	}
	n = leadingArticleRe.ReplaceAllString(n, "")
	n = trailingPunctuationRe.ReplaceAllString(n, "")
	return strings.TrimSpace(n)
}

func ValidTopic(normalized string) bool {
	return utf8.RuneCountInString(normalized) >= minTopicLength
}

// NewJobTopic turns an extracted item into a persistable topic for source.
func NewJobTopic(source JobSource, conversationID uuid.UUID, item ExtractedTopic) (JobTopic, error) {
	name := strings.TrimSpace(item.Topic)
	if name == "" {
		name = strings.TrimSpace(item.RawTopic)
	}
	normalized := NormalizeTopic(name)
	if !ValidTopic(normalized) {
		return JobTopic{}, ErrInvalidTopic
	}
	normalized = Truncate(normalized, MaxLabelLength)

	raw := strings.TrimSpace(item.RawTopic)
	if raw == "" {
		raw = name
	}

	confidence := DefaultTopicConfidence
	if item.Confidence != nil {
		confidence = *item.Confidence
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return JobTopic{
		JobSourceID:     source.ID,
		ConversationID:  conversationID,
		NormalizedTopic: normalized,
		RawTopic:        raw,
		FrequencyWeight: DefaultFrequencyWeight,
		Confidence:      confidence,
	}, nil
}
