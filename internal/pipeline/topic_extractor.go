package pipeline

import (
	"context"
	"encoding/json"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/llm"
	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/prompts"
)

const (
	maxExtractTexts = 10
	maxExtractChars = 5000
)

type TopicExtractor struct {
	llm llm.Completer
	log *logger.Logger
}

func NewTopicExtractor(completer llm.Completer, log *logger.Logger) *TopicExtractor {
	if log == nil {
		log = logger.Nop()
	}
	return &TopicExtractor{llm: completer, log: log}
}

// Extract pulls topics out of up to ten texts, one model call each. A text
// whose call or reply fails contributes nothing; the rest still count.
func (e *TopicExtractor) Extract(ctx context.Context, texts []string) []domain.ExtractedTopic {
	if len(texts) > maxExtractTexts {
		texts = texts[:maxExtractTexts]
	}

	out := make([]domain.ExtractedTopic, 0)
	for i, text := range texts {
		items, err := e.extractOne(ctx, text)
		if err != nil {
			e.log.Warn("topic extraction failed", "step", "extract", "item", i, "err", err)
			continue
		}
		out = append(out, items...)
	}
	return out
}

func (e *TopicExtractor) extractOne(ctx context.Context, text string) ([]domain.ExtractedTopic, error) {
	prompt, err := prompts.JobTopicExtract(truncateChars(text, maxExtractChars))
	if err != nil {
		return nil, err
	}
	reply, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := llm.DecodeJSON(reply, &raw); err != nil {
		return nil, err
	}

	items := make([]domain.ExtractedTopic, 0, len(raw))
	for _, r := range raw {
		var t domain.ExtractedTopic
		if err := json.Unmarshal(r, &t); err != nil {
			continue
		}
		items = append(items, t)
	}
	return items, nil
}

func truncateChars(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
