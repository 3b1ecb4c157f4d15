package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/repository"

	"github.com/google/uuid"
)

const maxInstructionLength = 2000

type SearchRunner interface {
	Run(ctx context.Context, instruction string, conversationID *uuid.UUID) (domain.SearchResult, error)
}

type SearchParams struct {
	Instruction    string
	ConversationID string
}

type ConversationDetail struct {
	Conversation domain.Conversation     `json:"conversation"`
	Sources      []domain.JobSource      `json:"sources"`
	TopTopics    []repository.TopicCount `json:"top_topics"`
}

type SearchUsecase interface {
	Search(ctx context.Context, params SearchParams) (domain.SearchResult, error)
	GetConversation(ctx context.Context, id string) (ConversationDetail, error)
}

type Search struct {
	runner        SearchRunner
	conversations repository.ConversationRepository
	sources       repository.JobSourceRepository
	topics        repository.JobTopicRepository
	cache         DetailCache
	log           *logger.Logger
}

// NewSearchUsecase builds the search usecase. cache may be nil.
func NewSearchUsecase(
	runner SearchRunner,
	conversations repository.ConversationRepository,
	sources repository.JobSourceRepository,
	topics repository.JobTopicRepository,
	cache DetailCache,
	log *logger.Logger,
) *Search {
	if log == nil {
		log = logger.Nop()
	}
	return &Search{runner: runner, conversations: conversations, sources: sources, topics: topics, cache: cache, log: log}
}

func (u *Search) Search(ctx context.Context, params SearchParams) (domain.SearchResult, error) {
	instruction := strings.TrimSpace(params.Instruction)
	if instruction == "" {
		return domain.SearchResult{}, fmt.Errorf("%w: instruction is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(instruction) > maxInstructionLength {
		return domain.SearchResult{}, fmt.Errorf("%w: instruction longer than %d characters", ErrInvalidInput, maxInstructionLength)
	}

	var convID *uuid.UUID
	if raw := strings.TrimSpace(params.ConversationID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return domain.SearchResult{}, fmt.Errorf("%w: conversation_id must be a UUID", ErrInvalidInput)
		}
		convID = &id
	}

	res, err := u.runner.Run(ctx, instruction, convID)
	if err != nil {
		return domain.SearchResult{}, err
	}
	if u.cache != nil {
		if err := u.cache.Delete(ctx, conversationDetailKey(res.ConversationID)); err != nil {
			u.log.Warn("conversation cache invalidate failed", "conversation_id", res.ConversationID, "err", err)
		}
	}
	return res, nil
}

func (u *Search) GetConversation(ctx context.Context, rawID string) (ConversationDetail, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return ConversationDetail{}, fmt.Errorf("%w: conversation_id must be a UUID", ErrInvalidInput)
	}

	key := conversationDetailKey(id)
	if u.cache != nil {
		var cached ConversationDetail
		if ok, err := u.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}

	conv, err := u.conversations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ConversationDetail{}, ErrNotFound
		}
		return ConversationDetail{}, err
	}

	sources, err := u.sources.ListByConversation(ctx, id)
	if err != nil {
		return ConversationDetail{}, err
	}
	for i := range sources {
		sources[i].RawText = ""
	}

	top, err := u.topics.TopTopics(ctx, id, 25)
	if err != nil {
		return ConversationDetail{}, err
	}

	detail := ConversationDetail{Conversation: conv, Sources: sources, TopTopics: top}
	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, detail, conversationDetailTTL); err != nil {
			u.log.Warn("conversation cache write failed", "conversation_id", id, "err", err)
		}
	}
	return detail, nil
}
