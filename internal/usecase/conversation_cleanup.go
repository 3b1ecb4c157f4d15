package usecase

import (
	"context"
	"time"

	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/repository"
)

// PatternDeleter drops cached keys by pattern.
type PatternDeleter interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ConversationCleanup deletes conversations older than the retention window.
type ConversationCleanup struct {
	conversations repository.ConversationRepository
	cache         PatternDeleter
	retention     time.Duration
	log           *logger.Logger
	now           func() time.Time
}

func NewConversationCleanup(conversations repository.ConversationRepository, retentionDays int, log *logger.Logger) *ConversationCleanup {
	if log == nil {
		log = logger.Nop()
	}
	return &ConversationCleanup{
		conversations: conversations,
		retention:     time.Duration(retentionDays) * 24 * time.Hour,
		log:           log,
		now:           time.Now,
	}
}

// WithCache makes each run purge cached conversation details.
func (c *ConversationCleanup) WithCache(cache PatternDeleter) *ConversationCleanup {
	c.cache = cache
	return c
}

func (c *ConversationCleanup) Enabled() bool {
	return c != nil && c.retention > 0
}

func (c *ConversationCleanup) Run(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	cutoff := c.now().UTC().Add(-c.retention)
	n, err := c.conversations.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		c.log.Error("conversation cleanup failed", "cutoff", cutoff, "err", err)
		return 0, err
	}
	c.log.Info("conversation cleanup finished", "cutoff", cutoff, "deleted", n)

	if n > 0 && c.cache != nil {
		if err := c.cache.DeleteByPattern(ctx, conversationDetailPrefix+"*"); err != nil {
			c.log.Warn("conversation cache purge failed", "err", err)
		}
	}
	return n, nil
}
