package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	conversationDetailTTL    = 2 * time.Minute
	conversationDetailPrefix = "conversation:detail:"
)

type DetailCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func conversationDetailKey(id uuid.UUID) string {
	return conversationDetailPrefix + id.String()
}
