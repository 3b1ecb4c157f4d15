package llm

import (
	"context"
	"errors"
	"sync/atomic"
)

var ErrBudgetExhausted = errors.New("llm call budget exhausted")

// Budget caps the number of calls made through it. A fresh Budget is used
// per pipeline run.
type Budget struct {
	next  Completer
	limit int64
	used  atomic.Int64
}

// NewBudget wraps next. A limit <= 0 means unlimited.
func NewBudget(next Completer, limit int) *Budget {
	return &Budget{next: next, limit: int64(limit)}
}

func (b *Budget) Complete(ctx context.Context, prompt string) (string, error) {
	n := b.used.Add(1)
	if b.limit > 0 && n > b.limit {
		return "", ErrBudgetExhausted
	}
	return b.next.Complete(ctx, prompt)
}

func (b *Budget) Used() int {
	return int(b.used.Load())
}
