package search

import (
	"context"
	"errors"
)

// ErrMissingCredentials means the search provider is not configured. The
// collector treats it as "no results" rather than a failure.
var ErrMissingCredentials = errors.New("search provider credentials missing")

type Result struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
