package domain

import "github.com/google/uuid"

type SourceSample struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type VerificationSummary struct {
	CoverageScore         int               `json:"coverage_score"`
	FailReasons           []string          `json:"fail_reasons"`
	ConstraintViolations  map[string]string `json:"constraint_violations"`
	RetryQuerySuggestions []string          `json:"retry_query_suggestions"`
}

// SearchResult is what one search run reports back to its caller.
type SearchResult struct {
	ConversationID    uuid.UUID           `json:"conversation_id"`
	ParsedConstraints Constraint          `json:"parsed_constraints"`
	Verified          bool                `json:"verified"`
	ResultsCount      int                 `json:"results_count"`
	SourcesSample     []SourceSample      `json:"sources_sample"`
	Verification      VerificationSummary `json:"verification"`
	TopicsStored      int                 `json:"topics_stored"`
}

const sourcesSampleSize = 3

func SampleSources(sources []JobSource) []SourceSample {
	n := len(sources)
	if n > sourcesSampleSize {
		n = sourcesSampleSize
	}
	out := make([]SourceSample, 0, n)
	for _, s := range sources[:n] {
		out = append(out, SourceSample{URL: s.URL, Title: s.Title})
	}
	return out
}

func SummarizeVerification(v VerifierOutput) VerificationSummary {
	return VerificationSummary{
		CoverageScore:         v.CoverageScore,
		FailReasons:           v.FailReasons,
		ConstraintViolations:  v.ConstraintViolations,
		RetryQuerySuggestions: v.RetryQuerySuggestions,
	}
}

type Stage string

const (
	StageStarted   Stage = "search.started"
	StageCollected Stage = "search.collected"
	StageExtracted Stage = "search.extracted"
	StageVerified  Stage = "search.verified"
	StageCompleted Stage = "search.completed"
	StageFailed    Stage = "search.failed"
)

// StageEvent reports pipeline progress to live listeners.
type StageEvent struct {
	Type           string    `json:"type"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Stage          Stage     `json:"stage"`
	Count          int       `json:"count,omitempty"`
	Timestamp      string    `json:"timestamp"`
}
