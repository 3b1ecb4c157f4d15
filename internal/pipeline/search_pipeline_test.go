package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/search"

	"github.com/google/uuid"
)

const postingFiller = " We build batch and streaming pipelines, own the warehouse, and mentor analysts."

type pipelineFixture struct {
	llm           *fakeLLM
	searcher      *fakeSearcher
	fetcher       *fakeFetcher
	conversations *memConversations
	sources       *memSources
	topics        *memTopics
	notifier      *recordingNotifier
}

func newPipelineFixture() *pipelineFixture {
	return &pipelineFixture{
		llm: &fakeLLM{
			parse: `{"role_keywords": ["Data Engineer"], "company_tier": "top_companies", "time_window": {"unit": "days", "value": 30}}`,
			extract: []string{
				`[{"topic": "SQL", "confidence": 0.9}, {"topic": "Go"}, {"topic": "The Kafka!"}]`,
				`[{"topic": "sql"}, {"topic": "dbt", "raw_topic": "dbt models"}]`,
			},
			verify: `{"pass": true, "coverage_score": 75, "fail_reasons": [], "constraint_violations": {}, "retry_query_suggestions": []}`,
		},
		searcher: &fakeSearcher{results: []search.Result{
			{URL: "https://boards.greenhouse.io/stripe/jobs/1", Title: "Stripe - Data Engineer"},
			{URL: "https://jobs.lever.co/netflix/2", Title: "Netflix - Data Engineer"},
			{URL: "https://example.com/blocked", Title: "Blocked"},
			{URL: "https://example.com/short", Title: "Short"},
		}},
		fetcher: &fakeFetcher{pages: map[string]scraperPage{
			"https://boards.greenhouse.io/stripe/jobs/1": okPage("Data Engineer", "Stripe data engineer posting."+postingFiller),
			"https://jobs.lever.co/netflix/2":            okPage("Data Engineer", "Netflix data engineer posting."+postingFiller),
			"https://example.com/blocked":                {Status: domain.AccessBlocked, Snippet: "Access blocked (HTTP 403)"},
			"https://example.com/short":                  okPage("Short", "too short to extract"),
		}},
		conversations: newMemConversations(),
		sources:       newMemSources(),
		topics:        &memTopics{},
		notifier:      &recordingNotifier{},
	}
}

func (f *pipelineFixture) pipeline(budget int) *SearchPipeline {
	return NewSearchPipeline(
		f.llm, f.searcher, f.fetcher,
		f.conversations, f.sources, f.topics,
		f.notifier,
		SearchPipelineParams{CallBudget: budget, MaxResults: 10, TopCompanies: []string{"Stripe", "Netflix"}},
		nil,
	)
}

func TestSearchPipeline_Run(t *testing.T) {
	f := newPipelineFixture()

	res, err := f.pipeline(12).Run(context.Background(), "Find Data Engineer jobs from top companies in the last 30 days", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.ConversationID == uuid.Nil {
		t.Fatalf("expected a new conversation id")
	}
	pc := res.ParsedConstraints
	if pc.CompanyTier != domain.CompanyTierTop || len(pc.RoleKeywords) != 1 || pc.RoleKeywords[0] != "Data Engineer" {
		t.Fatalf("unexpected constraints %+v", pc)
	}
	if pc.TimeWindow == nil || pc.TimeWindow.Unit != domain.TimeUnitDays || pc.TimeWindow.Value != 30 {
		t.Fatalf("unexpected time window %+v", pc.TimeWindow)
	}
	if res.ResultsCount != 3 {
		t.Fatalf("expected 3 sources, got %d", res.ResultsCount)
	}
	if len(res.SourcesSample) != 3 || res.SourcesSample[0].URL != "https://boards.greenhouse.io/stripe/jobs/1" {
		t.Fatalf("unexpected sample %#v", res.SourcesSample)
	}
	if !res.Verified || res.Verification.CoverageScore != 75 {
		t.Fatalf("unexpected verification %+v", res.Verification)
	}

	// "Go" is too short; the short page is never sent for extraction.
	if res.TopicsStored != 4 || len(f.topics.items) != 4 {
		t.Fatalf("expected 4 stored topics, got %d/%d", res.TopicsStored, len(f.topics.items))
	}
	if f.topics.items[1].NormalizedTopic != "kafka" {
		t.Fatalf("unexpected normalized topic %q", f.topics.items[1].NormalizedTopic)
	}
	if f.llm.calls["extract"] != 2 {
		t.Fatalf("expected 2 extraction calls, got %d", f.llm.calls["extract"])
	}
	if got := f.searcher.queries[0]; got != "Data Engineer top tech companies job description" {
		t.Fatalf("unexpected query %q", got)
	}

	conv, err := f.conversations.Get(context.Background(), res.ConversationID)
	if err != nil {
		t.Fatalf("conversation not stored: %v", err)
	}
	if conv.Status != domain.StatusSearchCompleted || conv.ParsedConstraints == nil {
		t.Fatalf("unexpected conversation %+v", conv)
	}

	want := []domain.Stage{domain.StageStarted, domain.StageCollected, domain.StageExtracted, domain.StageVerified, domain.StageCompleted}
	if len(f.notifier.stages) != len(want) {
		t.Fatalf("unexpected stages %v", f.notifier.stages)
	}
	for i := range want {
		if f.notifier.stages[i] != want[i] {
			t.Fatalf("stage %d = %s, want %s", i, f.notifier.stages[i], want[i])
		}
	}
}

func TestSearchPipeline_ContinuesConversation(t *testing.T) {
	f := newPipelineFixture()
	id := uuid.New()
	if _, err := f.conversations.GetOrCreate(context.Background(), id, "first"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := f.conversations.UpdateSearchState(context.Background(), id, domain.DefaultConstraint(), domain.StatusCompleted); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := f.pipeline(0).Run(context.Background(), "again", &id)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.ConversationID != id {
		t.Fatalf("expected conversation %s, got %s", id, res.ConversationID)
	}
	conv, _ := f.conversations.Get(context.Background(), id)
	if conv.Status != domain.StatusSearchCompleted || conv.UserInstructionLast != "again" {
		t.Fatalf("unexpected conversation %+v", conv)
	}
}

func TestSearchPipeline_BudgetExhaustion(t *testing.T) {
	f := newPipelineFixture()

	res, err := f.pipeline(2).Run(context.Background(), "data engineer", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.llm.calls["extract"] != 1 || f.llm.calls["verify"] != 0 {
		t.Fatalf("unexpected model calls %v", f.llm.calls)
	}
	if res.Verified {
		t.Fatalf("expected verification to fail closed")
	}
	if len(res.Verification.FailReasons) != 1 || !strings.Contains(res.Verification.FailReasons[0], "budget exhausted") {
		t.Fatalf("unexpected fail reasons %#v", res.Verification.FailReasons)
	}
	if res.TopicsStored != 2 {
		t.Fatalf("expected topics from the first source only, got %d", res.TopicsStored)
	}

	conv, err := f.conversations.Get(context.Background(), res.ConversationID)
	if err != nil {
		t.Fatalf("conversation not stored: %v", err)
	}
	if conv.Status != domain.StatusSearchCompleted {
		t.Fatalf("expected search_completed after failed verification, got %s", conv.Status)
	}
	if conv.ParsedConstraints == nil || len(conv.ParsedConstraints.RoleKeywords) != 1 {
		t.Fatalf("expected parsed constraints stored, got %+v", conv.ParsedConstraints)
	}
}

func TestSearchPipeline_ModelDown(t *testing.T) {
	f := newPipelineFixture()
	f.llm = &fakeLLM{}

	res, err := f.pipeline(12).Run(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.searcher.queries[0] != "job description" {
		t.Fatalf("expected default query, got %q", f.searcher.queries[0])
	}
	if res.Verified || res.TopicsStored != 0 || res.ResultsCount != 3 {
		t.Fatalf("unexpected result %+v", res)
	}

	conv, err := f.conversations.Get(context.Background(), res.ConversationID)
	if err != nil {
		t.Fatalf("conversation not stored: %v", err)
	}
	if conv.Status != domain.StatusSearchCompleted {
		t.Fatalf("expected search_completed after failed verification, got %s", conv.Status)
	}
	if conv.ParsedConstraints == nil || conv.ParsedConstraints.CompanyTier != domain.CompanyTierAny || len(conv.ParsedConstraints.RoleKeywords) != 0 {
		t.Fatalf("expected default constraints stored, got %+v", conv.ParsedConstraints)
	}
}

func TestSearchPipeline_PersistenceErrorPropagates(t *testing.T) {
	f := newPipelineFixture()
	f.topics.err = errors.New("topics table locked")

	_, err := f.pipeline(12).Run(context.Background(), "data engineer", nil)
	if err == nil || !strings.Contains(err.Error(), "topics table locked") {
		t.Fatalf("expected topic storage error, got %v", err)
	}
	last := f.notifier.stages[len(f.notifier.stages)-1]
	if last != domain.StageFailed {
		t.Fatalf("expected failed stage last, got %s", last)
	}
}

func TestSearchPipeline_ConversationStoreError(t *testing.T) {
	f := newPipelineFixture()
	f.conversations.err = errors.New("connection refused")

	if _, err := f.pipeline(12).Run(context.Background(), "x", nil); err == nil {
		t.Fatalf("expected error")
	}
	if len(f.searcher.queries) != 0 {
		t.Fatalf("expected no search after storage failure")
	}
}
