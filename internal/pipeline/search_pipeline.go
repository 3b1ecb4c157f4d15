package pipeline

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/llm"
	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/repository"
	"syllabus-gap/internal/scraper"
	"syllabus-gap/internal/search"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const minExtractTextLength = 50

// Notifier receives stage events. Delivery is best effort.
type Notifier interface {
	NotifyStage(ctx context.Context, evt domain.StageEvent)
}

type SearchPipelineParams struct {
	// CallBudget caps model calls per run; <= 0 disables the cap.
	CallBudget   int
	MaxResults   int
	TopCompanies []string
}

// SearchPipeline runs one search request end to end: parse, collect,
// extract, verify, record.
type SearchPipeline struct {
	llm           llm.Completer
	searcher      search.WebSearcher
	fetcher       scraper.PageFetcher
	conversations repository.ConversationRepository
	sources       repository.JobSourceRepository
	topics        repository.JobTopicRepository
	notifier      Notifier
	params        SearchPipelineParams

	log    *logger.Logger
	tracer trace.Tracer
}

func NewSearchPipeline(
	completer llm.Completer,
	searcher search.WebSearcher,
	fetcher scraper.PageFetcher,
	conversations repository.ConversationRepository,
	sources repository.JobSourceRepository,
	topics repository.JobTopicRepository,
	notifier Notifier,
	params SearchPipelineParams,
	log *logger.Logger,
) *SearchPipeline {
	if log == nil {
		log = logger.Nop()
	}
	if params.MaxResults <= 0 {
		params.MaxResults = DefaultMaxResults
	}
	return &SearchPipeline{
		llm:           completer,
		searcher:      searcher,
		fetcher:       fetcher,
		conversations: conversations,
		sources:       sources,
		topics:        topics,
		notifier:      notifier,
		params:        params,
		log:           log.With("pipeline", "search"),
		tracer:        otel.Tracer("syllabus-gap/pipeline"),
	}
}

// Run executes a search. conversationID may be nil to start a new
// conversation. Only storage failures are returned as errors; model and
// network trouble degrades the result instead.
func (p *SearchPipeline) Run(ctx context.Context, instruction string, conversationID *uuid.UUID) (result domain.SearchResult, err error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "search.run")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	id := uuid.New()
	if conversationID != nil && *conversationID != uuid.Nil {
		id = *conversationID
	}
	span.SetAttributes(attribute.String("conversation.id", id.String()))
	log := p.log.With("conversation_id", id.String())
	log.Info("search started", "status", "started")

	budget := llm.NewBudget(p.llm, p.params.CallBudget)
	parser := NewConstraintParser(budget, log)
	collector := NewEvidenceCollector(p.searcher, p.fetcher, p.sources, p.params.MaxResults, log)
	extractor := NewTopicExtractor(budget, log)
	verifier := NewEvidenceVerifier(budget, p.params.TopCompanies, log)

	var constraints domain.Constraint
	p.stage(ctx, "search.parse", func(ctx context.Context) error {
		constraints = parser.Parse(ctx, instruction)
		return nil
	})

	var conv domain.Conversation
	if err := p.stage(ctx, "search.conversation", func(ctx context.Context) error {
		var err error
		conv, err = p.conversations.GetOrCreate(ctx, id, instruction)
		return err
	}); err != nil {
		return p.fail(ctx, log, id, "conversation", err)
	}
	p.notify(ctx, conv.ID, domain.StageStarted, 0)

	var sources []domain.JobSource
	if err := p.stage(ctx, "search.collect", func(ctx context.Context) error {
		var err error
		sources, err = collector.Collect(ctx, constraints, conv.ID)
		return err
	}); err != nil {
		return p.fail(ctx, log, conv.ID, "collect", err)
	}
	p.notify(ctx, conv.ID, domain.StageCollected, len(sources))

	var stored int
	if err := p.stage(ctx, "search.extract", func(ctx context.Context) error {
		var err error
		stored, err = p.extractTopics(ctx, log, extractor, conv.ID, sources)
		return err
	}); err != nil {
		return p.fail(ctx, log, conv.ID, "extract", err)
	}
	p.notify(ctx, conv.ID, domain.StageExtracted, stored)

	var verification domain.VerifierOutput
	p.stage(ctx, "search.verify", func(ctx context.Context) error {
		verification = verifier.Verify(ctx, constraints, domain.SummarizeEvidence(sources))
		return nil
	})
	p.notify(ctx, conv.ID, domain.StageVerified, verification.CoverageScore)

	next, err := conv.Status.Transition(domain.StatusSearchCompleted)
	if err != nil {
		return p.fail(ctx, log, conv.ID, "record", err)
	}
	if err := p.conversations.UpdateSearchState(ctx, conv.ID, constraints, next); err != nil {
		return p.fail(ctx, log, conv.ID, "record", err)
	}
	p.notify(ctx, conv.ID, domain.StageCompleted, len(sources))

	log.Info("search finished",
		"status", "finished",
		"sources", len(sources),
		"topics", stored,
		"verified", verification.IsPassed,
		"coverage", verification.CoverageScore,
		"llm_calls", budget.Used(),
		"duration", time.Since(start),
	)

	return domain.SearchResult{
		ConversationID:    conv.ID,
		ParsedConstraints: constraints,
		Verified:          verification.IsPassed,
		ResultsCount:      len(sources),
		SourcesSample:     domain.SampleSources(sources),
		Verification:      domain.SummarizeVerification(verification),
		TopicsStored:      stored,
	}, nil
}

func (p *SearchPipeline) extractTopics(ctx context.Context, log *logger.Logger, extractor *TopicExtractor, conversationID uuid.UUID, sources []domain.JobSource) (int, error) {
	stored := 0
	for _, src := range sources {
		text := src.EvidenceText()
		if utf8.RuneCountInString(text) < minExtractTextLength {
			continue
		}
		for _, item := range extractor.Extract(ctx, []string{text}) {
			topic, err := domain.NewJobTopic(src, conversationID, item)
			if err != nil {
				continue
			}
			if err := p.topics.Create(ctx, &topic); err != nil {
				return stored, fmt.Errorf("store topic for source %d: %w", src.ID, err)
			}
			stored++
		}
		log.Debug("topics extracted", "step", "extract", "source_id", src.ID)
	}
	return stored, nil
}

func (p *SearchPipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (p *SearchPipeline) fail(ctx context.Context, log *logger.Logger, conversationID uuid.UUID, step string, err error) (domain.SearchResult, error) {
	log.Error("search aborted", "step", step, "status", "error", "err", err)
	p.notify(ctx, conversationID, domain.StageFailed, 0)
	return domain.SearchResult{}, fmt.Errorf("search %s: %w", step, err)
}

func (p *SearchPipeline) notify(ctx context.Context, conversationID uuid.UUID, stage domain.Stage, count int) {
	if p.notifier == nil {
		return
	}
	p.notifier.NotifyStage(ctx, domain.StageEvent{
		Type:           "search_stage",
		ConversationID: conversationID,
		Stage:          stage,
		Count:          count,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}
