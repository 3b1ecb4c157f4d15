package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/llm"
	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/repository"
	"syllabus-gap/internal/scraper"
	"syllabus-gap/internal/search"

	"github.com/google/uuid"
)

const (
	DefaultMaxResults = 10

	querySuffix     = "job description"
	topCompanyQuery = "top tech companies"
)

// BuildQuery renders a constraint as a web search query.
func BuildQuery(c domain.Constraint) string {
	parts := make([]string, 0, len(c.RoleKeywords)+3)
	for _, k := range c.RoleKeywords {
		if k = strings.TrimSpace(k); k != "" {
			parts = append(parts, k)
		}
	}
	if c.Location != nil && strings.TrimSpace(*c.Location) != "" {
		parts = append(parts, strings.TrimSpace(*c.Location))
	}
	if c.CompanyTier == domain.CompanyTierTop {
		parts = append(parts, topCompanyQuery)
	}
	parts = append(parts, querySuffix)
	return strings.Join(parts, " ")
}

type EvidenceCollector struct {
	searcher   search.WebSearcher
	fetcher    scraper.PageFetcher
	sources    repository.JobSourceRepository
	maxResults int
	log        *logger.Logger
	now        func() time.Time
}

func NewEvidenceCollector(searcher search.WebSearcher, fetcher scraper.PageFetcher, sources repository.JobSourceRepository, maxResults int, log *logger.Logger) *EvidenceCollector {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EvidenceCollector{
		searcher:   searcher,
		fetcher:    fetcher,
		sources:    sources,
		maxResults: maxResults,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Collect searches, fetches and stores job postings for a conversation.
// Search failures yield an empty list; storage failures are returned.
func (c *EvidenceCollector) Collect(ctx context.Context, constraints domain.Constraint, conversationID uuid.UUID) ([]domain.JobSource, error) {
	query := BuildQuery(constraints)

	results, err := c.searcher.Search(ctx, query, c.maxResults)
	if err != nil {
		if errors.Is(err, search.ErrMissingCredentials) {
			c.log.Warn("search provider not configured, skipping collection", "step", "collect", "query", query)
		} else {
			c.log.Error("search failed", "step", "collect", "query", query, "err", err)
		}
		return []domain.JobSource{}, nil
	}
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}

	out := make([]domain.JobSource, 0, len(results))

	for _, r := range results {
		pageURL := strings.TrimSpace(r.URL)
		if pageURL == "" {
			continue
		}

		page := c.fetcher.Fetch(ctx, pageURL)
		if !page.OK() {
			c.log.Info("page skipped", "step", "collect", "url", pageURL, "status", page.Status, "reason", page.Snippet)
			continue
		}
		if hits := llm.DetectInjection(page.RawText); len(hits) > 0 {
			c.log.Warn("suspicious instructions in page text", "step", "collect", "url", pageURL, "patterns", hits)
		}

		existing, err := c.sources.GetByContentHash(ctx, page.ContentHash)
		if err == nil {
			out = append(out, existing)
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		src := c.newSource(conversationID, constraints, r, page)
		err = c.sources.Create(ctx, &src)
		if errors.Is(err, repository.ErrDuplicateContent) {
			existing, err = c.sources.GetByContentHash(ctx, page.ContentHash)
			if err != nil {
				return nil, err
			}
			out = append(out, existing)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}

	c.log.Info("collection finished", "step", "collect", "query", query, "results", len(results), "sources", len(out))
	return out, nil
}

func (c *EvidenceCollector) newSource(conversationID uuid.UUID, constraints domain.Constraint, r search.Result, page scraper.FetchResult) domain.JobSource {
	company := scraper.CompanyFromURL(page.URL)
	if company == "" {
		company = scraper.CompanyFromTitle(r.Title)
	}
	title := page.Title
	if title == "" {
		title = strings.TrimSpace(r.Title)
	}
	site := strings.TrimSpace(r.Source)
	if site == "" {
		site = scraper.SiteLabel(page.URL)
	}
	src := domain.JobSource{
		ConversationID: conversationID,
		URL:            page.URL,
		SourceSite:     site,
		Title:          title,
		Company:        company,
		Role:           constraints.PrimaryRole(),
		FetchedAt:      c.now(),
		Snippet:        page.Snippet,
		RawText:        page.RawText,
		AccessStatus:   page.Status,
		ContentHash:    page.ContentHash,
	}
	src.ClampLabels()
	return src
}
