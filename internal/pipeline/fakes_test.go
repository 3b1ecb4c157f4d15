package pipeline

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/repository"
	"syllabus-gap/internal/scraper"
	"syllabus-gap/internal/search"

	"github.com/google/uuid"
)

// fakeLLM answers by prompt kind. An empty reply for a kind means "fail".
type fakeLLM struct {
	mu sync.Mutex

	parse   string
	extract []string
	verify  string

	calls        map[string]int
	extractIndex int
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}

	kind := promptKind(prompt)
	f.calls[kind]++

	var reply string
	switch kind {
	case "parse":
		reply = f.parse
	case "extract":
		if f.extractIndex < len(f.extract) {
			reply = f.extract[f.extractIndex]
		}
		f.extractIndex++
	case "verify":
		reply = f.verify
	}
	if reply == "" {
		return "", errors.New("model unavailable")
	}
	return reply, nil
}

func promptKind(prompt string) string {
	switch {
	case strings.HasPrefix(prompt, "Parse the user's"):
		return "parse"
	case strings.HasPrefix(prompt, "Extract technical skills"):
		return "extract"
	case strings.HasPrefix(prompt, "You are a verification agent"):
		return "verify"
	}
	return "unknown"
}

type fakeSearcher struct {
	results []search.Result
	err     error
	queries []string
}

func (s *fakeSearcher) Search(_ context.Context, query string, maxResults int) ([]search.Result, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

type scraperPage = scraper.FetchResult

type fakeFetcher struct {
	pages   map[string]scraperPage
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) scraper.FetchResult {
	f.fetched = append(f.fetched, url)
	if p, ok := f.pages[url]; ok {
		p.URL = url
		return p
	}
	return scraper.FetchResult{URL: url, Status: domain.AccessError, Snippet: "Connection error"}
}

func okPage(title, text string) scraperPage {
	return scraperPage{
		Title:       title,
		RawText:     text,
		Snippet:     text,
		Status:      domain.AccessSuccess,
		ContentHash: scraper.ContentHash(text),
	}
}

type memConversations struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Conversation
	err   error
}

func newMemConversations() *memConversations {
	return &memConversations{items: map[uuid.UUID]domain.Conversation{}}
}

func (m *memConversations) Get(_ context.Context, id uuid.UUID) (domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return domain.Conversation{}, repository.ErrNotFound
	}
	return c, nil
}

func (m *memConversations) GetOrCreate(_ context.Context, id uuid.UUID, instruction string) (domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Conversation{}, m.err
	}
	now := time.Now().UTC()
	c, ok := m.items[id]
	if !ok {
		c = domain.Conversation{ID: id, CreatedAt: now, Status: domain.StatusActive}
	}
	c.UserInstructionLast = instruction
	c.UpdatedAt = now
	m.items[id] = c
	return c, nil
}

func (m *memConversations) UpdateSearchState(_ context.Context, id uuid.UUID, constraints domain.Constraint, status domain.ConversationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.ParsedConstraints = &constraints
	c.Status = status
	m.items[id] = c
	return nil
}

func (m *memConversations) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memConversations) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.items {
		if c.CreatedAt.Before(cutoff) {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

type memSources struct {
	mu     sync.Mutex
	nextID int64
	byHash map[string]domain.JobSource

	// preempt simulates a concurrent writer: Create stores this row first
	// and then reports the conflict.
	preempt   map[string]domain.JobSource
	createErr error
	creates   int
}

func newMemSources() *memSources {
	return &memSources{byHash: map[string]domain.JobSource{}, preempt: map[string]domain.JobSource{}}
}

func (m *memSources) GetByContentHash(_ context.Context, hash string) (domain.JobSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byHash[hash]
	if !ok {
		return domain.JobSource{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memSources) Create(_ context.Context, src *domain.JobSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	if other, ok := m.preempt[src.ContentHash]; ok {
		m.nextID++
		other.ID = m.nextID
		m.byHash[src.ContentHash] = other
		delete(m.preempt, src.ContentHash)
		return repository.ErrDuplicateContent
	}
	if _, ok := m.byHash[src.ContentHash]; ok {
		return repository.ErrDuplicateContent
	}
	m.nextID++
	src.ID = m.nextID
	m.byHash[src.ContentHash] = *src
	return nil
}

func (m *memSources) ListByConversation(_ context.Context, conversationID uuid.UUID) ([]domain.JobSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.JobSource
	for _, s := range m.byHash {
		if s.ConversationID == conversationID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memTopics struct {
	mu     sync.Mutex
	items  []domain.JobTopic
	err    error
	nextID int64
}

func (m *memTopics) Create(_ context.Context, topic *domain.JobTopic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	topic.ID = m.nextID
	m.items = append(m.items, *topic)
	return nil
}

func (m *memTopics) ListByConversation(_ context.Context, conversationID uuid.UUID) ([]domain.JobTopic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.JobTopic
	for _, t := range m.items {
		if t.ConversationID == conversationID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTopics) TopTopics(_ context.Context, conversationID uuid.UUID, limit int) ([]repository.TopicCount, error) {
	return nil, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	stages []domain.Stage
}

func (n *recordingNotifier) NotifyStage(_ context.Context, evt domain.StageEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stages = append(n.stages, evt.Stage)
}
