package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"syllabus-gap/internal/config"
	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/search"
)

const placeholderKey = "your_tavily_key_here"

type TavilyClient struct {
	baseURL string
	apiKey  string
	depth   string
	client  *http.Client
	log     *logger.Logger
}

type tavilySearchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth,omitempty"`
}

type tavilySearchResponse struct {
	Results []struct {
		URL     string  `json:"url"`
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func NewTavilyClient(cfg config.SearchConfig, log *logger.Logger) *TavilyClient {
	if log == nil {
		log = logger.Nop()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://api.tavily.com"
	}
	return &TavilyClient{
		baseURL: base,
		apiKey:  strings.TrimSpace(cfg.TavilyAPIKey),
		depth:   strings.TrimSpace(cfg.Depth),
		client:  &http.Client{Timeout: 20 * time.Second},
		log:     log,
	}
}

func (c *TavilyClient) configured() bool {
	return c != nil && c.apiKey != "" && c.apiKey != placeholderKey
}

func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if !c.configured() {
		return nil, search.ErrMissingCredentials
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty search query")
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	endpoint := c.baseURL + "/search"
	b, err := json.Marshal(tavilySearchRequest{Query: query, MaxResults: maxResults, SearchDepth: c.depth})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: status=%d", search.ErrMissingCredentials, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		bodyStr := strings.TrimSpace(string(rb))
		c.log.Warn("tavily search failed", "endpoint", endpoint, "status", resp.StatusCode, "body", bodyStr)
		return nil, fmt.Errorf("tavily search failed: status=%d", resp.StatusCode)
	}

	var out tavilySearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("tavily search: decode: %w", err)
	}

	results := make([]search.Result, 0, len(out.Results))
	for _, r := range out.Results {
		if len(results) >= maxResults {
			break
		}
		results = append(results, search.Result{
			URL:     strings.TrimSpace(r.URL),
			Title:   strings.TrimSpace(r.Title),
			Content: r.Content,
			Score:   r.Score,
		})
	}
	return results, nil
}

var _ search.WebSearcher = (*TavilyClient)(nil)
