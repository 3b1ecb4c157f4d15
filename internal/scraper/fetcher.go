package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"syllabus-gap/internal/domain"

	"github.com/gocolly/colly/v2"
)

const DefaultFetchTimeout = 10 * time.Second

// FetchResult is the outcome of fetching one page. ContentHash is only set
// when Status is success.
type FetchResult struct {
	URL         string              `json:"url"`
	Title       string              `json:"title"`
	Snippet     string              `json:"snippet"`
	RawText     string              `json:"raw_text"`
	Status      domain.AccessStatus `json:"status"`
	ContentHash string              `json:"content_hash"`
}

func (r FetchResult) OK() bool {
	return r.Status == domain.AccessSuccess
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string) FetchResult
}

type HTTPFetcher struct {
	timeout   time.Duration
	userAgent string
}

func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; SyllabusGapBot/1.0)"
	}
	return &HTTPFetcher{timeout: timeout, userAgent: userAgent}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) FetchResult {
	res := FetchResult{URL: pageURL, Status: domain.AccessError}

	if err := ctx.Err(); err != nil {
		return failed(res, err)
	}

	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var (
		status int
		body   []byte
		reqErr error
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	visitErr := c.Visit(pageURL)
	c.Wait()

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		res.Status = domain.AccessBlocked
		res.Snippet = fmt.Sprintf("Access blocked (HTTP %d)", status)
		return res
	case status != 0 && status != http.StatusOK:
		res.Snippet = fmt.Sprintf("HTTP %d", status)
		return res
	}

	if reqErr == nil {
		reqErr = visitErr
	}
	if reqErr != nil {
		return failed(res, reqErr)
	}
	if status != http.StatusOK {
		return failed(res, errors.New("no response"))
	}

	title, text, err := extractPage(body)
	if err != nil {
		return failed(res, err)
	}

	res.Title = title
	res.RawText = text
	res.Snippet = truncateRunes(text, snippetLength)
	res.Status = domain.AccessSuccess
	res.ContentHash = ContentHash(text)
	return res
}

func failed(res FetchResult, err error) FetchResult {
	res.Title = ""
	res.RawText = ""
	res.ContentHash = ""
	switch {
	case isTimeout(err):
		res.Status = domain.AccessTimeout
		res.Snippet = "Request timeout"
	case isConnectionError(err):
		res.Status = domain.AccessError
		res.Snippet = "Connection error"
	default:
		res.Status = domain.AccessError
		res.Snippet = "Error: " + err.Error()
	}
	return res
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

var _ PageFetcher = (*HTTPFetcher)(nil)
