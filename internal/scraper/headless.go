package scraper

import (
	"context"
	"time"

	"syllabus-gap/internal/domain"

	"github.com/chromedp/chromedp"
)

// HeadlessFetcher renders pages in headless Chrome before extracting text.
// Chrome does not expose the HTTP status here, so only success, timeout and
// error are reported.
type HeadlessFetcher struct {
	timeout   time.Duration
	userAgent string
	settle    time.Duration
}

func NewHeadlessFetcher(timeout time.Duration, userAgent string) *HeadlessFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HeadlessFetcher{timeout: timeout, userAgent: userAgent, settle: 1500 * time.Millisecond}
}

func (f *HeadlessFetcher) Fetch(ctx context.Context, pageURL string) FetchResult {
	res := FetchResult{URL: pageURL, Status: domain.AccessError}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if f.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.userAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	reqCtx, reqCancel := context.WithTimeout(browserCtx, f.timeout)
	defer reqCancel()

	var html string
	err := chromedp.Run(reqCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return failed(res, err)
	}

	title, text, err := extractPage([]byte(html))
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

var _ PageFetcher = (*HeadlessFetcher)(nil)
