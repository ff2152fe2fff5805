package qrcatalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultFetchTimeout = 15 * time.Second
	// Product pages are small, anything bigger is not worth scraping.
	maxPageSize = 8 << 20
)

var ErrBadStatus = errors.New("unexpected response status")

// PageFetcher retrieves and scrapes one product page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (ScrapedPage, error)
}

type HTTPFetcher struct {
	Client       *http.Client
	Timeout      time.Duration
	UserAgent    string
	FallbackCode string
}

func NewHTTPFetcher(timeout time.Duration, fallbackCode string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{
		Client:       &http.Client{},
		Timeout:      timeout,
		UserAgent:    "QRCatalog/1.0",
		FallbackCode: fallbackCode,
	}
}

// Fetch issues a GET bounded by the fetcher timeout. Network errors and
// non-2xx responses are returned as errors, scraping itself never fails.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (ScrapedPage, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ScrapedPage{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return ScrapedPage{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageSize))
		return ScrapedPage{}, fmt.Errorf("%w: %s returned %d", ErrBadStatus, url, resp.StatusCode)
	}

	return ScrapePage(io.LimitReader(resp.Body, maxPageSize), f.FallbackCode), nil
}
