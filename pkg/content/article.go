package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/markusmobius/go-trafilatura"
)

// ArticleFetcher loads article pages linked from feed items and extracts their text
type ArticleFetcher struct {
	client *http.Client
}

// NewArticleFetcher makes fetcher with the given request timeout
func NewArticleFetcher(timeout time.Duration) *ArticleFetcher {
	return &ArticleFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves the page and returns its main text
func (f *ArticleFetcher) Fetch(ctx context.Context, link string) (string, error) {
	parsedURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid url: %s", link)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("make request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; MailDigest/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, link)
	}

	res, err := trafilatura.Extract(resp.Body, trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		Deduplicate:     true,
		OriginalURL:     parsedURL,
	})
	if err != nil {
		return "", fmt.Errorf("extract content from %s: %w", link, err)
	}
	if res == nil || strings.TrimSpace(res.ContentText) == "" {
		return "", fmt.Errorf("no text content extracted from %s", link)
	}
	return normalizeSpace(res.ContentText), nil
}
