// Package feed exposes RSS/Atom feeds as an additional source of digest messages.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/maildigest/pkg/domain"
)

// Parser loads RSS/Atom documents over http
type Parser struct {
	client *http.Client
}

// NewParser makes parser with the given request timeout
func NewParser(timeout time.Duration) *Parser {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.MaxIdleConnsPerHost = 4
	return &Parser{client: &http.Client{Timeout: timeout, Transport: tr}}
}

// Parse loads the feed at url and converts its entries
func (p *Parser) Parse(ctx context.Context, url string) (*domain.Feed, error) {
	body, err := p.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer body.Close()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	res := &domain.Feed{Title: parsed.Title, Summary: parsed.Description, Site: parsed.Link}
	res.Entries = make([]domain.FeedEntry, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		res.Entries = append(res.Entries, toEntry(parsed.Title, it))
	}
	return res, nil
}

func toEntry(feedTitle string, it *gofeed.Item) domain.FeedEntry {
	e := domain.FeedEntry{Title: it.Title, URL: it.Link, Summary: it.Description, Body: it.Content}

	e.ID = it.GUID
	if e.ID == "" {
		e.ID = it.Link
	}
	if e.ID == "" {
		e.ID = feedTitle + "-" + it.Title
	}

	if it.Author != nil {
		e.Author = it.Author.Name
	}
	for _, ts := range []*time.Time{it.PublishedParsed, it.UpdatedParsed} {
		if ts != nil {
			e.Published = *ts
			break
		}
	}
	return e
}

func (p *Parser) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("make request: %w", err)
	}
	setFeedHeaders(req)

	resp, err := p.client.Do(req)
	switch {
	case err != nil:
		return nil, fmt.Errorf("get %s: %w", url, err)
	case resp.StatusCode != http.StatusOK:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}
