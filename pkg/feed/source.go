package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/maildigest/pkg/content"
	"github.com/umputun/maildigest/pkg/domain"
)

//go:generate moq -out mocks/article_fetcher.go -pkg mocks -skip-ensure -fmt goimports . ArticleFetcher

// ArticleFetcher loads the text of a linked article
type ArticleFetcher interface {
	Fetch(ctx context.Context, link string) (string, error)
}

// SourceOptions for feed Source
type SourceOptions struct {
	Name     string
	URL      string
	Lookback time.Duration // entries published earlier are ignored, entries without date are kept
	MinChars int           // entries with shorter text get the linked article fetched, 0 disables fetching
}

// Source presents recent feed entries as messages, entry guid serves as message id
type Source struct {
	parser  *Parser
	fetcher ArticleFetcher
	opts    SourceOptions
	now     func() time.Time

	mu      sync.Mutex
	title   string
	entries map[string]domain.FeedEntry
}

// NewSource makes feed source, fetcher may be nil
func NewSource(parser *Parser, fetcher ArticleFetcher, opts SourceOptions) *Source {
	if opts.Lookback <= 0 {
		opts.Lookback = 24 * time.Hour
	}
	if opts.Name == "" {
		opts.Name = opts.URL
	}
	return &Source{parser: parser, fetcher: fetcher, opts: opts, now: time.Now, entries: map[string]domain.FeedEntry{}}
}

// Account returns identity of the source
func (s *Source) Account() string { return "feed:" + s.opts.Name }

// ListRecent fetches the feed and returns ids of entries within lookback
func (s *Source) ListRecent(ctx context.Context) ([]string, error) {
	feed, err := s.parser.Parse(ctx, s.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("load feed %s: %w", s.opts.Name, err)
	}

	cutoff := s.now().Add(-s.opts.Lookback)
	entries := map[string]domain.FeedEntry{}
	var ids []string
	for _, e := range feed.Entries {
		if !e.Published.IsZero() && e.Published.Before(cutoff) {
			continue
		}
		if _, dup := entries[e.ID]; dup {
			continue
		}
		entries[e.ID] = e
		ids = append(ids, e.ID)
	}

	s.mu.Lock()
	s.title, s.entries = feed.Title, entries
	s.mu.Unlock()
	lgr.Printf("[DEBUG] feed %s: %d of %d entries are recent", s.opts.Name, len(ids), len(feed.Entries))
	return ids, nil
}

// Get returns entry as message. Short entries are enriched with the text of the linked article.
func (s *Source) Get(ctx context.Context, id string) (domain.Message, error) {
	s.mu.Lock()
	item, ok := s.entries[id]
	title := s.title
	s.mu.Unlock()
	if !ok {
		return domain.Message{}, fmt.Errorf("entry %s not found in feed %s", id, s.opts.Name)
	}

	body := item.Body
	if strings.TrimSpace(body) == "" {
		body = item.Summary
	}
	body = content.HTMLToText(body)

	if s.fetcher != nil && item.URL != "" && len([]rune(body)) < s.opts.MinChars {
		text, err := s.fetcher.Fetch(ctx, item.URL)
		if err != nil {
			lgr.Printf("[DEBUG] can't fetch article %s, using feed text: %v", item.URL, err)
		} else {
			body = text
		}
	}
	if item.URL != "" {
		body += "\n\nSource: " + item.URL
	}

	msg := domain.Message{
		ID:          id,
		Subject:     item.Title,
		Sender:      item.Author,
		Date:        "Unknown Date",
		Body:        strings.TrimSpace(body),
		Account:     s.Account(),
		AccountName: s.opts.Name,
	}
	if msg.Sender == "" {
		msg.Sender = title
	}
	if !item.Published.IsZero() {
		msg.Date = item.Published.Format(time.RFC1123Z)
	}
	return msg, nil
}
