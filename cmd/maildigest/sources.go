package main

import (
	"context"
	"log"
	"time"

	"google.golang.org/api/option"

	"github.com/umputun/maildigest/pkg/config"
	"github.com/umputun/maildigest/pkg/content"
	"github.com/umputun/maildigest/pkg/feed"
	"github.com/umputun/maildigest/pkg/mailbox"
	"github.com/umputun/maildigest/pkg/pipeline"
)

// mailboxSources yields gmail mailboxes authenticated on every run, followed by feed sources
type mailboxSources struct {
	accounts   []mailbox.Account
	gmailOpts  mailbox.Options
	clientOpts []option.ClientOption
	feeds      []*feed.Source
}

func newSources(cfg *config.Config, clientOpts ...option.ClientOption) *mailboxSources {
	s := &mailboxSources{
		gmailOpts: mailbox.Options{
			Query:             cfg.Gmail.Query,
			PageSize:          cfg.Gmail.PageSize,
			RequestsPerSecond: cfg.Gmail.RequestsPerSecond,
		},
		clientOpts: clientOpts,
	}
	for _, ac := range cfg.Accounts {
		s.accounts = append(s.accounts, toAccount(ac))
	}
	if len(cfg.Feeds) > 0 {
		parser := feed.NewParser(30 * time.Second)
		fetcher := content.NewArticleFetcher(30 * time.Second)
		for _, f := range cfg.Feeds {
			s.feeds = append(s.feeds, feed.NewSource(parser, fetcher, feed.SourceOptions{
				Name: f.Name, URL: f.URL, Lookback: f.Lookback, MinChars: cfg.Processing.FallbackSummaryChars}))
		}
	}
	return s
}

// Mailboxes authenticates accounts, the ones failing are skipped
func (s *mailboxSources) Mailboxes(ctx context.Context) []pipeline.Mailbox {
	res := make([]pipeline.Mailbox, 0, len(s.accounts)+len(s.feeds))
	for _, g := range mailbox.Connect(ctx, s.accounts, s.gmailOpts, s.clientOpts...) {
		res = append(res, g)
	}
	for _, f := range s.feeds {
		res = append(res, f)
	}
	log.Printf("[INFO] %d of %d accounts connected, %d feeds", len(res)-len(s.feeds), len(s.accounts), len(s.feeds))
	return res
}
