package pipeline

import (
	"context"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/maildigest/pkg/domain"
	"github.com/umputun/maildigest/pkg/monitor"
)

const defaultSummaryChars = 500

// ExtractionOptions for ExtractionStage
type ExtractionOptions struct {
	Parallel     bool
	Workers      int
	Monitor      monitor.Options
	SummaryChars int // body budget of fallback item summary
}

// ExtractionStage turns classified messages into news items
type ExtractionStage struct {
	extractor Extractor
	opts      ExtractionOptions
}

// NewExtractionStage makes extraction stage
func NewExtractionStage(extractor Extractor, opts ExtractionOptions) *ExtractionStage {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.SummaryChars <= 0 {
		opts.SummaryChars = defaultSummaryChars
	}
	return &ExtractionStage{extractor: extractor, opts: opts}
}

// Run extracts items of all messages. Result keeps the order of msgs regardless of completion order,
// a message failing extraction contributes a single fallback item.
func (s *ExtractionStage) Run(ctx context.Context, msgs []domain.ClassifiedMessage) []domain.NewsItem {
	if len(msgs) == 0 {
		return nil
	}
	mon := monitor.New(len(msgs), "Extraction", s.opts.Monitor)
	results := make([][]domain.NewsItem, len(msgs))

	if s.opts.Parallel && s.opts.Workers > 1 && len(msgs) > 1 {
		lgr.Printf("[INFO] extracting items from %d messages with %d workers", len(msgs), s.opts.Workers)
		var g errgroup.Group
		g.SetLimit(s.opts.Workers)
		for i, cm := range msgs {
			g.Go(func() error {
				results[i] = s.process(ctx, cm, mon)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		lgr.Printf("[INFO] extracting items from %d messages sequentially", len(msgs))
		for i, cm := range msgs {
			results[i] = s.process(ctx, cm, mon)
		}
	}

	var items []domain.NewsItem
	for _, r := range results {
		items = append(items, r...)
	}
	lgr.Printf("[INFO] extracted %d items from %d messages", len(items), len(msgs))
	return items
}

// process extracts items of a single message, it never fails and never panics out
func (s *ExtractionStage) process(ctx context.Context, cm domain.ClassifiedMessage, mon *monitor.Monitor) (items []domain.NewsItem) {
	defer mon.StepCompleted(cm.Message.Subject)
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[WARN] extraction of %s panicked: %v", cm.Message.ID, r)
			items = []domain.NewsItem{s.fallbackItem(cm)}
		}
	}()

	extracted, err := s.extractor.Extract(ctx, cm)
	if err != nil {
		lgr.Printf("[WARN] failed to extract items from %s, using fallback: %v", cm.Message.ID, err)
		return []domain.NewsItem{s.fallbackItem(cm)}
	}

	items = make([]domain.NewsItem, 0, len(extracted))
	for _, e := range extracted {
		items = append(items, stamp(e, cm))
	}
	return items
}

// fallbackItem builds the single item made of raw message subject and body
func (s *ExtractionStage) fallbackItem(cm domain.ClassifiedMessage) domain.NewsItem {
	summary := cm.Message.Body
	if r := []rune(summary); len(r) > s.opts.SummaryChars {
		summary = string(r[:s.opts.SummaryChars]) + "..."
	}
	return stamp(domain.ExtractedItem{
		Title:      cm.Message.Subject,
		Summary:    summary,
		MainTopic:  "General",
		SourceURLs: []string{},
		KeyPoints:  []string{},
	}, cm)
}

// stamp copies provenance and classification of the message into the item
func stamp(e domain.ExtractedItem, cm domain.ClassifiedMessage) domain.NewsItem {
	msg, cls := cm.Message, cm.Classification
	item := domain.NewsItem{
		Title:               e.Title,
		Summary:             e.Summary,
		MainTopic:           e.MainTopic,
		SourceURLs:          e.SourceURLs,
		KeyPoints:           e.KeyPoints,
		SourceSubject:       msg.Subject,
		SourceSender:        msg.Sender,
		SourceDate:          orDefault(msg.Date, "Unknown Date"),
		SourceAccount:       orDefault(msg.Account, "Unknown Account"),
		OriginalEmailID:     orDefault(msg.ID, "Unknown ID"),
		PrimaryCategory:     cls.PrimaryCategory,
		SecondaryCategories: cls.SecondaryCategories,
		Confidence:          cls.Confidence,
		ClassificationNote:  cls.Reason,
	}
	if item.SourceURLs == nil {
		item.SourceURLs = []string{}
	}
	if item.KeyPoints == nil {
		item.KeyPoints = []string{}
	}
	return item
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
