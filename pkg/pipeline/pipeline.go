// Package pipeline implements the daily digest batch: classification, extraction,
// categorization, deduplication, assembly and delivery of the newsletter.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/umputun/maildigest/pkg/content"
	"github.com/umputun/maildigest/pkg/domain"
	"github.com/umputun/maildigest/pkg/llm"
	"github.com/umputun/maildigest/pkg/monitor"
)

//go:generate moq -out mocks/mailbox.go -pkg mocks -skip-ensure -fmt goimports . Mailbox
//go:generate moq -out mocks/classifier.go -pkg mocks -skip-ensure -fmt goimports . Classifier
//go:generate moq -out mocks/extractor.go -pkg mocks -skip-ensure -fmt goimports . Extractor
//go:generate moq -out mocks/clusterer.go -pkg mocks -skip-ensure -fmt goimports . Clusterer
//go:generate moq -out mocks/curator.go -pkg mocks -skip-ensure -fmt goimports . Curator
//go:generate moq -out mocks/renderer.go -pkg mocks -skip-ensure -fmt goimports . Renderer
//go:generate moq -out mocks/sender.go -pkg mocks -skip-ensure -fmt goimports . Sender
//go:generate moq -out mocks/archive.go -pkg mocks -skip-ensure -fmt goimports . Archive

// Sources returns mailboxes usable for the current run, mailboxes failing authentication are left out
type Sources interface {
	Mailboxes(ctx context.Context) []Mailbox
}

// Mailbox yields recent messages of one account
type Mailbox interface {
	Account() string
	ListRecent(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (domain.Message, error)
}

// Classifier decides if a message is news
type Classifier interface {
	Classify(ctx context.Context, msg domain.Message) (domain.Classification, error)
}

// Extractor splits news message into items
type Extractor interface {
	Extract(ctx context.Context, cm domain.ClassifiedMessage) ([]domain.ExtractedItem, error)
}

// Clusterer groups items of one category
type Clusterer interface {
	Cluster(ctx context.Context, category domain.Category, items []llm.ClusterInput, model string) ([]domain.ClusterGroup, error)
}

// Curator proposes newsletter structure for consolidated items
type Curator interface {
	Curate(ctx context.Context, items []domain.ConsolidatedItem, opts llm.CurateOptions) (*domain.NewsletterDraft, error)
}

// Renderer makes html out of the newsletter
type Renderer interface {
	Render(n domain.Newsletter, theme string) (string, error)
}

// Sender delivers rendered newsletter
type Sender interface {
	Send(ctx context.Context, html, title string, recipients []string) error
}

// Archive keeps newsletters which could not be sent, returns location of the saved copy
type Archive interface {
	Save(ctx context.Context, html, title string) (string, error)
}

// Settings define pipeline behavior
type Settings struct {
	Parallel             bool
	ExtractionWorkers    int
	DedupWorkers         int
	Monitor              monitor.Options
	FallbackSummaryChars int
	ExcludedSenders      []string
	ClassificationRetry  RetryPolicy
	DedupRetry           RetryPolicy
	AssemblyRetry        RetryPolicy
	DedupModels          []string // primary model first, the last one is used for all remaining attempts
	Recipients           []string
	Assembly             AssemblyOptions
}

// Params holds pipeline collaborators
type Params struct {
	Sources    Sources
	Classifier Classifier
	Extractor  Extractor
	Clusterer  Clusterer
	Curator    Curator
	Renderer   Renderer
	Sender     Sender
	Archive    Archive
	Settings   Settings
}

// Pipeline runs all stages one after another
type Pipeline struct {
	sources  Sources
	renderer Renderer
	sender   Sender
	archive  Archive
	settings Settings

	classification *ClassificationStage
	extraction     *ExtractionStage
	dedup          *DedupStage
	assembler      *Assembler
	now            func() time.Time
}

// New makes pipeline with all stages
func New(p Params) *Pipeline {
	s := p.Settings
	return &Pipeline{
		sources:        p.Sources,
		renderer:       p.Renderer,
		sender:         p.Sender,
		archive:        p.Archive,
		settings:       s,
		classification: NewClassificationStage(p.Classifier, s.ExcludedSenders, s.ClassificationRetry, s.Monitor),
		extraction:     NewExtractionStage(p.Extractor, ExtractionOptions{Parallel: s.Parallel, Workers: s.ExtractionWorkers, Monitor: s.Monitor, SummaryChars: s.FallbackSummaryChars}),
		dedup:          NewDedupStage(p.Clusterer, DedupOptions{Parallel: s.Parallel, Workers: s.DedupWorkers, Models: s.DedupModels, Retry: s.DedupRetry, Monitor: s.Monitor}),
		assembler:      NewAssembler(p.Curator, content.NewSanitizer(), s.AssemblyRetry, s.Assembly),
		now:            time.Now,
	}
}

// Run executes the whole batch and reports the outcome. It never returns an error,
// failures are reported in the result with partial statistics.
func (p *Pipeline) Run(ctx context.Context, trigger string) (res domain.RunResult) {
	res = domain.RunResult{ID: uuid.NewString(), Trigger: trigger, StartedAt: p.now()}
	lgr.Printf("[INFO] pipeline run %s started, trigger %q", res.ID, trigger)

	defer func() {
		if r := recover(); r != nil {
			res = p.fail(res, fmt.Sprintf("Pipeline failed with error: %v", r))
		}
		res.FinishedAt = p.now()
		lgr.Printf("[INFO] pipeline run %s finished in %v, success: %v, %s%s", res.ID, res.Duration().Round(time.Millisecond),
			res.Success, res.Message, res.Error)
	}()

	mailboxes := p.sources.Mailboxes(ctx)
	if len(mailboxes) == 0 {
		lgr.Printf("[ERROR] no mailbox available")
		return p.fail(res, "Authentication failed")
	}

	classified := p.classification.Run(ctx, mailboxes)
	res.Stats.TotalEmails = classified.Total
	if len(classified.News) == 0 {
		lgr.Printf("[INFO] no news messages out of %d", classified.Total)
		return p.succeed(res, "No news content found")
	}
	res.Stats.NewsEmails = len(classified.News)
	logClassificationSummary(classified.News)

	items := p.extraction.Run(ctx, classified.News)
	res.Stats.NewsItemsExtracted = len(items)
	if len(items) == 0 {
		return p.succeed(res, "No extractable news content")
	}

	consolidated := p.dedup.Run(ctx, items)
	res.Stats.AfterDeduplication = len(consolidated)

	newsletter, err := p.assembler.Assemble(ctx, consolidated)
	if err != nil {
		lgr.Printf("[ERROR] newsletter generation failed: %v", err)
		return p.fail(res, fmt.Sprintf("Newsletter generation failed: %v", err))
	}
	res.Stats.Categories = len(newsletter.Sections)
	res.Stats.Metrics = &newsletter.Metrics

	html, err := p.renderer.Render(*newsletter, newsletter.Theme)
	if err != nil {
		lgr.Printf("[ERROR] html generation failed: %v", err)
		return p.fail(res, fmt.Sprintf("HTML generation failed: %v", err))
	}

	if err := p.deliver(ctx, html, newsletter.Title, &res.Stats); err != nil {
		return p.fail(res, fmt.Sprintf("Email delivery failed: %v", err))
	}
	return p.succeed(res, "")
}

// deliver sends newsletter, on failure it is saved to the archive. Error returned only if both failed.
func (p *Pipeline) deliver(ctx context.Context, html, title string, stats *domain.RunStats) error {
	sendErr := p.sender.Send(ctx, html, title, p.settings.Recipients)
	if sendErr == nil {
		stats.EmailSent = true
		lgr.Printf("[INFO] newsletter %q sent to %v", title, p.settings.Recipients)
		return nil
	}
	lgr.Printf("[WARN] failed to send newsletter, archiving: %v", sendErr)

	location, err := p.archive.Save(ctx, html, title)
	if err != nil {
		lgr.Printf("[ERROR] failed to archive newsletter: %v", err)
		return sendErr
	}
	stats.ArchivedTo = location
	lgr.Printf("[INFO] newsletter archived to %s", location)
	return nil
}

func (p *Pipeline) succeed(res domain.RunResult, msg string) domain.RunResult {
	res.Success, res.Message = true, msg
	return res
}

func (p *Pipeline) fail(res domain.RunResult, errMsg string) domain.RunResult {
	res.Success, res.Error = false, errMsg
	return res
}

func logClassificationSummary(news []domain.ClassifiedMessage) {
	categories := map[string]int{}
	confidence := map[domain.Confidence]int{}
	for _, n := range news {
		if n.Classification.PrimaryCategory != "" {
			categories[n.Classification.PrimaryCategory]++
		}
		confidence[n.Classification.Confidence]++
	}
	lgr.Printf("[INFO] classification summary, categories: %v, confidence: %v", categories, confidence)
}
