package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/umputun/maildigest/pkg/config"
	"github.com/umputun/maildigest/pkg/delivery"
	"github.com/umputun/maildigest/pkg/domain"
	"github.com/umputun/maildigest/pkg/llm"
	"github.com/umputun/maildigest/pkg/mailbox"
	"github.com/umputun/maildigest/pkg/metrics"
	"github.com/umputun/maildigest/pkg/monitor"
	"github.com/umputun/maildigest/pkg/notify"
	"github.com/umputun/maildigest/pkg/pipeline"
	"github.com/umputun/maildigest/pkg/ratelimit"
	"github.com/umputun/maildigest/pkg/render"
	"github.com/umputun/maildigest/pkg/repository"
	"github.com/umputun/maildigest/pkg/scheduler"
	"github.com/umputun/maildigest/server"
)

// app keeps wired components and resources to release
type app struct {
	runner   *scheduler.Runner
	repos    *repository.Repositories
	nats     *notify.NATS
	registry *prometheus.Registry
}

// newApp wires all components described by cfg. clientOpts are passed to every gmail client.
func newApp(ctx context.Context, cfg *config.Config, clientOpts ...option.ClientOption) (*app, error) {
	a := &app{}

	var collector *metrics.Collector
	if !cfg.Metrics.Disabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector = metrics.NewCollector(a.registry)
	}

	if cfg.Database.DSN != "" {
		repos, err := repository.NewRepositories(ctx, repository.Config{DSN: cfg.Database.DSN})
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.repos = repos
	}

	if cfg.NATS.URL != "" {
		nc, err := notify.Connect(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			log.Printf("[WARN] run events disabled: %v", err)
		} else {
			a.nats = nc
		}
	}

	renderer, err := render.New()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("make renderer: %w", err)
	}

	var archive pipeline.Archive = delivery.NewFileArchive(cfg.Delivery.ArchiveDir)
	if cfg.Delivery.Archive == "sqlite" {
		if a.repos == nil {
			a.close()
			return nil, errors.New("sqlite archive requires database")
		}
		archive = a.repos.Archive
	}

	oracle := newOracle(cfg.LLM, collector)
	p := pipeline.New(pipeline.Params{
		Sources:    newSources(cfg, clientOpts...),
		Classifier: llm.NewClassifier(oracle, cfg.LLM.Models.Classification, cfg.Processing.BodyLimit),
		Extractor:  llm.NewExtractor(oracle, cfg.LLM.Models.Extraction),
		Clusterer:  llm.NewClusterer(oracle),
		Curator:    llm.NewCurator(oracle, cfg.LLM.Models.Assembly),
		Renderer:   renderer,
		Sender:     delivery.NewGmailSender(senderConnector(cfg, clientOpts...), cfg.Newsletter.Recipients),
		Archive:    archive,
		Settings:   pipelineSettings(cfg),
	})

	params := scheduler.Params{Pipeline: p, Interval: cfg.Schedule.Interval}
	if a.repos != nil {
		params.Store = a.repos.Run
	}
	if a.nats != nil {
		params.Publisher = a.nats
	}
	if collector != nil {
		params.Observer = collector
	}
	a.runner = scheduler.NewRunner(params)
	return a, nil
}

// newOracle makes llm client sharing one rate limiter across all stages
func newOracle(cfg config.LLMConfig, collector *metrics.Collector) *llm.Client {
	opts := llm.Options{
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		MaxTokens:  cfg.MaxTokens,
		Timeout:    cfg.Timeout,
		JSONSchema: cfg.JSONSchema,
		Limiter:    ratelimit.New(cfg.RequestsPerMinute, ratelimit.WithInterval(cfg.WaitInterval)),
	}
	if collector != nil {
		opts.Recorder = collector
	}
	return llm.NewClient(opts)
}

func pipelineSettings(cfg *config.Config) pipeline.Settings {
	return pipeline.Settings{
		Parallel:             cfg.ParallelEnabled(),
		ExtractionWorkers:    cfg.Processing.ExtractionWorkers,
		DedupWorkers:         cfg.Processing.DedupWorkers,
		Monitor:              monitor.Options{GCInterval: cfg.Processing.GCInterval, MemoryThresholdMB: cfg.Processing.MemoryThresholdMB},
		FallbackSummaryChars: cfg.Processing.FallbackSummaryChars,
		ExcludedSenders:      cfg.Gmail.ExcludedSenders,
		ClassificationRetry:  retryPolicy(cfg.Processing.ClassificationRetry),
		DedupRetry:           retryPolicy(cfg.Processing.DedupRetry),
		AssemblyRetry:        retryPolicy(cfg.Processing.AssemblyRetry),
		DedupModels:          []string{cfg.LLM.Models.Dedup, cfg.LLM.Models.DedupFallback},
		Recipients:           cfg.Newsletter.Recipients,
		Assembly: pipeline.AssemblyOptions{
			MaxItemsPerCategory: cfg.Newsletter.MaxItemsPerCategory,
			ExecutiveSummary:    cfg.ExecutiveSummaryEnabled(),
			FallbackToKeywords:  cfg.KeywordFallbackEnabled(),
			CustomCategories:    cfg.Newsletter.CustomCategories,
			Theme:               cfg.Newsletter.Theme,
		},
	}
}

func retryPolicy(r config.RetryConfig) pipeline.RetryPolicy {
	return pipeline.RetryPolicy{Attempts: r.Attempts, Delay: r.Delay, MaxDelay: r.MaxDelay, Jitter: r.Jitter}
}

// senderConnector authenticates the sending account at delivery time
func senderConnector(cfg *config.Config, clientOpts ...option.ClientOption) delivery.Connector {
	if len(cfg.Accounts) == 0 {
		return func(context.Context) (*gmail.Service, string, error) {
			return nil, "", errors.New("no sender account configured")
		}
	}
	acc := toAccount(cfg.Accounts[cfg.Gmail.SenderAccount])
	return func(ctx context.Context) (*gmail.Service, string, error) {
		return mailbox.Authenticate(ctx, acc, clientOpts...)
	}
}

func toAccount(ac config.AccountConfig) mailbox.Account {
	return mailbox.Account{Name: ac.Name, Email: ac.Email, CredentialsFile: ac.CredentialsFile, TokenFile: ac.TokenFile}
}

// serverParams collects optional server collaborators
func (a *app) serverParams() server.Params {
	params := server.Params{Runner: a.runner}
	if a.repos != nil {
		params.History = a.repos.Run
		params.Newsletters = a.repos.Archive
	}
	if a.registry != nil {
		params.Metrics = metrics.Handler(a.registry)
	}
	return params
}

func (a *app) close() {
	if a.nats != nil {
		if err := a.nats.Close(); err != nil {
			log.Printf("[WARN] failed to close nats: %v", err)
		}
	}
	if a.repos != nil {
		if err := a.repos.Close(); err != nil {
			log.Printf("[WARN] failed to close database: %v", err)
		}
	}
}

// printResult writes short run report, the way the interactive run command did
func printResult(w io.Writer, res domain.RunResult) {
	status := "completed"
	if !res.Success {
		status = "failed"
	}
	_, _ = fmt.Fprintf(w, "pipeline %s in %v\n", status, res.Duration().Round(time.Millisecond))
	if res.Message != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", res.Message)
	}
	if res.Error != "" {
		_, _ = fmt.Fprintf(w, "  error: %s\n", res.Error)
	}
	st := res.Stats
	_, _ = fmt.Fprintf(w, "  emails: %d, news: %d, items: %d, after dedup: %d, categories: %d, sent: %v\n",
		st.TotalEmails, st.NewsEmails, st.NewsItemsExtracted, st.AfterDeduplication, st.Categories, st.EmailSent)
	if st.ArchivedTo != "" {
		_, _ = fmt.Fprintf(w, "  archived to %s\n", st.ArchivedTo)
	}
}
