package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen      string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
		VerifyToken string        `yaml:"verify_token" json:"verify_token" jsonschema:"description=Expected X-Verify-Token header for pipeline triggers (optional)"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	LLM        LLMConfig        `yaml:"llm" json:"llm" jsonschema:"description=LLM oracle configuration"`
	Processing ProcessingConfig `yaml:"processing" json:"processing" jsonschema:"description=Pipeline processing configuration"`
	Newsletter NewsletterConfig `yaml:"newsletter" json:"newsletter" jsonschema:"description=Newsletter generation configuration"`
	Accounts   []AccountConfig  `yaml:"accounts" json:"accounts" jsonschema:"description=Gmail accounts to read news from"`
	Gmail      GmailConfig      `yaml:"gmail" json:"gmail" jsonschema:"description=Gmail API settings"`
	Feeds      []FeedConfig     `yaml:"feeds" json:"feeds" jsonschema:"description=RSS/Atom feeds used as additional news sources"`

	Delivery struct {
		Archive    string `yaml:"archive" json:"archive" jsonschema:"default=file,enum=file,enum=sqlite,description=Where to keep newsletters that failed to send"`
		ArchiveDir string `yaml:"archive_dir" json:"archive_dir" jsonschema:"default=.,description=Directory for file archive"`
	} `yaml:"delivery" json:"delivery" jsonschema:"description=Delivery configuration"`

	Database struct {
		DSN string `yaml:"dsn" json:"dsn" jsonschema:"description=SQLite connection string for run history (empty disables history)"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Schedule struct {
		Interval time.Duration `yaml:"interval" json:"interval" jsonschema:"description=Run pipeline periodically with this interval (0 disables)"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	NATS struct {
		URL     string `yaml:"url" json:"url" jsonschema:"description=NATS server URL (empty disables run events)"`
		Subject string `yaml:"subject" json:"subject" jsonschema:"default=maildigest.runs,description=Subject for run events"`
	} `yaml:"nats" json:"nats" jsonschema:"description=NATS run event publishing"`

	Metrics struct {
		Disabled bool `yaml:"disabled" json:"disabled" jsonschema:"default=false,description=Do not expose prometheus metrics on /metrics"`
	} `yaml:"metrics" json:"metrics" jsonschema:"description=Metrics configuration"`
}

// LLMConfig holds settings of the OpenAI-compatible oracle endpoint
type LLMConfig struct {
	Endpoint          string        `yaml:"endpoint" json:"endpoint" jsonschema:"required,minLength=1,description=OpenAI-compatible API endpoint"`
	APIKey            string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Models            ModelsConfig  `yaml:"models" json:"models" jsonschema:"description=Model per pipeline stage"`
	MaxTokens         int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=8192,description=Maximum tokens in response"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=2m,description=Request timeout"`
	JSONSchema        bool          `yaml:"json_schema" json:"json_schema" jsonschema:"default=false,description=Send json_schema response format instead of json_object"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute" jsonschema:"default=60,minimum=1,description=Shared oracle quota"`
	WaitInterval      time.Duration `yaml:"wait_interval" json:"wait_interval" jsonschema:"default=1s,description=Polling interval while waiting for quota"`
}

// ModelsConfig selects model names per stage
type ModelsConfig struct {
	Classification string `yaml:"classification" json:"classification" jsonschema:"default=gemini-2.5-flash-lite,description=Model used to classify messages"`
	Extraction     string `yaml:"extraction" json:"extraction" jsonschema:"default=gemini-2.5-flash-lite,description=Model used to extract news items"`
	Dedup          string `yaml:"dedup" json:"dedup" jsonschema:"default=gemini-2.5-flash,description=Primary model for deduplication"`
	DedupFallback  string `yaml:"dedup_fallback" json:"dedup_fallback" jsonschema:"default=gemini-2.5-flash-lite,description=Model used for deduplication retries"`
	Assembly       string `yaml:"assembly" json:"assembly" jsonschema:"default=gemini-2.5-pro,description=Model used to assemble the newsletter"`
}

// RetryConfig describes a bounded retry with backoff
type RetryConfig struct {
	Attempts int           `yaml:"attempts" json:"attempts" jsonschema:"minimum=1,description=Maximum attempts"`
	Delay    time.Duration `yaml:"delay" json:"delay" jsonschema:"description=Initial delay between attempts"`
	MaxDelay time.Duration `yaml:"max_delay" json:"max_delay" jsonschema:"description=Delay cap"`
	Jitter   float64       `yaml:"jitter" json:"jitter" jsonschema:"minimum=0,maximum=1,description=Jitter factor"`
}

// ProcessingConfig holds pipeline concurrency and resilience settings
type ProcessingConfig struct {
	Parallel             *bool       `yaml:"parallel" json:"parallel" jsonschema:"default=true,description=Run extraction and deduplication in worker pools"`
	ExtractionWorkers    int         `yaml:"extraction_workers" json:"extraction_workers" jsonschema:"default=5,description=Extraction pool size"`
	DedupWorkers         int         `yaml:"dedup_workers" json:"dedup_workers" jsonschema:"description=Deduplication pool size (defaults to half of extraction workers capped at 3)"`
	GCInterval           int         `yaml:"gc_interval" json:"gc_interval" jsonschema:"default=8,description=Run gc hint every N completed units"`
	MemoryThresholdMB    float64     `yaml:"memory_threshold_mb" json:"memory_threshold_mb" jsonschema:"default=768,description=Run gc hint when heap exceeds this value"`
	BodyLimit            int         `yaml:"body_limit" json:"body_limit" jsonschema:"default=8000,description=Max body characters sent for classification"`
	FallbackSummaryChars int         `yaml:"fallback_summary_chars" json:"fallback_summary_chars" jsonschema:"default=500,description=Summary length of fallback items"`
	ClassificationRetry  RetryConfig `yaml:"classification_retry" json:"classification_retry" jsonschema:"description=Classification retry policy"`
	DedupRetry           RetryConfig `yaml:"dedup_retry" json:"dedup_retry" jsonschema:"description=Deduplication retry policy"`
	AssemblyRetry        RetryConfig `yaml:"assembly_retry" json:"assembly_retry" jsonschema:"description=Assembly retry policy"`
}

// NewsletterConfig holds newsletter generation options
type NewsletterConfig struct {
	MaxItemsPerCategory int      `yaml:"max_items_per_category" json:"max_items_per_category" jsonschema:"default=10,minimum=1,description=Max items per subcategory"`
	ExecutiveSummary    *bool    `yaml:"executive_summary" json:"executive_summary" jsonschema:"default=true,description=Include executive summary"`
	FallbackToKeywords  *bool    `yaml:"fallback_to_keywords" json:"fallback_to_keywords" jsonschema:"default=true,description=Use keyword categorization if the oracle fails"`
	CustomCategories    []string `yaml:"custom_categories" json:"custom_categories" jsonschema:"description=Extra categories suggested to the oracle"`
	Theme               string   `yaml:"theme" json:"theme" jsonschema:"default=light,enum=light,enum=dark,description=Rendering theme"`
	Recipients          []string `yaml:"recipients" json:"recipients" jsonschema:"description=Newsletter recipients"`
}

// AccountConfig describes one Gmail account
type AccountConfig struct {
	Name            string `yaml:"name" json:"name" jsonschema:"description=Display name"`
	Email           string `yaml:"email" json:"email" jsonschema:"description=Account address (accounts with empty email are ignored)"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" jsonschema:"default=credentials.json,description=OAuth client credentials"`
	TokenFile       string `yaml:"token_file" json:"token_file" jsonschema:"description=OAuth token file"`
}

// GmailConfig holds Gmail API options
type GmailConfig struct {
	Query             string   `yaml:"query" json:"query" jsonschema:"default=newer_than:1d,description=Search query for recent messages"`
	PageSize          int64    `yaml:"page_size" json:"page_size" jsonschema:"default=100,maximum=500,description=Page size for message listing"`
	RequestsPerSecond float64  `yaml:"requests_per_second" json:"requests_per_second" jsonschema:"default=10,description=Gmail API pacing"`
	ExcludedSenders   []string `yaml:"excluded_senders" json:"excluded_senders" jsonschema:"description=Senders never classified"`
	SenderAccount     int      `yaml:"sender_account" json:"sender_account" jsonschema:"default=0,description=Index of the account used to send the newsletter"`
	SenderEmail       string   `yaml:"sender_email" json:"sender_email" jsonschema:"description=Address the newsletter is sent from (excluded from classification)"`
}

// FeedConfig describes an RSS/Atom source
type FeedConfig struct {
	Name     string        `yaml:"name" json:"name" jsonschema:"description=Feed name used as account"`
	URL      string        `yaml:"url" json:"url" jsonschema:"required,minLength=1,description=Feed URL"`
	Lookback time.Duration `yaml:"lookback" json:"lookback" jsonschema:"default=24h,description=Only items newer than this are collected"`
}

// default values used by Load
const (
	defaultRecipient = "default_recipient@example.com"
	defaultListen    = ":8080"
)

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds configuration from YAML content, expanding environment variables and setting defaults
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against generated schema
	if err := VerifyAgainstSchema(&cfg); err != nil {
		return nil, fmt.Errorf("verify config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	// server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = defaultListen
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// llm
	if cfg.LLM.Models.Classification == "" {
		cfg.LLM.Models.Classification = "gemini-2.5-flash-lite"
	}
	if cfg.LLM.Models.Extraction == "" {
		cfg.LLM.Models.Extraction = "gemini-2.5-flash-lite"
	}
	if cfg.LLM.Models.Dedup == "" {
		cfg.LLM.Models.Dedup = "gemini-2.5-flash"
	}
	if cfg.LLM.Models.DedupFallback == "" {
		cfg.LLM.Models.DedupFallback = "gemini-2.5-flash-lite"
	}
	if cfg.LLM.Models.Assembly == "" {
		cfg.LLM.Models.Assembly = "gemini-2.5-pro"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 8192
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 2 * time.Minute
	}
	if cfg.LLM.RequestsPerMinute == 0 {
		cfg.LLM.RequestsPerMinute = 60
	}
	if cfg.LLM.WaitInterval == 0 {
		cfg.LLM.WaitInterval = time.Second
	}

	// processing
	if cfg.Processing.Parallel == nil {
		cfg.Processing.Parallel = boolPtr(true)
	}
	if cfg.Processing.ExtractionWorkers == 0 {
		cfg.Processing.ExtractionWorkers = 5
	}
	if cfg.Processing.DedupWorkers == 0 {
		cfg.Processing.DedupWorkers = max(1, min(cfg.Processing.ExtractionWorkers/2, 3))
	}
	if cfg.Processing.GCInterval == 0 {
		cfg.Processing.GCInterval = 8
	}
	if cfg.Processing.MemoryThresholdMB == 0 {
		cfg.Processing.MemoryThresholdMB = 768
	}
	if cfg.Processing.BodyLimit == 0 {
		cfg.Processing.BodyLimit = 8000
	}
	if cfg.Processing.FallbackSummaryChars == 0 {
		cfg.Processing.FallbackSummaryChars = 500
	}
	setRetryDefaults(&cfg.Processing.ClassificationRetry, RetryConfig{Attempts: 3, Delay: time.Second, MaxDelay: 30 * time.Second, Jitter: 0.3})
	setRetryDefaults(&cfg.Processing.DedupRetry, RetryConfig{Attempts: 3, Delay: 2 * time.Second, MaxDelay: 2 * time.Second})
	setRetryDefaults(&cfg.Processing.AssemblyRetry, RetryConfig{Attempts: 3, Delay: 2 * time.Second, MaxDelay: time.Minute})

	// newsletter
	if cfg.Newsletter.MaxItemsPerCategory == 0 {
		cfg.Newsletter.MaxItemsPerCategory = 10
	}
	if cfg.Newsletter.ExecutiveSummary == nil {
		cfg.Newsletter.ExecutiveSummary = boolPtr(true)
	}
	if cfg.Newsletter.FallbackToKeywords == nil {
		cfg.Newsletter.FallbackToKeywords = boolPtr(true)
	}
	if cfg.Newsletter.Theme == "" {
		cfg.Newsletter.Theme = "light"
	}
	if len(cfg.Newsletter.Recipients) == 0 {
		cfg.Newsletter.Recipients = []string{defaultRecipient}
	}

	// accounts, entries without email are dropped
	accounts := make([]AccountConfig, 0, len(cfg.Accounts))
	for i, acc := range cfg.Accounts {
		acc.Email = strings.TrimSpace(acc.Email)
		if acc.Email == "" {
			continue
		}
		if acc.Name == "" {
			acc.Name = fmt.Sprintf("Account %d", i+1)
		}
		if acc.CredentialsFile == "" {
			acc.CredentialsFile = "credentials.json"
		}
		if acc.TokenFile == "" {
			acc.TokenFile = fmt.Sprintf("token_account%d.json", i+1)
		}
		accounts = append(accounts, acc)
	}
	cfg.Accounts = accounts

	// gmail
	if cfg.Gmail.Query == "" {
		cfg.Gmail.Query = "newer_than:1d"
	}
	if cfg.Gmail.PageSize == 0 {
		cfg.Gmail.PageSize = 100
	}
	if cfg.Gmail.RequestsPerSecond == 0 {
		cfg.Gmail.RequestsPerSecond = 10
	}
	cfg.Gmail.ExcludedSenders = excludedSenders(cfg.Gmail.ExcludedSenders, cfg.Gmail.SenderEmail)

	// feeds
	for i := range cfg.Feeds {
		if cfg.Feeds[i].Lookback == 0 {
			cfg.Feeds[i].Lookback = 24 * time.Hour
		}
		if cfg.Feeds[i].Name == "" {
			cfg.Feeds[i].Name = cfg.Feeds[i].URL
		}
	}

	// delivery
	if cfg.Delivery.Archive == "" {
		cfg.Delivery.Archive = "file"
	}
	if cfg.Delivery.ArchiveDir == "" {
		cfg.Delivery.ArchiveDir = "."
	}

	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = "maildigest.runs"
	}
}

func setRetryDefaults(r *RetryConfig, def RetryConfig) {
	if r.Attempts == 0 {
		r.Attempts = def.Attempts
	}
	if r.Delay == 0 {
		r.Delay = def.Delay
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = def.MaxDelay
	}
	if r.Jitter == 0 {
		r.Jitter = def.Jitter
	}
}

// excludedSenders trims, appends sender address and removes duplicates preserving order
func excludedSenders(list []string, sender string) []string {
	res := make([]string, 0, len(list)+1)
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			return
		}
		seen[strings.ToLower(s)] = true
		res = append(res, s)
	}
	for _, s := range list {
		add(s)
	}
	add(sender)
	return res
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint is required")
	}
	if cfg.LLM.RequestsPerMinute < 1 {
		return fmt.Errorf("llm.requests_per_minute must be at least 1")
	}
	if cfg.Processing.ExtractionWorkers < 1 || cfg.Processing.DedupWorkers < 1 {
		return fmt.Errorf("processing workers must be at least 1")
	}
	for name, r := range map[string]RetryConfig{
		"classification_retry": cfg.Processing.ClassificationRetry,
		"dedup_retry":          cfg.Processing.DedupRetry,
		"assembly_retry":       cfg.Processing.AssemblyRetry,
	} {
		if r.Attempts < 1 {
			return fmt.Errorf("processing.%s.attempts must be at least 1", name)
		}
		if r.Jitter < 0 || r.Jitter > 1 {
			return fmt.Errorf("processing.%s.jitter must be between 0 and 1", name)
		}
	}
	if cfg.Newsletter.MaxItemsPerCategory < 1 {
		return fmt.Errorf("newsletter.max_items_per_category must be at least 1")
	}
	if cfg.Gmail.SenderAccount < 0 || (len(cfg.Accounts) > 0 && cfg.Gmail.SenderAccount >= len(cfg.Accounts)) {
		return fmt.Errorf("gmail.sender_account %d is out of range", cfg.Gmail.SenderAccount)
	}
	if cfg.Delivery.Archive != "file" && cfg.Delivery.Archive != "sqlite" {
		return fmt.Errorf("delivery.archive must be file or sqlite, got %q", cfg.Delivery.Archive)
	}
	if cfg.Delivery.Archive == "sqlite" && cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for sqlite archive")
	}
	for i, f := range cfg.Feeds {
		if f.URL == "" {
			return fmt.Errorf("feeds[%d].url is required", i)
		}
	}
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetLLMConfig returns LLM configuration
func (c *Config) GetLLMConfig() LLMConfig {
	return c.LLM
}

// ExecutiveSummaryEnabled reports if newsletter should carry executive summary
func (c *Config) ExecutiveSummaryEnabled() bool {
	return c.Newsletter.ExecutiveSummary == nil || *c.Newsletter.ExecutiveSummary
}

// ParallelEnabled reports if extraction and deduplication run in worker pools
func (c *Config) ParallelEnabled() bool {
	return c.Processing.Parallel == nil || *c.Processing.Parallel
}

// KeywordFallbackEnabled reports if keyword categorization is allowed when the oracle fails
func (c *Config) KeywordFallbackEnabled() bool {
	return c.Newsletter.FallbackToKeywords == nil || *c.Newsletter.FallbackToKeywords
}

func boolPtr(b bool) *bool { return &b }
