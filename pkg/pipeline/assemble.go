package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/maildigest/pkg/domain"
	"github.com/umputun/maildigest/pkg/llm"
)

const (
	titleDateLayout   = "January 02, 2006"
	displayDateLayout = "Monday, January 02, 2006"
	generatedAtLayout = "Monday, January 02, 2006 15:04:05"
	timeLayout        = "15:04:05"
)

var titleDatePlaceholders = []string{"[Date]", "[date]", "{{Date}}", "{{date}}", "{Date}", "{date}", "<<Date>>"}

// AssemblyOptions for Assembler
type AssemblyOptions struct {
	MaxItemsPerCategory int // per subcategory
	ExecutiveSummary    bool
	FallbackToKeywords  bool
	CustomCategories    []string
	Theme               string
}

type sanitizer interface {
	SanitizeHTML(text string) string
	EscapeText(text string) string
}

// Assembler builds the newsletter structure from consolidated items
type Assembler struct {
	curator   Curator
	sanitizer sanitizer
	retry     RetryPolicy
	opts      AssemblyOptions
	now       func() time.Time
}

// NewAssembler makes assembler
func NewAssembler(curator Curator, sanitizer sanitizer, retry RetryPolicy, opts AssemblyOptions) *Assembler {
	if opts.MaxItemsPerCategory < 1 {
		opts.MaxItemsPerCategory = 10
	}
	if opts.Theme == "" {
		opts.Theme = "light"
	}
	return &Assembler{curator: curator, sanitizer: sanitizer, retry: retry, opts: opts, now: time.Now}
}

// Assemble asks the curator for the newsletter structure and falls back to keyword categorization
// if curation failed and the fallback is enabled. Invalid structure is an error.
func (a *Assembler) Assemble(ctx context.Context, items []domain.ConsolidatedItem) (*domain.Newsletter, error) {
	lgr.Printf("[INFO] assembling newsletter from %d items", len(items))
	started := a.now()

	var res *domain.Newsletter
	var aiCount, fallbackCount int
	draft, err := a.curate(ctx, items)
	switch {
	case err == nil:
		res = a.fromDraft(draft, items)
		aiCount = len(items)
	case a.opts.FallbackToKeywords:
		lgr.Printf("[WARN] newsletter curation failed, using keyword categorization: %v", err)
		res = a.Fallback(items)
		fallbackCount = len(items)
	default:
		return nil, fmt.Errorf("curate newsletter: %w", err)
	}

	now := a.now()
	res.GeneratedAt = now.Format(generatedAtLayout)
	res.DisplayDate = now.Format(displayDateLayout)
	res.GeneratedTime = now.Format(timeLayout)
	res.Theme = a.opts.Theme

	if err := validate(res); err != nil {
		return nil, fmt.Errorf("invalid newsletter structure: %w", err)
	}

	res.Metrics = collectMetrics(res.Sections)
	res.Metrics.AICategorizedCount = aiCount
	res.Metrics.FallbackCategorizedCount = fallbackCount
	res.Metrics.GenerationTime = now.Sub(started).Seconds()
	lgr.Printf("[INFO] newsletter %q assembled, %d categories, %d stories", res.Title, len(res.Sections), res.Metrics.TotalStories)
	return res, nil
}

func (a *Assembler) curate(ctx context.Context, items []domain.ConsolidatedItem) (*domain.NewsletterDraft, error) {
	if len(a.opts.CustomCategories) > 0 {
		lgr.Printf("[INFO] custom categories requested: %v", a.opts.CustomCategories)
	}
	var draft *domain.NewsletterDraft
	err := Retry(ctx, a.retry, func(attempt int) error {
		d, err := a.curator.Curate(ctx, items, llm.CurateOptions{CustomCategories: a.opts.CustomCategories})
		if err != nil {
			lgr.Printf("[DEBUG] curation attempt %d failed: %v", attempt+1, err)
			return err
		}
		draft = d
		return nil
	})
	return draft, err
}

// fromDraft resolves draft item ids and sanitizes all free text
func (a *Assembler) fromDraft(draft *domain.NewsletterDraft, items []domain.ConsolidatedItem) *domain.Newsletter {
	now := a.now()
	title := draft.Title
	if strings.TrimSpace(title) == "" {
		title = "Daily News Digest - " + now.Format(titleDateLayout)
	}
	for _, p := range titleDatePlaceholders {
		title = strings.ReplaceAll(title, p, now.Format(displayDateLayout))
	}

	res := &domain.Newsletter{Title: a.sanitizer.EscapeText(title)}
	if a.opts.ExecutiveSummary {
		res.ExecutiveSummary = a.sanitizer.SanitizeHTML(draft.ExecutiveSummary)
	}

	for _, dc := range draft.Categories {
		section := domain.Section{Name: a.sanitizer.EscapeText(dc.Name)}
		if dc.Subcategories != nil {
			section.Subcategories = []domain.Subcategory{}
		}
		for _, ds := range dc.Subcategories {
			sub := domain.Subcategory{
				Name:  a.sanitizer.EscapeText(ds.Name),
				Intro: a.sanitizer.SanitizeHTML(ds.Intro),
				Items: []domain.ConsolidatedItem{},
			}
			for _, id := range ds.ItemIDs {
				if id < 0 || id >= len(items) {
					lgr.Printf("[DEBUG] draft subcategory %q refers to unknown item %d", ds.Name, id)
					continue
				}
				if len(sub.Items) == a.opts.MaxItemsPerCategory {
					break
				}
				sub.Items = append(sub.Items, a.escapeItem(items[id]))
			}
			section.Subcategories = append(section.Subcategories, sub)
		}
		res.Sections = append(res.Sections, section)
	}
	return res
}

// Fallback builds newsletter structure with keyword tables, the result depends on items only
func (a *Assembler) Fallback(items []domain.ConsolidatedItem) *domain.Newsletter {
	byCategory := map[domain.Category][]domain.ConsolidatedItem{}
	var labeled, matched int
	for _, item := range items {
		escaped := a.escapeItem(item)
		if item.Category != "" {
			if c, ok := domain.ParseCategory(string(item.Category)); ok {
				byCategory[c] = append(byCategory[c], escaped)
				labeled++
				continue
			}
		}
		c := matchKeywords(escaped.Title, escaped.Summary)
		byCategory[c] = append(byCategory[c], escaped)
		matched++
	}
	lgr.Printf("[INFO] keyword categorization: %d items kept their category, %d matched by keywords", labeled, matched)

	res := &domain.Newsletter{Title: "Daily News Digest - " + a.now().Format(titleDateLayout)}
	for _, c := range domain.Categories() {
		if len(byCategory[c]) == 0 {
			continue
		}
		res.Sections = append(res.Sections, domain.Section{
			Name: c.String(),
			Subcategories: []domain.Subcategory{{
				Name:  "Top Stories",
				Intro: fmt.Sprintf("Latest developments in %s:", strings.ToLower(c.String())),
				Items: byCategory[c],
			}},
		})
	}
	return res
}

func (a *Assembler) escapeItem(item domain.ConsolidatedItem) domain.ConsolidatedItem {
	item.Title = a.sanitizer.EscapeText(item.Title)
	item.Summary = a.sanitizer.EscapeText(item.Summary)
	return item
}

// validate requires non-empty categories, each named and having subcategories with items lists
func validate(n *domain.Newsletter) error {
	if len(n.Sections) == 0 {
		return errors.New("no categories")
	}
	for i, s := range n.Sections {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if s.Subcategories == nil {
			return fmt.Errorf("category %q has no subcategories", s.Name)
		}
		for j, sub := range s.Subcategories {
			if sub.Items == nil {
				return fmt.Errorf("subcategory %d of %q has no items", j, s.Name)
			}
		}
	}
	return nil
}

// collectMetrics counts every placement per category, secondary placements are not counted as stories
func collectMetrics(sections []domain.Section) domain.Metrics {
	res := domain.Metrics{StoriesByCategory: map[string]int{}}
	placements := 0
	for _, s := range sections {
		for _, sub := range s.Subcategories {
			res.StoriesByCategory[s.Name] += len(sub.Items)
			placements += len(sub.Items)
			for _, item := range sub.Items {
				if item.Secondary {
					res.SecondaryPlacements++
				}
			}
		}
	}
	res.TotalStories = placements - res.SecondaryPlacements
	return res
}
