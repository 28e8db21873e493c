package llm

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/umputun/maildigest/pkg/domain"
)

type draftResult domain.NewsletterDraft

// Validate rejects drafts without categories list, empty list is left for the caller to judge
func (r *draftResult) Validate() error {
	if r.Categories == nil {
		return errors.New("categories list is missing")
	}
	return nil
}

// CurateOptions defines optional curation parameters
type CurateOptions struct {
	CustomCategories []string
}

// Curator asks the oracle to organize consolidated items into a newsletter draft
type Curator struct {
	oracle Oracle
	model  string
}

// NewCurator makes curator
func NewCurator(oracle Oracle, model string) *Curator {
	return &Curator{oracle: oracle, model: model}
}

type curateItem struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	MainTopic string `json:"main_topic"`
}

// Curate returns draft referring to items by their index in the given slice
func (c *Curator) Curate(ctx context.Context, items []domain.ConsolidatedItem, opts CurateOptions) (*domain.NewsletterDraft, error) {
	prompt := make([]curateItem, 0, len(items))
	for i, it := range items {
		prompt = append(prompt, curateItem{
			ID:        i,
			Title:     html.EscapeString(it.Title),
			Summary:   html.EscapeString(it.Summary),
			MainTopic: html.EscapeString(it.MainTopic),
		})
	}
	data, err := marshalPrompt(prompt)
	if err != nil {
		return nil, fmt.Errorf("marshal curate items: %w", err)
	}

	res, err := Ask[draftResult](ctx, c.oracle, Request{
		Model:        c.model,
		Temperature:  0.2,
		Instructions: curatorInstructions(opts.CustomCategories),
		Prompt:       "Create a structured daily newsletter from these news items:\n\n" + data,
		Schema:       draftResult{},
		SchemaName:   "newsletter_structure",
	})
	if err != nil {
		return nil, fmt.Errorf("curate newsletter: %w", err)
	}
	draft := domain.NewsletterDraft(res)
	return &draft, nil
}
