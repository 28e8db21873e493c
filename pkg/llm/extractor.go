package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/umputun/maildigest/pkg/domain"
)

type extractionResult struct {
	Items []domain.ExtractedItem `json:"items"`
}

// Validate rejects answers without items list, empty list is fine
func (r *extractionResult) Validate() error {
	if r.Items == nil {
		return errors.New("items list is missing")
	}
	return nil
}

// Extractor asks the oracle to split a news message into news items
type Extractor struct {
	oracle Oracle
	model  string
}

// NewExtractor makes extractor
func NewExtractor(oracle Oracle, model string) *Extractor {
	return &Extractor{oracle: oracle, model: model}
}

// Extract returns news items found in the message, may be empty
func (e *Extractor) Extract(ctx context.Context, cm domain.ClassifiedMessage) ([]domain.ExtractedItem, error) {
	prompt := fmt.Sprintf("Extract individual news items from this email content:\n\nSubject: %s\nFrom: %s\nBody: %s\n",
		cm.Message.Subject, cm.Message.Sender, cm.Message.Body)

	res, err := Ask[extractionResult](ctx, e.oracle, Request{
		Model:        e.model,
		Temperature:  0.1,
		Instructions: extractionInstructions(&cm.Classification),
		Prompt:       prompt,
		Schema:       extractionResult{},
		SchemaName:   "news_extraction",
	})
	if err != nil {
		return nil, fmt.Errorf("extract items from %s: %w", cm.Message.ID, err)
	}
	return res.Items, nil
}
