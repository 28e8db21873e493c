package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/umputun/maildigest/pkg/domain"
)

const truncatedMarker = "\n\n[TRUNCATED]"

// classificationResult is the coercion target of the classification oracle
type classificationResult domain.Classification

// Validate checks confidence is a known level
func (r *classificationResult) Validate() error {
	if !r.Confidence.Valid() {
		return fmt.Errorf("invalid confidence %q", r.Confidence)
	}
	if r.SecondaryCategories == nil {
		r.SecondaryCategories = []string{}
	}
	return nil
}

// Classifier asks the oracle whether a message is news
type Classifier struct {
	oracle    Oracle
	model     string
	bodyLimit int
}

// NewClassifier makes classifier, bodyLimit caps message body sent to the oracle
func NewClassifier(oracle Oracle, model string, bodyLimit int) *Classifier {
	return &Classifier{oracle: oracle, model: model, bodyLimit: bodyLimit}
}

// Classify returns classification of a single message, no retries
func (c *Classifier) Classify(ctx context.Context, msg domain.Message) (domain.Classification, error) {
	var sb strings.Builder
	sb.WriteString("Analyze this email and classify whether it contains news content:\n\n")
	sb.WriteString(fmt.Sprintf("Subject: %s\n", msg.Subject))
	sb.WriteString(fmt.Sprintf("From: %s\n", msg.Sender))
	sb.WriteString(fmt.Sprintf("Body:\n%s\n", truncate(msg.Body, c.bodyLimit)))

	res, err := Ask[classificationResult](ctx, c.oracle, Request{
		Model:        c.model,
		Temperature:  0.1,
		Instructions: classificationInstructions,
		Prompt:       sb.String(),
		Schema:       classificationResult{},
		SchemaName:   "news_classification",
	})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify message %s: %w", msg.ID, err)
	}
	return domain.Classification(res), nil
}

// truncate cuts text to limit runes and appends truncation marker
func truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + truncatedMarker
}
