package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/umputun/maildigest/pkg/domain"
)

// ClusterInput is the reduced view of a news item sent for clustering
type ClusterInput struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	MainTopic string `json:"main_topic"`
}

type clusterResult struct {
	Groups []domain.ClusterGroup `json:"groups"`
}

// Validate rejects missing groups and unknown group types
func (r *clusterResult) Validate() error {
	if r.Groups == nil {
		return errors.New("groups list is missing")
	}
	for i, g := range r.Groups {
		switch g.Type {
		case domain.GroupDuplicate, domain.GroupSimilar, domain.GroupUnique:
		default:
			return fmt.Errorf("group %d has invalid type %q", i, g.Type)
		}
	}
	return nil
}

// Clusterer asks the oracle to group items of one category
type Clusterer struct {
	oracle Oracle
}

// NewClusterer makes clusterer
func NewClusterer(oracle Oracle) *Clusterer {
	return &Clusterer{oracle: oracle}
}

// Cluster returns groups for items of the category using the given model
func (c *Clusterer) Cluster(ctx context.Context, category domain.Category, items []ClusterInput, model string) ([]domain.ClusterGroup, error) {
	data, err := marshalPrompt(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cluster items: %w", err)
	}
	prompt := fmt.Sprintf("Analyze these %s news items and group them by similarity:\n\n%s\n", category, data)

	res, err := Ask[clusterResult](ctx, c.oracle, Request{
		Model:        model,
		Temperature:  0.1,
		Instructions: clusteringInstructions(category),
		Prompt:       prompt,
		Schema:       clusterResult{},
		SchemaName:   "news_deduplication",
	})
	if err != nil {
		return nil, fmt.Errorf("cluster %s items: %w", category, err)
	}
	return res.Groups, nil
}
