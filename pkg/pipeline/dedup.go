package pipeline

import (
	"context"
	"fmt"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/maildigest/pkg/domain"
	"github.com/umputun/maildigest/pkg/llm"
	"github.com/umputun/maildigest/pkg/monitor"
)

// DedupOptions for DedupStage
type DedupOptions struct {
	Parallel bool
	Workers  int
	Models   []string // attempt i uses Models[min(i, len-1)]
	Retry    RetryPolicy
	Monitor  monitor.Options
}

// DedupStage merges duplicate and similar items within each category
type DedupStage struct {
	clusterer Clusterer
	opts      DedupOptions
}

// NewDedupStage makes dedup stage
func NewDedupStage(clusterer Clusterer, opts DedupOptions) *DedupStage {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &DedupStage{clusterer: clusterer, opts: opts}
}

// Run buckets items by category and deduplicates every bucket independently.
// A bucket failing clustering keeps all its items as singletons, other buckets are not affected.
func (s *DedupStage) Run(ctx context.Context, items []domain.NewsItem) []domain.ConsolidatedItem {
	cat := Categorize(items)
	for _, w := range cat.Warnings {
		lgr.Printf("[WARN] %s", w)
	}
	if len(items) <= 1 {
		// nothing to cluster, the item still gets its secondary placements
		res := make([]domain.ConsolidatedItem, 0, cat.Placements())
		for _, b := range cat.Buckets {
			res = append(res, singletons(b)...)
		}
		return res
	}

	lgr.Printf("[INFO] deduplicating %d placements of %d items in %d categories", cat.Placements(), len(items), len(cat.Buckets))

	mon := monitor.New(len(cat.Buckets), "Deduplication", s.opts.Monitor)
	results := make([][]domain.ConsolidatedItem, len(cat.Buckets))

	workers := max(1, min(s.opts.Workers, len(cat.Buckets)))
	if s.opts.Parallel && workers > 1 {
		var g errgroup.Group
		g.SetLimit(workers)
		for i, b := range cat.Buckets {
			g.Go(func() error {
				results[i] = s.dedupBucket(ctx, b, mon)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, b := range cat.Buckets {
			results[i] = s.dedupBucket(ctx, b, mon)
		}
	}

	var res []domain.ConsolidatedItem
	for _, r := range results {
		res = append(res, r...)
	}
	lgr.Printf("[INFO] deduplication reduced %d placements to %d items", cat.Placements(), len(res))
	return res
}

// dedupBucket clusters a single bucket, any failure degrades the bucket to singletons
func (s *DedupStage) dedupBucket(ctx context.Context, b Bucket, mon *monitor.Monitor) (res []domain.ConsolidatedItem) {
	defer mon.StepCompleted(fmt.Sprintf("%s (%d items)", b.Category, len(b.Entries)))
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[WARN] deduplication of %s panicked, keeping items as is: %v", b.Category, r)
			res = singletons(b)
		}
	}()

	groups, err := s.cluster(ctx, b)
	if err != nil {
		lgr.Printf("[WARN] failed to deduplicate %s, keeping items as is: %v", b.Category, err)
		return singletons(b)
	}
	res, err = consolidate(b, groups)
	if err != nil {
		lgr.Printf("[WARN] failed to consolidate %s groups, keeping items as is: %v", b.Category, err)
		return singletons(b)
	}
	lgr.Printf("[DEBUG] %s: %d items consolidated into %d", b.Category, len(b.Entries), len(res))
	return res
}

// cluster calls clusterer with retries, switching to the next model on every failed attempt
func (s *DedupStage) cluster(ctx context.Context, b Bucket) ([]domain.ClusterGroup, error) {
	inputs := make([]llm.ClusterInput, 0, len(b.Entries))
	for _, e := range b.Entries {
		inputs = append(inputs, llm.ClusterInput{ID: e.Index, Title: e.Item.Title, Summary: e.Item.Summary, MainTopic: e.Item.MainTopic})
	}

	var groups []domain.ClusterGroup
	err := Retry(ctx, s.opts.Retry, func(attempt int) error {
		model := s.model(attempt)
		g, err := s.clusterer.Cluster(ctx, b.Category, inputs, model)
		if err != nil {
			lgr.Printf("[DEBUG] %s clustering attempt %d with %s failed: %v", b.Category, attempt+1, model, err)
			return err
		}
		if g == nil {
			return fmt.Errorf("no groups returned by %s", model)
		}
		groups = g
		return nil
	})
	return groups, err
}

func (s *DedupStage) model(attempt int) string {
	if len(s.opts.Models) == 0 {
		return ""
	}
	return s.opts.Models[min(attempt, len(s.opts.Models)-1)]
}

// consolidate turns groups into consolidated items. The first group claiming an item wins,
// groups overlapping with already claimed items are skipped. Unclaimed items become singletons.
func consolidate(b Bucket, groups []domain.ClusterGroup) ([]domain.ConsolidatedItem, error) {
	byID := make(map[int]BucketEntry, len(b.Entries))
	for _, e := range b.Entries {
		byID[e.Index] = e
	}

	var res []domain.ConsolidatedItem
	processed := map[int]bool{}
	for gi, g := range groups {
		ids := uniqueIDs(g.ItemIDs)
		if len(ids) == 0 {
			continue
		}
		if claimed(processed, ids) {
			continue
		}
		members := make([]BucketEntry, 0, len(ids))
		for _, id := range ids {
			e, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("group %d refers to unknown item %d", gi, id)
			}
			members = append(members, e)
		}
		for _, id := range ids {
			processed[id] = true
		}
		res = append(res, merge(b.Category, g, members))
	}

	for _, e := range b.Entries {
		if !processed[e.Index] {
			res = append(res, singleton(b.Category, e))
		}
	}
	return res, nil
}

func merge(category domain.Category, g domain.ClusterGroup, members []BucketEntry) domain.ConsolidatedItem {
	first := members[0].Item
	res := domain.ConsolidatedItem{
		Title:         g.Title,
		Summary:       g.Summary,
		MainTopic:     first.MainTopic,
		SourceURLs:    []string{},
		GroupType:     g.Type,
		OriginalCount: len(members),
		Category:      category,
		Secondary:     true,
	}
	if res.Title == "" {
		res.Title = first.Title
	}
	if res.Summary == "" {
		res.Summary = first.Summary
	}

	seenURL, seenAccount := map[string]bool{}, map[string]bool{}
	uncategorized := true
	for _, m := range members {
		res.Sources = append(res.Sources, m.Item.Source())
		for _, u := range m.Item.SourceURLs {
			if !seenURL[u] {
				seenURL[u] = true
				res.SourceURLs = append(res.SourceURLs, u)
			}
		}
		if !seenAccount[m.Item.SourceAccount] {
			seenAccount[m.Item.SourceAccount] = true
			res.SourceAccounts = append(res.SourceAccounts, m.Item.SourceAccount)
		}
		res.Secondary = res.Secondary && m.Secondary
		uncategorized = uncategorized && m.Uncategorized
	}
	if len(members) == 1 {
		res.KeyPoints = first.KeyPoints
	}
	if uncategorized {
		res.Category = ""
	}
	return res
}

func singleton(category domain.Category, e BucketEntry) domain.ConsolidatedItem {
	if e.Uncategorized {
		category = ""
	}
	return domain.Singleton(e.Item, category, e.Secondary)
}

func singletons(b Bucket) []domain.ConsolidatedItem {
	res := make([]domain.ConsolidatedItem, 0, len(b.Entries))
	for _, e := range b.Entries {
		res = append(res, singleton(b.Category, e))
	}
	return res
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	res := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			res = append(res, id)
		}
	}
	return res
}

func claimed(processed map[int]bool, ids []int) bool {
	for _, id := range ids {
		if processed[id] {
			return true
		}
	}
	return false
}
