package pipeline

import (
	"fmt"

	"github.com/umputun/maildigest/pkg/domain"
)

// BucketEntry is a news item placed into a category bucket
type BucketEntry struct {
	Index         int // position of the item in the extracted list, used as clustering id
	Item          domain.NewsItem
	Secondary     bool // copy made for a secondary category
	Uncategorized bool // placed into Other because primary category was missing or unknown
}

// Bucket holds items of a single category in extraction order
type Bucket struct {
	Category domain.Category
	Entries  []BucketEntry
}

// Categorization is the result of bucketing, Buckets are non-empty and follow the canonical category order
type Categorization struct {
	Buckets  []Bucket
	Warnings []string
}

// Placements returns the total number of entries in all buckets
func (c Categorization) Placements() int {
	res := 0
	for _, b := range c.Buckets {
		res += len(b.Entries)
	}
	return res
}

// Categorize places every item into the bucket of its primary category, or into Other if the
// category is missing or unknown. Items with a valid primary category are also copied into each
// valid secondary category bucket. Input is not modified.
func Categorize(items []domain.NewsItem) Categorization {
	entries := map[domain.Category][]BucketEntry{}
	var warnings []string

	for i, item := range items {
		primary, ok := domain.ParseCategory(item.PrimaryCategory)
		if !ok {
			if item.PrimaryCategory == "" {
				warnings = append(warnings, fmt.Sprintf("item %d %q has no category, placed in %s", i, item.Title, domain.CategoryOther))
			} else {
				warnings = append(warnings, fmt.Sprintf("item %d %q has unknown category %q, placed in %s",
					i, item.Title, item.PrimaryCategory, domain.CategoryOther))
			}
			entries[domain.CategoryOther] = append(entries[domain.CategoryOther], BucketEntry{Index: i, Item: item, Uncategorized: true})
			continue
		}
		entries[primary] = append(entries[primary], BucketEntry{Index: i, Item: item})

		seen := map[domain.Category]bool{primary: true}
		for _, sc := range item.SecondaryCategories {
			secondary, ok := domain.ParseCategory(sc)
			if !ok || seen[secondary] {
				continue
			}
			seen[secondary] = true
			entries[secondary] = append(entries[secondary], BucketEntry{Index: i, Item: item, Secondary: true})
		}
	}

	res := Categorization{Warnings: warnings}
	for _, c := range domain.Categories() {
		if len(entries[c]) > 0 {
			res.Buckets = append(res.Buckets, Bucket{Category: c, Entries: entries[c]})
		}
	}
	return res
}
