package pipeline

import (
	"strings"

	"github.com/umputun/maildigest/pkg/domain"
)

// keyword tables in matching order, the first category with a matching keyword wins
var fallbackKeywords = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryAI, []string{"ai", "artificial intelligence", "machine learning", "llm", "chatbot"}},
	{domain.CategoryEconomy, []string{"economy", "economic", "gdp", "inflation", "market", "financial"}},
	{domain.CategoryStocks, []string{"stock", "shares", "trading", "equity", "nasdaq", "sp500", "dow"}},
	{domain.CategoryPrivateEquity, []string{"private equity", "pe", "buyout", "acquisition"}},
	{domain.CategoryPolitics, []string{"politics", "political", "government", "election", "policy", "congress"}},
	{domain.CategoryTechnology, []string{"technology", "tech", "software", "hardware", "startup"}},
}

// matchKeywords returns category of the first keyword found in title or summary, Other if none matched.
// Keywords are matched as substrings of lowercased text.
func matchKeywords(title, summary string) domain.Category {
	title, summary = strings.ToLower(title), strings.ToLower(summary)
	for _, fk := range fallbackKeywords {
		for _, k := range fk.keywords {
			if strings.Contains(title, k) || strings.Contains(summary, k) {
				return fk.category
			}
		}
	}
	return domain.CategoryOther
}
