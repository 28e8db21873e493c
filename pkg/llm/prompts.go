package llm

import (
	"fmt"

	"github.com/umputun/maildigest/pkg/domain"
)

var classificationInstructions = []string{
	"You are a precise email classifier. Decide whether the email is primarily a news report, analysis or informational newsletter.",
	"",
	"NEWS: breaking news alerts, daily or weekly digests and briefings, market and economic analysis,",
	"political and policy developments, industry newsletters about trends, launches or research, scientific announcements.",
	"NOT NEWS: promotional or marketing mail, receipts and other transactional mail, personal correspondence,",
	"social network notifications, operational and IT alerts, job alerts, event invitations, surveys and spam.",
	"Content written to inform is news. Content written to sell is not, even when it announces something new.",
	"",
	"Categories: AI, Economy, Stocks, Private Equity, Politics, Technology, Other.",
	"Pick the most specific primary category (AI over Technology, Stocks for single companies and trading, Economy for macro news,",
	"Private Equity for deals and funds). Add secondary categories only when the news touches several areas significantly.",
	"",
	`Answer with a JSON object: {"is_news": bool, "confidence": "high"|"medium"|"low", "primary_category": string|null,`,
	`"secondary_categories": [string], "reason": string}.`,
	`For news the reason is "News: <Category> - <main point>", otherwise "Not News: <reason>" with null primary category.`,
	"When in doubt answer not news.",
}

var extractionBaseInstructions = []string{
	"You are a meticulous news analyst. Split raw email content into structured, distinct news items.",
	"- Extract each standalone story, announcement or update as a separate item.",
	"- A single-story email yields a single item.",
	"- If the email has no news content, return an empty list.",
	"- For each item write a clear journalistic title, a comprehensive summary, 3-5 key points and all relevant URLs.",
	"- Skip headers, footers, unsubscribe links, privacy notes, ads and promotional filler.",
	`Answer with a JSON object: {"items": [{"title": string, "summary": string, "main_topic": string,`,
	`"source_urls": [string], "key_points": [string]}]}.`,
}

// categoryFocus is extra extraction guidance per primary category
var categoryFocus = map[domain.Category][2]string{
	domain.CategoryAI: {
		"Developments in AI: model releases, research breakthroughs, corporate strategy.",
		"Model names, benchmarks and performance numbers, researchers and companies involved.",
	},
	domain.CategoryStocks: {
		"Market moving news: earnings, analyst ratings, M&A activity.",
		"Company names with tickers, financial figures, analysts and firms.",
	},
	domain.CategoryEconomy: {
		"Macroeconomic news, central bank policy, economic indicators.",
		"Data points such as inflation or GDP numbers, reporting agencies, time periods.",
	},
	domain.CategoryPrivateEquity: {
		"Deals, fundraising, buyouts and personnel changes.",
		"Firms on both sides, fund names, amounts and valuations, partners and executives.",
	},
	domain.CategoryPolitics: {
		"Legislation, regulation and government policy decisions.",
		"Bill names or numbers, agencies and departments, political figures.",
	},
	domain.CategoryTechnology: {
		"Product launches, infrastructure updates, corporate partnerships.",
		"Product and service names, versions, key features and release dates.",
	},
}

// extractionInstructions returns base instructions plus category focus.
// Missing classification means base instructions only, unknown or Other category adds the header without focus.
func extractionInstructions(cls *domain.Classification) []string {
	res := append([]string{}, extractionBaseInstructions...)
	if cls == nil {
		return res
	}
	category := cls.PrimaryCategory
	if category == "" {
		category = string(domain.CategoryOther)
	}
	res = append(res, "", "Category focus: "+category)
	if focus, ok := categoryFocus[domain.Category(category)]; ok {
		res = append(res, "Focus: "+focus[0], "Extract: "+focus[1])
	}
	return res
}

func clusteringInstructions(category domain.Category) []string {
	return []string{
		fmt.Sprintf("You are a news analyst specialized in %s news, identifying duplicate and similar content.", category),
		"Group the news items by similarity within this category.",
		"Duplicates are the same news from different sources, similar items are different angles on the same event.",
		"Give every group a title and summary capturing the combined story. Unrelated items stay unique.",
		`Answer with a JSON object: {"groups": [{"type": "duplicate"|"similar"|"unique", "item_ids": [int],`,
		`"group_title": string, "group_summary": string}]}. Use the item ids exactly as given.`,
	}
}

func curatorInstructions(custom []string) []string {
	res := []string{
		"You are a newsletter curator. Build a well structured daily newsletter from the news items.",
		"Organize content into categories: AI, Economy, Stocks, Private Equity, Politics, Technology, Other.",
	}
	if len(custom) > 0 {
		res = append(res, fmt.Sprintf("Additional categories allowed: %v.", custom))
	}
	res = append(res,
		"Only include categories with relevant content and create subcategories based on actual themes.",
		"Write a short engaging intro for each subcategory and make sure every item is placed.",
		"Provide an executive summary of the key themes of the day. The title may contain a [Date] placeholder.",
		`Answer with a JSON object: {"newsletter_title": string, "executive_summary": string, "categories": [{"category_name": string,`,
		`"subcategories": [{"subcategory_name": string, "item_ids": [int], "intro_text": string}]}]}.`,
	)
	return res
}
