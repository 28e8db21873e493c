package domain

// Category is one of the fixed newsletter categories
type Category string

// enum of supported categories, order matters for bucketing and rendering
const (
	CategoryAI            Category = "AI"
	CategoryEconomy       Category = "Economy"
	CategoryStocks        Category = "Stocks"
	CategoryPrivateEquity Category = "Private Equity"
	CategoryPolitics      Category = "Politics"
	CategoryTechnology    Category = "Technology"
	CategoryOther         Category = "Other"
)

var allCategories = []Category{
	CategoryAI, CategoryEconomy, CategoryStocks, CategoryPrivateEquity,
	CategoryPolitics, CategoryTechnology, CategoryOther,
}

// Categories returns all categories in their canonical order
func Categories() []Category {
	res := make([]Category, len(allCategories))
	copy(res, allCategories)
	return res
}

// ParseCategory returns the category matching s exactly and true, or "" and false for unknown values
func ParseCategory(s string) (Category, bool) {
	for _, c := range allCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// String returns category name
func (c Category) String() string { return string(c) }
