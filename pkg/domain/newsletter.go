package domain

// NewsletterDraft is the hierarchical structure proposed by the assembly oracle
type NewsletterDraft struct {
	Title            string          `json:"newsletter_title"`
	ExecutiveSummary string          `json:"executive_summary"`
	Categories       []DraftCategory `json:"categories"`
}

// DraftCategory is a category of the draft
type DraftCategory struct {
	Name          string             `json:"category_name"`
	Subcategories []DraftSubcategory `json:"subcategories"`
}

// DraftSubcategory refers to consolidated items by their index
type DraftSubcategory struct {
	Name    string `json:"subcategory_name"`
	ItemIDs []int  `json:"item_ids"`
	Intro   string `json:"intro_text"`
}

// Newsletter is the final, sanitized structure handed to the renderer.
// All text fields hold html-safe content.
type Newsletter struct {
	Title            string    `json:"title"`
	ExecutiveSummary string    `json:"executive_summary"`
	Sections         []Section `json:"categories"`
	GeneratedAt      string    `json:"generated_at"`
	DisplayDate      string    `json:"display_date"`
	GeneratedTime    string    `json:"generated_time"`
	Theme            string    `json:"theme"`
	Metrics          Metrics   `json:"metrics"`
}

// Section is a top level category of the newsletter
type Section struct {
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory groups items under a theme with intro text
type Subcategory struct {
	Name  string             `json:"name"`
	Intro string             `json:"intro"`
	Items []ConsolidatedItem `json:"items"`
}

// Metrics is a read-only summary of a newsletter
type Metrics struct {
	TotalStories             int            `json:"total_stories"`
	StoriesByCategory        map[string]int `json:"stories_by_category"`
	SecondaryPlacements      int            `json:"secondary_placements"`
	AICategorizedCount       int            `json:"ai_categorized_count"`
	FallbackCategorizedCount int            `json:"fallback_categorized_count"`
	GenerationTime           float64        `json:"generation_time"` // seconds
}
