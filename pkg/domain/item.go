package domain

// ExtractedItem is a single news story as returned by the extraction oracle
type ExtractedItem struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	MainTopic  string   `json:"main_topic"`
	SourceURLs []string `json:"source_urls"`
	KeyPoints  []string `json:"key_points"`
}

// NewsItem is an extracted story stamped with the provenance and classification of its message
type NewsItem struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	MainTopic  string   `json:"main_topic"`
	SourceURLs []string `json:"source_urls"`
	KeyPoints  []string `json:"key_points"`

	SourceSubject   string `json:"source_email_subject"`
	SourceSender    string `json:"source_email_sender"`
	SourceDate      string `json:"source_email_date"`
	SourceAccount   string `json:"source_account"`
	OriginalEmailID string `json:"original_email_id"`

	PrimaryCategory     string     `json:"email_primary_category,omitempty"`
	SecondaryCategories []string   `json:"email_secondary_categories,omitempty"`
	Confidence          Confidence `json:"email_classification_confidence,omitempty"`
	ClassificationNote  string     `json:"email_classification_reason,omitempty"`
}

// Source returns provenance record of the item
func (n NewsItem) Source() Source {
	return Source{Subject: n.SourceSubject, Sender: n.SourceSender, Date: n.SourceDate, Account: n.SourceAccount}
}

// Source describes one message contributing to a consolidated item
type Source struct {
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Date    string `json:"date"`
	Account string `json:"account"`
}

// GroupType is a kind of clustering result
type GroupType string

// group types
const (
	GroupDuplicate GroupType = "duplicate"
	GroupSimilar   GroupType = "similar"
	GroupUnique    GroupType = "unique"
)

// ClusterGroup is one group returned by the clustering oracle, ItemIDs refer to item indexes
type ClusterGroup struct {
	Type    GroupType `json:"type"`
	ItemIDs []int     `json:"item_ids"`
	Title   string    `json:"group_title"`
	Summary string    `json:"group_summary"`
}

// ConsolidatedItem is a deduplicated story, either a merged cluster or a singleton wrapper.
// Category is the bucket the item was deduplicated in, empty if the item had no usable label.
// Secondary is set when every member came from a secondary category placement.
type ConsolidatedItem struct {
	Title          string    `json:"title"`
	Summary        string    `json:"summary"`
	MainTopic      string    `json:"main_topic"`
	SourceURLs     []string  `json:"source_urls"`
	KeyPoints      []string  `json:"key_points,omitempty"`
	Sources        []Source  `json:"all_sources"`
	SourceAccounts []string  `json:"source_accounts"`
	GroupType      GroupType `json:"group_type"`
	OriginalCount  int       `json:"original_count"`
	Category       Category  `json:"category,omitempty"`
	Secondary      bool      `json:"is_secondary_category,omitempty"`
}

// Singleton wraps a single news item as an unmerged consolidated item
func Singleton(item NewsItem, category Category, secondary bool) ConsolidatedItem {
	return ConsolidatedItem{
		Title:          item.Title,
		Summary:        item.Summary,
		MainTopic:      item.MainTopic,
		SourceURLs:     item.SourceURLs,
		KeyPoints:      item.KeyPoints,
		Sources:        []Source{item.Source()},
		SourceAccounts: []string{item.SourceAccount},
		GroupType:      GroupUnique,
		OriginalCount:  1,
		Category:       category,
		Secondary:      secondary,
	}
}
