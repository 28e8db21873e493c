package domain

// Message is a raw mail item as fetched from a mailbox
type Message struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	Sender      string `json:"sender"`
	Date        string `json:"date"`
	Body        string `json:"body"`
	Account     string `json:"account"`
	AccountName string `json:"account_name,omitempty"`
}

// Confidence is an ordinal confidence of a classification verdict
type Confidence string

// confidence levels
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether the confidence is one of the known levels
func (c Confidence) Valid() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

// Classification is the news verdict for a single message.
// PrimaryCategory is kept as a raw label, it may be empty or outside of the Category enum.
type Classification struct {
	IsNews              bool       `json:"is_news"`
	Confidence          Confidence `json:"confidence"`
	PrimaryCategory     string     `json:"primary_category,omitempty"`
	SecondaryCategories []string   `json:"secondary_categories"`
	Reason              string     `json:"reason"`
}

// ClassifiedMessage is a message with its classification attached
type ClassifiedMessage struct {
	Message        Message
	Classification Classification
}
