package domain

import "time"

// RunResult is the outcome of one pipeline run
type RunResult struct {
	ID         string    `json:"id"`
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	Trigger    string    `json:"trigger,omitempty"`
	Stats      RunStats  `json:"stats"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunStats holds counters gathered by a run, partial if the run stopped early
type RunStats struct {
	TotalEmails        int      `json:"total_emails"`
	NewsEmails         int      `json:"news_emails"`
	NewsItemsExtracted int      `json:"news_items_extracted"`
	AfterDeduplication int      `json:"after_deduplication"`
	Categories         int      `json:"categories"`
	EmailSent          bool     `json:"email_sent"`
	ArchivedTo         string   `json:"archived_to,omitempty"`
	Metrics            *Metrics `json:"metrics,omitempty"`
}

// Duration returns run duration
func (r RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
