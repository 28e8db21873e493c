package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/umputun/maildigest/pkg/domain"
	"github.com/umputun/maildigest/pkg/pipeline/mocks"
)

var fastRetry = RetryPolicy{Attempts: 3, Delay: time.Millisecond, MaxDelay: time.Millisecond}

type sourcesFunc func(ctx context.Context) []Mailbox

func (f sourcesFunc) Mailboxes(ctx context.Context) []Mailbox { return f(ctx) }

// mailbox returns mock serving given messages by id
func mailbox(account string, msgs ...domain.Message) *mocks.MailboxMock {
	byID := map[string]domain.Message{}
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}
	return &mocks.MailboxMock{
		AccountFunc:    func() string { return account },
		ListRecentFunc: func(context.Context) ([]string, error) { return ids, nil },
		GetFunc: func(_ context.Context, id string) (domain.Message, error) {
			m, ok := byID[id]
			if !ok {
				return domain.Message{}, fmt.Errorf("message %s not found", id)
			}
			return m, nil
		},
	}
}

func classified(id, category string, secondary ...string) domain.ClassifiedMessage {
	return domain.ClassifiedMessage{
		Message: domain.Message{ID: id, Subject: "subject " + id, Sender: "news@example.com", Date: "Mon, 01 Jan 2024",
			Body: "body of " + id, Account: "me@example.com"},
		Classification: domain.Classification{IsNews: true, Confidence: domain.ConfidenceHigh, PrimaryCategory: category,
			SecondaryCategories: secondary, Reason: "newsletter"},
	}
}

func newsItem(title, category string, secondary ...string) domain.NewsItem {
	return domain.NewsItem{
		Title:               title,
		Summary:             "summary of " + title,
		MainTopic:           "topic of " + title,
		SourceURLs:          []string{"https://example.com/" + title},
		KeyPoints:           []string{},
		SourceSubject:       "subject " + title,
		SourceSender:        "news@example.com",
		SourceDate:          "Mon, 01 Jan 2024",
		SourceAccount:       "me@example.com",
		OriginalEmailID:     "id-" + title,
		PrimaryCategory:     category,
		SecondaryCategories: secondary,
	}
}

func totalCount(items []domain.ConsolidatedItem) int {
	res := 0
	for _, it := range items {
		res += it.OriginalCount
	}
	return res
}
