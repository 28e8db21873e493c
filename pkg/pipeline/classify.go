package pipeline

import (
	"context"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/maildigest/pkg/domain"
	"github.com/umputun/maildigest/pkg/monitor"
)

// verdict used when classification failed after all retries
var errorVerdict = domain.Classification{IsNews: false, Confidence: domain.ConfidenceLow, Reason: "Error in analysis", SecondaryCategories: []string{}}

// ClassificationResult is the outcome of classification stage
type ClassificationResult struct {
	News  []domain.ClassifiedMessage
	Total int // all listed messages, including skipped and failed ones
}

// ClassificationStage collects recent messages of all mailboxes and classifies them one by one
type ClassificationStage struct {
	classifier Classifier
	excluded   []string
	retry      RetryPolicy
	monOpts    monitor.Options
}

// NewClassificationStage makes classification stage, messages from excluded senders are never classified
func NewClassificationStage(classifier Classifier, excluded []string, retry RetryPolicy, monOpts monitor.Options) *ClassificationStage {
	ex := make([]string, 0, len(excluded))
	for _, e := range excluded {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			ex = append(ex, e)
		}
	}
	return &ClassificationStage{classifier: classifier, excluded: ex, retry: retry, monOpts: monOpts}
}

type messageRef struct {
	mailbox Mailbox
	id      string
}

// Run lists messages of all mailboxes and returns those classified as news, in listing order
func (s *ClassificationStage) Run(ctx context.Context, mailboxes []Mailbox) ClassificationResult {
	var refs []messageRef
	for _, mb := range mailboxes {
		ids, err := mb.ListRecent(ctx)
		if err != nil {
			lgr.Printf("[WARN] failed to list messages of %s: %v", mb.Account(), err)
			continue
		}
		lgr.Printf("[INFO] found %d recent messages in %s", len(ids), mb.Account())
		for _, id := range ids {
			refs = append(refs, messageRef{mailbox: mb, id: id})
		}
	}

	res := ClassificationResult{Total: len(refs)}
	if len(refs) == 0 {
		return res
	}

	mon := monitor.New(len(refs), "Classification", s.monOpts)
	for _, ref := range refs {
		if cm, ok := s.classifyRef(ctx, ref, mon); ok {
			res.News = append(res.News, cm)
		}
	}
	lgr.Printf("[INFO] found %d news messages out of %d", len(res.News), res.Total)
	return res
}

func (s *ClassificationStage) classifyRef(ctx context.Context, ref messageRef, mon *monitor.Monitor) (domain.ClassifiedMessage, bool) {
	defer mon.StepCompleted(ref.id)

	msg, err := ref.mailbox.Get(ctx, ref.id)
	if err != nil {
		lgr.Printf("[WARN] failed to get message %s from %s: %v", ref.id, ref.mailbox.Account(), err)
		return domain.ClassifiedMessage{}, false
	}
	if s.isExcluded(msg.Sender) {
		lgr.Printf("[DEBUG] skip message %s from excluded sender %s", msg.ID, msg.Sender)
		return domain.ClassifiedMessage{}, false
	}

	cls := s.classify(ctx, msg)
	if !cls.IsNews {
		lgr.Printf("[DEBUG] not news %q: %s", msg.Subject, cls.Reason)
		return domain.ClassifiedMessage{}, false
	}
	lgr.Printf("[DEBUG] news %q (%s): %s", msg.Subject, cls.PrimaryCategory, cls.Reason)
	return domain.ClassifiedMessage{Message: msg, Classification: cls}, true
}

// classify calls classifier with retries, exhausted retries give error verdict
func (s *ClassificationStage) classify(ctx context.Context, msg domain.Message) domain.Classification {
	var cls domain.Classification
	err := Retry(ctx, s.retry, func(attempt int) error {
		c, err := s.classifier.Classify(ctx, msg)
		if err != nil {
			lgr.Printf("[DEBUG] classification attempt %d for %s failed: %v", attempt+1, msg.ID, err)
			return err
		}
		cls = c
		return nil
	})
	if err != nil {
		lgr.Printf("[WARN] failed to classify message %s: %v", msg.ID, err)
		return errorVerdict
	}
	return cls
}

func (s *ClassificationStage) isExcluded(sender string) bool {
	sender = strings.ToLower(sender)
	for _, e := range s.excluded {
		if strings.Contains(sender, e) {
			return true
		}
	}
	return false
}
