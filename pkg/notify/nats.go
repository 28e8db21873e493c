// Package notify publishes run completion events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/nats-io/nats.go"

	"github.com/umputun/maildigest/pkg/domain"
)

// DefaultSubject used when subject not configured
const DefaultSubject = "maildigest.runs"

// Event is the message published after each run
type Event struct {
	Type string           `json:"type"`
	Run  domain.RunResult `json:"run"`
}

// conn is the part of *nats.Conn used here
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATS publishes run results to a subject
type NATS struct {
	conn    conn
	subject string
}

// Connect dials NATS server at url
func Connect(url, subject string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("maildigest"),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			lgr.Printf("[INFO] reconnected to nats %s", nc.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				lgr.Printf("[WARN] disconnected from nats: %v", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return newNATS(nc, subject), nil
}

func newNATS(c conn, subject string) *NATS {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATS{conn: c, subject: subject}
}

// Publish sends run.completed event with the run result and waits for the server to get it
func (n *NATS) Publish(ctx context.Context, res domain.RunResult) error {
	data, err := json.Marshal(Event{Type: "run.completed", Run: res})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", n.subject, err)
	}
	lgr.Printf("[DEBUG] run %s published to %s", res.ID, n.subject)
	return nil
}

// Close drains the connection
func (n *NATS) Close() error {
	return n.conn.Drain()
}
