package mailbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/umputun/maildigest/pkg/content"
	"github.com/umputun/maildigest/pkg/domain"
)

// Options for Gmail mailbox
type Options struct {
	Query             string  // gmail search query, e.g. newer_than:1d
	PageSize          int64   // messages per list page
	RequestsPerSecond float64 // api pacing, 0 disables pacing
	Attempts          int     // attempts per api call on retryable errors
	RetryDelay        time.Duration
}

// Gmail is a mailbox backed by gmail api
type Gmail struct {
	svc     *gmail.Service
	email   string
	name    string
	opts    Options
	limiter *rate.Limiter
}

// New makes Gmail mailbox for an authenticated service
func New(svc *gmail.Service, email, name string, opts Options) *Gmail {
	if opts.Query == "" {
		opts.Query = "newer_than:1d"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Attempts < 1 {
		opts.Attempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &Gmail{svc: svc, email: email, name: name, opts: opts, limiter: limiter}
}

// Connect authenticates all accounts concurrently and returns mailboxes of those succeeded, in accounts order
func Connect(ctx context.Context, accounts []Account, opts Options, clientOpts ...option.ClientOption) []*Gmail {
	boxes := make([]*Gmail, len(accounts))
	var g errgroup.Group
	for i, acc := range accounts {
		g.Go(func() error {
			svc, email, err := Authenticate(ctx, acc, clientOpts...)
			if err != nil {
				lgr.Printf("[WARN] authentication failed for %s: %v", acc.Name, err)
				return nil
			}
			boxes[i] = New(svc, email, acc.Name, opts)
			return nil
		})
	}
	_ = g.Wait()

	res := make([]*Gmail, 0, len(boxes))
	for _, b := range boxes {
		if b != nil {
			res = append(res, b)
		}
	}
	lgr.Printf("[INFO] authenticated %d of %d accounts", len(res), len(accounts))
	return res
}

// Account returns address of the mailbox
func (g *Gmail) Account() string { return g.email }

// ListRecent returns ids of messages matching the query, following all pages.
// Listing errors are logged and ids collected so far are returned.
func (g *Gmail) ListRecent(ctx context.Context) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		var resp *gmail.ListMessagesResponse
		err := g.call(ctx, func() error {
			call := g.svc.Users.Messages.List("me").Q(g.opts.Query).MaxResults(g.opts.PageSize).
				Fields("messages/id", "nextPageToken").Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			r, err := call.Do()
			resp = r
			return err
		})
		if err != nil {
			lgr.Printf("[WARN] failed to list messages of %s: %v", g.email, err)
			return ids, nil
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Get fetches a message with headers and decoded text body, html bodies are converted to text
func (g *Gmail) Get(ctx context.Context, id string) (domain.Message, error) {
	var msg *gmail.Message
	err := g.call(ctx, func() error {
		m, err := g.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
		msg = m
		return err
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("get message %s: %w", id, err)
	}

	headers := map[string]string{}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			headers[h.Name] = h.Value
		}
	}
	_, body := extractBody(msg.Payload)
	return domain.Message{
		ID:          id,
		Subject:     valueOr(headers["Subject"], "No Subject"),
		Sender:      valueOr(headers["From"], "Unknown Sender"),
		Date:        valueOr(headers["Date"], "Unknown Date"),
		Body:        body,
		Account:     g.email,
		AccountName: g.name,
	}, nil
}

// call paces and retries api call, only throttling and server errors are retried
func (g *Gmail) call(ctx context.Context, fn func() error) error {
	var permanent error
	err := repeater.NewBackoff(g.opts.Attempts, g.opts.RetryDelay, repeater.WithMaxDelay(30*time.Second), repeater.WithJitter(0.3)).
		Do(ctx, func() error {
			if err := g.limiter.Wait(ctx); err != nil {
				permanent = err
				return nil
			}
			err := fn()
			if err != nil && !retryable(err) {
				permanent = err
				return nil
			}
			return err
		})
	if err != nil {
		return err
	}
	return permanent
}

func retryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// extractBody returns mime type and text of the payload, text/plain parts are preferred over text/html
func extractBody(part *gmail.MessagePart) (mimeType, text string) {
	if part == nil {
		return "", ""
	}
	if part.Body != nil && part.Body.Data != "" {
		text = decodeBase64URL(part.Body.Data, partCharset(part))
		if part.MimeType == "text/html" {
			text = content.HTMLToText(text)
		}
		return part.MimeType, text
	}
	for _, p := range part.Parts {
		if mt, txt := extractBody(p); mt == "text/plain" && txt != "" {
			return mt, txt
		}
	}
	for _, p := range part.Parts {
		if mt, txt := extractBody(p); mt == "text/html" && txt != "" {
			return mt, txt
		}
	}
	return "", ""
}

// decodeBase64URL decodes gmail base64url data with or without padding and converts it from cs to utf-8.
// Invalid data gives empty string, unknown charset leaves bytes as is.
func decodeBase64URL(data, cs string) string {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	if cs != "" && !strings.EqualFold(cs, "utf-8") && !strings.EqualFold(cs, "us-ascii") {
		if r, err := charset.NewReaderLabel(cs, bytes.NewReader(decoded)); err == nil {
			if converted, err := io.ReadAll(r); err == nil {
				decoded = converted
			}
		}
	}
	return strings.ToValidUTF8(string(decoded), "�")
}

// partCharset returns charset of the part's Content-Type header
func partCharset(part *gmail.MessagePart) string {
	for _, h := range part.Headers {
		if !strings.EqualFold(h.Name, "Content-Type") {
			continue
		}
		if _, params, err := mime.ParseMediaType(h.Value); err == nil {
			return params["charset"]
		}
	}
	return ""
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
