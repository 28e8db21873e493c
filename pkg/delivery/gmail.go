// Package delivery sends rendered newsletters and keeps copies of those which could not be sent.
package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"github.com/go-pkgz/lgr"
	"google.golang.org/api/gmail/v1"
)

// Connector returns authenticated gmail service and the sender address
type Connector func(ctx context.Context) (*gmail.Service, string, error)

// GmailSender sends newsletters through gmail api of the sender account
type GmailSender struct {
	connect           Connector
	defaultRecipients []string
}

// NewGmailSender makes sender, defaultRecipients used when Send called without recipients
func NewGmailSender(connect Connector, defaultRecipients []string) *GmailSender {
	return &GmailSender{connect: connect, defaultRecipients: defaultRecipients}
}

// Send delivers html newsletter to recipients as a single message
func (s *GmailSender) Send(ctx context.Context, html, title string, recipients []string) error {
	if len(recipients) == 0 {
		recipients = s.defaultRecipients
	}
	if len(recipients) == 0 {
		return errors.New("no recipients")
	}

	svc, from, err := s.connect(ctx)
	if err != nil {
		return fmt.Errorf("authenticate sender: %w", err)
	}

	raw, err := buildMessage(from, recipients, title, html)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	sent, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	lgr.Printf("[INFO] newsletter sent from %s to %v, message id %s", from, recipients, sent.Id)
	return nil
}

// buildMessage makes multipart/alternative MIME message with a single quoted-printable html part
func buildMessage(from string, to []string, subject, html string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(html)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	msg.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: multipart/alternative; boundary=" + mw.Boundary() + "\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
