package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func b64(s string) string { return base64.URLEncoding.EncodeToString([]byte(s)) }

// fakeGmail serves a minimal subset of gmail rest api
func fakeGmail(t *testing.T, messages map[string]*gmail.Message, pages [][]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/profile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(gmail.Profile{EmailAddress: "me@example.com"})
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "newer_than:1d", r.URL.Query().Get("q"))
		page := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			page = int(tok[0] - '0')
		}
		resp := gmail.ListMessagesResponse{}
		for _, id := range pages[page] {
			resp.Messages = append(resp.Messages, &gmail.Message{Id: id})
		}
		if page+1 < len(pages) {
			resp.NextPageToken = string(rune('0' + page + 1))
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		m, ok := messages[r.PathValue("id")]
		if !ok {
			http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(m)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testService(t *testing.T, srv *httptest.Server) *gmail.Service {
	t.Helper()
	svc, err := gmail.NewService(context.Background(), option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return svc
}

func TestGmail_ListRecent(t *testing.T) {
	srv := fakeGmail(t, nil, [][]string{{"a", "b"}, {"c"}})
	g := New(testService(t, srv), "me@example.com", "Primary", Options{PageSize: 2})
	ids, err := g.ListRecent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, "me@example.com", g.Account())
}

func TestGmail_ListRecentErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Query().Get("q") == "bad" {
			http.Error(w, `{"error":{"code":400,"message":"bad query"}}`, http.StatusBadRequest)
			return
		}
		if n == 1 {
			http.Error(w, `{"error":{"code":503,"message":"unavailable"}}`, http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"x"}]}`))
	}))
	defer srv.Close()

	t.Run("server error retried", func(t *testing.T) {
		g := New(testService(t, srv), "me@example.com", "", Options{RetryDelay: time.Millisecond})
		ids, err := g.ListRecent(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, ids)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("client error gives empty list", func(t *testing.T) {
		calls.Store(10)
		g := New(testService(t, srv), "me@example.com", "", Options{Query: "bad", RetryDelay: time.Millisecond})
		ids, err := g.ListRecent(context.Background())
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.Equal(t, int32(11), calls.Load(), "client errors are not retried")
	})
}

func TestGmail_Get(t *testing.T) {
	messages := map[string]*gmail.Message{
		"multi": {Id: "multi", Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Morning brief"}, {Name: "From", Value: "Brief <brief@news.com>"},
				{Name: "Date", Value: "Mon, 1 Jan 2024 08:00:00 +0000"},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<p>html version</p>")}},
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("plain version")}},
			},
		}},
		"bare": {Id: "bare", Payload: &gmail.MessagePart{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("just text")}}},
	}
	srv := fakeGmail(t, messages, [][]string{{}})
	g := New(testService(t, srv), "me@example.com", "Primary", Options{})

	msg, err := g.Get(context.Background(), "multi")
	require.NoError(t, err)
	assert.Equal(t, "multi", msg.ID)
	assert.Equal(t, "Morning brief", msg.Subject)
	assert.Equal(t, "Brief <brief@news.com>", msg.Sender)
	assert.Equal(t, "Mon, 1 Jan 2024 08:00:00 +0000", msg.Date)
	assert.Equal(t, "plain version", msg.Body)
	assert.Equal(t, "me@example.com", msg.Account)
	assert.Equal(t, "Primary", msg.AccountName)

	msg, err = g.Get(context.Background(), "bare")
	require.NoError(t, err)
	assert.Equal(t, "No Subject", msg.Subject)
	assert.Equal(t, "Unknown Sender", msg.Sender)
	assert.Equal(t, "Unknown Date", msg.Date)
	assert.Equal(t, "just text", msg.Body)

	_, err = g.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get message missing")
}

func TestExtractBody(t *testing.T) {
	nested := &gmail.MessagePart{MimeType: "multipart/mixed", Parts: []*gmail.MessagePart{
		{MimeType: "multipart/alternative", Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<html><body><p>Only html here</p></body></html>")}},
		}},
		{MimeType: "application/pdf", Filename: "a.pdf", Body: &gmail.MessagePartBody{AttachmentId: "att"}},
	}}
	mime, text := extractBody(nested)
	assert.Equal(t, "text/html", mime)
	assert.Contains(t, text, "Only html here")
	assert.NotContains(t, text, "<p>")

	mime, text = extractBody(&gmail.MessagePart{MimeType: "multipart/mixed"})
	assert.Empty(t, mime)
	assert.Empty(t, text)

	_, text = extractBody(nil)
	assert.Empty(t, text)
}

func TestDecodeBase64URL(t *testing.T) {
	assert.Equal(t, "hello?>", decodeBase64URL(base64.URLEncoding.EncodeToString([]byte("hello?>")), ""))
	assert.Equal(t, "hello?>", decodeBase64URL(base64.RawURLEncoding.EncodeToString([]byte("hello?>")), "UTF-8"))
	assert.Empty(t, decodeBase64URL("!!!", ""))

	latin1 := base64.URLEncoding.EncodeToString([]byte{'c', 'a', 'f', 0xe9})
	assert.Equal(t, "café", decodeBase64URL(latin1, "iso-8859-1"))
	assert.Equal(t, "caf�", decodeBase64URL(latin1, ""), "invalid utf-8 replaced")
	assert.Equal(t, "caf�", decodeBase64URL(latin1, "no-such-charset"))
}

func TestExtractBody_Charset(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "text/plain",
		Headers:  []*gmail.MessagePartHeader{{Name: "content-type", Value: `text/plain; charset="windows-1252"`}},
		Body:     &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("Caf\xe9 prices \x96 up"))},
	}
	_, text := extractBody(part)
	assert.Equal(t, "Café prices – up", text)
}

func writeAccountFiles(t *testing.T, token string) Account {
	t.Helper()
	dir := t.TempDir()
	creds := `{"installed":{"client_id":"cid","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth",` +
		`"token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	acc := Account{Name: "Primary", CredentialsFile: filepath.Join(dir, "credentials.json"), TokenFile: filepath.Join(dir, "token.json")}
	require.NoError(t, os.WriteFile(acc.CredentialsFile, []byte(creds), 0o600))
	require.NoError(t, os.WriteFile(acc.TokenFile, []byte(token), 0o600))
	return acc
}

func TestAuthenticate(t *testing.T) {
	srv := fakeGmail(t, nil, [][]string{{}})
	expiry := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)

	t.Run("oauth2 token", func(t *testing.T) {
		acc := writeAccountFiles(t, `{"access_token":"access-token","refresh_token":"r","expiry":"`+expiry+`"}`)
		svc, email, err := Authenticate(context.Background(), acc, option.WithEndpoint(srv.URL+"/"))
		require.NoError(t, err)
		assert.NotNil(t, svc)
		assert.Equal(t, "me@example.com", email)
	})

	t.Run("python token format", func(t *testing.T) {
		acc := writeAccountFiles(t, `{"token":"access-token","refresh_token":"r","expiry":"`+expiry+`"}`)
		_, email, err := Authenticate(context.Background(), acc, option.WithEndpoint(srv.URL+"/"))
		require.NoError(t, err)
		assert.Equal(t, "me@example.com", email)
	})

	t.Run("empty token file", func(t *testing.T) {
		acc := writeAccountFiles(t, "")
		_, _, err := Authenticate(context.Background(), acc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is empty")
	})

	t.Run("missing credentials", func(t *testing.T) {
		acc := writeAccountFiles(t, `{"access_token":"a"}`)
		acc.CredentialsFile = "/nonexistent/credentials.json"
		_, _, err := Authenticate(context.Background(), acc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read credentials")
	})
}

func TestConnect(t *testing.T) {
	srv := fakeGmail(t, nil, [][]string{{}})
	expiry := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	good := writeAccountFiles(t, `{"access_token":"access-token","expiry":"`+expiry+`"}`)
	bad := writeAccountFiles(t, `{}`)
	bad.Name = "Broken"

	boxes := Connect(context.Background(), []Account{bad, good}, Options{}, option.WithEndpoint(srv.URL+"/"))
	require.Len(t, boxes, 1)
	assert.Equal(t, "me@example.com", boxes[0].Account())
	assert.Equal(t, "Primary", boxes[0].name)
}
