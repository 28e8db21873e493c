package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/maildigest/pkg/config"
	"github.com/umputun/maildigest/pkg/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maildigest.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func baseConfig(t *testing.T) string {
	return fmt.Sprintf(`
llm:
  endpoint: http://127.0.0.1:1/v1
  api_key: sk-test
database:
  dsn: ":memory:"
delivery:
  archive_dir: %s
`, t.TempDir())
}

func TestRun_MissingConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: "non-existent-config.yml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: writeConfig(t, "invalid: yaml: content: [")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRun_OnceWithoutMailboxes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: writeConfig(t, baseConfig(t)), Once: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline failed: Authentication failed")
}

func TestRun_ServerStartStop(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- run(ctx, Opts{Config: writeConfig(t, baseConfig(t)), Listen: fmt.Sprintf("127.0.0.1:%d", port),
			VerifyToken: "tok"})
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(baseURL + "/") //nolint:gosec,noctx // test url
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	trigger := func(token string) int {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/run-pipeline", http.NoBody)
		require.NoError(t, err)
		req.Header.Set("X-Verify-Token", token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusUnauthorized, trigger("bad"))
	assert.Equal(t, http.StatusAccepted, trigger("tok"))

	// the run fails right away, no mailboxes configured, and lands in history
	require.Eventually(t, func() bool {
		resp, err := http.Get(baseURL + "/api/v1/runs") //nolint:gosec,noctx // test url
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var runs []domain.RunResult
		if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil || len(runs) != 1 {
			return false
		}
		return runs[0].Error == "Authentication failed" && runs[0].Trigger == "api"
	}, 3*time.Second, 20*time.Millisecond)

	resp, err := http.Get(baseURL + "/metrics") //nolint:gosec,noctx // test url
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), `maildigest_runs_total{result="failure"} 1`)

	cancel()
	select {
	case err := <-serverErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server didn't stop")
	}
}

func TestPipelineSettings(t *testing.T) {
	cfg, err := config.Parse([]byte(`
llm:
  endpoint: http://localhost/v1
  models: {dedup: big, dedup_fallback: small}
processing:
  parallel: false
  extraction_workers: 8
newsletter:
  executive_summary: false
  custom_categories: [Crypto]
  theme: dark
gmail:
  excluded_senders: [noise@example.com]
  sender_email: digest@example.com
`))
	require.NoError(t, err)

	s := pipelineSettings(cfg)
	assert.False(t, s.Parallel)
	assert.Equal(t, 8, s.ExtractionWorkers)
	assert.Equal(t, 3, s.DedupWorkers)
	assert.Equal(t, []string{"big", "small"}, s.DedupModels)
	assert.Equal(t, []string{"noise@example.com", "digest@example.com"}, s.ExcludedSenders)
	assert.Equal(t, []string{"default_recipient@example.com"}, s.Recipients)
	assert.False(t, s.Assembly.ExecutiveSummary)
	assert.True(t, s.Assembly.FallbackToKeywords)
	assert.Equal(t, []string{"Crypto"}, s.Assembly.CustomCategories)
	assert.Equal(t, "dark", s.Assembly.Theme)
	assert.Equal(t, 3, s.ClassificationRetry.Attempts)
	assert.Equal(t, 2*time.Second, s.DedupRetry.Delay)
	assert.Equal(t, 2*time.Second, s.DedupRetry.MaxDelay)
}

func TestSenderConnector_NoAccounts(t *testing.T) {
	_, _, err := senderConnector(&config.Config{})(context.Background())
	require.EqualError(t, err, "no sender account configured")
}

func TestMailboxSources(t *testing.T) {
	rss := `<?xml version="1.0"?><rss version="2.0"><channel><title>Wire</title>
<item><title>Chip makers rally</title><link>https://example.com/chips</link><guid>g1</guid>
<description>Long enough description of the chip rally for the digest.</description></item>
</channel></rss>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss))
	}))
	defer ts.Close()

	cfg := &config.Config{
		Accounts: []config.AccountConfig{{Name: "Work", Email: "work@example.com",
			CredentialsFile: filepath.Join(t.TempDir(), "missing.json"), TokenFile: "missing-token.json"}},
		Feeds: []config.FeedConfig{{Name: "wire", URL: ts.URL, Lookback: time.Hour}},
	}
	boxes := newSources(cfg).Mailboxes(context.Background())
	require.Len(t, boxes, 1, "account with missing credentials skipped")
	assert.Equal(t, "feed:wire", boxes[0].Account())

	ids, err := boxes[0].ListRecent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, ids)
}

func TestPrintResult(t *testing.T) {
	start := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printResult(&buf, domain.RunResult{Success: false, Error: "Email delivery failed: boom", StartedAt: start,
		FinishedAt: start.Add(1500 * time.Millisecond), Stats: domain.RunStats{TotalEmails: 4, NewsEmails: 2,
			ArchivedTo: "/tmp/newsletter.html"}})
	out := buf.String()
	assert.Contains(t, out, "pipeline failed in 1.5s")
	assert.Contains(t, out, "error: Email delivery failed: boom")
	assert.Contains(t, out, "emails: 4, news: 2")
	assert.Contains(t, out, "archived to /tmp/newsletter.html")
}
