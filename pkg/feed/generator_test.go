package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_GenerateRSS(t *testing.T) {
	g := NewGenerator("https://digest.example.com/")
	g.now = func() time.Time { return time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC) }

	pub := time.Date(2024, 3, 5, 14, 30, 15, 0, time.UTC)
	out, err := g.GenerateRSS([]Entry{
		{ID: 2, Title: "Daily News Digest - March 05, 2024", Published: pub},
		{ID: 1, Title: "Markets & <AI>", Published: pub.Add(-24 * time.Hour)},
	})
	require.NoError(t, err)

	assert.Contains(t, out, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, out, `<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	assert.Contains(t, out, `<atom:link href="https://digest.example.com/rss" rel="self" type="application/rss+xml"></atom:link>`)
	assert.Contains(t, out, `<lastBuildDate>Wed, 06 Mar 2024 07:00:00 +0000</lastBuildDate>`)
	assert.Contains(t, out, `<link>https://digest.example.com/api/v1/newsletters/2</link>`)
	assert.Contains(t, out, `<guid isPermaLink="true">https://digest.example.com/api/v1/newsletters/1</guid>`)
	assert.Contains(t, out, `<pubDate>Tue, 05 Mar 2024 14:30:15 +0000</pubDate>`)
	assert.Contains(t, out, `<title>Markets &amp; &lt;AI&gt;</title>`)

	// generated document is readable by the parser
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(out))
	}))
	defer ts.Close()
	parsed, err := NewParser(time.Second).Parse(context.Background(), ts.URL)
	require.NoError(t, err)
	require.Len(t, parsed.Entries, 2)
	assert.Equal(t, "Daily News Digest - March 05, 2024", parsed.Entries[0].Title)
	assert.True(t, parsed.Entries[0].Published.Equal(pub))
}

func TestGenerator_Empty(t *testing.T) {
	out, err := NewGenerator("http://localhost:8080").GenerateRSS(nil)
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Mail Digest</title>")
	assert.NotContains(t, out, "<item>")
}

func TestSetFeedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	setFeedHeaders(req)
	assert.Equal(t, userAgent, req.Header.Get("User-Agent"))
	assert.Contains(t, req.Header.Get("Accept"), "application/rss+xml")
	assert.Contains(t, acceptLanguages, req.Header.Get("Accept-Language"))
}
