package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/maildigest/pkg/domain"
)

const marketsRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
	<title>Markets Wire</title>
	<link>http://example.com</link>
	<description>Daily market news</description>
	<item>
		<title>Fed holds rates</title>
		<link>http://example.com/fed</link>
		<description>Central bank keeps rates unchanged</description>
		<content:encoded><![CDATA[<p>The Federal Reserve kept rates unchanged</p>]]></content:encoded>
		<pubDate>Tue, 05 Mar 2024 15:04:05 +0000</pubDate>
		<guid>fed-2024-03-05</guid>
		<author>Market Desk</author>
	</item>
	<item>
		<title>Stocks close higher</title>
		<link>http://example.com/stocks</link>
		<description>Indexes gained</description>
	</item>
	<item>
		<title>Orphan note</title>
		<description>No guid and no link</description>
	</item>
</channel>
</rss>`

const techAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Tech Wire</title>
	<link href="http://example.com"/>
	<subtitle>Semiconductor news</subtitle>
	<entry>
		<title>Chip exports rise</title>
		<link href="http://example.com/chips"/>
		<id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
		<updated>2024-03-05T15:04:05Z</updated>
		<summary>Exports of chips rose</summary>
		<author><name>Jordan Lee</name></author>
	</entry>
</feed>`

// serveFeed starts server answering with body and recording the last request headers
func serveFeed(t *testing.T, contentType, body string) (url string, hdr func() http.Header) {
	t.Helper()
	var last http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = r.Header.Clone()
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts.URL, func() http.Header { return last }
}

func TestParser_ParseRSS(t *testing.T) {
	url, hdr := serveFeed(t, "application/rss+xml", marketsRSS)

	feed, err := NewParser(5*time.Second).Parse(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, userAgent, hdr().Get("User-Agent"))
	assert.Equal(t, "no-cache", hdr().Get("Cache-Control"))

	assert.Equal(t, "Markets Wire", feed.Title)
	assert.Equal(t, "Daily market news", feed.Summary)
	assert.Equal(t, "http://example.com", feed.Site)
	require.Len(t, feed.Entries, 3)

	first := feed.Entries[0]
	assert.Equal(t, domain.FeedEntry{
		ID:        "fed-2024-03-05",
		Title:     "Fed holds rates",
		URL:       "http://example.com/fed",
		Summary:   "Central bank keeps rates unchanged",
		Body:      "<p>The Federal Reserve kept rates unchanged</p>",
		Author:    "Market Desk",
		Published: first.Published,
	}, first)
	assert.True(t, first.Published.Equal(time.Date(2024, 3, 5, 15, 4, 5, 0, time.UTC)))

	// id falls back to link, then to feed and entry titles
	assert.Equal(t, "http://example.com/stocks", feed.Entries[1].ID)
	assert.True(t, feed.Entries[1].Published.IsZero())
	assert.Equal(t, "Markets Wire-Orphan note", feed.Entries[2].ID)
}

func TestParser_ParseAtom(t *testing.T) {
	url, _ := serveFeed(t, "application/atom+xml", techAtom)

	feed, err := NewParser(5*time.Second).Parse(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "Tech Wire", feed.Title)
	assert.Equal(t, "Semiconductor news", feed.Summary)

	require.Len(t, feed.Entries, 1)
	item := feed.Entries[0]
	assert.Equal(t, "Chip exports rise", item.Title)
	assert.Equal(t, "http://example.com/chips", item.URL)
	assert.Equal(t, "urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a", item.ID)
	assert.Equal(t, "Jordan Lee", item.Author)
	assert.True(t, item.Published.Equal(time.Date(2024, 3, 5, 15, 4, 5, 0, time.UTC)), "updated used when published missing")
}

func TestParser_ParseErrors(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(marketsRSS))
	}))
	defer slow.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	junkURL, _ := serveFeed(t, "text/plain", "not xml")

	tests := []struct {
		name    string
		url     string
		timeout time.Duration
		errText string
	}{
		{"http status", broken.URL, time.Second, "unexpected status code: 502"},
		{"not a feed", junkURL, time.Second, "parse feed"},
		{"timeout", slow.URL, 50 * time.Millisecond, "fetch feed"},
		{"bad url", "not-a-url", time.Second, "fetch feed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(tt.timeout).Parse(context.Background(), tt.url)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}
