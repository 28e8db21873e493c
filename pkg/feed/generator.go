package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Entry is a published newsletter listed in the generated feed
type Entry struct {
	ID        int64
	Title     string
	Published time.Time
}

// Generator makes RSS feed of archived newsletters
type Generator struct {
	baseURL string
	now     func() time.Time
}

type rss struct {
	XMLName xml.Name    `xml:"rss"`
	Version string      `xml:"version,attr"`
	Atom    string      `xml:"xmlns:atom,attr"`
	Channel *rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string     `xml:"title"`
	Link          string     `xml:"link"`
	Description   string     `xml:"description"`
	AtomLink      *atomLink  `xml:"atom:link"`
	LastBuildDate string     `xml:"lastBuildDate"`
	Items         []*rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title   string  `xml:"title"`
	Link    string  `xml:"link"`
	GUID    rssGUID `xml:"guid"`
	PubDate string  `xml:"pubDate"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// NewGenerator creates generator linking entries under baseURL
func NewGenerator(baseURL string) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// GenerateRSS creates RSS 2.0 document, entry links point to the newsletter html
func (g *Generator) GenerateRSS(entries []Entry) (string, error) {
	items := make([]*rssItem, 0, len(entries))
	for _, e := range entries {
		link := fmt.Sprintf("%s/api/v1/newsletters/%d", g.baseURL, e.ID)
		items = append(items, &rssItem{
			Title:   e.Title,
			Link:    link,
			GUID:    rssGUID{Value: link, IsPermaLink: true},
			PubDate: e.Published.Format(time.RFC1123Z),
		})
	}

	doc := &rss{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &rssChannel{
			Title:         "Mail Digest",
			Link:          g.baseURL + "/",
			Description:   "Daily newsletters assembled from news emails",
			AtomLink:      &atomLink{Href: g.baseURL + "/rss", Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: g.now().Format(time.RFC1123Z),
			Items:         items,
		},
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}
