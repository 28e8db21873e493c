package content

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"
)

var (
	spacesRe   = regexp.MustCompile(`[ \t\f\v]+`)
	newlinesRe = regexp.MustCompile(`\n{3,}`)
)

// HTMLToText converts html mail body or article to plain text.
// Main content extraction is tried first, full document text is used if it finds nothing.
func HTMLToText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		IncludeLinks:    false,
		IncludeImages:   false,
		Deduplicate:     true,
	}
	if res, err := trafilatura.Extract(strings.NewReader(html), opts); err == nil && res != nil {
		if text := strings.TrimSpace(res.ContentText); text != "" {
			return normalizeSpace(text)
		}
	}

	return documentText(html)
}

// documentText returns text of the whole document without scripts and styles
func documentText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return normalizeSpace(html)
	}
	doc.Find("script, style, noscript, head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return normalizeSpace(doc.Text())
}

func normalizeSpace(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spacesRe.ReplaceAllString(l, " "))
	}
	return strings.TrimSpace(newlinesRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
