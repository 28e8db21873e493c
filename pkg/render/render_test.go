package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/maildigest/pkg/domain"
)

func sampleNewsletter() domain.Newsletter {
	return domain.Newsletter{
		Title:            "Daily News Digest - March 05, 2024",
		ExecutiveSummary: "<p>Rates and <strong>models</strong></p>",
		Sections: []domain.Section{
			{Name: "AI", Subcategories: []domain.Subcategory{{
				Name:  "Models",
				Intro: "<em>New releases</em>",
				Items: []domain.ConsolidatedItem{
					{
						Title: "GPT &lt;5&gt; ships", Summary: "A &amp; B", KeyPoints: []string{"faster", "<cheaper>"},
						SourceURLs: []string{"https://example.com/gpt", "javascript:alert(1)"},
						Sources:    []domain.Source{{Subject: "<b>AI daily</b>", Sender: "ai@news.com"}, {Subject: "AI weekly", Sender: "w@news.com"}},
						GroupType:  domain.GroupDuplicate, OriginalCount: 2,
					},
				},
			}}},
			{Name: "Stocks", Subcategories: []domain.Subcategory{{Name: "Top Stories", Items: []domain.ConsolidatedItem{
				{Title: "Markets rally", Summary: "up", GroupType: domain.GroupUnique, OriginalCount: 1},
			}}}},
		},
		GeneratedAt: "Tuesday, March 05, 2024 14:30:15",
		DisplayDate: "Tuesday, March 05, 2024",
		Theme:       "light",
		Metrics:     domain.Metrics{TotalStories: 2},
	}
}

func TestRenderer_Render(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"light", "dark"}, r.Themes())

	html, err := r.Render(sampleNewsletter(), "")
	require.NoError(t, err)

	assert.Contains(t, html, `data-theme="light"`)
	assert.Contains(t, html, "<h1>Daily News Digest - March 05, 2024</h1>")
	assert.Contains(t, html, "Tuesday, March 05, 2024")
	assert.Contains(t, html, "<p>Rates and <strong>models</strong></p>")
	assert.Contains(t, html, "<em>New releases</em>")
	assert.Contains(t, html, "GPT &lt;5&gt; ships", "escaped title is not escaped twice")
	assert.Contains(t, html, "A &amp; B")
	assert.Contains(t, html, "&lt;cheaper&gt;")
	assert.Contains(t, html, "&lt;b&gt;AI daily&lt;/b&gt;")
	assert.Contains(t, html, `href="https://example.com/gpt"`)
	assert.NotContains(t, html, "javascript:alert")
	assert.Contains(t, html, "2 sources (duplicate)")
	assert.Contains(t, html, "Generated Tuesday, March 05, 2024 14:30:15")
	assert.Contains(t, html, "2 stories")
	assert.Equal(t, 1, strings.Count(html, `class="badge"`), "single item has no badge")
	assert.Less(t, strings.Index(html, ">AI<"), strings.Index(html, ">Stocks<"))
}

func TestRenderer_Themes(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	light, err := r.Render(sampleNewsletter(), "light")
	require.NoError(t, err)
	dark, err := r.Render(sampleNewsletter(), "dark")
	require.NoError(t, err)
	assert.Contains(t, light, "#f4f5f7")
	assert.Contains(t, dark, "#0d1117")
	assert.Contains(t, dark, `data-theme="dark"`)

	_, err = r.Render(sampleNewsletter(), "solarized")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown theme "solarized"`)
}

func TestRenderer_NoSummary(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	n := sampleNewsletter()
	n.ExecutiveSummary = ""
	html, err := r.Render(n, "light")
	require.NoError(t, err)
	assert.NotContains(t, html, "Executive Summary")
}
