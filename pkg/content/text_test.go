package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	t.Run("article", func(t *testing.T) {
		html := `<html><head><title>t</title><style>.x{color:red}</style></head><body>
			<article><h1>Fed holds rates</h1>
			<p>The Federal Reserve kept interest rates unchanged on Wednesday, citing steady inflation data.</p>
			<p>Markets rallied after the announcement as investors priced in cuts later this year.</p></article>
			<script>var tracking = 1;</script></body></html>`
		text := HTMLToText(html)
		assert.Contains(t, text, "The Federal Reserve kept interest rates unchanged")
		assert.NotContains(t, text, "tracking")
		assert.NotContains(t, text, "color:red")
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", HTMLToText("  "))
	})
}

func TestDocumentText(t *testing.T) {
	html := `<html><head><title>skip</title></head><body><div>first   line</div><p>second<br>third</p>` +
		`<script>bad()</script><style>p{}</style></body></html>`
	text := documentText(html)
	assert.Equal(t, "first line\nsecond\nthird", text)
}

func TestNormalizeSpace(t *testing.T) {
	assert.Equal(t, "a b\n\nc", normalizeSpace("  a \t b \n\n\n\n c  "))
}
