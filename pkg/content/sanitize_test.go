package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer_SanitizeHTML(t *testing.T) {
	s := NewSanitizer()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "allowed tags", in: "<p>Hello <strong>big</strong> <em>news</em><br></p>", want: "<p>Hello <strong>big</strong> <em>news</em><br></p>"},
		{name: "script removed", in: `<p>text</p><script>alert("x")</script>`, want: "<p>text</p>"},
		{name: "link attributes", in: `<a href="https://example.com" title="t" onclick="evil()">link</a>`,
			want: `<a href="https://example.com" title="t">link</a>`},
		{name: "javascript url", in: `<a href="javascript:alert(1)">x</a>`, want: "x"},
		{name: "disallowed wrapper", in: "<div><ul><li>one</li></ul></div>", want: "<ul><li>one</li></ul>"},
		{name: "plain text", in: "just text", want: "just text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.SanitizeHTML(tt.in))
		})
	}
}

func TestSanitizer_EscapeText(t *testing.T) {
	s := NewSanitizer()
	assert.Equal(t, "AT&amp;T &lt;b&gt;wins&lt;/b&gt;", s.EscapeText("AT&T <b>wins</b>"))
	assert.Equal(t, "", s.EscapeText(""))
}
