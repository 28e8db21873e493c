// Package render makes the newsletter html out of the assembled structure.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"github.com/umputun/maildigest/pkg/domain"
)

//go:embed templates/newsletter.html templates/styles/*.css
var assets embed.FS

// Renderer renders newsletters with the embedded template
type Renderer struct {
	tmpl   *template.Template
	styles map[string]template.CSS
}

// New parses embedded template and loads all themes
func New() (*Renderer, error) {
	tmpl, err := template.New("newsletter.html").Funcs(template.FuncMap{
		"safe":   func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec // fields are escaped or sanitized by assembly
		"plural": plural,
	}).ParseFS(assets, "templates/newsletter.html")
	if err != nil {
		return nil, fmt.Errorf("parse newsletter template: %w", err)
	}

	files, err := fs.Glob(assets, "templates/styles/*.css")
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	styles := map[string]template.CSS{}
	for _, f := range files {
		data, err := assets.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read theme %s: %w", f, err)
		}
		styles[strings.TrimSuffix(path.Base(f), ".css")] = template.CSS(data) //nolint:gosec // embedded asset
	}
	return &Renderer{tmpl: tmpl, styles: styles}, nil
}

// Themes returns names of available themes
func (r *Renderer) Themes() []string {
	res := make([]string, 0, len(r.styles))
	for name := range r.styles {
		res = append(res, name)
	}
	return res
}

// Render returns html of the newsletter in the given theme, empty theme means the newsletter's own theme
func (r *Renderer) Render(n domain.Newsletter, theme string) (string, error) {
	if theme == "" {
		theme = n.Theme
	}
	styles, ok := r.styles[theme]
	if !ok {
		return "", fmt.Errorf("unknown theme %q", theme)
	}

	data := struct {
		Newsletter domain.Newsletter
		Styles     template.CSS
		Theme      string
	}{Newsletter: n, Styles: styles, Theme: theme}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render newsletter: %w", err)
	}
	return buf.String(), nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
