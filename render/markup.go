// Package render provides the rendering collaborators of the
// configuration engine: a markup renderer backing the "rst" processor
// tag and a template renderer for include files that declare a
// template_context.
package render

import (
	"bytes"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Goldmark renders markup text to HTML with goldmark. The parser
// configuration never changes and goldmark is safe to share, so one
// instance serves all renders.
type Goldmark struct {
	once sync.Once
	md   goldmark.Markdown
}

// NewGoldmark creates a markup renderer with GFM extensions enabled.
func NewGoldmark() *Goldmark {
	return &Goldmark{}
}

func (g *Goldmark) markdown() goldmark.Markdown {
	g.once.Do(func() {
		g.md = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.DefinitionList,
			),
		)
	})
	return g.md
}

// RenderHTML converts markup text to an HTML string.
func (g *Goldmark) RenderHTML(markup string) (string, error) {
	var buf bytes.Buffer
	if err := g.markdown().Convert([]byte(markup), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
