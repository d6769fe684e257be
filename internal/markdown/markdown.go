// Package markdown converts document bodies to HTML.
//
// The renderer follows CommonMark via goldmark. Raw HTML blocks and inline
// HTML are emitted verbatim, so markup the markdown grammar lacks (definition
// lists, figures) can be written directly in the source.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Options configures the renderer.
type Options struct {
	// GFM enables the GitHub Flavored Markdown extensions (tables,
	// strikethrough, autolinks, task lists) on top of CommonMark.
	GFM bool
}

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer with the given options.
func NewRenderer(opts Options) *Renderer {
	gopts := []goldmark.Option{
		goldmark.WithRendererOptions(html.WithUnsafe()),
	}
	if opts.GFM {
		gopts = append(gopts, goldmark.WithExtensions(extension.GFM))
	}
	return &Renderer{md: goldmark.New(gopts...)}
}

// Render converts a markdown body (metadata already removed) into HTML.
// Malformed markdown never fails; it degrades per CommonMark rules.
func (r *Renderer) Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
