// Package page turns one source document into one rendered HTML page.
//
// Rendering runs four stages: metadata extraction, template selection,
// markdown conversion and template execution. The context handed to the
// template is merged, lowest precedence first, from the renderer defaults,
// the document metadata and the reserved pipeline keys. Reserved keys always
// hold pipeline-computed values.
package page

import (
	"path/filepath"
	"strings"
)

// Context keys.
const (
	KeyTemplate = "template"
	KeyTitle    = "title"
	KeyURL      = "url"
	KeySource   = "source"

	// Reserved: metadata cannot override these.
	KeyBody        = "body"
	KeyGenerator   = "generator"
	KeyGeneratedAt = "generated_at"
)

// ReservedKeys lists the pipeline-injected context keys.
var ReservedKeys = []string{KeyBody, KeyGenerator, KeyGeneratedAt}

// TimestampLayout is the UTC ISO-8601 form of the generated_at key.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Source and output suffixes.
const (
	MarkdownSuffix = ".md"
	HTMLSuffix     = ".html"
)

// Document is a source file read once per build.
type Document struct {
	// Path is the filesystem path the document was read from.
	Path string
	// RelPath is the slash-separated path relative to the content root.
	RelPath string
	Raw     []byte
}

// RenderedPage is the output of a successful render.
type RenderedPage struct {
	Source string
	// OutputRel is the slash-separated output path relative to the output root.
	OutputRel string
	HTML      string
	Template  string
	// Fingerprint identifies the source metadata and body.
	Fingerprint string
}

// IsMarkdown reports whether name carries the markdown suffix.
func IsMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), MarkdownSuffix)
}

// OutputPath maps a relative source path to its relative output path: same
// directories, suffix replaced with the HTML suffix.
func OutputPath(rel string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + HTMLSuffix
}
