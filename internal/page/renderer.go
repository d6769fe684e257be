package page

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/observability"
	"git.home.luguber.info/inful/sitegen/internal/templates"
)

// TemplateEngine renders a named template against a context.
type TemplateEngine interface {
	Render(name string, data map[string]any) (string, error)
}

// MarkdownRenderer converts a markdown body to HTML.
type MarkdownRenderer interface {
	Render(body []byte) (string, error)
}

// Config holds the page policies.
type Config struct {
	Extractor frontmatter.Extractor
	// DefaultTemplate is used when neither the defaults nor the metadata
	// name a template. Empty means such documents fail.
	DefaultTemplate string
	// Defaults seed every context (lowest precedence).
	Defaults map[string]any
	// Generator is the value of the generator key.
	Generator string
	// Now supplies the generated_at timestamp.
	Now func() time.Time
}

// Renderer renders documents. It holds no per-document state.
type Renderer struct {
	engine   TemplateEngine
	markdown MarkdownRenderer
	cfg      Config
}

// NewRenderer wires a renderer. Under the strict metadata policy the
// template key becomes a required metadata key.
func NewRenderer(engine TemplateEngine, md MarkdownRenderer, cfg Config) *Renderer {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Extractor.Policy == frontmatter.PolicyStrict && !containsString(cfg.Extractor.Required, KeyTemplate) {
		cfg.Extractor.Required = append(append([]string(nil), cfg.Extractor.Required...), KeyTemplate)
	}
	return &Renderer{engine: engine, markdown: md, cfg: cfg}
}

// Render transforms one document into a page.
func (r *Renderer) Render(ctx context.Context, doc Document) (*RenderedPage, error) {
	fail := func(stage Stage, err error) (*RenderedPage, error) {
		return nil, &RenderError{Path: doc.RelPath, Stage: stage, Err: err}
	}

	meta, err := r.cfg.Extractor.Extract(doc.Raw)
	if err != nil {
		return fail(StageMetadata, err)
	}

	bodyHTML, err := r.markdown.Render(meta.Body)
	if err != nil {
		return fail(StageMarkdown, err)
	}

	outRel := OutputPath(doc.RelPath)
	data := make(map[string]any, len(r.cfg.Defaults)+len(meta.Fields)+6)
	for k, v := range r.cfg.Defaults {
		data[k] = copyValue(v)
	}
	data[KeyTitle] = defaultTitle(doc.RelPath, bodyHTML)
	data[KeyURL] = outRel
	data[KeySource] = doc.RelPath

	for k, v := range meta.Fields {
		if isReserved(k) {
			observability.DebugContext(ctx, "Ignoring metadata value for reserved key",
				logfields.Path(doc.RelPath), slog.String("key", k))
			continue
		}
		data[k] = v
	}

	name, err := r.selectTemplate(ctx, doc.RelPath, data)
	if err != nil {
		return fail(StageTemplateSelect, err)
	}
	data[KeyTemplate] = name

	data[KeyBody] = template.HTML(bodyHTML) // #nosec G203 -- body is the document's own rendered markdown.
	data[KeyGenerator] = r.cfg.Generator
	data[KeyGeneratedAt] = r.cfg.Now().UTC().Format(TimestampLayout)

	out, err := r.engine.Render(name, data)
	if err != nil {
		return fail(StageTemplate, err)
	}

	return &RenderedPage{
		Source:      doc.RelPath,
		OutputRel:   outRel,
		HTML:        out,
		Template:    name,
		Fingerprint: mdfp.CalculateFingerprintFromParts(string(meta.Raw), string(meta.Body)),
	}, nil
}

func (r *Renderer) selectTemplate(ctx context.Context, rel string, data map[string]any) (string, error) {
	v, ok := data[KeyTemplate]
	if ok {
		name, isString := v.(string)
		if !isString || strings.TrimSpace(name) == "" {
			return "", fmt.Errorf("template key must be a non-empty string, got %T", v)
		}
		return name, nil
	}
	if r.cfg.DefaultTemplate == "" {
		return "", ErrNoTemplate
	}
	observability.WarnContext(ctx, "No template named, using default template",
		logfields.Path(rel), logfields.Template(r.cfg.DefaultTemplate))
	return r.cfg.DefaultTemplate, nil
}

// defaultTitle prefers the first top-level heading, falling back to the
// title-cased file stem.
func defaultTitle(rel, bodyHTML string) string {
	if h := markdown.FirstHeading(bodyHTML); h != "" {
		return h
	}
	stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return templates.Title(stem)
}

func isReserved(key string) bool {
	return containsString(ReservedKeys, key)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// copyValue deep-copies maps and slices so no two contexts share mutable
// state.
func copyValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, item := range vv {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, item := range vv {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
