package page

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/templates"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("CEST", 2*3600))

func newEngine(t *testing.T, files map[string]string) *templates.Engine {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	e, err := templates.NewEngine(root, templates.Options{})
	require.NoError(t, err)
	return e
}

func newRenderer(t *testing.T, cfg Config) *Renderer {
	t.Helper()
	engine := newEngine(t, map[string]string{
		"default.html": `<html><head><title>{{.title}}</title></head><body>{{.body}}<footer>{{.generator}} {{.generated_at}}</footer></body></html>`,
		"post.html":    `<article data-url="{{.url}}">{{.body}}</article>`,
	})
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return fixedNow }
	}
	if cfg.Generator == "" {
		cfg.Generator = "sitegen test"
	}
	return NewRenderer(engine, markdown.NewRenderer(markdown.Options{}), cfg)
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestRender_HomePage(t *testing.T) {
	r := newRenderer(t, Config{Extractor: frontmatter.Extractor{Policy: frontmatter.PolicyLenient}})

	p, err := r.Render(context.Background(), Document{
		RelPath: "index.md",
		Raw:     []byte("---\n{\"template\":\"default.html\",\"title\":\"Home\"}\n---\n# Hi\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, "index.html", p.OutputRel)
	assert.Equal(t, "default.html", p.Template)
	assert.NotEmpty(t, p.Fingerprint)

	doc := parse(t, p.HTML)
	assert.Equal(t, "Hi", doc.Find("h1").Text())
	assert.Equal(t, "Home", doc.Find("title").Text())
	assert.Equal(t, "sitegen test 2024-05-06T05:08:09Z", doc.Find("footer").Text())
	assert.NotContains(t, p.HTML, `"template"`)
	assert.NotContains(t, p.HTML, "---")
}

func TestRender_Deterministic(t *testing.T) {
	r := newRenderer(t, Config{Extractor: frontmatter.Extractor{Policy: frontmatter.PolicyLenient}})
	doc := Document{RelPath: "a/b.md", Raw: []byte("---\n{\"template\":\"post.html\",\"tags\":[\"x\"]}\n---\nSome *text*.\n")}

	first, err := r.Render(context.Background(), doc)
	require.NoError(t, err)
	second, err := r.Render(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Contains(t, first.HTML, `data-url="a/b.html"`)
}

func TestRender_ReservedKeysWin(t *testing.T) {
	r := newRenderer(t, Config{Extractor: frontmatter.Extractor{Policy: frontmatter.PolicyLenient}})

	p, err := r.Render(context.Background(), Document{
		RelPath: "x.md",
		Raw: []byte("---\n" +
			`{"template":"default.html","body":"INJECTED BODY","generator":"evil 6.6.6","generated_at":"1999-01-01T00:00:00Z"}` +
			"\n---\nreal body\n"),
	})
	require.NoError(t, err)

	assert.NotContains(t, p.HTML, "INJECTED BODY")
	assert.NotContains(t, p.HTML, "evil 6.6.6")
	assert.NotContains(t, p.HTML, "1999-01-01")
	assert.Contains(t, p.HTML, "<p>real body</p>")
	assert.Contains(t, p.HTML, "sitegen test 2024-05-06T05:08:09Z")
}

func TestRender_IntegerMetadataPrintsExactly(t *testing.T) {
	engine := newEngine(t, map[string]string{
		"n.html": `<p>{{.count}}</p><p>{{.id}}</p><p>{{.ratio}}</p>`,
	})
	r := NewRenderer(engine, markdown.NewRenderer(markdown.Options{}), Config{
		Extractor: frontmatter.Extractor{Policy: frontmatter.PolicyLenient},
		Now:       func() time.Time { return fixedNow },
	})

	p, err := r.Render(context.Background(), Document{
		RelPath: "n.md",
		Raw:     []byte("---\n{\"template\":\"n.html\",\"count\":10000000,\"id\":12345678901234567,\"ratio\":0.25}\n---\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>10000000</p><p>12345678901234567</p><p>0.25</p>", p.HTML)
}

func TestRender_DefaultsAndTitleFallback(t *testing.T) {
	engine := newEngine(t, map[string]string{
		"t.html": `{{.title}}|{{.site.title}}|{{.source}}`,
	})
	defaults := map[string]any{"site": map[string]any{"title": "Docs"}}
	r := NewRenderer(engine, markdown.NewRenderer(markdown.Options{}), Config{
		Extractor:       frontmatter.Extractor{Policy: frontmatter.PolicyLenient},
		DefaultTemplate: "t.html",
		Defaults:        defaults,
	})

	p, err := r.Render(context.Background(), Document{RelPath: "guides/getting-started.md", Raw: []byte("No heading here.\n")})
	require.NoError(t, err)
	assert.Equal(t, "Getting Started|Docs|guides/getting-started.md", p.HTML)

	p, err = r.Render(context.Background(), Document{RelPath: "x.md", Raw: []byte("# From Heading\n")})
	require.NoError(t, err)
	assert.Equal(t, "From Heading|Docs|x.md", p.HTML)

	p, err = r.Render(context.Background(), Document{RelPath: "x.md", Raw: []byte("---\n{\"site\":{\"title\":\"Override\"}}\n---\n")})
	require.NoError(t, err)
	assert.Equal(t, "X|Override|x.md", p.HTML)
	assert.Equal(t, "Docs", defaults["site"].(map[string]any)["title"])
}

func TestRender_DefaultTemplatePolicy(t *testing.T) {
	withDefault := newRenderer(t, Config{
		Extractor:       frontmatter.Extractor{Policy: frontmatter.PolicyLenient},
		DefaultTemplate: "default.html",
	})
	p, err := withDefault.Render(context.Background(), Document{RelPath: "a.md", Raw: []byte("# A\n")})
	require.NoError(t, err)
	assert.Equal(t, "default.html", p.Template)

	noDefault := newRenderer(t, Config{Extractor: frontmatter.Extractor{Policy: frontmatter.PolicyLenient}})
	_, err = noDefault.Render(context.Background(), Document{RelPath: "a.md", Raw: []byte("# A\n")})
	require.ErrorIs(t, err, ErrNoTemplate)
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, StageTemplateSelect, re.Stage)
	assert.Equal(t, serrors.KindTemplateNotFound, serrors.KindOf(err))
}

func TestRender_StrictPolicyRequiresTemplateKey(t *testing.T) {
	r := newRenderer(t, Config{
		Extractor:       frontmatter.Extractor{Policy: frontmatter.PolicyStrict},
		DefaultTemplate: "default.html",
	})

	_, err := r.Render(context.Background(), Document{RelPath: "a.md", Raw: []byte("# A\n")})
	assert.Equal(t, serrors.KindMissingMetadata, serrors.KindOf(err))

	_, err = r.Render(context.Background(), Document{RelPath: "a.md", Raw: []byte("---\n{\"title\":\"A\"}\n---\n# A\n")})
	assert.Equal(t, serrors.KindMissingMetadata, serrors.KindOf(err))

	_, err = r.Render(context.Background(), Document{RelPath: "a.md", Raw: []byte("---\n{\"template\":\"post.html\"}\n---\n# A\n")})
	assert.NoError(t, err)
}

func TestRender_FailureStages(t *testing.T) {
	r := newRenderer(t, Config{Extractor: frontmatter.Extractor{Policy: frontmatter.PolicyLenient}})

	cases := []struct {
		name  string
		raw   string
		stage Stage
		kind  serrors.Kind
	}{
		{"malformed metadata", "---\n{\"template\": }\n---\nbody\n", StageMetadata, serrors.KindMetadataDecode},
		{"missing template", "---\n{\"template\":\"missing.html\"}\n---\nbody\n", StageTemplate, serrors.KindTemplateNotFound},
		{"non-string template", "---\n{\"template\":42}\n---\nbody\n", StageTemplateSelect, serrors.KindPageRender},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Render(context.Background(), Document{RelPath: "bad.md", Raw: []byte(tc.raw)})
			var re *RenderError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tc.stage, re.Stage)
			assert.Equal(t, "bad.md", re.Path)
			assert.Equal(t, tc.kind, serrors.KindOf(err))
		})
	}
}

type failingMarkdown struct{}

func (failingMarkdown) Render([]byte) (string, error) { return "", errors.New("converter exploded") }

func TestRender_MarkdownFailureIsWrapped(t *testing.T) {
	engine := newEngine(t, map[string]string{"t.html": `{{.body}}`})
	r := NewRenderer(engine, failingMarkdown{}, Config{DefaultTemplate: "t.html"})

	_, err := r.Render(context.Background(), Document{RelPath: "a.md", Raw: []byte("x")})
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, StageMarkdown, re.Stage)
	assert.Equal(t, serrors.KindPageRender, serrors.KindOf(err))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "index.html", OutputPath("index.md"))
	assert.Equal(t, "a/b/c.html", OutputPath("a/b/c.md"))
	assert.Equal(t, "v1.2/notes.html", OutputPath("v1.2/notes.md"))
	assert.True(t, IsMarkdown("x.MD"))
	assert.False(t, IsMarkdown("x.markdown"))
}
