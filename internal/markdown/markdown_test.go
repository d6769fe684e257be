package markdown

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, r *Renderer, src string) string {
	t.Helper()
	out, err := r.Render([]byte(src))
	require.NoError(t, err)
	return out
}

func TestRender_CommonMarkBlocks(t *testing.T) {
	r := NewRenderer(Options{})

	cases := []struct {
		name string
		src  string
		want string
	}{
		{"heading", "# Hi\n", "<h1>Hi</h1>\n"},
		{"emphasis", "*a* **b**\n", "<p><em>a</em> <strong>b</strong></p>\n"},
		{"link", "[x](https://example.com)\n", "<p><a href=\"https://example.com\">x</a></p>\n"},
		{"code span", "`x < y`\n", "<p><code>x &lt; y</code></p>\n"},
		{"code block", "```go\nfmt.Println()\n```\n", "<pre><code class=\"language-go\">fmt.Println()\n</code></pre>\n"},
		{"blockquote", "> quoted\n", "<blockquote>\n<p>quoted</p>\n</blockquote>\n"},
		{"list", "- a\n- b\n", "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, render(t, r, tc.src))
		})
	}
}

func TestRender_RawHTMLBlockPassesThrough(t *testing.T) {
	r := NewRenderer(Options{})
	src := "<dl>\n  <dt>Term</dt>\n  <dd>Definition &amp; more</dd>\n</dl>\n"

	assert.Equal(t, src, render(t, r, src))
}

func TestRender_MalformedMarkdownDegrades(t *testing.T) {
	r := NewRenderer(Options{})

	out := render(t, r, "*unclosed [link(\n")
	assert.Equal(t, "<p>*unclosed [link(</p>\n", out)
}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer(Options{})
	src := "# T\n\nSome *text* with [a](b) and\n\n1. one\n2. two\n"

	assert.Equal(t, render(t, r, src), render(t, r, src))
}

func TestRender_GFMIsOptIn(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n"

	plain := render(t, NewRenderer(Options{}), src)
	assert.NotContains(t, plain, "<table>")

	gfm := render(t, NewRenderer(Options{GFM: true}), src)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(gfm))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("table td").First().Length())
	assert.Equal(t, "1", doc.Find("table td").First().Text())
}

func TestFirstHeading(t *testing.T) {
	assert.Equal(t, "Hello World", FirstHeading("<p>x</p>\n<h1>Hello <em>World</em></h1>\n<h1>Second</h1>"))
	assert.Equal(t, "", FirstHeading("<h2>Only h2</h2>"))
	assert.Equal(t, "", FirstHeading(""))
}
