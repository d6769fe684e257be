package markdown

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FirstHeading returns the text of the first <h1> element in rendered HTML,
// or "" when there is none. Headings written as raw HTML count too.
func FirstHeading(rendered string) string {
	doc, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return ""
	}
	h1 := findFirst(doc, atom.H1)
	if h1 == nil {
		return ""
	}
	var sb strings.Builder
	collectText(h1, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
