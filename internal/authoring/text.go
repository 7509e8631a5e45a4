// ABOUTME: Extracts the human-visible text of an HTML fragment
// ABOUTME: Markup, scripts, styles, and non-breaking spaces do not count as content

package authoring

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderedText returns the visible text of fragment with whitespace collapsed.
func RenderedText(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for _, n := range nodes {
		collectText(n, &sb)
	}
	text := strings.ReplaceAll(sb.String(), "\u00a0", " ")
	return strings.Join(strings.Fields(text), " ")
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Template, atom.Noscript:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
