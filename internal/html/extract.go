package html

import (
	"io"
	"strings"

	"github.com/iamwavecut/tool"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var skipTags = []string{
	"script", "style", "noscript", "iframe", "svg", "head",
	"nav", "footer", "header", "aside", "form", "button", "template",
}

var blockTags = []string{
	"p", "div", "section", "article", "main", "blockquote", "pre",
	"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr",
	"dl", "dd", "dt", "figure", "figcaption", "hr", "br",
}

// Text returns the readable text of an HTML document. The first <article> is
// preferred, then <main>, then <body>. Block elements are separated by blank
// lines so callers can split paragraphs on them.
func Text(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	root := doc
	for _, a := range []atom.Atom{atom.Article, atom.Main, atom.Body} {
		if n := find(doc, a); n != nil {
			root = n
			break
		}
	}

	var b strings.Builder
	walk(root, &b)
	return clean(b.String()), nil
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

func walk(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.ElementNode:
		if tool.In(n.Data, skipTags) {
			return
		}
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	}

	block := n.Type == html.ElementNode && tool.In(n.Data, blockTags)
	if block {
		b.WriteString("\n\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, b)
	}
	if block {
		b.WriteString("\n\n")
	}
}

// clean collapses whitespace inside lines and runs of blank lines.
func clean(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
