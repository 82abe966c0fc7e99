// ABOUTME: Structural HTML segmentation of answer bodies
// ABOUTME: Splits at images, rules and iframes, keeping other markup in text runs

package render

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type segmentKind int

const (
	segmentText segmentKind = iota
	segmentImage
	segmentDivider
)

// segment is a piece of an answer body. Text segments hold HTML.
type segment struct {
	kind segmentKind
	html string
	src  string
	alt  string
}

// splitBody parses body and returns its segments in document order.
// Consecutive text is merged into a single run.
func splitBody(body string) []segment {
	parent := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(body), parent)
	if err != nil {
		return []segment{{kind: segmentText, html: body}}
	}

	var out []segment
	for _, n := range nodes {
		out = appendNode(out, n)
	}
	return mergeText(out)
}

func appendNode(out []segment, n *html.Node) []segment {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			return append(out, segment{kind: segmentImage, src: attr(n, "src"), alt: attr(n, "alt")})
		case atom.Hr:
			return append(out, segment{kind: segmentDivider})
		case atom.Iframe:
			if src := attr(n, "src"); src != "" {
				return append(out, segment{kind: segmentText, html: html.EscapeString(src)})
			}
		}

		if containsSplitPoint(n) {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				out = appendNode(out, c)
			}
			return out
		}
	}

	return append(out, segment{kind: segmentText, html: renderNode(n)})
}

// containsSplitPoint reports whether a descendant of n forces a block split.
func containsSplitPoint(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Img, atom.Hr, atom.Iframe:
			return true
		}
		if containsSplitPoint(c) {
			return true
		}
	}
	return false
}

func mergeText(in []segment) []segment {
	var out []segment
	for _, s := range in {
		if s.kind == segmentText && len(out) > 0 && out[len(out)-1].kind == segmentText {
			out[len(out)-1].html += s.html
			continue
		}
		out = append(out, s)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}
