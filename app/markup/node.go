package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Node is a minimal view of one parsed markup element: tag name, attributes,
// the text before the first child element, ordered children, and for each
// child the text sitting between it and the next sibling.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Node
	Tail     string
}

// Attr returns the named attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// FromHTML converts an element of the underlying HTML parse tree. Text nodes
// of the source tree are folded into the surrounding elements as leading or
// tail text; comments are discarded.
func FromHTML(el *html.Node) *Node {
	if el == nil || el.Type != html.ElementNode {
		return nil
	}

	n := &Node{
		Tag:   strings.ToLower(el.Data),
		Attrs: make(map[string]string, len(el.Attr)),
	}
	for _, a := range el.Attr {
		n.Attrs[strings.ToLower(a.Key)] = a.Val
	}

	for c := el.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if len(n.Children) == 0 {
				n.Text += c.Data
			} else {
				n.Children[len(n.Children)-1].Tail += c.Data
			}
		case html.ElementNode:
			if child := FromHTML(c); child != nil {
				n.Children = append(n.Children, child)
			}
		}
	}

	return n
}

// FlattenText concatenates every text node under n, trimmed and joined by
// single spaces.
func FlattenText(n *Node) string {
	var parts []string
	var visit func(*Node)
	visit = func(n *Node) {
		if t := strings.TrimSpace(n.Text); t != "" {
			parts = append(parts, t)
		}
		for _, c := range n.Children {
			visit(c)
			if t := strings.TrimSpace(c.Tail); t != "" {
				parts = append(parts, t)
			}
		}
	}
	if n != nil {
		visit(n)
	}
	return strings.Join(parts, " ")
}
