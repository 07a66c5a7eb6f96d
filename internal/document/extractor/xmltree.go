package extractor

import (
	"bytes"
	"fmt"

	"github.com/antchfx/xmlquery"
)

// maxTreeDepth bounds element nesting accepted from untrusted XML parts.
const maxTreeDepth = 256

// Name identifies an XML element. Space is the resolved namespace URI when
// the document declares one; Prefix is the literal prefix used in the source.
type Name struct {
	Space  string
	Prefix string
	Local  string
}

// Node is either a *TextRun leaf or an *Element container.
type Node interface {
	node()
}

// TextRun is a leaf carrying the text of one run element.
type TextRun struct {
	Text string
}

// Element is a container of child nodes in document order.
type Element struct {
	Name     Name
	Children []Node
}

func (*TextRun) node() {}
func (*Element) node() {}

// LeafRule reports whether an element is a text-run leaf and, if so, the
// text it contributes. inner returns the element's concatenated character
// data and is only evaluated on demand.
type LeafRule func(name Name, inner func() string) (string, bool)

// ParseTree parses an XML part into a Node tree, turning every element
// accepted by rule into a TextRun. Character data outside run leaves is
// dropped.
func ParseTree(data []byte, rule LeafRule) (Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	root := &Element{}
	if err := buildChildren(root, doc, rule, 0); err != nil {
		return nil, err
	}
	return root, nil
}

func buildChildren(parent *Element, n *xmlquery.Node, rule LeafRule, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("xml nesting exceeds %d levels", maxTreeDepth)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}

		name := Name{Space: c.NamespaceURI, Prefix: c.Prefix, Local: c.Data}
		if text, ok := rule(name, c.InnerText); ok {
			parent.Children = append(parent.Children, &TextRun{Text: text})
			continue
		}

		el := &Element{Name: name}
		if err := buildChildren(el, c, rule, depth+1); err != nil {
			return err
		}
		parent.Children = append(parent.Children, el)
	}

	return nil
}

// CollectRuns returns the text of every TextRun under n in document order.
func CollectRuns(n Node) []string {
	var runs []string
	collectRuns(n, &runs)
	return runs
}

func collectRuns(n Node, runs *[]string) {
	switch v := n.(type) {
	case *TextRun:
		*runs = append(*runs, v.Text)
	case *Element:
		for _, c := range v.Children {
			collectRuns(c, runs)
		}
	}
}

// FindElements returns the outermost elements under n accepted by match,
// in document order. Matched elements are not searched further.
func FindElements(n Node, match func(Name) bool) []*Element {
	var found []*Element
	findElements(n, match, &found)
	return found
}

func findElements(n Node, match func(Name) bool, found *[]*Element) {
	el, ok := n.(*Element)
	if !ok {
		return
	}
	for _, c := range el.Children {
		child, ok := c.(*Element)
		if !ok {
			continue
		}
		if match(child.Name) {
			*found = append(*found, child)
			continue
		}
		findElements(child, match, found)
	}
}

// is reports whether name has the given local part and belongs to ns, either
// through a resolved namespace URI or the conventional prefix.
func (n Name) is(ns, prefix, local string) bool {
	if n.Local != local {
		return false
	}
	return n.Space == ns || n.Prefix == prefix || (n.Space == prefix && n.Prefix == "")
}
