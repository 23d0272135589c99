// Package dom is a small document model over goquery and x/net/html.
// It covers what the pager needs from a browser DOM: finding the posts
// container, appending card fragments, and resolving click targets.
package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultContainerID is the element id cards are appended to.
const DefaultContainerID = "posts-container"

// Document is a parsed HTML page
type Document struct {
	doc *goquery.Document
}

// Parse parses a full HTML document
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Find runs a CSS selector against the whole document
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Container returns the element with the given id, or nil when the page has none.
func (d *Document) Container(id string) *Container {
	sel := d.doc.Find("#" + id).First()
	if sel.Length() == 0 {
		return nil
	}
	return &Container{sel: sel}
}

// Render serialises the document
func (d *Document) Render(w io.Writer) error {
	for _, n := range d.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("failed to render document: %w", err)
		}
	}
	return nil
}

// Container is the element rendered cards are appended to
type Container struct {
	sel *goquery.Selection
}

// Node returns the underlying element node
func (c *Container) Node() *html.Node {
	return c.sel.Get(0)
}

// Selection returns the container as a goquery selection
func (c *Container) Selection() *goquery.Selection {
	return c.sel
}

// AppendHTML parses fragment in the context of the container and appends the
// resulting nodes after its last child, like insertAdjacentHTML("beforeend").
func (c *Container) AppendHTML(fragment string) error {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), c.Node())
	if err != nil {
		return fmt.Errorf("failed to parse fragment: %w", err)
	}
	c.sel.AppendNodes(nodes...)
	return nil
}

// Len returns the number of element children
func (c *Container) Len() int {
	return c.sel.Children().Length()
}

// Contains reports whether n is the container or one of its descendants
func (c *Container) Contains(n *html.Node) bool {
	root := c.Node()
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// ClosestAnchor finds the nearest <a> at or above n, like event.target.closest("a").
// The walk does not go above stop.
func ClosestAnchor(n, stop *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			return n
		}
		if n == stop {
			break
		}
	}
	return nil
}

// Attr returns the value of an attribute on an element node
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
