// Package page is the DOM the cleaning engine works on: a parsed HTML
// document with selector queries, per-element attribute and inline display
// control, and childList mutation notifications for the body subtree.
//
// A Document is not safe for concurrent use. The page context that owns it
// serializes every call, including observer callbacks.
package page

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MutationKind distinguishes inserted from removed children.
type MutationKind int

const (
	ChildAdded MutationKind = iota
	ChildRemoved
)

func (k MutationKind) String() string {
	if k == ChildRemoved {
		return "removed"
	}
	return "added"
}

// Mutation describes one childList change under the body.
type Mutation struct {
	Kind   MutationKind
	Target string // tag name of the parent whose children changed
	Nodes  int
}

// Document is a mutable parsed HTML page.
type Document struct {
	doc       *goquery.Document
	observers map[int]func([]Mutation)
	nextID    int
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc, observers: make(map[int]func([]Mutation))}, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.doc.Get(0)); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// Query returns the live elements matching selector in document order. A
// selector that does not compile is returned as an error; nothing panics.
func (d *Document) Query(selector string) ([]*Element, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	var out []*Element
	d.doc.FindMatcher(m).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s})
	})
	return out, nil
}

// Observe registers fn to receive each batch of body mutations. The
// returned func unregisters it.
func (d *Document) Observe(fn func([]Mutation)) (stop func()) {
	id := d.nextID
	d.nextID++
	d.observers[id] = fn
	return func() { delete(d.observers, id) }
}

func (d *Document) notify(batch []Mutation) {
	if len(batch) == 0 {
		return
	}
	fns := make([]func([]Mutation), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	for _, fn := range fns {
		fn(batch)
	}
}

// Append parses fragment and appends it to every element matching
// parentSelector. It returns the number of parents touched.
func (d *Document) Append(parentSelector, fragment string) (int, error) {
	m, err := cascadia.Compile(parentSelector)
	if err != nil {
		return 0, fmt.Errorf("compile selector %q: %w", parentSelector, err)
	}
	parents := d.doc.FindMatcher(m)
	if parents.Length() == 0 {
		return 0, fmt.Errorf("no element matches %q", parentSelector)
	}

	var batch []Mutation
	parents.Each(func(_ int, p *goquery.Selection) {
		before := p.Contents().Length()
		p.AppendHtml(fragment)
		added := p.Contents().Length() - before
		if added > 0 && inBody(p) {
			batch = append(batch, Mutation{Kind: ChildAdded, Target: goquery.NodeName(p), Nodes: added})
		}
	})
	d.notify(batch)
	return parents.Length(), nil
}

// Remove detaches every element matching selector. It returns the number
// of elements removed.
func (d *Document) Remove(selector string) (int, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return 0, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	matches := d.doc.FindMatcher(m)

	var batch []Mutation
	matches.Each(func(_ int, s *goquery.Selection) {
		if inBody(s.Parent()) {
			batch = append(batch, Mutation{Kind: ChildRemoved, Target: goquery.NodeName(s.Parent()), Nodes: 1})
		}
	})
	n := matches.Length()
	matches.Remove()
	d.notify(batch)
	return n, nil
}

func inBody(s *goquery.Selection) bool {
	return s.Length() > 0 && s.Closest("body").Length() > 0
}

// SetHeadStyle creates the <style> element with the given id in the head,
// or replaces its content if it exists. Head changes are not reported to
// observers.
func (d *Document) SetHeadStyle(id, css string) {
	if n := d.headStyle(id); n != nil {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: css})
		return
	}

	head := d.doc.Find("head").First()
	if head.Length() == 0 {
		return
	}
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: id}},
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	head.Get(0).AppendChild(n)
}

// HeadStyle returns the content of the head <style> element with id.
func (d *Document) HeadStyle(id string) (string, bool) {
	n := d.headStyle(id)
	if n == nil {
		return "", false
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String(), true
}

// RemoveHeadStyle removes the head <style> element with id. It reports
// whether one was present.
func (d *Document) RemoveHeadStyle(id string) bool {
	n := d.headStyle(id)
	if n == nil {
		return false
	}
	n.Parent.RemoveChild(n)
	return true
}

func (d *Document) headStyle(id string) *html.Node {
	var found *html.Node
	d.doc.Find("head style").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("id"); ok && v == id {
			found = s.Get(0)
			return false
		}
		return true
	})
	return found
}
