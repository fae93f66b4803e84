// Package dom loads HTML pages and exposes their elements as mutable frames.
package dom

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/sia/internal/shared"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page. Element mutations are serialized through the document.
//
// Each node is wrapped at most once, so the same element is returned by every query that matches it.
type Document struct {
	mu       sync.Mutex
	doc      *goquery.Document
	elements map[*html.Node]*Element
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{doc: doc, elements: map[*html.Node]*Element{}}, nil
}

// ParseString parses an HTML string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Load reads and parses the HTML file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Title returns the trimmed text of the page's <title>.
func (d *Document) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Query returns every element matching selector in document order.
func (d *Document) Query(selector string) []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	var elements []*Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		e, ok := d.elements[node]
		if !ok {
			e = &Element{doc: d, sel: s}
			d.elements[node] = e
		}
		elements = append(elements, e)
	})
	return elements
}

// Frames returns every <iframe> in document order.
func (d *Document) Frames() []*Element {
	return d.Query("iframe")
}

// HTML renders the document, including attribute changes made through its elements.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return out, nil
}

// Element is a single node of a [Document].
type Element struct {
	doc *Document
	sel *goquery.Selection
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.sel.Attr(name)
}

// SetAttr sets the named attribute, adding it when missing.
func (e *Element) SetAttr(name, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.sel.SetAttr(name, value)
}

// RemoveAttr removes the named attribute.
func (e *Element) RemoveAttr(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.sel.RemoveAttr(name)
}

// Src is shorthand for the src attribute, empty when missing.
func (e *Element) Src() string {
	src, _ := e.Attr("src")
	return src
}

// OuterHTML renders the element itself.
func (e *Element) OuterHTML() (string, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	out, err := goquery.OuterHtml(e.sel)
	if err != nil {
		return "", fmt.Errorf("failed to render element: %w", err)
	}
	return out, nil
}
