// Package structure recovers the book layout from the HTML produced for a
// markdown source.
//
// The first h1 is the title, the first h3 is the author and every h2 opens
// a chapter that runs over the following siblings up to the next h2.
package structure

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-md2ebook/internal/slug"
)

// ErrStructure indicates a required heading is missing from the document.
var ErrStructure = errors.New("document structure error")

// Wrapper turns a chapter fragment into a complete HTML document.
type Wrapper interface {
	Wrap(title, body string) (string, error)
}

// Chapter is one h2 section of the book.
type Chapter struct {
	// Title is the text of the h2 heading.
	Title string
	// Slug identifies the chapter within one conversion run.
	Slug string
	// Content is the heading and its section as an HTML fragment.
	Content string
	// HTML is Content wrapped in the boilerplate document.
	HTML string
}

// Document is a parsed HTML tree for one input.
type Document struct {
	doc *goquery.Document
}

// Parse builds a Document from an HTML fragment or document.
func Parse(htmlContent string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Title returns the text of the first h1.
func (d *Document) Title() (string, error) {
	return d.firstHeadingText("h1", "no title")
}

// Author returns the text of the first h3.
func (d *Document) Author() (string, error) {
	return d.firstHeadingText("h3", "no author")
}

func (d *Document) firstHeadingText(tag, missing string) (string, error) {
	sel := d.doc.Find(tag).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrStructure, missing)
	}
	return strings.TrimSpace(sel.Text()), nil
}

// ChapterCount returns the number of h2 headings.
func (d *Document) ChapterCount() int {
	return d.doc.Find("h2").Length()
}

// Chapters splits the document at every h2, in document order.
//
// A chapter holds its heading followed by every sibling node until the
// next h2 sibling or the end of the parent. Headings of lower rank stay
// inside the chapter. Each chapter is wrapped with its escaped title and
// receives a slug from reg.
//
// A document without h2 yields a single chapter holding the whole body,
// titled after the book; it then requires a title.
func (d *Document) Chapters(w Wrapper, reg *slug.Registry) ([]Chapter, error) {
	headings := d.doc.Find("h2")
	if headings.Length() == 0 {
		return d.wholeBodyChapter(w, reg)
	}

	chapters := make([]Chapter, 0, headings.Length())
	for _, heading := range headings.Nodes {
		content, err := renderSection(heading)
		if err != nil {
			return nil, err
		}
		title := strings.TrimSpace(goquery.NewDocumentFromNode(heading).Text())
		ch, err := newChapter(w, reg, title, content)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, nil
}

func (d *Document) wholeBodyChapter(w Wrapper, reg *slug.Registry) ([]Chapter, error) {
	title, err := d.Title()
	if err != nil {
		return nil, err
	}
	body := d.doc.Find("body")
	var content string
	if body.Length() > 0 {
		if content, err = body.Html(); err != nil {
			return nil, fmt.Errorf("rendering body: %w", err)
		}
	}
	ch, err := newChapter(w, reg, title, content)
	if err != nil {
		return nil, err
	}
	return []Chapter{ch}, nil
}

func newChapter(w Wrapper, reg *slug.Registry, title, content string) (Chapter, error) {
	wrapped, err := w.Wrap(html.EscapeString(title), content)
	if err != nil {
		return Chapter{}, err
	}
	return Chapter{
		Title:   title,
		Slug:    reg.Make(title),
		Content: content,
		HTML:    wrapped,
	}, nil
}

// renderSection serializes heading and its following siblings up to the
// next h2. Element, text and comment nodes all render through html.Render.
func renderSection(heading *xhtml.Node) (string, error) {
	var b strings.Builder
	for n := heading; n != nil; n = n.NextSibling {
		if n != heading && isChapterHeading(n) {
			break
		}
		if err := xhtml.Render(&b, n); err != nil {
			return "", fmt.Errorf("rendering chapter: %w", err)
		}
	}
	return b.String(), nil
}

func isChapterHeading(n *xhtml.Node) bool {
	return n.Type == xhtml.ElementNode && n.DataAtom == atom.H2
}
