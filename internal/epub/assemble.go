package epub

import (
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"

	"github.com/alnah/go-md2ebook/internal/pipeline"
)

const (
	mediaTypeXHTML = "application/xhtml+xml"
	mediaTypeCSS   = "text/css"
	mediaTypeNCX   = "application/x-dtbncx+xml"

	defaultLanguage = "en"
	tocHeading      = "Contents"
)

// Wrapper turns an HTML fragment into a complete document.
type Wrapper interface {
	Wrap(title, body string) (string, error)
}

// Resource is one file of the package, relative to the OEBPS directory.
type Resource struct {
	ID        string
	Href      string
	MediaType string
	Data      []byte
}

// NavPoint is one navigation entry.
type NavPoint struct {
	Label string
	Href  string
}

// Metadata is the Dublin Core metadata of the package.
type Metadata struct {
	Title      string
	Creator    string
	Language   string
	Identifier string
	Date       string
	Publisher  string
}

// Package is an assembled but not yet serialized EPUB.
type Package struct {
	Metadata Metadata
	// Manifest lists every resource in insertion order.
	Manifest []Resource
	// Spine holds the manifest IDs of the reading order.
	Spine []string
	// Nav holds navigation entries; empty for single chapter books.
	Nav []NavPoint
	// CoverID is the manifest ID of the cover image, if any.
	CoverID string

	ids   map[string]struct{}
	hrefs map[string]struct{}
}

// Resource returns the manifest entry stored under href.
func (p *Package) Resource(href string) (Resource, bool) {
	for _, r := range p.Manifest {
		if r.Href == href {
			return r, true
		}
	}
	return Resource{}, false
}

// add registers a resource, optionally appending it to the spine.
// Duplicate IDs or hrefs break the package invariants and fail.
func (p *Package) add(r Resource, linear bool) error {
	if _, ok := p.ids[r.ID]; ok {
		return fmt.Errorf("%w: duplicate resource id %q", ErrPackaging, r.ID)
	}
	if _, ok := p.hrefs[r.Href]; ok {
		return fmt.Errorf("%w: duplicate resource %q", ErrPackaging, r.Href)
	}
	p.ids[r.ID] = struct{}{}
	p.hrefs[r.Href] = struct{}{}
	p.Manifest = append(p.Manifest, r)
	if linear {
		p.Spine = append(p.Spine, r.ID)
	}
	return nil
}

// Assembler lays out EPUB packages.
type Assembler struct {
	wrapper Wrapper
	newID   func() string
}

// NewAssembler creates an Assembler that wraps generated pages with w.
func NewAssembler(w Wrapper) *Assembler {
	return &Assembler{
		wrapper: w,
		newID:   func() string { return "urn:uuid:" + uuid.NewString() },
	}
}

// Assemble lays out book as a Package.
//
// The title page always opens the spine. A table of contents page and
// navigation entries are only added when the book has more than one
// chapter. The cover image joins the manifest but not the spine.
func (a *Assembler) Assemble(book Book) (*Package, error) {
	if strings.TrimSpace(book.Title) == "" {
		return nil, fmt.Errorf("%w: book has no title", ErrPackaging)
	}
	if len(book.Chapters) == 0 {
		return nil, fmt.Errorf("%w: book has no chapters", ErrPackaging)
	}

	pkg := &Package{
		Metadata: a.metadata(book),
		ids:      make(map[string]struct{}),
		hrefs:    make(map[string]struct{}),
	}

	if err := pkg.add(Resource{ID: "ncx", Href: NCXHref, MediaType: mediaTypeNCX}, false); err != nil {
		return nil, err
	}
	if err := pkg.add(Resource{
		ID:        "style",
		Href:      StylesheetHref,
		MediaType: mediaTypeCSS,
		Data:      []byte(book.Stylesheet),
	}, false); err != nil {
		return nil, err
	}

	if book.Cover != nil {
		if err := a.addCover(pkg, book.Cover); err != nil {
			return nil, err
		}
	}

	titlePage, err := a.page(book.Title, titlePageBody(book))
	if err != nil {
		return nil, err
	}
	if err := pkg.add(Resource{ID: "title-page", Href: TitlePageHref, MediaType: mediaTypeXHTML, Data: titlePage}, true); err != nil {
		return nil, err
	}

	withNav := len(book.Chapters) > 1
	if withNav {
		tocPage, err := a.page(book.Title, tocPageBody(book.Chapters))
		if err != nil {
			return nil, err
		}
		if err := pkg.add(Resource{ID: "toc-page", Href: TOCPageHref, MediaType: mediaTypeXHTML, Data: tocPage}, true); err != nil {
			return nil, err
		}
	}

	linked := linkAcrossChapters(book.Chapters)
	for i, ch := range book.Chapters {
		href := chapterHref(ch)
		res := Resource{
			ID:        "chapter-" + ch.Slug,
			Href:      href,
			MediaType: mediaTypeXHTML,
			Data:      []byte(pipeline.InjectStylesheetLink(linked[i], StylesheetHref)),
		}
		if err := pkg.add(res, true); err != nil {
			return nil, err
		}
		if withNav {
			pkg.Nav = append(pkg.Nav, NavPoint{Label: ch.Title, Href: href})
		}
	}

	return pkg, nil
}

func (a *Assembler) metadata(book Book) Metadata {
	m := Metadata{
		Title:      book.Title,
		Creator:    book.Author,
		Language:   book.Language,
		Identifier: book.Identifier,
		Date:       book.Date,
		Publisher:  book.Publisher,
	}
	if m.Language == "" {
		m.Language = defaultLanguage
	}
	if m.Identifier == "" {
		m.Identifier = a.newID()
	}
	return m
}

func (a *Assembler) addCover(pkg *Package, cover *Cover) error {
	ext, ok := coverExtensions[cover.MediaType]
	if !ok {
		return fmt.Errorf("%w: unsupported cover type %q", ErrPackaging, cover.MediaType)
	}
	if len(cover.Data) == 0 {
		return fmt.Errorf("%w: empty cover image", ErrPackaging)
	}
	if err := pkg.add(Resource{ID: CoverID, Href: "cover" + ext, MediaType: cover.MediaType, Data: cover.Data}, false); err != nil {
		return err
	}
	pkg.CoverID = CoverID
	return nil
}

// page wraps a generated fragment and links the package stylesheet.
func (a *Assembler) page(title, body string) ([]byte, error) {
	if a.wrapper == nil {
		return nil, fmt.Errorf("%w: no page wrapper", ErrPackaging)
	}
	doc, err := a.wrapper.Wrap(html.EscapeString(title), body)
	if err != nil {
		return nil, err
	}
	return []byte(pipeline.InjectStylesheetLink(doc, StylesheetHref)), nil
}

func titlePageBody(book Book) string {
	var b strings.Builder
	b.WriteString(`<div class="title-page">`)
	b.WriteString("<h1>" + html.EscapeString(book.Title) + "</h1>")
	if book.Author != "" {
		b.WriteString(`<h3 class="author">` + html.EscapeString(book.Author) + "</h3>")
	}
	b.WriteString("</div>")
	return b.String()
}

func tocPageBody(chapters []Chapter) string {
	var b strings.Builder
	b.WriteString(`<nav class="toc"><h2>` + tocHeading + "</h2><ol>")
	for _, ch := range chapters {
		b.WriteString(`<li><a href="` + html.EscapeString(chapterHref(ch)) + `">`)
		b.WriteString(html.EscapeString(ch.Title))
		b.WriteString("</a></li>")
	}
	b.WriteString("</ol></nav>")
	return b.String()
}

func chapterHref(ch Chapter) string {
	return ch.Slug + ".html"
}
