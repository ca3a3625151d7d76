// Package epub assembles EPUB 2.0.1 packages from extracted book structure.
//
// Assemble lays out the package (manifest, spine, navigation) and Package.WriteTo
// serializes it as an OCF zip container. The two steps are separate so the
// layout can be inspected without unzipping anything.
package epub

import (
	"errors"
)

// ErrPackaging indicates the package could not be laid out or written.
var ErrPackaging = errors.New("EPUB packaging failed")

// Fixed resource names inside the package. Chapter slugs must avoid
// ReservedSlugs so chapter files never collide with them.
const (
	TitlePageHref  = "title.html"
	TOCPageHref    = "toc.html"
	StylesheetHref = "style.css"
	NCXHref        = "toc.ncx"
	CoverID        = "cover-image"
)

// ReservedSlugs lists slugs whose .html file names the package already uses.
var ReservedSlugs = []string{"title", "toc"}

// Chapter is one content document of the book.
type Chapter struct {
	// Title is the navigation label.
	Title string
	// Slug names the chapter file, <slug>.html.
	Slug string
	// HTML is the complete chapter document.
	HTML string
}

// Cover is an optional cover image.
type Cover struct {
	Data      []byte
	MediaType string
}

// Book is everything needed to build one EPUB.
type Book struct {
	Title      string
	Author     string
	Language   string
	Identifier string
	Date       string
	Publisher  string
	Chapters   []Chapter
	Cover      *Cover
	Stylesheet string
}

// coverExtensions maps supported cover media types to file extensions.
var coverExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}
