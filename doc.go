// Package md2ebook converts Markdown books to HTML, PDF, EPUB and MOBI.
//
// A book is ordinary Markdown with three conventions: the first level-1
// heading is the title, the first level-3 heading is the author, and every
// level-2 heading starts a chapter.
//
//	# The Book
//	### Jane Doe
//	## Introduction
//	...
//	## The End
//	...
//
// # Quick Start
//
// Create a converter, open a document, and ask for the formats you need:
//
//	conv, err := md2ebook.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	book, err := conv.Open(ctx, md2ebook.Input{Markdown: content})
//	if err != nil {
//	    log.Fatal(err) // no title, empty input, ...
//	}
//	epub, err := book.EPUB(ctx)
//
// Open fails fast when the document has no title. Every other format is
// computed on first request and remembered, so asking for MOBI after EPUB
// reuses the EPUB bytes.
//
// # Formats
//
//   - HTML: the whole document in the page template with the stylesheet inlined.
//   - PDF: the HTML rendered by headless Chrome (go-rod), each chapter on a
//     new page.
//   - EPUB: an EPUB 2.0.1 package with a title page, a table of contents when
//     there is more than one chapter, one file per chapter and an optional cover.
//   - MOBI: the EPUB compiled by Amazon's kindlegen, which must be installed.
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := md2ebook.NewConverter(
//	    md2ebook.WithTimeout(2 * time.Minute),
//	    md2ebook.WithStyle("plain"),
//	    md2ebook.WithKindlegen("/opt/kindlegen/kindlegen"),
//	    md2ebook.WithLogger(logger),
//	)
//
// Per-document options are passed via Input:
//
//	book, err := conv.Open(ctx, md2ebook.Input{
//	    Markdown:  content,
//	    SourceDir: "/path/to/markdown", // for relative images in the PDF
//	    Cover:     &md2ebook.Cover{Path: "cover.jpg"},
//	    Language:  "fr",
//	    Date:      "auto",
//	    Page:      &md2ebook.PageSettings{Size: "a4", Orientation: "portrait", Margin: 0.75},
//	})
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool to manage multiple browser instances:
//
//	pool := md2ebook.NewConverterPool(4)
//	defer pool.Close()
//
//	conv, err := pool.Acquire()
//	defer pool.Release(conv)
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package md2ebook
