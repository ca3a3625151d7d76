package md2ebook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-md2ebook/internal/cover"
	"github.com/alnah/go-md2ebook/internal/dateutil"
	"github.com/alnah/go-md2ebook/internal/epub"
	"github.com/alnah/go-md2ebook/internal/pipeline"
	"github.com/alnah/go-md2ebook/internal/slug"
	"github.com/alnah/go-md2ebook/internal/structure"
)

// Conversion holds one opened document and produces its output formats on
// demand. Each format is computed at most once: later calls return the
// same bytes, or the same error. Failures caused by the caller's context
// are not remembered, so a cancelled call can be retried.
//
// A Conversion is safe for concurrent use; calls are serialized.
type Conversion struct {
	conv     *Converter
	input    Input
	doc      *structure.Document
	fragment string
	title    string
	logger   *zap.Logger

	mu                    sync.Mutex
	html, pdf, epub, mobi artifact
}

// artifact is a memoized format.
type artifact struct {
	done bool
	data []byte
	err  error
}

// Title returns the book title, the text of the first level-1 heading.
func (c *Conversion) Title() string {
	return c.title
}

// HTML returns the whole document wrapped in the page template with the
// stylesheet inlined.
func (c *Conversion) HTML(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.htmlLocked(ctx)
}

// PDF returns the document rendered by headless Chrome, one chapter per
// page run. Only the title and chapter headings reach the PDF outline.
func (c *Conversion) PDF(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memo(ctx, &c.pdf, "pdf", func() ([]byte, error) {
		htmlContent, err := c.htmlLocked(ctx)
		if err != nil {
			return nil, err
		}
		prepared, err := pipeline.PrepareForPDF(string(htmlContent), c.input.SourceDir)
		if err != nil {
			return nil, err
		}
		data, err := c.conv.pdfConverter.ToPDF(ctx, prepared, &pdfOptions{Page: c.input.Page})
		if err != nil {
			return nil, fmt.Errorf("converting to PDF: %w", externalToolError(err))
		}
		return data, nil
	})
}

// EPUB returns the EPUB 2.0.1 package. It requires an author, the text of
// the first level-3 heading.
func (c *Conversion) EPUB(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epubLocked(ctx)
}

// MOBI returns the EPUB compiled by kindlegen. PRC output uses the same bytes.
func (c *Conversion) MOBI(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memo(ctx, &c.mobi, "mobi", func() ([]byte, error) {
		book, err := c.epubLocked(ctx)
		if err != nil {
			return nil, err
		}
		data, err := c.conv.compiler.Compile(ctx, book)
		if err != nil {
			return nil, fmt.Errorf("converting to MOBI: %w", externalToolError(err))
		}
		return data, nil
	})
}

func (c *Conversion) htmlLocked(ctx context.Context) ([]byte, error) {
	return c.memo(ctx, &c.html, "html", func() ([]byte, error) {
		page, err := c.conv.wrap(c.title, c.fragment)
		if err != nil {
			return nil, err
		}
		page = c.conv.cssInjector.InjectCSS(ctx, page, c.css())
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []byte(page), nil
	})
}

func (c *Conversion) epubLocked(ctx context.Context) ([]byte, error) {
	return c.memo(ctx, &c.epub, "epub", func() ([]byte, error) {
		book, err := c.book()
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return epub.NewAssembler(c.conv.wrapper).Build(book)
	})
}

// book collects everything the EPUB needs. Chapter slugs come from a
// registry private to this call that already holds the package's own
// page names.
func (c *Conversion) book() (epub.Book, error) {
	author, err := c.doc.Author()
	if err != nil {
		return epub.Book{}, err
	}

	reg := slug.NewRegistry()
	reg.Reserve(epub.ReservedSlugs...)
	chapters, err := c.doc.Chapters(c.conv.wrapper, reg)
	if err != nil {
		return epub.Book{}, err
	}

	date, err := resolveDate(c.input.Date, c.conv.now())
	if err != nil {
		return epub.Book{}, err
	}

	book := epub.Book{
		Title:      c.title,
		Author:     author,
		Language:   c.input.Language,
		Date:       date,
		Publisher:  c.input.Publisher,
		Chapters:   make([]epub.Chapter, len(chapters)),
		Stylesheet: c.css(),
	}
	for i, ch := range chapters {
		book.Chapters[i] = epub.Chapter{Title: ch.Title, Slug: ch.Slug, HTML: ch.HTML}
	}

	if book.Cover, err = loadCover(c.input.Cover); err != nil {
		return epub.Book{}, err
	}

	c.logger.Debug("book assembled",
		zap.String("author", author),
		zap.Int("chapters", len(book.Chapters)),
		zap.Bool("cover", book.Cover != nil))
	return book, nil
}

// css is the converter style followed by the per-input CSS.
func (c *Conversion) css() string {
	css := c.conv.cfg.resolvedStyle
	if c.input.CSS != "" {
		css += "\n" + c.input.CSS
	}
	return css
}

// memo runs build once for a and remembers the outcome. Panics become
// errors. Outcomes of a cancelled ctx are not remembered.
func (c *Conversion) memo(ctx context.Context, a *artifact, format string, build func() ([]byte, error)) (data []byte, err error) {
	if a.done {
		return a.data, a.err
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("internal error: %v", r)
		}
		if ctx.Err() != nil && err != nil {
			return
		}
		a.done, a.data, a.err = true, data, err
		c.logger.Debug("format generated",
			zap.String("format", format),
			zap.Int("bytes", len(data)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}()

	return build()
}

// loadCover reads and prepares the cover image, if any.
func loadCover(in *Cover) (*epub.Cover, error) {
	if in == nil || (len(in.Data) == 0 && in.Path == "") {
		return nil, nil
	}

	var (
		img *cover.Image
		err error
	)
	if len(in.Data) > 0 {
		img, err = cover.Prepare(in.Data)
	} else {
		img, err = cover.Load(in.Path)
	}
	if err != nil {
		return nil, err
	}
	return &epub.Cover{Data: img.Data, MediaType: img.MediaType}, nil
}

// resolveDate turns Input.Date into a dc:date value.
func resolveDate(value string, now time.Time) (string, error) {
	return dateutil.ResolvePublicationDate(value, now)
}
