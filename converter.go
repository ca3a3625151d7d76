package md2ebook

import (
	"context"
	"fmt"
	"html"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-md2ebook/internal/assets"
	"github.com/alnah/go-md2ebook/internal/fileutil"
	"github.com/alnah/go-md2ebook/internal/kindlegen"
	"github.com/alnah/go-md2ebook/internal/pipeline"
	"github.com/alnah/go-md2ebook/internal/structure"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.HTMLConverter   = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.CSSInjector     = (*pipeline.CSSInjection)(nil)
	_ pipeline.TemplateLoader  = (AssetLoader)(nil)
	_ structure.Wrapper        = (*pipeline.Wrapper)(nil)
	_ pdfConverter             = (*rodConverter)(nil)
	_ pdfRenderer              = (*rodRenderer)(nil)
	_ mobiCompiler             = (*kindlegen.Compiler)(nil)
	_ assets.AssetLoader       = (AssetLoader)(nil)
)

// mobiCompiler turns EPUB bytes into MOBI bytes.
type mobiCompiler interface {
	Compile(ctx context.Context, epub []byte) ([]byte, error)
}

// Converter owns the pipeline components shared by every document it opens:
// the markdown engine, the page template, the stylesheet, the browser and
// the kindlegen settings. Create with NewConverter, open documents with
// Open, and Close when done.
//
// A Converter may open several documents, but its browser renders one PDF
// at a time. Use a ConverterPool for parallel work.
type Converter struct {
	cfg               converterConfig
	logger            *zap.Logger
	assetLoader       assets.AssetLoader
	publicAssetLoader AssetLoader
	htmlConverter     pipeline.HTMLConverter
	cssInjector       pipeline.CSSInjector
	wrapper           *pipeline.Wrapper
	pdfConverter      pdfConverter
	compiler          mobiCompiler
	now               func() time.Time
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithStyle, WithAssetPath, WithKindlegen).
// Returns error if the asset path or the style cannot be loaded.
// The browser is only launched when the first PDF is requested.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:           converterConfig{timeout: defaultTimeout},
		logger:        zap.NewNop(),
		assetLoader:   assets.NewEmbeddedLoader(),
		htmlConverter: pipeline.NewGoldmarkConverter(),
		cssInjector:   &pipeline.CSSInjection{},
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(c.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		c.assetLoader = resolver
	}

	if c.publicAssetLoader != nil {
		c.assetLoader = c.publicAssetLoader
	}

	if err := c.resolveStyle(); err != nil {
		return nil, err
	}

	c.wrapper = pipeline.NewWrapper(c.assetLoader)

	if c.pdfConverter == nil {
		c.pdfConverter = newRodConverter(c.cfg.timeout)
	}

	if c.compiler == nil {
		c.compiler = kindlegen.New(
			kindlegen.WithBinary(c.cfg.kindlegenPath),
			kindlegen.WithTimeout(c.cfg.kindlegenTimeout),
			kindlegen.WithLogger(c.logger),
		)
	}

	return c, nil
}

// Open converts input to HTML and checks that it has a title.
// Nothing else is computed until a format accessor asks for it.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Open(ctx context.Context, input Input) (conv *Conversion, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	lang, err := c.validateInput(input)
	if err != nil {
		return nil, err
	}
	input.Language = lang

	start := time.Now()
	fragment, err := c.htmlConverter.ToHTML(ctx, input.Markdown)
	if err != nil {
		return nil, fmt.Errorf("converting to HTML: %w", err)
	}

	doc, err := structure.Parse(fragment)
	if err != nil {
		return nil, err
	}

	title, err := doc.Title()
	if err != nil {
		return nil, err
	}

	c.logger.Debug("document opened",
		zap.String("title", title),
		zap.Int("chapters", doc.ChapterCount()),
		zap.Duration("elapsed", time.Since(start)))

	return &Conversion{
		conv:     c,
		input:    input,
		doc:      doc,
		fragment: fragment,
		title:    title,
		logger:   c.logger.With(zap.String("title", title)),
	}, nil
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.pdfConverter != nil {
		return c.pdfConverter.Close()
	}
	return nil
}

// Stylesheet returns the resolved CSS shared by HTML, PDF and EPUB output.
func (c *Converter) Stylesheet() string {
	return c.cfg.resolvedStyle
}

// wrap places body in the page template under an escaped title.
func (c *Converter) wrap(title, body string) (string, error) {
	return c.wrapper.Wrap(html.EscapeString(title), body)
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS content.
// An empty input selects the built-in default style.
func (c *Converter) resolveStyle() error {
	input := c.cfg.styleInput
	if input == "" {
		input = DefaultStyle
	}

	// File path? (contains / or \)
	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("%w: loading style file %q: %v", ErrStyleNotFound, input, err)
		}
		c.cfg.resolvedStyle = string(content)
		return nil
	}

	// CSS content? (contains {)
	if fileutil.IsCSS(input) {
		c.cfg.resolvedStyle = input
		return nil
	}

	css, err := c.assetLoader.LoadStyle(input)
	if err != nil {
		return fmt.Errorf("loading style %q: %w", input, publicAssetError(err))
	}
	c.cfg.resolvedStyle = css
	return nil
}

// validateInput checks that required fields are present and valid and
// returns the canonical language tag.
//
// This is a TRUST BOUNDARY for direct library users who build Input manually.
// CLI users have their input validated earlier by Config.Validate() at config load time.
func (c *Converter) validateInput(input Input) (string, error) {
	if input.Markdown == "" {
		return "", ErrEmptyMarkdown
	}
	if err := input.Page.Validate(); err != nil {
		return "", err
	}
	if _, err := resolveDate(input.Date, c.now()); err != nil {
		return "", err
	}
	return normalizeLanguage(input.Language)
}
