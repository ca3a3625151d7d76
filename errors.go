package md2ebook

import (
	"context"
	"errors"

	"github.com/alnah/go-md2ebook/internal/cover"
	"github.com/alnah/go-md2ebook/internal/dateutil"
	"github.com/alnah/go-md2ebook/internal/epub"
	"github.com/alnah/go-md2ebook/internal/kindlegen"
	"github.com/alnah/go-md2ebook/internal/pipeline"
	"github.com/alnah/go-md2ebook/internal/structure"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown  = errors.New("markdown content cannot be empty")
	ErrHTMLConversion = pipeline.ErrHTMLConversion

	// Document structure and packaging errors.
	ErrStructure       = structure.ErrStructure
	ErrTemplateMissing = pipeline.ErrTemplateMissing
	ErrPackaging       = epub.ErrPackaging

	// ErrExternalTool matches every failure of headless Chrome or kindlegen.
	ErrExternalTool = errors.New("external tool failed")

	// PDF rendering errors.
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// MOBI compilation errors.
	ErrKindlegen         = kindlegen.ErrKindlegen
	ErrKindlegenNotFound = kindlegen.ErrNotFound
	ErrKindlegenTimeout  = kindlegen.ErrTimeout

	// I/O errors. Messages carry the offending path.
	ErrReadMarkdown = errors.New("failed to read markdown")
	ErrReadCover    = cover.ErrReadCover
	ErrWriteOutput  = errors.New("failed to write output")

	// Input validation errors.
	ErrUnsupportedImage   = cover.ErrUnsupportedImage
	ErrInvalidLanguage    = errors.New("invalid language tag")
	ErrInvalidDate        = dateutil.ErrInvalidDate
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)

// toolFailure marks err as an ErrExternalTool failure without changing
// its message.
type toolFailure struct {
	err error
}

func (e *toolFailure) Error() string {
	return e.err.Error()
}

func (e *toolFailure) Unwrap() []error {
	return []error{ErrExternalTool, e.err}
}

// externalToolError wraps err so errors.Is matches ErrExternalTool.
// Context errors pass through untouched.
func externalToolError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &toolFailure{err: err}
}
