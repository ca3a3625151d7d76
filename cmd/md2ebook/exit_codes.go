package main

import (
	"errors"
	"fmt"
	"os"

	md2ebook "github.com/alnah/go-md2ebook"
	"github.com/alnah/go-md2ebook/internal/config"
)

// Exit codes for the md2ebook CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Every file converted
	ExitGeneral   = 1 // Unexpected error or at least one failed file in a batch
	ExitUsage     = 2 // Invalid flags, config, or input
	ExitIO        = 3 // File not found, permission denied, write failure
	ExitBrowser   = 4 // Headless Chrome errors
	ExitKindlegen = 5 // kindlegen missing, failing or timing out
)

// reportedError carries the exit code of a failure whose details were
// already printed.
type reportedError struct {
	code int
}

func (e *reportedError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Checked before I/O: a missing executable also wraps os.ErrNotExist.
	if errors.Is(err, md2ebook.ErrKindlegen) ||
		errors.Is(err, md2ebook.ErrKindlegenNotFound) ||
		errors.Is(err, md2ebook.ErrKindlegenTimeout) {
		return ExitKindlegen
	}

	if errors.Is(err, md2ebook.ErrBrowserConnect) ||
		errors.Is(err, md2ebook.ErrPageCreate) ||
		errors.Is(err, md2ebook.ErrPageLoad) ||
		errors.Is(err, md2ebook.ErrPDFGeneration) {
		return ExitBrowser
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, md2ebook.ErrReadMarkdown) ||
		errors.Is(err, md2ebook.ErrReadCover) ||
		errors.Is(err, md2ebook.ErrWriteOutput) {
		// A missing named config is a usage problem, not an I/O one.
		if errors.Is(err, config.ErrConfigNotFound) {
			return ExitUsage
		}
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoFormats) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, md2ebook.ErrEmptyMarkdown) ||
		errors.Is(err, md2ebook.ErrStructure) ||
		errors.Is(err, md2ebook.ErrUnsupportedImage) ||
		errors.Is(err, md2ebook.ErrInvalidLanguage) ||
		errors.Is(err, md2ebook.ErrInvalidDate) ||
		errors.Is(err, md2ebook.ErrInvalidPageSize) ||
		errors.Is(err, md2ebook.ErrInvalidOrientation) ||
		errors.Is(err, md2ebook.ErrInvalidMargin) ||
		errors.Is(err, md2ebook.ErrStyleNotFound) ||
		errors.Is(err, md2ebook.ErrTemplateNotFound) ||
		errors.Is(err, md2ebook.ErrInvalidAssetPath) {
		return ExitUsage
	}

	return ExitGeneral
}
