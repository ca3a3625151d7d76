package assets

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Names of the built-in assets.
const (
	// BoilerplateTemplateName is the page template wrapping every page.
	BoilerplateTemplateName = "html-boilerplate"

	// DefaultStyleName is the stylesheet used when none is chosen.
	DefaultStyleName = "default"
)

// Sentinel errors for asset operations.
var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrInvalidBasePath  = errors.New("invalid base path")
	ErrAssetRead        = errors.New("failed to read asset")
	ErrPathTraversal    = errors.New("path traversal detected")
)

// AssetLoader loads stylesheets and page templates by name, without
// extension.
type AssetLoader interface {
	LoadStyle(name string) (string, error)
	LoadTemplate(name string) (string, error)
}

// kind is a family of assets stored as <dir>/<name><ext>.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind    = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

// file returns the slash-separated path of name.
func (k kind) file(name string) string {
	return k.dir + "/" + name + k.ext
}

// ValidateAssetName rejects names that could select another file:
// empty names, path separators, dots and control characters.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	bad := strings.IndexFunc(name, func(r rune) bool {
		return r == '/' || r == '\\' || r == '.' || unicode.IsControl(r)
	})
	if bad >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
