package md2ebook

import (
	"errors"

	"github.com/alnah/go-md2ebook/internal/assets"
)

// Built-in asset names.
const (
	// DefaultStyle is the stylesheet used when no style is given.
	DefaultStyle = assets.DefaultStyleName

	// PageTemplate wraps every HTML document. It must contain the {title}
	// and {body} placeholders.
	PageTemplate = assets.BoilerplateTemplateName
)

// AssetLoader loads stylesheets and the page template by name, without
// extension. Loaders report ErrStyleNotFound and ErrTemplateNotFound for
// missing assets.
//
// NewAssetLoader reads from a directory with embedded fallback; implement
// AssetLoader to serve assets from elsewhere.
type AssetLoader interface {
	LoadStyle(name string) (string, error)
	LoadTemplate(name string) (string, error)
}

// StyleNames lists the built-in styles.
func StyleNames() []string {
	return assets.StyleNames()
}

// NewAssetLoader returns an AssetLoader over basePath, which may hold
// styles/<name>.css and templates/html-boilerplate.html. Anything missing
// there comes from the embedded assets. An empty basePath uses only the
// embedded assets.
//
// Returns ErrInvalidAssetPath when basePath is not a readable directory.
func NewAssetLoader(basePath string) (AssetLoader, error) {
	r, err := assets.NewAssetResolver(basePath)
	if err != nil {
		return nil, publicAssetError(err)
	}
	return resolverLoader{r}, nil
}

// resolverLoader exposes an assets.AssetResolver with exported errors.
type resolverLoader struct {
	r *assets.AssetResolver
}

func (l resolverLoader) LoadStyle(name string) (string, error) {
	css, err := l.r.LoadStyle(name)
	return css, publicAssetError(err)
}

func (l resolverLoader) LoadTemplate(name string) (string, error) {
	tmpl, err := l.r.LoadTemplate(name)
	return tmpl, publicAssetError(err)
}

// assetErrors pairs internal asset errors with their exported sentinel.
// An invalid name can never resolve, so it reads as not found.
var assetErrors = []struct{ internal, public error }{
	{assets.ErrStyleNotFound, ErrStyleNotFound},
	{assets.ErrTemplateNotFound, ErrTemplateNotFound},
	{assets.ErrInvalidBasePath, ErrInvalidAssetPath},
	{assets.ErrPathTraversal, ErrInvalidAssetPath},
	{assets.ErrInvalidAssetName, ErrStyleNotFound},
}

// publicAssetError tags err with its exported sentinel, keeping the
// message. Unknown errors pass through.
func publicAssetError(err error) error {
	if err == nil {
		return nil
	}
	for _, m := range assetErrors {
		if errors.Is(err, m.internal) {
			return &assetError{public: m.public, err: err}
		}
	}
	return err
}

// assetError matches both the exported sentinel and the internal error,
// so the page wrapper's checks on internal sentinels still hold.
type assetError struct {
	public error
	err    error
}

func (e *assetError) Error() string   { return e.err.Error() }
func (e *assetError) Unwrap() []error { return []error{e.public, e.err} }
