package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alnah/go-md2ebook/internal/assets"
)

// ErrTemplateMissing indicates the HTML boilerplate template could not be loaded.
var ErrTemplateMissing = errors.New("HTML template missing")

// Template placeholders.
const (
	TitlePlaceholder = "{title}"
	BodyPlaceholder  = "{body}"
)

// TemplateLoader loads named HTML templates.
type TemplateLoader interface {
	LoadTemplate(name string) (string, error)
}

// Wrapper places HTML fragments into the boilerplate document template.
// The template is loaded on first use and cached together with any load
// error. A Wrapper is safe for concurrent use.
type Wrapper struct {
	loader TemplateLoader
	name   string

	once sync.Once
	tmpl string
	err  error
}

// NewWrapper creates a Wrapper reading the boilerplate template from loader.
func NewWrapper(loader TemplateLoader) *Wrapper {
	return &Wrapper{loader: loader, name: assets.BoilerplateTemplateName}
}

// Wrap substitutes title and body into the template in a single pass.
// Neither value is escaped and placeholders appearing inside them are left
// alone, so the same input always yields the same document.
func (w *Wrapper) Wrap(title, body string) (string, error) {
	w.once.Do(w.load)
	if w.err != nil {
		return "", w.err
	}
	r := strings.NewReplacer(TitlePlaceholder, title, BodyPlaceholder, body)
	return r.Replace(w.tmpl), nil
}

func (w *Wrapper) load() {
	if w.loader == nil {
		w.err = fmt.Errorf("%w: no template loader", ErrTemplateMissing)
		return
	}
	tmpl, err := w.loader.LoadTemplate(w.name)
	if err != nil {
		w.err = fmt.Errorf("%w: %w", ErrTemplateMissing, err)
		return
	}
	w.tmpl = tmpl
}
