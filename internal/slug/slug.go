// Package slug turns heading text into file and URL safe identifiers.
//
// A Registry remembers every slug it has issued so that two headings with
// the same text never map to the same file name. Create one Registry per
// conversion run; registries are not safe for concurrent use.
package slug

import (
	"regexp"
	"strings"

	"github.com/gosimple/unidecode"
)

// Suffix is appended to a candidate slug until it no longer collides.
const Suffix = "-"

// nonWord matches runs of anything but ASCII letters, digits and underscore.
var nonWord = regexp.MustCompile(`\W+`)

// Registry issues unique slugs for a single conversion run.
type Registry struct {
	issued map[string]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{issued: make(map[string]struct{})}
}

// Make converts text to a slug with Base and registers it. When the
// result was already issued, Suffix is appended until it is unique.
// Empty text yields an empty candidate, which goes through the same check.
func (r *Registry) Make(text string) string {
	candidate := Base(text)
	for r.has(candidate) {
		candidate += Suffix
	}
	r.issued[candidate] = struct{}{}
	return candidate
}

// Reserve registers names as taken without issuing them, so later calls
// to Make never return them.
func (r *Registry) Reserve(names ...string) {
	for _, n := range names {
		r.issued[n] = struct{}{}
	}
}

// Len returns the number of slugs issued or reserved so far.
func (r *Registry) Len() int {
	return len(r.issued)
}

func (r *Registry) has(s string) bool {
	_, ok := r.issued[s]
	return ok
}

// Base returns the slug candidate for text without registering it.
// Text is transliterated to ASCII and lowercased, then every run of
// non-word characters becomes one hyphen. Hyphens at either end are kept,
// so "Hello, World!" gives "hello-world-".
func Base(text string) string {
	return nonWord.ReplaceAllString(strings.ToLower(unidecode.Unidecode(text)), "-")
}
