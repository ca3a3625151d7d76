package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

//go:embed styles templates
var builtin embed.FS

// fsLoader reads assets from a file system laid out as styles/ and
// templates/.
type fsLoader struct {
	fsys fs.FS
	// contain vets a file before it is read; nil accepts everything.
	contain func(file string) error
}

func (l *fsLoader) load(k kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	file := k.file(name)
	if l.contain != nil {
		if err := l.contain(file); err != nil {
			return "", err
		}
	}

	data, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", k.notFound, name)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrAssetRead, file, err)
	}
	return string(data), nil
}

// LoadStyle loads styles/{name}.css.
func (l *fsLoader) LoadStyle(name string) (string, error) {
	return l.load(styleKind, name)
}

// LoadTemplate loads templates/{name}.html.
func (l *fsLoader) LoadTemplate(name string) (string, error) {
	return l.load(templateKind, name)
}

// names lists the assets of kind k, sorted.
func (l *fsLoader) names(k kind) []string {
	entries, err := fs.ReadDir(l.fsys, k.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), k.ext); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// EmbeddedLoader serves the assets compiled into the binary.
type EmbeddedLoader struct {
	fsLoader
}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{fsLoader{fsys: builtin}}
}

// StyleNames lists the built-in style names, sorted.
func StyleNames() []string {
	return NewEmbeddedLoader().names(styleKind)
}

// FilesystemLoader serves assets from a directory on disk.
type FilesystemLoader struct {
	fsLoader
	root string
}

// NewFilesystemLoader creates a FilesystemLoader rooted at basePath.
// Returns ErrInvalidBasePath unless basePath is a readable directory.
func NewFilesystemLoader(basePath string) (*FilesystemLoader, error) {
	root, err := resolveBasePath(basePath)
	if err != nil {
		return nil, err
	}
	l := &FilesystemLoader{root: root}
	l.fsLoader = fsLoader{fsys: os.DirFS(root), contain: l.contain}
	return l, nil
}

// StyleNames lists the styles found in the directory, sorted.
func (l *FilesystemLoader) StyleNames() []string {
	return l.names(styleKind)
}

// resolveBasePath returns the absolute, symlink-free form of p.
func resolveBasePath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, abs)
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	case !info.IsDir():
		return "", fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, abs)
	}

	if _, err := os.ReadDir(abs); err != nil {
		return "", fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}
	return abs, nil
}

// contain rejects files whose real path leaves the base directory,
// such as symlinks pointing elsewhere.
func (l *FilesystemLoader) contain(file string) error {
	full := filepath.Join(l.root, filepath.FromSlash(file))
	if real, err := filepath.EvalSymlinks(full); err == nil {
		full = real
	}
	rel, err := filepath.Rel(l.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, file)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ AssetLoader = (*EmbeddedLoader)(nil)
	_ AssetLoader = (*FilesystemLoader)(nil)
)
