package assets

import (
	"errors"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// TestAssetResolver - Custom directory with embedded fallback
// ---------------------------------------------------------------------------

func TestAssetResolver(t *testing.T) {
	t.Parallel()

	embedded := NewEmbeddedLoader()
	builtinCSS, err := embedded.LoadStyle(DefaultStyleName)
	if err != nil {
		t.Fatalf("embedded default style: %v", err)
	}
	builtinTemplate, err := embedded.LoadTemplate(BoilerplateTemplateName)
	if err != nil {
		t.Fatalf("embedded template: %v", err)
	}

	t.Run("embedded only", func(t *testing.T) {
		t.Parallel()

		r, err := NewAssetResolver("")
		if err != nil {
			t.Fatalf("NewAssetResolver: %v", err)
		}
		if got, _ := r.LoadStyle(DefaultStyleName); got != builtinCSS {
			t.Error("default style should come from the embedded assets")
		}
		if len(r.layers) != 1 {
			t.Errorf("layers = %d, want 1", len(r.layers))
		}
	})

	t.Run("custom overrides one asset", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeAsset(t, dir, "styles", "default.css", "p { margin: 0; }")

		r, err := NewAssetResolver(dir)
		if err != nil {
			t.Fatalf("NewAssetResolver: %v", err)
		}
		if got, _ := r.LoadStyle(DefaultStyleName); got != "p { margin: 0; }" {
			t.Errorf("LoadStyle = %q, want the custom style", got)
		}
		if got, _ := r.LoadTemplate(BoilerplateTemplateName); got != builtinTemplate {
			t.Error("template should fall back to the embedded one")
		}
	})

	t.Run("missing everywhere", func(t *testing.T) {
		t.Parallel()

		r, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatalf("NewAssetResolver: %v", err)
		}
		if _, err := r.LoadStyle("nonexistent"); !errors.Is(err, ErrStyleNotFound) {
			t.Errorf("error = %v, want ErrStyleNotFound", err)
		}
		if _, err := r.LoadTemplate("nonexistent"); !errors.Is(err, ErrTemplateNotFound) {
			t.Errorf("error = %v, want ErrTemplateNotFound", err)
		}
	})

	t.Run("invalid names are not retried", func(t *testing.T) {
		t.Parallel()

		r, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatalf("NewAssetResolver: %v", err)
		}
		_, err = r.LoadStyle("../default")
		if !errors.Is(err, ErrInvalidAssetName) {
			t.Errorf("error = %v, want ErrInvalidAssetName", err)
		}
	})

	t.Run("bad base path", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssetResolver(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("error = %v, want ErrInvalidBasePath", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestIsNotFound - Fallback trigger
// ---------------------------------------------------------------------------

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{ErrStyleNotFound, true},
		{ErrTemplateNotFound, true},
		{ErrInvalidAssetName, false},
		{ErrAssetRead, false},
		{ErrPathTraversal, false},
	}
	for _, tt := range tests {
		if got := isNotFound(tt.err); got != tt.want {
			t.Errorf("isNotFound(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
