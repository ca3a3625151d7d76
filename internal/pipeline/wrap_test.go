package pipeline

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-md2ebook/internal/assets"
)

// mockTemplateLoader counts LoadTemplate calls.
type mockTemplateLoader struct {
	mu    sync.Mutex
	tmpl  string
	err   error
	calls int
}

func (m *mockTemplateLoader) LoadTemplate(string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.tmpl, m.err
}

func (m *mockTemplateLoader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ---------------------------------------------------------------------------
// TestWrapper_Wrap - Placeholder substitution
// ---------------------------------------------------------------------------

func TestWrapper_Wrap(t *testing.T) {
	t.Parallel()

	loader := &mockTemplateLoader{tmpl: "<title>{title}</title><body>{body}</body>"}

	tests := []struct {
		name  string
		title string
		body  string
		want  string
	}{
		{
			name:  "both placeholders",
			title: "My Book",
			body:  "<p>Hi</p>",
			want:  "<title>My Book</title><body><p>Hi</p></body>",
		},
		{
			name: "empty values",
			want: "<title></title><body></body>",
		},
		{
			name:  "no escaping",
			title: "A &amp; B",
			body:  "<b>&</b>",
			want:  "<title>A &amp; B</title><body><b>&</b></body>",
		},
		{
			name:  "placeholders inside values are not expanded",
			title: "{body}",
			body:  "{title}",
			want:  "<title>{body}</title><body>{title}</body>",
		},
	}

	w := NewWrapper(loader)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := w.Wrap(tt.title, tt.body)
			if err != nil {
				t.Fatalf("Wrap() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Wrap() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapper_Wrap_Deterministic(t *testing.T) {
	t.Parallel()

	w := NewWrapper(assets.NewEmbeddedLoader())

	first, err := w.Wrap("Title", "<p>body</p>")
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}
	second, err := w.Wrap("Title", "<p>body</p>")
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}
	if first != second {
		t.Error("Wrap() should return identical output for identical input")
	}
	if !strings.Contains(first, "<title>Title</title>") || !strings.Contains(first, "<p>body</p>") {
		t.Errorf("Wrap() with embedded template = %q", first)
	}
}

func TestWrapper_LoadsTemplateOnce(t *testing.T) {
	t.Parallel()

	loader := &mockTemplateLoader{tmpl: "{body}"}
	w := NewWrapper(loader)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Wrap("t", "b")
		}()
	}
	wg.Wait()

	if got := loader.callCount(); got != 1 {
		t.Errorf("LoadTemplate called %d times, want 1", got)
	}
}

func TestWrapper_TemplateMissing(t *testing.T) {
	t.Parallel()

	t.Run("load error cached", func(t *testing.T) {
		t.Parallel()

		loader := &mockTemplateLoader{err: assets.ErrTemplateNotFound}
		w := NewWrapper(loader)

		for i := 0; i < 2; i++ {
			_, err := w.Wrap("t", "b")
			if !errors.Is(err, ErrTemplateMissing) {
				t.Errorf("Wrap() error = %v, want ErrTemplateMissing", err)
			}
			if !errors.Is(err, assets.ErrTemplateNotFound) {
				t.Errorf("Wrap() error = %v, want wrapped ErrTemplateNotFound", err)
			}
		}
		if got := loader.callCount(); got != 1 {
			t.Errorf("LoadTemplate called %d times, want 1", got)
		}
	})

	t.Run("nil loader", func(t *testing.T) {
		t.Parallel()

		_, err := NewWrapper(nil).Wrap("t", "b")
		if !errors.Is(err, ErrTemplateMissing) {
			t.Errorf("Wrap() error = %v, want ErrTemplateMissing", err)
		}
	})
}
