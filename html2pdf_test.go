package md2ebook

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher/flags"
)

// mockRenderer implements pdfRenderer for testing.
type mockRenderer struct {
	Result     []byte
	Err        error
	CalledWith string
	CalledOpts *pdfOptions
	FileBody   string
	Closed     bool
}

func (m *mockRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	m.CalledWith = filePath
	m.CalledOpts = opts
	if body, err := os.ReadFile(filePath); err == nil {
		m.FileBody = string(body)
	}
	return m.Result, m.Err
}

func (m *mockRenderer) Close() error {
	m.Closed = true
	return nil
}

func TestRodConverter_ToPDF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		html    string
		mock    *mockRenderer
		wantErr error
	}{
		{
			name: "successful render returns PDF bytes",
			html: "<html><body>Test</body></html>",
			mock: &mockRenderer{Result: []byte("%PDF-1.4 fake pdf content")},
		},
		{
			name:    "renderer error propagates",
			html:    "<html></html>",
			mock:    &mockRenderer{Err: ErrPageLoad},
			wantErr: ErrPageLoad,
		},
		{
			name: "unicode content succeeds",
			html: "<html><body>Bonjour le monde, ça va ?</body></html>",
			mock: &mockRenderer{Result: []byte("%PDF-1.4 unicode")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			converter := &rodConverter{renderer: tt.mock}
			result, err := converter.ToPDF(context.Background(), tt.html, nil)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != string(tt.mock.Result) {
				t.Errorf("result = %q, want %q", result, tt.mock.Result)
			}
			if !strings.HasPrefix(filepath.Base(tt.mock.CalledWith), "md2ebook-") {
				t.Errorf("expected temp file named md2ebook-*, got %q", tt.mock.CalledWith)
			}
			if tt.mock.FileBody != tt.html {
				t.Errorf("temp file holds %q, want %q", tt.mock.FileBody, tt.html)
			}
			if _, err := os.Stat(tt.mock.CalledWith); !os.IsNotExist(err) {
				t.Error("temp file should be removed after rendering")
			}
		})
	}
}

func TestRodConverter_Close(t *testing.T) {
	t.Parallel()

	mock := &mockRenderer{}
	converter := &rodConverter{renderer: mock}
	if err := converter.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !mock.Closed {
		t.Error("Close should close the renderer")
	}
}

func TestNewRodConverter(t *testing.T) {
	t.Parallel()

	converter := newRodConverter(defaultTimeout)
	renderer, ok := converter.renderer.(*rodRenderer)
	if !ok {
		t.Fatalf("renderer type = %T, want *rodRenderer", converter.renderer)
	}
	if renderer.timeout != defaultTimeout {
		t.Errorf("timeout = %v, want %v", renderer.timeout, defaultTimeout)
	}
	// Closing before any render must not launch a browser
	if err := converter.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestRodRenderer_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRodRenderer(defaultTimeout)
	if _, err := r.RenderFromFile(ctx, "/nonexistent.html", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBuildPDFOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       *pdfOptions
		wantWidth  float64
		wantHeight float64
		wantMargin float64
	}{
		{"nil opts is letter portrait", nil, 8.5, 11, DefaultMargin},
		{"nil page is letter portrait", &pdfOptions{}, 8.5, 11, DefaultMargin},
		{"a4", &pdfOptions{Page: &PageSettings{Size: "a4", Orientation: "portrait", Margin: 1}}, 8.27, 11.69, 1},
		{"legal landscape", &pdfOptions{Page: &PageSettings{Size: "legal", Orientation: "landscape", Margin: 0.5}}, 14, 8.5, 0.5},
		{"case insensitive", &pdfOptions{Page: &PageSettings{Size: "A4", Orientation: "LANDSCAPE", Margin: 0.75}}, 11.69, 8.27, 0.75},
		{"zero margin uses default", &pdfOptions{Page: &PageSettings{Size: "letter", Orientation: "portrait"}}, 8.5, 11, DefaultMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := buildPDFOptions(tt.opts)
			if *got.PaperWidth != tt.wantWidth || *got.PaperHeight != tt.wantHeight {
				t.Errorf("paper = %vx%v, want %vx%v", *got.PaperWidth, *got.PaperHeight, tt.wantWidth, tt.wantHeight)
			}
			for _, m := range []*float64{got.MarginTop, got.MarginBottom, got.MarginLeft, got.MarginRight} {
				if *m != tt.wantMargin {
					t.Errorf("margin = %v, want %v", *m, tt.wantMargin)
				}
			}
			if !got.PrintBackground {
				t.Error("backgrounds should be printed")
			}
		})
	}
}

func TestBrowserLauncher(t *testing.T) {
	t.Parallel()

	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}

	t.Run("custom binary disables sandbox", func(t *testing.T) {
		t.Parallel()

		l := browserLauncher(env(map[string]string{"ROD_BROWSER_BIN": "/usr/bin/chromium"}))
		if got := l.Get(flags.Bin); got != "/usr/bin/chromium" {
			t.Errorf("bin = %q, want /usr/bin/chromium", got)
		}
		if !l.Has(flags.NoSandbox) {
			t.Error("preinstalled browser should run without sandbox")
		}
	})

	for _, vars := range []map[string]string{
		{"ROD_NO_SANDBOX": "1"},
		{"CI": "true"},
	} {
		if l := browserLauncher(env(vars)); !l.Has(flags.NoSandbox) {
			t.Errorf("%v: sandbox should be disabled", vars)
		}
	}
}

func TestPageTimeout(t *testing.T) {
	t.Parallel()

	got, err := pageTimeout(context.Background(), time.Minute)
	if err != nil || got != time.Minute {
		t.Errorf("no deadline: got %v, %v", got, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err = pageTimeout(ctx, time.Minute)
	if err != nil || got <= 0 || got > time.Second {
		t.Errorf("near deadline: got %v, %v", got, err)
	}

	got, err = pageTimeout(ctx, time.Millisecond)
	if err != nil || got != time.Millisecond {
		t.Errorf("short timeout: got %v, %v", got, err)
	}

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	if _, err := pageTimeout(expired, time.Minute); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expired deadline: err = %v", err)
	}
}
