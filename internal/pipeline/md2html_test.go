package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestPreprocess - Line endings and highlight placeholders
// ---------------------------------------------------------------------------

func TestPreprocess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"CRLF normalized", "a\r\nb", "a\nb"},
		{"lone CR normalized", "a\rb", "a\nb"},
		{"highlight", "==hot==", MarkStartPlaceholder + "hot" + MarkEndPlaceholder},
		{"two highlights", "==a== and ==b==", MarkStartPlaceholder + "a" + MarkEndPlaceholder + " and " + MarkStartPlaceholder + "b" + MarkEndPlaceholder},
		{"empty marker untouched", "====", "===="},
		{"spaced marker untouched", "a == b == c", "a == b == c"},
		{"plain text", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Preprocess(tt.input); got != tt.want {
				t.Errorf("Preprocess(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestGoldmarkConverter_ToHTML - Fragment output
// ---------------------------------------------------------------------------

func TestGoldmarkConverter_ToHTML(t *testing.T) {
	t.Parallel()

	converter := NewGoldmarkConverter()

	tests := []struct {
		name        string
		input       string
		wantContain []string
		wantAbsent  []string
	}{
		{
			name:        "headings keep their levels",
			input:       "# Book\n\n### Author\n\n## One\n\ntext",
			wantContain: []string{"<h1", ">Book</h1>", "<h3", ">Author</h3>", "<h2", ">One</h2>", "<p>text</p>"},
		},
		{
			name:        "output is a fragment",
			input:       "# Book",
			wantAbsent:  []string{"<html", "<body", "<!DOCTYPE"},
			wantContain: []string{"<h1"},
		},
		{
			name:        "highlight becomes mark",
			input:       "a ==bright== word",
			wantContain: []string{"<mark>bright</mark>"},
			wantAbsent:  []string{MarkStartPlaceholder, MarkEndPlaceholder},
		},
		{
			name:        "xhtml void elements",
			input:       "one\n\n---\n\ntwo",
			wantContain: []string{"<hr />"},
		},
		{
			name:        "gfm tables",
			input:       "| a | b |\n|---|---|\n| 1 | 2 |",
			wantContain: []string{"<table>", "<td>1</td>"},
		},
		{
			name:       "raw html is not passed through",
			input:      "<script>alert(1)</script>",
			wantAbsent: []string{"<script>"},
		},
		{
			name:        "fenced code highlighted with classes",
			input:       "```go\nfunc main() {}\n```",
			wantContain: []string{`class="chroma"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := converter.ToHTML(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ToHTML() unexpected error: %v", err)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(got, want) {
					t.Errorf("ToHTML() missing %q in:\n%s", want, got)
				}
			}
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("ToHTML() should not contain %q in:\n%s", absent, got)
				}
			}
		})
	}
}

func TestGoldmarkConverter_ToHTML_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoldmarkConverter().ToHTML(ctx, "# Title")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ToHTML() error = %v, want context.Canceled", err)
	}
}
