package structure

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-md2ebook/internal/slug"
)

// echoWrapper returns a recognisable document without loading a template.
type echoWrapper struct {
	err error
}

func (w echoWrapper) Wrap(title, body string) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	return "<doc title=\"" + title + "\">" + body + "</doc>", nil
}

func mustParse(t *testing.T, html string) *Document {
	t.Helper()
	doc, err := Parse(html)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

// ---------------------------------------------------------------------------
// TestDocument_Title / TestDocument_Author - First heading wins
// ---------------------------------------------------------------------------

func TestDocument_Title(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		html    string
		want    string
		wantErr bool
	}{
		{"first h1", "<h1>Book</h1><h1>Other</h1>", "Book", false},
		{"nested markup text", "<h1>My <em>Great</em> Book</h1>", "My Great Book", false},
		{"trimmed", "<h1>  Spaced \n</h1>", "Spaced", false},
		{"missing", "<h2>Chapter</h2><p>x</p>", "", true},
		{"empty document", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := mustParse(t, tt.html).Title()
			if tt.wantErr {
				if !errors.Is(err, ErrStructure) {
					t.Fatalf("Title() error = %v, want ErrStructure", err)
				}
				if !strings.Contains(err.Error(), "no title") {
					t.Errorf("Title() error = %q, want mention of no title", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Title() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocument_Author(t *testing.T) {
	t.Parallel()

	t.Run("first h3", func(t *testing.T) {
		t.Parallel()

		got, err := mustParse(t, "<h1>B</h1><h3>Jane Doe</h3><h2>C</h2><h3>Sub</h3>").Author()
		if err != nil {
			t.Fatalf("Author() error = %v", err)
		}
		if got != "Jane Doe" {
			t.Errorf("Author() = %q, want %q", got, "Jane Doe")
		}
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		_, err := mustParse(t, "<h1>B</h1><h2>C</h2>").Author()
		if !errors.Is(err, ErrStructure) {
			t.Fatalf("Author() error = %v, want ErrStructure", err)
		}
		if !strings.Contains(err.Error(), "no author") {
			t.Errorf("Author() error = %q, want mention of no author", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestDocument_Chapters - Segmentation at h2 boundaries
// ---------------------------------------------------------------------------

func TestDocument_Chapters_OrderAndBoundaries(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "<h1>Book</h1><h3>Author</h3>"+
		"<h2>One</h2><p>first</p><h3>Inner</h3><p>still one</p>"+
		"<h2>Two</h2><p>second</p>"+
		"<h2>Three</h2>")

	chapters, err := doc.Chapters(echoWrapper{}, slug.NewRegistry())
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}

	wantTitles := []string{"One", "Two", "Three"}
	if len(chapters) != len(wantTitles) {
		t.Fatalf("len(Chapters()) = %d, want %d", len(chapters), len(wantTitles))
	}
	for i, want := range wantTitles {
		if chapters[i].Title != want {
			t.Errorf("chapter %d title = %q, want %q", i, chapters[i].Title, want)
		}
	}

	wantContent := []string{
		"<h2>One</h2><p>first</p><h3>Inner</h3><p>still one</p>",
		"<h2>Two</h2><p>second</p>",
		"<h2>Three</h2>",
	}
	for i, want := range wantContent {
		if chapters[i].Content != want {
			t.Errorf("chapter %d content = %q, want %q", i, chapters[i].Content, want)
		}
	}

	// Nothing before the first chapter heading leaks into it.
	if strings.Contains(chapters[0].Content, "Book") || strings.Contains(chapters[0].Content, "Author") {
		t.Errorf("chapter 0 contains preamble: %q", chapters[0].Content)
	}
	if doc.ChapterCount() != 3 {
		t.Errorf("ChapterCount() = %d, want 3", doc.ChapterCount())
	}
}

func TestDocument_Chapters_TextAndCommentSiblings(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "<h2>A</h2>loose &amp; text<!-- note --><p>p</p>\n<h2>B</h2>tail")

	chapters, err := doc.Chapters(echoWrapper{}, slug.NewRegistry())
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("len(Chapters()) = %d, want 2", len(chapters))
	}
	if want := "<h2>A</h2>loose &amp; text<!-- note --><p>p</p>\n"; chapters[0].Content != want {
		t.Errorf("chapter 0 content = %q, want %q", chapters[0].Content, want)
	}
	if want := "<h2>B</h2>tail"; chapters[1].Content != want {
		t.Errorf("chapter 1 content = %q, want %q", chapters[1].Content, want)
	}
}

func TestDocument_Chapters_NestedHeadingStopsAtParentEnd(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "<h2>Top</h2><p>a</p><blockquote><h2>Quoted</h2><p>q</p></blockquote><p>after</p>")

	chapters, err := doc.Chapters(echoWrapper{}, slug.NewRegistry())
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("len(Chapters()) = %d, want 2", len(chapters))
	}
	if want := "<h2>Quoted</h2><p>q</p>"; chapters[1].Content != want {
		t.Errorf("nested chapter content = %q, want %q", chapters[1].Content, want)
	}
	if !strings.HasSuffix(chapters[0].Content, "<p>after</p>") {
		t.Errorf("outer chapter should keep later siblings: %q", chapters[0].Content)
	}
}

func TestDocument_Chapters_DuplicateTitles(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "<h2>Introduction</h2><p>a</p><h2>Introduction</h2><p>b</p>")

	chapters, err := doc.Chapters(echoWrapper{}, slug.NewRegistry())
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("len(Chapters()) = %d, want 2", len(chapters))
	}
	if chapters[0].Slug != "introduction" || chapters[1].Slug != "introduction-" {
		t.Errorf("slugs = %q, %q, want introduction, introduction-", chapters[0].Slug, chapters[1].Slug)
	}
	if chapters[0].Title != chapters[1].Title {
		t.Error("titles should keep the original heading text")
	}
}

func TestDocument_Chapters_WrappedWithEscapedTitle(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "<h2>Tom &amp; Jerry</h2><p>x</p>")

	chapters, err := doc.Chapters(echoWrapper{}, slug.NewRegistry())
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	if chapters[0].Title != "Tom & Jerry" {
		t.Errorf("Title = %q, want %q", chapters[0].Title, "Tom & Jerry")
	}
	want := `<doc title="Tom &amp; Jerry">` + chapters[0].Content + "</doc>"
	if chapters[0].HTML != want {
		t.Errorf("HTML = %q, want %q", chapters[0].HTML, want)
	}
	if chapters[0].Slug != "tom-jerry" {
		t.Errorf("Slug = %q, want %q", chapters[0].Slug, "tom-jerry")
	}
}

func TestDocument_Chapters_NoChapterHeadings(t *testing.T) {
	t.Parallel()

	t.Run("whole body becomes one chapter", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, "<h1>Book</h1><h3>Author</h3><p>only text</p>")

		chapters, err := doc.Chapters(echoWrapper{}, slug.NewRegistry())
		if err != nil {
			t.Fatalf("Chapters() error = %v", err)
		}
		if len(chapters) != 1 {
			t.Fatalf("len(Chapters()) = %d, want 1", len(chapters))
		}
		if chapters[0].Title != "Book" || chapters[0].Slug != "book" {
			t.Errorf("chapter = %q/%q, want Book/book", chapters[0].Title, chapters[0].Slug)
		}
		if chapters[0].Content != "<h1>Book</h1><h3>Author</h3><p>only text</p>" {
			t.Errorf("Content = %q", chapters[0].Content)
		}
	})

	t.Run("requires a title", func(t *testing.T) {
		t.Parallel()

		_, err := mustParse(t, "<p>nothing</p>").Chapters(echoWrapper{}, slug.NewRegistry())
		if !errors.Is(err, ErrStructure) {
			t.Errorf("Chapters() error = %v, want ErrStructure", err)
		}
	})
}

func TestDocument_Chapters_WrapperError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("template gone")
	_, err := mustParse(t, "<h2>A</h2>").Chapters(echoWrapper{err: wantErr}, slug.NewRegistry())
	if !errors.Is(err, wantErr) {
		t.Errorf("Chapters() error = %v, want %v", err, wantErr)
	}
}
