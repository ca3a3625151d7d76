package pipeline

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrPDFPreparation indicates the HTML document could not be prepared for printing.
var ErrPDFPreparation = errors.New("PDF preparation failed")

// chapterBreakStyle forces every chapter onto a new page.
const chapterBreakStyle = "break-before: page; page-break-before: always;"

// PrepareForPDF adjusts a complete HTML document before printing.
//
// Every h2 starts a new page. Headings h3 to h6 are turned into styled
// blocks so the PDF outline only lists the title and chapters. When
// sourceDir is set, relative img and link targets are resolved against it
// because the document is printed from a temporary location.
func PrepareForPDF(htmlContent, sourceDir string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPDFPreparation, err)
	}

	doc.Find("h2").Each(func(_ int, s *goquery.Selection) {
		appendStyle(s, chapterBreakStyle)
	})

	doc.Find("h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		demoteHeading(s.Get(0))
	})

	if sourceDir != "" {
		absDir, err := filepath.Abs(sourceDir)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrPDFPreparation, err)
		}
		doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
			rewriteAttr(s, "src", absDir)
		})
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			rewriteAttr(s, "href", absDir)
		})
	}

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPDFPreparation, err)
	}
	return out, nil
}

func appendStyle(s *goquery.Selection, style string) {
	existing := strings.TrimSpace(s.AttrOr("style", ""))
	if existing != "" && !strings.HasSuffix(existing, ";") {
		existing += ";"
	}
	if existing != "" {
		existing += " "
	}
	s.SetAttr("style", existing+style)
}

// demoteHeading turns <hN> into <div class="subheading level-N">.
// Chrome builds the document outline from heading elements only.
func demoteHeading(n *html.Node) {
	level := strings.TrimPrefix(n.Data, "h")
	n.Data = "div"
	n.DataAtom = atom.Div

	class := "subheading level-" + level
	for i, a := range n.Attr {
		if a.Key == "class" {
			n.Attr[i].Val = strings.TrimSpace(a.Val + " " + class)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}

// rewriteAttr resolves a relative path attribute against dir and stores it
// as a file:// URL. Paths escaping dir are left untouched.
func rewriteAttr(s *goquery.Selection, name, dir string) {
	val, ok := s.Attr(name)
	if !ok || !isRelativePath(val) {
		return
	}
	abs := filepath.Join(dir, val)
	if !isPathUnderDir(abs, dir) {
		return
	}
	s.SetAttr(name, pathToFileURL(abs))
}

// isRelativePath reports whether path is a local relative reference.
// URLs with a scheme, protocol-relative URLs, fragments and absolute paths
// are not.
func isRelativePath(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") || strings.HasPrefix(path, "//") {
		return false
	}
	if u, err := url.Parse(path); err == nil && u.Scheme != "" {
		return false
	}
	return !filepath.IsAbs(path)
}

func isPathUnderDir(absPath, dir string) bool {
	cleanDir := filepath.Clean(dir) + string(filepath.Separator)
	return strings.HasPrefix(filepath.Clean(absPath)+string(filepath.Separator), cleanDir)
}

func pathToFileURL(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return u.String()
}
