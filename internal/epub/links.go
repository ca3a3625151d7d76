package epub

import "regexp"

var (
	idAttr       = regexp.MustCompile(`\sid="([^"]+)"`)
	fragmentHref = regexp.MustCompile(`href="#([^"]+)"`)
)

// linkAcrossChapters returns each chapter's HTML with fragment links
// retargeted at the chapter file holding the anchor. Goldmark writes the
// footnote list once at the end of the document, so it lands in the last
// chapter while its references sit in earlier ones.
// Links to anchors in the same chapter or to unknown anchors are kept.
func linkAcrossChapters(chapters []Chapter) []string {
	owner := make(map[string]string) // anchor -> chapter href, first wins
	local := make([]map[string]bool, len(chapters))
	for i, ch := range chapters {
		local[i] = make(map[string]bool)
		for _, m := range idAttr.FindAllStringSubmatch(ch.HTML, -1) {
			local[i][m[1]] = true
			if _, ok := owner[m[1]]; !ok {
				owner[m[1]] = chapterHref(ch)
			}
		}
	}

	out := make([]string, len(chapters))
	for i, ch := range chapters {
		out[i] = fragmentHref.ReplaceAllStringFunc(ch.HTML, func(link string) string {
			anchor := fragmentHref.FindStringSubmatch(link)[1]
			href, ok := owner[anchor]
			if !ok || local[i][anchor] {
				return link
			}
			return `href="` + href + `#` + anchor + `"`
		})
	}
	return out
}
