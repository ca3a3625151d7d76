// Package pipeline implements the markdown to HTML stages shared by every
// output format.
//
// The stages are:
//   - markdown preprocessing (line endings, ==highlight== syntax)
//   - markdown to HTML fragment conversion via goldmark
//   - wrapping fragments in the HTML boilerplate template
//   - stylesheet injection
//   - PDF preparation (page breaks, outline levels, local resource paths)
//
// Rendering the prepared document to PDF is left to the root package,
// which drives headless Chrome.
package pipeline
