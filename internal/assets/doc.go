// Package assets serves the page template and the stylesheets used to
// build every HTML, PDF and EPUB page.
//
// Assets live in two directories, under the embedded assets or under a
// custom base path:
//
//	styles/{name}.css
//	templates/{name}.html
//
// The html-boilerplate template must contain the {title} and {body}
// placeholders. An AssetResolver reads the custom directory first and
// falls back to the embedded assets for anything it does not provide.
//
// Asset names are plain words: separators and dots are rejected, and
// files of a custom directory must not resolve outside it.
package assets
