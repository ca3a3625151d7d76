package main

import (
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2ebook/internal/config"
)

// commonFlags holds flags shared by every invocation.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// outputFlags selects where and what is written.
type outputFlags struct {
	dir    string
	covers []string
	skip   map[string]*bool // format -> --no-<format>
}

// bookFlags holds EPUB metadata overrides.
type bookFlags struct {
	lang string
}

// renderFlags tunes the converters.
type renderFlags struct {
	workers          int
	timeout          time.Duration
	kindlegen        string
	kindlegenTimeout time.Duration
	style            string
	assetPath        string
	pageSize         string
	orientation      string
	margin           float64
}

// convertFlags holds all flags of the root convert command.
type convertFlags struct {
	common commonFlags
	output outputFlags
	book   bookFlags
	render renderFlags
}

// addConvertFlags registers the convert flags on fs.
func addConvertFlags(fs *flag.FlagSet, f *convertFlags) {
	fs.StringVar(&f.common.config, "config", "", "config name or path")
	fs.BoolVarP(&f.common.quiet, "quiet", "q", false, "only print errors")
	fs.BoolVarP(&f.common.verbose, "verbose", "v", false, "print timings and debug logs")

	fs.StringVarP(&f.output.dir, "output", "o", "", "output directory (default: beside each input)")
	fs.StringSliceVarP(&f.output.covers, "covers", "c", nil, "cover images, matched to input files by position")
	f.output.skip = make(map[string]*bool, len(config.Formats))
	for _, format := range config.Formats {
		f.output.skip[format] = fs.Bool("no-"+format, false, fmt.Sprintf("do not write the .%s file", format))
	}

	fs.StringVar(&f.book.lang, "lang", "", "book language as a BCP 47 tag (default: en)")

	fs.IntVarP(&f.render.workers, "workers", "w", 0, "parallel conversions, 0 = auto")
	fs.DurationVarP(&f.render.timeout, "timeout", "t", 0, "PDF rendering timeout (default: 30s)")
	fs.StringVar(&f.render.kindlegen, "kindlegen", "", "kindlegen executable (default: kindlegen on PATH)")
	fs.DurationVar(&f.render.kindlegenTimeout, "kindlegen-timeout", 0, "kindlegen timeout per book (default: 2m)")
	fs.StringVar(&f.render.style, "style", "", "style name, CSS file path or inline CSS")
	fs.StringVar(&f.render.assetPath, "asset-path", "", "directory overriding embedded styles and templates")
	fs.StringVar(&f.render.pageSize, "page-size", "", "PDF page size: letter, a4, legal")
	fs.StringVar(&f.render.orientation, "orientation", "", "PDF orientation: portrait, landscape")
	fs.Float64Var(&f.render.margin, "margin", 0, "PDF margin in inches (default: 0.5)")
}

// skipped reports whether --no-<format> was given.
func (f *outputFlags) skipped(format string) bool {
	p, ok := f.skip[format]
	return ok && *p
}

// normalizeLegacyArgs rewrites the historical single-dash format switches
// (-html, -pdf, -epub, -mobi, -prc) into their --no-<format> spelling.
// Arguments after "--" are left alone.
func normalizeLegacyArgs(args []string) []string {
	legacy := make(map[string]string, len(config.Formats))
	for _, format := range config.Formats {
		legacy["-"+format] = "--no-" + format
	}

	out := make([]string, len(args))
	for i, arg := range args {
		if arg == "--" {
			copy(out[i:], args[i:])
			break
		}
		if repl, ok := legacy[strings.ToLower(arg)]; ok {
			arg = repl
		}
		out[i] = arg
	}
	return out
}
