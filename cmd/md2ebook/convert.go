package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	md2ebook "github.com/alnah/go-md2ebook"
	"github.com/alnah/go-md2ebook/internal/config"
	"github.com/alnah/go-md2ebook/internal/hints"
	"github.com/alnah/go-md2ebook/internal/kindlegen"
)

// Sentinel errors for the convert command.
var (
	ErrNoInput            = errors.New("no input file specified")
	ErrNoFormats          = errors.New("every output format is disabled")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// conversionParams holds the merged per-file settings of a batch.
type conversionParams struct {
	outDir    string
	formats   []string // In output order
	language  string
	publisher string
	date      string
	page      *md2ebook.PageSettings
	kindlegen string // For hints
	logger    *zap.Logger
}

// runConvert converts every file in args.
func runConvert(ctx context.Context, env *Environment, flags *convertFlags, args []string) error {
	cfg := config.DefaultConfig()
	if flags.common.config != "" {
		loaded, err := config.LoadConfig(flags.common.config)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return fmt.Errorf("%w%s", err, hints.ConfigNotFound(config.SearchPaths(flags.common.config)))
			}
			return err
		}
		cfg = loaded
	}

	if err := validateWorkers(flags.render.workers); err != nil {
		return err
	}

	params, err := buildParams(cfg, flags, env.Logger)
	if err != nil {
		return err
	}

	jobs := buildJobs(args, flags.output.covers)
	if extra := len(flags.output.covers) - len(args); extra > 0 {
		env.Logger.Warn("more covers than input files, extra covers ignored", zap.Int("extra", extra))
	}

	poolSize := min(md2ebook.ResolvePoolSize(flags.render.workers), len(jobs))
	env.Logger.Debug("starting conversion",
		zap.Int("files", len(jobs)),
		zap.Int("workers", poolSize),
		zap.Strings("formats", params.formats))

	pool := env.NewPool(poolSize, buildOptions(cfg, flags, env.Logger)...)
	defer func() {
		if err := pool.Close(); err != nil {
			env.Logger.Warn("closing converter pool", zap.Error(err))
		}
	}()

	// Fail fast on converter options (style, asset path) before the batch.
	conv, err := pool.Acquire()
	if err != nil {
		return withHint(err, params)
	}
	pool.Release(conv)

	results := convertBatch(ctx, pool, jobs, params)
	failed := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if failed == 0 {
		return nil
	}
	if len(results) == 1 {
		return &reportedError{code: exitCodeFor(results[0].Err)}
	}
	return &reportedError{code: ExitGeneral}
}

// validateWorkers checks the --workers value.
func validateWorkers(n int) error {
	if n < 0 || n > md2ebook.MaxPoolSize {
		return fmt.Errorf("%w: %d (must be 0 for auto or 1-%d)", ErrInvalidWorkerCount, n, md2ebook.MaxPoolSize)
	}
	return nil
}

// buildParams merges config and flags into per-file settings.
// Command line flags win over the config file.
func buildParams(cfg *config.Config, flags *convertFlags, logger *zap.Logger) (*conversionParams, error) {
	params := &conversionParams{
		outDir:    cfg.Output.DefaultDir,
		language:  cfg.Book.Language,
		publisher: cfg.Book.Publisher,
		date:      cfg.Book.Date,
		kindlegen: cfg.Kindlegen.Path,
		logger:    logger,
	}
	if flags.output.dir != "" {
		params.outDir = flags.output.dir
	}
	if flags.book.lang != "" {
		params.language = flags.book.lang
	}
	if flags.render.kindlegen != "" {
		params.kindlegen = flags.render.kindlegen
	}
	if params.kindlegen == "" {
		params.kindlegen = kindlegen.DefaultBinary
	}

	for _, format := range config.Formats {
		if cfg.SkipsFormat(format) || flags.output.skipped(format) {
			continue
		}
		params.formats = append(params.formats, format)
	}
	if len(params.formats) == 0 {
		return nil, ErrNoFormats
	}

	page := &md2ebook.PageSettings{
		Size:        firstNonEmpty(flags.render.pageSize, cfg.Page.Size),
		Orientation: firstNonEmpty(flags.render.orientation, cfg.Page.Orientation),
		Margin:      cfg.Page.Margin,
	}
	if flags.render.margin != 0 {
		page.Margin = flags.render.margin
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if *page != (md2ebook.PageSettings{}) {
		params.page = page
	}

	return params, nil
}

// buildOptions maps config and flags onto converter options.
func buildOptions(cfg *config.Config, flags *convertFlags, logger *zap.Logger) []md2ebook.Option {
	opts := []md2ebook.Option{
		md2ebook.WithLogger(logger),
		md2ebook.WithStyle(firstNonEmpty(flags.render.style, cfg.Style)),
		md2ebook.WithKindlegen(firstNonEmpty(flags.render.kindlegen, cfg.Kindlegen.Path)),
	}
	if dir := firstNonEmpty(flags.render.assetPath, cfg.Assets.BasePath); dir != "" {
		opts = append(opts, md2ebook.WithAssetPath(dir))
	}
	if d := firstPositive(flags.render.timeout, cfg.PDFTimeout()); d > 0 {
		opts = append(opts, md2ebook.WithTimeout(d))
	}
	if d := firstPositive(flags.render.kindlegenTimeout, cfg.KindlegenTimeout()); d > 0 {
		opts = append(opts, md2ebook.WithKindlegenTimeout(d))
	}
	return opts
}

// buildJobs pairs each input with the cover at the same position.
func buildJobs(inputs, covers []string) []bookJob {
	jobs := make([]bookJob, len(inputs))
	for i, in := range inputs {
		jobs[i] = bookJob{InputPath: in}
		if i < len(covers) {
			jobs[i].CoverPath = covers[i]
		}
	}
	return jobs
}

// withHint appends the actionable hint matching err, if any.
func withHint(err error, params *conversionParams) error {
	var hint string
	switch {
	case errors.Is(err, md2ebook.ErrBrowserConnect):
		hint = hints.System().BrowserConnect()
	case errors.Is(err, md2ebook.ErrKindlegenNotFound):
		hint = hints.KindlegenNotFound(params.kindlegen)
	case errors.Is(err, md2ebook.ErrKindlegenTimeout):
		hint = hints.KindlegenTimeout()
	case errors.Is(err, md2ebook.ErrPageLoad), errors.Is(err, md2ebook.ErrPDFGeneration):
		hint = hints.Timeout()
	case errors.Is(err, md2ebook.ErrStructure):
		hint = hints.Structure()
	case errors.Is(err, md2ebook.ErrReadCover), errors.Is(err, md2ebook.ErrUnsupportedImage):
		hint = hints.CoverImage()
	case errors.Is(err, md2ebook.ErrStyleNotFound):
		hint = hints.StyleNotFound(md2ebook.StyleNames())
	case errors.Is(err, md2ebook.ErrWriteOutput):
		hint = hints.OutputDirectory()
	}
	if hint == "" || err == nil {
		return err
	}
	return fmt.Errorf("%w%s", err, hint)
}

func firstNonEmpty(values ...string) string {
	if i := slices.IndexFunc(values, func(v string) bool { return v != "" }); i >= 0 {
		return values[i]
	}
	return ""
}

func firstPositive[T ~int64](values ...T) T {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
