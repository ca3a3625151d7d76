package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	md2ebook "github.com/alnah/go-md2ebook"
	"github.com/alnah/go-md2ebook/internal/fileutil"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// bookJob is one input file and its cover.
type bookJob struct {
	InputPath string
	CoverPath string // Empty = no cover
}

// ConversionResult holds the outcome of a single input file.
type ConversionResult struct {
	InputPath   string
	OutputPaths []string
	Err         error
	Duration    time.Duration
}

// artifactFile is an artifact ready to be written.
type artifactFile struct {
	path string
	data []byte
}

// convertBatch processes jobs concurrently using the converter pool.
// Results keep the order of jobs.
func convertBatch(ctx context.Context, pool Pool, jobs []bookJob, params *conversionParams) []ConversionResult {
	if len(jobs) == 0 {
		return nil
	}

	results := make([]ConversionResult, len(jobs))
	conflicts := outputConflicts(jobs, params.outDir)
	for i, err := range conflicts {
		results[i] = ConversionResult{InputPath: jobs[i].InputPath, Err: err}
	}
	pending := len(jobs) - len(conflicts)
	if pending == 0 {
		return results
	}

	concurrency := min(pool.Size(), pending)
	var wg sync.WaitGroup
	queue := make(chan int, pending)

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire()
			if err != nil {
				// Converter creation failed, drain the queue with the cause.
				for idx := range queue {
					results[idx] = ConversionResult{
						InputPath: jobs[idx].InputPath,
						Err:       err,
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: jobs[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, jobs[idx], params)
			}
		}()
	}

	for i := range jobs {
		if _, clash := conflicts[i]; !clash {
			queue <- i
		}
	}
	close(queue)

	wg.Wait()
	return results
}

// convertFile converts one input. Every requested artifact is built before
// anything is written, and a failed write removes the files written so
// far, so a failing input leaves no partial outputs.
func convertFile(ctx context.Context, conv BookConverter, job bookJob, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{InputPath: job.InputPath}
	fail := func(err error) ConversionResult {
		result.Err = withHint(err, params)
		result.Duration = time.Since(start)
		return result
	}

	content, err := os.ReadFile(job.InputPath) // #nosec G304 -- path given on the command line
	if err != nil {
		return fail(fmt.Errorf("%w: %s: %w", md2ebook.ErrReadMarkdown, job.InputPath, err))
	}

	input := md2ebook.Input{
		Markdown:  string(content),
		SourceDir: filepath.Dir(job.InputPath),
		Language:  params.language,
		Publisher: params.publisher,
		Date:      params.date,
		Page:      params.page,
	}
	if job.CoverPath != "" {
		input.Cover = &md2ebook.Cover{Path: job.CoverPath}
	}

	book, err := conv.Open(ctx, input)
	if err != nil {
		return fail(err)
	}

	files := make([]artifactFile, 0, len(params.formats))
	for _, format := range params.formats {
		data, err := render(ctx, book, format)
		if err != nil {
			return fail(fmt.Errorf("%s: %w", format, err))
		}
		files = append(files, artifactFile{
			path: fileutil.OutputPath(job.InputPath, params.outDir, "."+format),
			data: data,
		})
	}

	if params.outDir != "" {
		if err := os.MkdirAll(params.outDir, dirPermissions); err != nil {
			return fail(fmt.Errorf("%w: creating output directory: %w", md2ebook.ErrWriteOutput, err))
		}
	}

	for _, f := range files {
		// #nosec G306 -- books are meant to be readable
		if err := os.WriteFile(f.path, f.data, filePermissions); err != nil {
			removeOutputs(append(result.OutputPaths, f.path))
			result.OutputPaths = nil
			return fail(fmt.Errorf("%w: %s: %w", md2ebook.ErrWriteOutput, f.path, err))
		}
		result.OutputPaths = append(result.OutputPaths, f.path)
	}

	result.Duration = time.Since(start)
	params.logger.Debug("converted",
		zap.String("input", job.InputPath),
		zap.Int("outputs", len(result.OutputPaths)),
		zap.Duration("elapsed", result.Duration))
	return result
}

// removeOutputs deletes the regular files among paths. Anything else,
// such as a directory squatting on an output name, is left alone.
func removeOutputs(paths []string) {
	for _, p := range paths {
		if info, err := os.Lstat(p); err == nil && info.Mode().IsRegular() {
			_ = os.Remove(p)
		}
	}
}

// outputConflicts finds jobs whose outputs would land on the same paths,
// such as a/book.md and b/book.md with one output directory. Every job in
// a clash gets an error naming the other inputs.
func outputConflicts(jobs []bookJob, outDir string) map[int]error {
	byTarget := make(map[string][]int)
	for i, job := range jobs {
		target := fileutil.OutputPath(job.InputPath, outDir, "")
		if abs, err := filepath.Abs(target); err == nil {
			target = abs
		}
		byTarget[target] = append(byTarget[target], i)
	}

	conflicts := make(map[int]error)
	for target, idxs := range byTarget {
		if len(idxs) < 2 {
			continue
		}
		inputs := make([]string, len(idxs))
		for k, i := range idxs {
			inputs[k] = jobs[i].InputPath
		}
		for _, i := range idxs {
			conflicts[i] = fmt.Errorf("%w: inputs %s would all write %s.*, convert them in separate runs",
				ErrUsage, strings.Join(inputs, ", "), target)
		}
	}
	return conflicts
}

// render builds the artifact for format. PRC shares the MOBI bytes.
func render(ctx context.Context, book Book, format string) ([]byte, error) {
	switch format {
	case "html":
		return book.HTML(ctx)
	case "pdf":
		return book.PDF(ctx)
	case "epub":
		return book.EPUB(ctx)
	case "mobi", "prc":
		return book.MOBI(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrUsage, format)
	}
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs conversion results and returns the failure count.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		for _, out := range r.OutputPaths {
			fmt.Fprintf(env.Stdout, "Created %s\n", out)
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s done in %v\n", r.InputPath, r.Duration.Round(time.Millisecond))
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
