// Package kindlegen compiles EPUB packages into MOBI files with Amazon's
// kindlegen tool.
//
// Every compilation runs in its own temporary directory, removed when
// Compile returns, so concurrent compilations never share files.
package kindlegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-md2ebook/internal/process"
)

// Defaults used when no option overrides them.
const (
	DefaultBinary  = "kindlegen"
	DefaultTimeout = 2 * time.Minute
)

// File names inside the per-compilation temp directory.
const (
	inputName  = "book.epub"
	outputName = "book.mobi"
)

// maxOutputTail bounds how much tool output is quoted in errors.
const maxOutputTail = 512

// Sentinel errors for MOBI compilation.
var (
	ErrKindlegen = errors.New("kindlegen failed")
	ErrNotFound  = errors.New("kindlegen executable not found")
	ErrTimeout   = errors.New("kindlegen timed out")
)

// CommandRunner runs an external command in dir and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec in a dedicated process group.
// Cancelling ctx kills the whole group.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- tool path comes from user configuration
	cmd.Dir = dir
	process.SetProcessGroup(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = 5 * time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithBinary sets the kindlegen executable name or path.
func WithBinary(path string) Option {
	return func(c *Compiler) {
		if path != "" {
			c.binary = path
		}
	}
}

// WithTimeout bounds a single compilation. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Compiler) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRunner replaces the command runner.
func WithRunner(r CommandRunner) Option {
	return func(c *Compiler) {
		c.runner = r
	}
}

// WithTempDir sets the parent of the per-compilation directories.
func WithTempDir(dir string) Option {
	return func(c *Compiler) {
		c.tempDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// Compiler turns EPUB bytes into MOBI bytes.
type Compiler struct {
	binary  string
	timeout time.Duration
	runner  CommandRunner
	tempDir string
	logger  *zap.Logger
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		binary:  DefaultBinary,
		timeout: DefaultTimeout,
		runner:  ExecRunner{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binary returns the configured executable.
func (c *Compiler) Binary() string {
	return c.binary
}

// Compile runs `<binary> book.epub -c1 -o book.mobi` in a fresh temporary
// directory and returns the MOBI bytes.
//
// kindlegen exits with status 1 when it only emitted warnings, so a failing
// exit status is tolerated as long as the output file was produced.
func (c *Compiler) Compile(ctx context.Context, epub []byte) ([]byte, error) {
	dir, err := os.MkdirTemp(c.tempDir, "md2ebook-kindlegen-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp dir: %v", ErrKindlegen, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			c.logger.Warn("removing kindlegen temp dir", zap.String("dir", dir), zap.Error(err))
		}
	}()

	inPath := filepath.Join(dir, inputName)
	if err := os.WriteFile(inPath, epub, 0o600); err != nil {
		return nil, fmt.Errorf("%w: writing EPUB: %v", ErrKindlegen, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	output, runErr := c.runner.Run(runCtx, dir, c.binary, inPath, "-c1", "-o", outputName)
	c.logger.Debug("kindlegen finished",
		zap.String("binary", c.binary),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(runErr))

	if runErr != nil {
		if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, c.binary, runErr)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w after %s", ErrKindlegen, ErrTimeout, c.timeout)
		}
	}

	mobi, readErr := os.ReadFile(filepath.Join(dir, outputName)) // #nosec G304 -- path inside our temp dir
	if readErr != nil || len(mobi) == 0 {
		if runErr != nil {
			return nil, fmt.Errorf("%w: %v: %s", ErrKindlegen, runErr, tail(output))
		}
		return nil, fmt.Errorf("%w: no output produced: %s", ErrKindlegen, tail(output))
	}

	if runErr != nil {
		c.logger.Warn("kindlegen reported warnings", zap.Error(runErr), zap.String("output", tail(output)))
	}
	return mobi, nil
}

// tail returns the last maxOutputTail bytes of output, trimmed.
func tail(output string) string {
	output = strings.TrimSpace(output)
	if len(output) > maxOutputTail {
		output = "..." + output[len(output)-maxOutputTail:]
	}
	return output
}
