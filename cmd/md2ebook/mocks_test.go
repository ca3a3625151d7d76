package main

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	md2ebook "github.com/alnah/go-md2ebook"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Mock pool, converter and book
// ---------------------------------------------------------------------------

// mockBook returns fixed artifacts, or the error set for a format.
type mockBook struct {
	mu    sync.Mutex
	errs  map[string]error
	calls map[string]int
}

func (b *mockBook) artifact(format string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls == nil {
		b.calls = make(map[string]int)
	}
	b.calls[format]++
	if err := b.errs[format]; err != nil {
		return nil, err
	}
	return []byte(format + " bytes"), nil
}

func (b *mockBook) HTML(context.Context) ([]byte, error) { return b.artifact("html") }
func (b *mockBook) PDF(context.Context) ([]byte, error)  { return b.artifact("pdf") }
func (b *mockBook) EPUB(context.Context) ([]byte, error) { return b.artifact("epub") }
func (b *mockBook) MOBI(context.Context) ([]byte, error) { return b.artifact("mobi") }

func (b *mockBook) callCount(format string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[format]
}

// mockConverter records inputs and hands out books built by newBook.
type mockConverter struct {
	mu      sync.Mutex
	inputs  []md2ebook.Input
	openErr error
	errs    map[string]error // Per-format artifact errors
	books   []*mockBook
}

func (c *mockConverter) Open(_ context.Context, input md2ebook.Input) (Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, input)
	if c.openErr != nil {
		return nil, c.openErr
	}
	b := &mockBook{errs: c.errs}
	c.books = append(c.books, b)
	return b, nil
}

func (c *mockConverter) lastInput(t *testing.T) md2ebook.Input {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inputs) == 0 {
		t.Fatal("converter was never opened")
	}
	return c.inputs[len(c.inputs)-1]
}

// mockPool hands out a single shared converter.
type mockPool struct {
	mu         sync.Mutex
	conv       *mockConverter
	size       int
	acquireErr error
	acquired   int
	released   int
	closed     bool
	opts       []md2ebook.Option
}

func (p *mockPool) Acquire() (BookConverter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired++
	return p.conv, nil
}

func (p *mockPool) Release(BookConverter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}

func (p *mockPool) Size() int {
	if p.size == 0 {
		return 1
	}
	return p.size
}

func (p *mockPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// failingWith returns a per-format error map.
func failingWith(format string, err error) map[string]error {
	return map[string]error{format: err}
}

var errMock = errors.New("mock failure")

// newTestEnv returns an Environment whose pool is p and whose output is
// captured.
func newTestEnv(p *mockPool) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:      func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
		Stdout:   &stdout,
		Stderr:   &stderr,
		LookPath: func(string) (string, error) { return "", errMock },
		NewPool: func(size int, opts ...md2ebook.Option) Pool {
			p.mu.Lock()
			defer p.mu.Unlock()
			if p.size == 0 {
				p.size = size
			}
			p.opts = opts
			return p
		},
	}
	env.Logger = newLogger(&stderr, false, false)
	return env, &stdout, &stderr
}
