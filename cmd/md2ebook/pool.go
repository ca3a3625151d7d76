package main

import (
	"context"

	md2ebook "github.com/alnah/go-md2ebook"
)

// Book exposes the artifacts of one opened markdown document.
type Book interface {
	HTML(ctx context.Context) ([]byte, error)
	PDF(ctx context.Context) ([]byte, error)
	EPUB(ctx context.Context) ([]byte, error)
	MOBI(ctx context.Context) ([]byte, error)
}

// BookConverter opens markdown documents.
type BookConverter interface {
	Open(ctx context.Context, input md2ebook.Input) (Book, error)
}

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() (BookConverter, error)
	Release(BookConverter)
	Size() int
	Close() error
}

// Compile-time interface implementation checks.
var (
	_ Book          = (*md2ebook.Conversion)(nil)
	_ BookConverter = (*converterAdapter)(nil)
	_ Pool          = (*poolAdapter)(nil)
)

// converterAdapter narrows *md2ebook.Converter to BookConverter.
type converterAdapter struct {
	conv *md2ebook.Converter
}

func (a *converterAdapter) Open(ctx context.Context, input md2ebook.Input) (Book, error) {
	doc, err := a.conv.Open(ctx, input)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// poolAdapter wraps *md2ebook.ConverterPool to implement Pool.
type poolAdapter struct {
	pool *md2ebook.ConverterPool
}

// newConverterPool is the production Environment.NewPool.
func newConverterPool(size int, opts ...md2ebook.Option) Pool {
	return &poolAdapter{pool: md2ebook.NewConverterPool(size, opts...)}
}

func (a *poolAdapter) Acquire() (BookConverter, error) {
	conv, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return &converterAdapter{conv: conv}, nil
}

// Release panics on a converter this pool did not hand out.
func (a *poolAdapter) Release(c BookConverter) {
	ca, ok := c.(*converterAdapter)
	if !ok {
		panic("poolAdapter.Release: unexpected type")
	}
	a.pool.Release(ca.conv)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

func (a *poolAdapter) Close() error {
	return a.pool.Close()
}
