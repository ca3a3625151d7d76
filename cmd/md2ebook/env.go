package main

import (
	"io"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	md2ebook "github.com/alnah/go-md2ebook"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, logging, tool lookup and pool construction.
type Environment struct {
	Now      func() time.Time
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *zap.Logger // Replaced per command from --verbose/--quiet
	LookPath func(file string) (string, error)
	NewPool  func(size int, opts ...md2ebook.Option) Pool
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:      time.Now,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Logger:   zap.NewNop(),
		LookPath: exec.LookPath,
		NewPool:  newConverterPool,
	}
}
