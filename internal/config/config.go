// Package config loads md2ebook YAML configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/alnah/go-md2ebook/internal/dateutil"
	"github.com/alnah/go-md2ebook/internal/fileutil"
	"github.com/alnah/go-md2ebook/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppDir is the directory under the user config dir searched for configs.
const AppDir = "go-md2ebook"

// Formats lists the output formats a config may skip, in output order.
var Formats = []string{"html", "pdf", "epub", "mobi", "prc"}

// Field length limits.
const (
	MaxPathLength        = 4096
	MaxPublisherLength   = 200
	MaxLanguageLength    = 35 // BCP 47 tags rarely exceed this
	MaxDateLength        = 30
	MaxStyleLength       = 4096 // names, paths or inline CSS
	MaxPageSizeLength    = 10   // "letter", "a4", "legal"
	MaxOrientationLength = 10   // "portrait", "landscape"
	MaxDurationLength    = 20
)

// Config holds all configuration for ebook generation.
type Config struct {
	Output    OutputConfig    `yaml:"output"`
	Formats   FormatsConfig   `yaml:"formats"`
	Book      BookConfig      `yaml:"book"`
	Style     string          `yaml:"style"`
	Assets    AssetsConfig    `yaml:"assets"`
	Page      PageConfig      `yaml:"page"`
	PDF       PDFConfig       `yaml:"pdf"`
	Kindlegen KindlegenConfig `yaml:"kindlegen"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = beside each source file
}

// FormatsConfig selects output formats.
type FormatsConfig struct {
	Skip []string `yaml:"skip"` // Formats never generated
}

// BookConfig holds package metadata not found in the markdown.
type BookConfig struct {
	Language  string `yaml:"language"`  // BCP 47 tag, default "en"
	Publisher string `yaml:"publisher"` // Optional
	Date      string `yaml:"date"`      // "auto", "auto:year|month|day" or YYYY[-MM[-DD]]
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal"
	Orientation string  `yaml:"orientation"` // "portrait", "landscape"
	Margin      float64 `yaml:"margin"`      // inches
}

// PDFConfig defines PDF rendering options.
type PDFConfig struct {
	Timeout string `yaml:"timeout"` // Go duration, e.g. "45s"
}

// KindlegenConfig defines MOBI compilation options.
type KindlegenConfig struct {
	Path    string `yaml:"path"`    // Executable name or path
	Timeout string `yaml:"timeout"` // Go duration, e.g. "2m"
}

// SkipsFormat reports whether format is listed in formats.skip.
func (c *Config) SkipsFormat(format string) bool {
	return slices.ContainsFunc(c.Formats.Skip, func(s string) bool {
		return strings.EqualFold(s, format)
	})
}

// PDFTimeout returns pdf.timeout, or 0 when unset.
func (c *Config) PDFTimeout() time.Duration {
	d, _ := parseDuration(c.PDF.Timeout)
	return d
}

// KindlegenTimeout returns kindlegen.timeout, or 0 when unset.
func (c *Config) KindlegenTimeout() time.Duration {
	d, _ := parseDuration(c.Kindlegen.Timeout)
	return d
}

// Validate checks field lengths and values.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"book.language", c.Book.Language, MaxLanguageLength},
		{"book.publisher", c.Book.Publisher, MaxPublisherLength},
		{"book.date", c.Book.Date, MaxDateLength},
		{"style", c.Style, MaxStyleLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"page.size", c.Page.Size, MaxPageSizeLength},
		{"page.orientation", c.Page.Orientation, MaxOrientationLength},
		{"pdf.timeout", c.PDF.Timeout, MaxDurationLength},
		{"kindlegen.path", c.Kindlegen.Path, MaxPathLength},
		{"kindlegen.timeout", c.Kindlegen.Timeout, MaxDurationLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	for _, f := range c.Formats.Skip {
		if !slices.Contains(Formats, strings.ToLower(f)) {
			return fmt.Errorf("%w: formats.skip: unknown format %q (must be one of %s)",
				ErrInvalidValue, f, strings.Join(Formats, ", "))
		}
	}

	if c.Book.Language != "" {
		if _, err := language.Parse(c.Book.Language); err != nil {
			return fmt.Errorf("%w: book.language: %q is not a BCP 47 tag", ErrInvalidValue, c.Book.Language)
		}
	}

	if err := dateutil.Validate(c.Book.Date); err != nil {
		return fmt.Errorf("%w: book.date: %w", ErrInvalidValue, err)
	}

	if c.Page.Margin < 0 {
		return fmt.Errorf("%w: page.margin: must not be negative, got %.2f", ErrInvalidValue, c.Page.Margin)
	}

	for field, value := range map[string]string{
		"pdf.timeout":       c.PDF.Timeout,
		"kindlegen.timeout": c.Kindlegen.Timeout,
	} {
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
	}

	return nil
}

// parseDuration parses an optional positive duration.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration generating every format with
// embedded assets.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in SearchPaths.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := yamlutil.ReadFileStrict(configPath, &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths lists where a config name is looked up, in order:
// the current directory then the user config directory, each with
// .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppDir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing entry of SearchPaths.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
