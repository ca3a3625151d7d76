// Package hints builds the short "hint:" lines appended to CLI errors.
//
// Every hint renders as "\n  hint: <text>". Several suggestions for the
// same failure share one line, separated by "; ".
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-md2ebook/internal/fileutil"
)

const prefix = "\n  hint: "

// ciVariables are set by the CI services whose runners lack a Chrome sandbox.
var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// Probe inspects the process environment. Tests build one from a map.
type Probe struct {
	Getenv func(key string) string
	Exists func(path string) bool
}

// System returns a Probe over the real environment and file system.
func System() Probe {
	return Probe{Getenv: os.Getenv, Exists: fileutil.FileExists}
}

// Container reports whether the process runs in a container, with the
// signal that gave it away.
func (p Probe) Container() (bool, string) {
	if p.Getenv("MD2EBOOK_CONTAINER") == "1" {
		return true, "MD2EBOOK_CONTAINER=1"
	}
	if p.Exists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	if v := p.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if p.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// CI reports whether a known CI service variable is set.
func (p Probe) CI() bool {
	for _, v := range ciVariables {
		if p.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// NeedsNoSandbox reports whether Chrome likely needs ROD_NO_SANDBOX=1 and
// it is not set yet.
func (p Probe) NeedsNoSandbox() bool {
	if p.Getenv("ROD_NO_SANDBOX") == "1" {
		return false
	}
	inContainer, _ := p.Container()
	return inContainer || p.CI()
}

// BrowserConnect suggests fixes for a Chrome that failed to start.
func (p Probe) BrowserConnect() string {
	var tips []string
	if p.NeedsNoSandbox() {
		tips = append(tips, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if p.Getenv("ROD_BROWSER_BIN") == "" {
		tips = append(tips, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	return line(append(tips, "or skip PDF output with --no-pdf")...)
}

// Timeout suggests raising the PDF render timeout.
func Timeout() string {
	return line("for large books, raise --timeout")
}

// KindlegenNotFound names the binary that was looked up and how to skip
// Kindle output.
func KindlegenNotFound(binary string) string {
	return line(
		"install kindlegen or point --kindlegen at it (looked for "+binary+")",
		"use --no-mobi --no-prc to skip Kindle output",
	)
}

// KindlegenTimeout suggests raising the kindlegen timeout.
func KindlegenTimeout() string {
	return line("large books with images may need a higher --kindlegen-timeout")
}

// Structure recalls the heading layout a book needs.
func Structure() string {
	return line("start the file with '# Title', add '### Author' and open chapters with '## Chapter'")
}

// CoverImage lists the cover formats that can be decoded.
func CoverImage() string {
	return line("supported cover formats: JPEG, PNG, GIF, WebP")
}

// ConfigNotFound points at --config, and at the per-user config location
// when it was among the searched paths.
func ConfigNotFound(searched []string) string {
	tip := "use --config /path/to/file.yaml"
	for _, p := range searched {
		if strings.Contains(strings.ReplaceAll(p, `\`, "/"), ".config/go-md2ebook") {
			tip += " or create " + p
			break
		}
	}
	return line(tip)
}

// OutputDirectory is shown when the output directory cannot be written.
func OutputDirectory() string {
	return line("check parent directory exists and is writable")
}

// StyleNotFound lists the available styles. Empty when there are none.
func StyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return line("available: " + strings.Join(available, ", "))
}

// line renders tips as one hint line. No tips renders nothing.
func line(tips ...string) string {
	if len(tips) == 0 {
		return ""
	}
	return prefix + strings.Join(tips, "; ")
}
