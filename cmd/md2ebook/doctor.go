package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"

	"github.com/alnah/go-md2ebook/internal/hints"
	"github.com/alnah/go-md2ebook/internal/kindlegen"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status    string        `json:"status"`
	Chrome    chromeInfo    `json:"chrome"`
	Kindlegen kindlegenInfo `json:"kindlegen"`
	Env       envInfo       `json:"environment"`
	System    systemInfo    `json:"system"`
	Warnings  []string      `json:"warnings,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// kindlegenInfo holds kindlegen detection results.
type kindlegenInfo struct {
	Found bool   `json:"found"`
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// newDoctorCmd builds the doctor command.
// Exit codes: 0 = ready (including warnings), 1 = errors found.
func newDoctorCmd(env *Environment) *cobra.Command {
	var (
		jsonOutput bool
		binary     string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check Chrome, kindlegen and the temp directory",
		Long: `doctor checks what md2ebook needs at run time.

Chrome or Chromium is needed for PDF output and kindlegen for MOBI and
PRC output; a missing tool is reported as a warning because the other
formats still work.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			result := runDoctor(env, binary)

			if jsonOutput {
				enc := json.NewEncoder(env.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(result)
			} else {
				printDoctorResult(env.Stdout, result)
			}

			if result.Status == statusErrors {
				return &reportedError{code: ExitGeneral}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&binary, "kindlegen", kindlegen.DefaultBinary, "kindlegen executable to look for")
	return cmd
}

// runDoctor performs all diagnostic checks.
func runDoctor(env *Environment, binary string) *doctorResult {
	probe := hints.System()
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  probe.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: probe.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkKindlegen(result, env.LookPath, binary)
	checkEnvironment(result, probe)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}

	return result
}

// checkChrome finds the browser used for PDF output: ROD_BROWSER_BIN when
// set, otherwise the first Chrome or Chromium rod can locate.
func checkChrome(result *doctorResult) {
	path := result.Env.BrowserBin
	if path == "" {
		found := false
		if path, found = launcher.LookPath(); !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found, PDF output unavailable. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}
	if _, err := os.Stat(path); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Chrome not found at %s, PDF output unavailable", path))
		return
	}

	result.Chrome = chromeInfo{Found: true, Path: path, Sandbox: result.Env.NoSandbox != "1"}
	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- detected browser path
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
		return
	}
	result.Chrome.Version = strings.TrimSpace(string(out))
}

// checkKindlegen looks binary up on PATH (or as a path).
func checkKindlegen(result *doctorResult, lookPath func(string) (string, error), binary string) {
	result.Kindlegen.Name = binary

	path, err := lookPath(binary)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("kindlegen not found (%s), MOBI and PRC output unavailable. Install it or pass --kindlegen", binary))
		return
	}

	result.Kindlegen.Found = true
	result.Kindlegen.Path = path
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, probe hints.Probe) {
	result.Env.Container, result.Env.ContainerHint = probe.Container()
	result.Env.CI = probe.CI()

	if probe.NeedsNoSandbox() {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// checkSystem verifies the temp directory used for PDF pages and
// kindlegen runs is writable.
func checkSystem(result *doctorResult) {
	f, err := os.CreateTemp("", "md2ebook-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(filepath.Clean(name))
	result.System.TempWritable = true
}

// Report line tags.
const (
	tagOK    = "[OK]"
	tagWarn  = "[WARN]"
	tagError = "[ERROR]"
)

// reportSection is one titled block of the human report.
type reportSection struct {
	title string
	lines [][2]string // tag, text
}

// sections lays the result out as the human report, in print order.
func (r *doctorResult) sections() []reportSection {
	chrome := reportSection{title: "Chrome/Chromium (PDF)"}
	if !r.Chrome.Found {
		chrome.lines = append(chrome.lines, [2]string{tagWarn, "Not found"})
	} else {
		chrome.lines = append(chrome.lines, [2]string{tagOK, "Found at " + r.Chrome.Path})
		if r.Chrome.Version != "" {
			chrome.lines = append(chrome.lines, [2]string{tagOK, "Version: " + r.Chrome.Version})
		}
		sandbox := "Sandbox: enabled"
		if !r.Chrome.Sandbox {
			sandbox = "Sandbox: disabled (ROD_NO_SANDBOX=1)"
		}
		chrome.lines = append(chrome.lines, [2]string{tagOK, sandbox})
	}

	kg := reportSection{title: "kindlegen (MOBI, PRC)"}
	if r.Kindlegen.Found {
		kg.lines = append(kg.lines, [2]string{tagOK, "Found at " + r.Kindlegen.Path})
	} else {
		kg.lines = append(kg.lines, [2]string{tagWarn, r.Kindlegen.Name + " not found"})
	}

	env := reportSection{title: "Environment", lines: [][2]string{
		{tagOK, "Platform: " + r.Env.OS + "/" + r.Env.Arch},
	}}
	if r.Env.Container {
		env.lines = append(env.lines, [2]string{tagOK, "Container: detected (" + r.Env.ContainerHint + ")"})
	}
	if r.Env.CI {
		env.lines = append(env.lines, [2]string{tagOK, "CI: detected"})
	}

	sys := reportSection{title: "System", lines: [][2]string{{tagOK, "Temp directory: writable"}}}
	if !r.System.TempWritable {
		sys.lines[0] = [2]string{tagError, "Temp directory: not writable"}
	}

	out := []reportSection{chrome, kg, env, sys}
	out = appendMessages(out, "Warnings:", tagWarn, r.Warnings)
	return appendMessages(out, "Errors:", tagError, r.Errors)
}

func appendMessages(out []reportSection, title, tag string, msgs []string) []reportSection {
	if len(msgs) == 0 {
		return out
	}
	sec := reportSection{title: title}
	for _, m := range msgs {
		sec.lines = append(sec.lines, [2]string{tag, m})
	}
	return append(out, sec)
}

var statusLines = map[string]string{
	statusReady:    "Ready to convert",
	statusWarnings: "Ready with warnings",
	statusErrors:   "Not ready (see errors above)",
}

// printDoctorResult writes the human-readable report.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprint(w, "md2ebook doctor\n\n")
	for _, sec := range r.sections() {
		fmt.Fprintln(w, sec.title)
		for _, l := range sec.lines {
			fmt.Fprintf(w, "  %s %s\n", l[0], l[1])
		}
		fmt.Fprintln(w)
	}
	if line, ok := statusLines[r.Status]; ok {
		fmt.Fprintf(w, "Status: %s\n", line)
	}
}
