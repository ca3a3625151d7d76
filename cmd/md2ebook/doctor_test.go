package main

// Notes:
// - Chrome detection depends on system state, so tests assert on the
//   report shape rather than on whether Chrome was found.

import (
	"bytes"
	"encoding/json"
	"runtime"
	"strings"
	"testing"

	"github.com/alnah/go-md2ebook/internal/hints"
)

// ---------------------------------------------------------------------------
// TestDoctor_JSONOutput - JSON report structure
// ---------------------------------------------------------------------------

func TestDoctor_JSONOutput(t *testing.T) {
	t.Parallel()

	env, stdout, _ := newTestEnv(&mockPool{})
	env.LookPath = func(file string) (string, error) { return "/usr/local/bin/" + file, nil }

	code := runMain([]string{"doctor", "--json"}, env)

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout.String())
	}

	if result.Env.OS != runtime.GOOS || result.Env.Arch != runtime.GOARCH {
		t.Errorf("platform = %s/%s", result.Env.OS, result.Env.Arch)
	}
	if !result.Kindlegen.Found || result.Kindlegen.Path != "/usr/local/bin/kindlegen" {
		t.Errorf("kindlegen = %+v", result.Kindlegen)
	}

	valid := map[string]bool{statusReady: true, statusWarnings: true, statusErrors: true}
	if !valid[result.Status] {
		t.Errorf("invalid status %q", result.Status)
	}
	if result.Status == statusErrors && code != ExitGeneral {
		t.Errorf("exit code = %d for errors status", code)
	}
	if result.Status != statusErrors && code != ExitSuccess {
		t.Errorf("exit code = %d for %s status", code, result.Status)
	}
}

// ---------------------------------------------------------------------------
// TestDoctor_HumanOutput - Human readable report
// ---------------------------------------------------------------------------

func TestDoctor_HumanOutput(t *testing.T) {
	t.Parallel()

	env, stdout, _ := newTestEnv(&mockPool{})
	runMain([]string{"doctor"}, env)

	output := stdout.String()
	for _, section := range []string{
		"md2ebook doctor",
		"Chrome/Chromium (PDF)",
		"kindlegen (MOBI, PRC)",
		"Environment",
		"System",
		"Status:",
		runtime.GOOS + "/" + runtime.GOARCH,
	} {
		if !strings.Contains(output, section) {
			t.Errorf("output should contain %q", section)
		}
	}
}

// ---------------------------------------------------------------------------
// TestCheckKindlegen - kindlegen lookup
// ---------------------------------------------------------------------------

func TestCheckKindlegen(t *testing.T) {
	t.Parallel()

	t.Run("missing binary is a warning", func(t *testing.T) {
		t.Parallel()

		var result doctorResult
		var looked string
		checkKindlegen(&result, func(file string) (string, error) {
			looked = file
			return "", errMock
		}, "/opt/kg")

		if looked != "/opt/kg" {
			t.Errorf("looked up %q", looked)
		}
		if result.Kindlegen.Found {
			t.Error("Found should be false")
		}
		if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "/opt/kg") {
			t.Errorf("warnings = %v", result.Warnings)
		}
		if len(result.Errors) != 0 {
			t.Errorf("errors = %v, want none", result.Errors)
		}
	})

	t.Run("found binary", func(t *testing.T) {
		t.Parallel()

		var result doctorResult
		checkKindlegen(&result, func(string) (string, error) { return "/bin/kindlegen", nil }, "kindlegen")
		if !result.Kindlegen.Found || result.Kindlegen.Path != "/bin/kindlegen" || len(result.Warnings) != 0 {
			t.Errorf("result = %+v", result)
		}
	})
}

// ---------------------------------------------------------------------------
// TestCheckEnvironment - Container and CI warnings
// ---------------------------------------------------------------------------

func TestCheckEnvironment(t *testing.T) {
	t.Parallel()

	probe := func(vars map[string]string) hints.Probe {
		return hints.Probe{
			Getenv: func(k string) string { return vars[k] },
			Exists: func(string) bool { return false },
		}
	}

	tests := []struct {
		name          string
		vars          map[string]string
		wantContainer bool
		wantCI        bool
		wantWarning   bool
	}{
		{"desktop", nil, false, false, false},
		{"container", map[string]string{"MD2EBOOK_CONTAINER": "1"}, true, false, true},
		{"CI", map[string]string{"GITLAB_CI": "true"}, false, true, true},
		{"CI with sandbox disabled", map[string]string{"CI": "1", "ROD_NO_SANDBOX": "1"}, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := &doctorResult{}
			checkEnvironment(result, probe(tt.vars))
			if result.Env.Container != tt.wantContainer || result.Env.CI != tt.wantCI {
				t.Errorf("Env = %+v", result.Env)
			}
			if got := len(result.Warnings) > 0; got != tt.wantWarning {
				t.Errorf("warnings = %v, want warning %v", result.Warnings, tt.wantWarning)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestCheckSystem - Temp directory check
// ---------------------------------------------------------------------------

func TestCheckSystem(t *testing.T) {
	t.Parallel()

	var result doctorResult
	checkSystem(&result)
	if !result.System.TempWritable {
		t.Errorf("temp dir should be writable in tests, errors = %v", result.Errors)
	}
}

// ---------------------------------------------------------------------------
// TestPrintDoctorResult - Report layout
// ---------------------------------------------------------------------------

func TestPrintDoctorResult(t *testing.T) {
	t.Parallel()

	result := &doctorResult{
		Status:    statusErrors,
		Chrome:    chromeInfo{Found: true, Path: "/usr/bin/chromium", Version: "Chromium 120", Sandbox: false},
		Kindlegen: kindlegenInfo{Name: "kindlegen"},
		Env:       envInfo{OS: "linux", Arch: "amd64", Container: true, ContainerHint: "/.dockerenv"},
		Warnings:  []string{"kindlegen not found"},
		Errors:    []string{"Temp directory not writable: /tmp"},
	}

	var buf bytes.Buffer
	printDoctorResult(&buf, result)
	out := buf.String()

	for _, want := range []string{
		"  [OK] Found at /usr/bin/chromium\n",
		"  [OK] Version: Chromium 120\n",
		"  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)\n",
		"  [WARN] kindlegen not found\n",
		"  [OK] Platform: linux/amd64\n",
		"  [OK] Container: detected (/.dockerenv)\n",
		"  [ERROR] Temp directory: not writable\n",
		"Warnings:\n",
		"Errors:\n  [ERROR] Temp directory not writable: /tmp\n",
		"Status: Not ready (see errors above)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "CI: detected") {
		t.Error("CI line should be omitted when not in CI")
	}
	if !strings.HasPrefix(out, "md2ebook doctor\n\nChrome/Chromium (PDF)\n") {
		t.Errorf("unexpected report start:\n%s", out)
	}
}
