package main

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

// ---------------------------------------------------------------------------
// TestNewLogger - Verbosity levels
// ---------------------------------------------------------------------------

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		verbose bool
		quiet   bool
		want    zapcore.Level
	}{
		{"default", false, false, zapcore.WarnLevel},
		{"verbose", true, false, zapcore.DebugLevel},
		{"quiet", false, true, zapcore.ErrorLevel},
		{"quiet wins", true, true, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := newLogger(&buf, tt.verbose, tt.quiet)

			if !logger.Core().Enabled(tt.want) {
				t.Errorf("level %s should be enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && logger.Core().Enabled(tt.want-1) {
				t.Errorf("level %s should be disabled", tt.want-1)
			}
		})
	}

	t.Run("console output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		newLogger(&buf, false, false).Warn("careful")
		if !strings.Contains(buf.String(), "WARN") || !strings.Contains(buf.String(), "careful") {
			t.Errorf("output = %q", buf.String())
		}
	})
}
