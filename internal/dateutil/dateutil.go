// Package dateutil resolves publication dates for ebook metadata.
//
// Package dates use the W3C date profile (YYYY, YYYY-MM or YYYY-MM-DD,
// optionally a full RFC 3339 timestamp), which is what dc:date expects.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate indicates a publication date that is not a W3C date.
var ErrInvalidDate = errors.New("invalid publication date")

// Auto is the value resolved to the current date.
const Auto = "auto"

// Layouts accepted for literal dates, most precise last.
var layouts = []string{
	"2006",
	"2006-01",
	"2006-01-02",
	time.RFC3339,
}

// precisions maps the "auto:PRECISION" suffix to a layout.
var precisions = map[string]string{
	"year":  "2006",
	"month": "2006-01",
	"day":   "2006-01-02",
}

// ResolvePublicationDate turns a configured date into a dc:date value.
//   - "" stays empty (no date)
//   - "auto" is now as YYYY-MM-DD
//   - "auto:year", "auto:month", "auto:day" is now at that precision
//   - anything else must already be a W3C date and is returned trimmed
//
// The time parameter allows injecting a fixed time for testing.
func ResolvePublicationDate(value string, now time.Time) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	lower := strings.ToLower(value)
	if lower == Auto {
		return now.Format(precisions["day"]), nil
	}
	if precision, ok := strings.CutPrefix(lower, Auto+":"); ok {
		layout, known := precisions[precision]
		if !known {
			return "", fmt.Errorf("%w: unknown precision %q, use year, month or day", ErrInvalidDate, precision)
		}
		return now.Format(layout), nil
	}

	if err := Validate(value); err != nil {
		return "", err
	}
	return value, nil
}

// Validate checks that value is "auto", "auto:PRECISION" or a W3C date.
func Validate(value string) error {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" || lower == Auto {
		return nil
	}
	if precision, ok := strings.CutPrefix(lower, Auto+":"); ok {
		if _, known := precisions[precision]; !known {
			return fmt.Errorf("%w: unknown precision %q, use year, month or day", ErrInvalidDate, precision)
		}
		return nil
	}
	for _, layout := range layouts {
		if _, err := time.Parse(layout, value); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %q, use YYYY, YYYY-MM, YYYY-MM-DD or auto", ErrInvalidDate, value)
}
