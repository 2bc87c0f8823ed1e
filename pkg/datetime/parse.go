// Package datetime provides date and period-label utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
)

const (
	// DateTimeLayout is the month layout accepted for period starts.
	DateTimeLayout = constants.DateTimeLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseMonth parses a month in DateTimeLayout, ignoring surrounding spaces.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(DateTimeLayout, strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected layout %s: %w", month, DateTimeLayout, err)
	}
	return t, nil
}
