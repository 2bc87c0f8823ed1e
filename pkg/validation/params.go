package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/datetime"
)

// ErrInvalidParameter is wrapped by every parameter parsing error.
var ErrInvalidParameter = errors.New("invalid parameter")

// IntParam parses an optional integer parameter within [min, max]. An empty
// raw value yields def.
func IntParam(name, raw string, def, min, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidParameter, name, raw)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrInvalidParameter, name, min, max, n)
	}
	return n, nil
}

// PositiveFloatParam parses an optional positive finite number. An empty raw
// value yields def.
func PositiveFloatParam(name, raw string, def float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidParameter, name, raw)
	}
	if !(f > 0) || f > 1e15 {
		return 0, fmt.Errorf("%w: %s must be positive, got %q", ErrInvalidParameter, name, raw)
	}
	return f, nil
}

// Uint64Param parses an optional unsigned integer. An empty raw value yields
// def.
func Uint64Param(name, raw string, def uint64) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an unsigned integer, got %q", ErrInvalidParameter, name, raw)
	}
	return n, nil
}

// BoolParam parses an optional boolean ("1", "true", "0", "false", ...). An
// empty raw value yields def.
func BoolParam(name, raw string, def bool) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", ErrInvalidParameter, name, raw)
	}
	return b, nil
}

// MonthParam checks an optional month in the configuration layout ("2006-01").
// An empty raw value is returned unchanged.
func MonthParam(name, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if _, err := datetime.ParseMonth(raw); err != nil {
		return "", fmt.Errorf("%w: %s must look like %s, got %q", ErrInvalidParameter, name, constants.DateTimeLayout, raw)
	}
	return raw, nil
}
