// Package format turns raw numeric values into display strings for charts and
// tables. Every formatter is a pure function of its input.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ValueFormatter maps a finite number to its display string.
type ValueFormatter func(float64) string

// Formatter names accepted by ByName.
const (
	NameCurrency = "currency"
	NameRatio    = "ratio"
	NamePercent  = "percent"
)

// Glyph returns the currency symbol of an ISO 4217 code (e.g. "KZT" -> "₸").
func Glyph(code string) (string, error) {
	cur := money.GetCurrency(strings.ToUpper(strings.TrimSpace(code)))
	if cur == nil {
		return "", fmt.Errorf("unknown currency %q", code)
	}
	return cur.Grapheme, nil
}

// Currency returns a formatter prefixing the currency glyph to a grouped
// number, e.g. "₸1,234,567" or "-₸1,234.5". At most two fraction digits are
// kept and trailing zeros are dropped. Zero renders as "₸0".
func Currency(code string) (ValueFormatter, error) {
	glyph, err := Glyph(code)
	if err != nil {
		return nil, err
	}
	return func(amount float64) string {
		return signed(glyph, grouped(amount, constants.CurrencyFractionDigits), amount)
	}, nil
}

// MustCurrency is like Currency but panics on an unknown code.
func MustCurrency(code string) ValueFormatter {
	f, err := Currency(code)
	if err != nil {
		panic(err)
	}
	return f
}

// Ratio formats ratio-style values with one decimal and no grouping ("7.3").
func Ratio() ValueFormatter {
	return func(value float64) string {
		return strconv.FormatFloat(roundTo(value, constants.RatioFractionDigits), 'f', constants.RatioFractionDigits, 64)
	}
}

// Percent formats values with one decimal followed by a percent sign ("3.2%").
func Percent() ValueFormatter {
	ratio := Ratio()
	return func(value float64) string {
		return ratio(value) + "%"
	}
}

// ByName resolves a formatter by name. The currency code is only used by the
// currency formatter; an empty name selects the currency formatter.
func ByName(name, currency string) (ValueFormatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameCurrency:
		return Currency(currency)
	case NameRatio:
		return Ratio(), nil
	case NamePercent:
		return Percent(), nil
	default:
		return nil, fmt.Errorf("unknown formatter %q", name)
	}
}

// grouped renders |value| with thousands separators and up to digits
// fraction digits, dropping trailing zeros.
func grouped(value float64, digits int) string {
	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%."+strconv.Itoa(digits)+"f", math.Abs(roundTo(value, digits)))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimSuffix(formatted, ".")
	}
	return formatted
}

// signed places the minus sign before the glyph. Values that round to zero
// never carry a sign.
func signed(glyph, digits string, value float64) string {
	if roundTo(value, constants.CurrencyFractionDigits) < 0 {
		return "-" + glyph + digits
	}
	return glyph + digits
}

func roundTo(value float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	rounded := math.Round(value*scale) / scale
	if rounded == 0 {
		// Normalise -0 so it never prints as "-0.0".
		return 0
	}
	return rounded
}
