// Package normalize converts raw, locale-formatted text into canonical typed values.
//
// Normalize never fails: input that cannot be parsed for its declared type comes
// back unchanged. Parsed numbers are float64, parsed dates are YYYY-MM-DD strings.
package normalize

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/textami/internal/model"
)

var hundred = decimal.NewFromInt(100)

// currencyCodes are ISO 4217 codes stripped from currency values alongside symbols.
var currencyCodes = []string{"EUR", "USD", "GBP", "CHF", "JPY"}

// Normalize converts raw into the canonical value for t. The result is either a
// float64 or a string; unparseable input is returned as-is.
func Normalize(raw string, t model.SemanticType) any {
	switch t {
	case model.TypeCurrency:
		if v, ok := parseCurrency(raw); ok {
			return v
		}
	case model.TypePercent:
		if v, ok := parsePercent(raw); ok {
			return v
		}
	case model.TypeNumber:
		if v, ok := parseNumber(raw); ok {
			return v
		}
	case model.TypeDate:
		if v, ok := parseDate(raw); ok {
			return v
		}
	}
	return raw
}

// Renormalize applies Normalize to a value that may already be canonical.
// Numbers are fixed points.
func Renormalize(v any, t model.SemanticType) any {
	switch val := v.(type) {
	case string:
		return Normalize(val, t)
	default:
		return v
	}
}

func parseCurrency(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	upper := strings.ToUpper(s)
	for _, code := range currencyCodes {
		switch {
		case strings.HasPrefix(upper, code):
			s = s[len(code):]
		case strings.HasSuffix(upper, code):
			s = s[:len(s)-len(code)]
		}
		upper = strings.ToUpper(s)
	}

	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	d, ok := parseDecimal(s)
	if !ok {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// parsePercent treats any numeric string as a percentage, with or without a
// literal percent sign: "25%" and "25" both become 0.25.
func parsePercent(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "%")
	s = stripSpaces(s)

	d, ok := parseDecimal(s)
	if !ok {
		return 0, false
	}
	f, _ := d.Div(hundred).Float64()
	return f, true
}

func parseNumber(raw string) (float64, bool) {
	d, ok := parseDecimal(stripSpaces(raw))
	if !ok {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// parseDecimal accepts digits with an optional sign and either continental
// ("1.250,50") or plain ("1250.50") separators. When both separators appear the
// last one is the decimal separator. A lone comma is a decimal separator. A lone
// dot is a decimal point unless it groups thousands: one to three leading digits
// without a leading zero and exactly three after ("1.250" is 1250, "0.125" and
// "1250.500" stay decimals).
// Repeated occurrences of either are thousands separators.
func parseDecimal(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Decimal{}, false
	}

	sign := ""
	switch s[0] {
	case '-':
		sign = "-"
		s = s[1:]
	case '+':
		s = s[1:]
	}

	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',':
		default:
			return decimal.Decimal{}, false
		}
	}
	if digits == 0 {
		return decimal.Decimal{}, false
	}

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		lastDot := strings.LastIndex(s, ".")
		lastComma := strings.LastIndex(s, ",")
		if lastComma > lastDot {
			if commas > 1 {
				return decimal.Decimal{}, false
			}
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			if dots > 1 {
				return decimal.Decimal{}, false
			}
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	case dots == 1 && groupedThousands(s):
		s = strings.Replace(s, ".", "", 1)
	}

	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(sign + s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func groupedThousands(s string) bool {
	intPart, frac, _ := strings.Cut(s, ".")
	if len(frac) != 3 || len(intPart) == 0 || len(intPart) > 3 || intPart[0] == '0' {
		return false
	}
	return true
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
