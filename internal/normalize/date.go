package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// "16 de octubre de 2025", "3 de març de 2025", "16 d'octubre de 2025".
	longDatePattern = regexp.MustCompile(`^(\d{1,2})\s+(?:de\s+|d['’]\s*)(\p{L}+)\s+de\s+(\d{4})$`)
	// "3 March 2025", "3rd March, 2025".
	englishDayFirst = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?\s+(\p{L}+),?\s+(\d{4})$`)
	// "March 3, 2025", "March 3rd 2025".
	englishMonthFirst = regexp.MustCompile(`^(\p{L}+)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})$`)
)

// monthNames maps accent-folded Spanish and Catalan month names to month numbers.
var monthNames = map[string]time.Month{
	// es
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"setiembre": time.September, "octubre": time.October, "noviembre": time.November,
	"diciembre": time.December,
	// ca
	"gener": time.January, "febrer": time.February, "marc": time.March,
	"maig": time.May, "juny": time.June, "juliol": time.July, "agost": time.August,
	"setembre": time.September, "novembre": time.November, "desembre": time.December,
}

// englishMonths maps lower-case English month names to month numbers.
var englishMonths = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

// Fold lower-cases s and strips diacritics: "Març" becomes "marc".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

func parseDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if isoDatePattern.MatchString(s) {
		return s, true
	}

	folded := Fold(s)
	var dayText, monthText, yearText string
	var names map[string]time.Month
	if m := longDatePattern.FindStringSubmatch(folded); m != nil {
		dayText, monthText, yearText, names = m[1], m[2], m[3], monthNames
	} else if m := englishDayFirst.FindStringSubmatch(folded); m != nil {
		dayText, monthText, yearText, names = m[1], m[2], m[3], englishMonths
	} else if m := englishMonthFirst.FindStringSubmatch(folded); m != nil {
		dayText, monthText, yearText, names = m[2], m[1], m[3], englishMonths
	} else {
		return "", false
	}

	day, err := strconv.Atoi(dayText)
	if err != nil {
		return "", false
	}
	month, ok := names[monthText]
	if !ok {
		return "", false
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return "", false
	}

	// time.Date normalizes overflow, so a mismatch means the day does not exist.
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if day < 1 || d.Day() != day || d.Month() != month {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day), true
}

// IsDate reports whether raw is a date Normalize would accept.
func IsDate(raw string) bool {
	_, ok := parseDate(raw)
	return ok
}
