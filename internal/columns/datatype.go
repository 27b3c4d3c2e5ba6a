package columns

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/normalize"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()./-]{6,19}$`)

var booleanWords = map[string]bool{
	"true": true, "false": true, "yes": true, "no": true,
	"si": true, "cert": true, "fals": true, "verdadero": true, "falso": true,
}

// headerHints maps folded header fragments to the data type they suggest.
var headerHints = []struct {
	fragment string
	dataType model.DataType
}{
	{"email", model.DataEmail},
	{"correu", model.DataEmail},
	{"correo", model.DataEmail},
	{"telefon", model.DataPhone},
	{"phone", model.DataPhone},
	{"mobil", model.DataPhone},
	{"movil", model.DataPhone},
	{"adreca", model.DataAddress},
	{"direccion", model.DataAddress},
	{"address", model.DataAddress},
	{"domicili", model.DataAddress},
	{"fecha", model.DataDate},
	{"date", model.DataDate},
}

// typeChecks run in order; the first type matched by at least 80% of the samples wins.
var typeChecks = []struct {
	match    func(string) bool
	dataType model.DataType
}{
	{isBoolean, model.DataBoolean},
	{isEmail, model.DataEmail},
	{isPhone, model.DataPhone},
	{isDate, model.DataDate},
	{isNumber, model.DataNumber},
}

// InferDataType guesses a column's data type from its header and samples.
// The returned confidence is a percentage.
func InferDataType(header string, samples []string) (model.DataType, float64) {
	values := nonEmpty(samples)
	if len(values) > 0 {
		for _, check := range typeChecks {
			ratio := fraction(count(values, check.match), len(values))
			if ratio >= 0.8 {
				return check.dataType, model.ClampPercent(50 + 50*ratio)
			}
		}
	}

	folded := normalize.Fold(header)
	for _, hint := range headerHints {
		if strings.Contains(folded, hint.fragment) {
			return hint.dataType, 70
		}
	}

	if len(values) == 0 {
		return model.DataString, 50
	}
	return model.DataString, 80
}

func isBoolean(v string) bool {
	return booleanWords[normalize.Fold(strings.TrimSpace(v))]
}

func isEmail(v string) bool {
	v = strings.TrimSpace(v)
	if !strings.Contains(v, "@") || strings.ContainsAny(v, " <>") {
		return false
	}
	_, err := mail.ParseAddress(v)
	return err == nil
}

func isPhone(v string) bool {
	v = strings.TrimSpace(v)
	if !phonePattern.MatchString(v) {
		return false
	}
	digits := 0
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 9 && digits <= 15
}

func isDate(v string) bool {
	return normalize.IsDate(v)
}

func isNumber(v string) bool {
	_, ok := normalize.Normalize(v, model.TypeNumber).(float64)
	if ok {
		return true
	}
	_, ok = normalize.Normalize(v, model.TypeCurrency).(float64)
	return ok
}
