// Package render substitutes row data into templates that carry module syntax.
package render

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/modules"
)

var moduleToken = regexp.MustCompile(`\{(?:~~|%)?[^{}\n]+\}`)

// valueFunc renders one directive with its row value.
type valueFunc func(d modules.Directive, value string) (string, error)

// substitute replaces every module token whose column is present in data.
// Tokens wrapped in a second pair of braces and tokens naming unknown columns
// are left as they are.
func substitute(text string, data map[string]any, render valueFunc) (string, error) {
	matches := moduleToken.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && text[start-1] == '{' || end < len(text) && text[end] == '}' {
			continue
		}

		d, ok := modules.ParseSyntax(text[start:end])
		if !ok {
			continue
		}
		raw, present := data[d.Column]
		if !present {
			continue
		}

		out, err := render(d, Stringify(raw))
		if err != nil {
			return "", fmt.Errorf("column %q: %w", d.Column, err)
		}
		b.WriteString(text[last:start])
		b.WriteString(out)
		last = end
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// rewriter replaces raw placeholder text with module syntax. Keys that begin or
// end with a letter, digit or underscore only match on identifier boundaries, so
// IMPORT never rewrites the front of IMPORTANT.
type rewriter struct {
	candidates *regexp.Regexp
	rewrites   map[string]string
	keys       []string
}

func newRewriter(rewrites map[string]string) (*rewriter, error) {
	if len(rewrites) == 0 {
		return nil, common.InvalidInput("no placeholder rewrites given")
	}

	keys := make([]string, 0, len(rewrites))
	for k := range rewrites {
		if k == "" {
			return nil, common.InvalidInput("empty placeholder in rewrites")
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return &rewriter{
		candidates: regexp.MustCompile(strings.Join(quoted, "|")),
		rewrites:   rewrites,
		keys:       keys,
	}, nil
}

// next finds the first bounded key occurrence at or after pos.
func (rw *rewriter) next(s string, pos int) (start int, key string, ok bool) {
	for pos < len(s) {
		loc := rw.candidates.FindStringIndex(s[pos:])
		if loc == nil {
			return 0, "", false
		}
		start = pos + loc[0]
		for _, k := range rw.keys {
			if strings.HasPrefix(s[start:], k) && bounded(s, start, start+len(k), k) {
				return start, k, true
			}
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		pos = start + size
	}
	return 0, "", false
}

// Contains reports whether any key occurs on its boundaries.
func (rw *rewriter) Contains(s string) bool {
	_, _, ok := rw.next(s, 0)
	return ok
}

// Replace rewrites every bounded key occurrence.
func (rw *rewriter) Replace(s string) string {
	var b strings.Builder
	last := 0
	for {
		start, key, ok := rw.next(s, last)
		if !ok {
			break
		}
		b.WriteString(s[last:start])
		b.WriteString(rw.rewrites[key])
		last = start + len(key)
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func bounded(s string, start, end int, key string) bool {
	if first, _ := utf8.DecodeRuneInString(key); isIdentRune(first) && start > 0 {
		if before, _ := utf8.DecodeLastRuneInString(s[:start]); isIdentRune(before) {
			return false
		}
	}
	if lastRune, _ := utf8.DecodeLastRuneInString(key); isIdentRune(lastRune) && end < len(s) {
		if after, _ := utf8.DecodeRuneInString(s[end:]); isIdentRune(after) {
			return false
		}
	}
	return true
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Stringify renders a row value the way templates expect it.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func validImageRef(ref string) error {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	switch {
	case ref == "":
		return nil
	case strings.ContainsAny(ref, "\"<>\n"):
		return fmt.Errorf("invalid image reference %q", ref)
	case strings.HasPrefix(lower, "javascript:"), strings.HasPrefix(lower, "vbscript:"):
		return fmt.Errorf("invalid image reference scheme in %q", ref)
	case strings.HasPrefix(lower, "data:") && !strings.HasPrefix(lower, "data:image/"):
		return fmt.Errorf("data reference %q is not an image", ref)
	}
	return nil
}
