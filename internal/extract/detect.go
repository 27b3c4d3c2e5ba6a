package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/normalize"
)

// contextRadius is the number of runes kept on each side of a token.
const contextRadius = 60

// bracketPattern matches delimited placeholders. Longer delimiters come first so
// "{{x}}" is not read as "{x}" wrapped in braces.
var bracketPattern = regexp.MustCompile(
	`\{\{([^{}\n]{1,80})\}\}` +
		`|\[\[([^\[\]\n]{1,80})\]\]` +
		`|<<([^<>\n]{1,80})>>` +
		`|«([^«»\n]{1,80})»` +
		`|\{([^{}\n]{1,80})\}` +
		`|\[([^\[\]\n]{1,80})\]`)

var (
	wordPattern       = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	identifierPattern = regexp.MustCompile(`^[\p{L}\p{N}_ .\-]+$`)
	nonAlnum          = regexp.MustCompile(`[^a-z0-9]+`)
)

// Token is a placeholder found by pattern matching, before any enrichment.
type Token struct {
	Text     string `json:"text"`
	Variable string `json:"variable"`
	Context  string `json:"context"`
	Anchor   string `json:"anchor,omitempty"`
}

// Detect scans content for placeholder tokens and returns them in document order,
// deduplicated by variable name.
func Detect(content model.DocumentContent) []Token {
	paragraphs := content.Paragraphs
	anchored := len(paragraphs) > 0
	if !anchored {
		paragraphs = []string{content.Text}
	}

	var tokens []Token
	seen := make(map[string]bool)
	add := func(raw, inner, paragraph string, start, end, index int) {
		variable := Variable(inner)
		if variable == "" || seen[variable] {
			return
		}
		seen[variable] = true

		tok := Token{
			Text:     raw,
			Variable: variable,
			Context:  window(paragraph, start, end),
		}
		if anchored {
			tok.Anchor = "p" + strconv.Itoa(index)
		}
		tokens = append(tokens, tok)
	}

	for i, p := range paragraphs {
		masked := []byte(p)

		for _, m := range bracketPattern.FindAllStringSubmatchIndex(p, -1) {
			inner := firstGroup(p, m)
			if !isIdentifier(inner) {
				continue
			}
			add(p[m[0]:m[1]], inner, p, m[0], m[1], i)
			for j := m[0]; j < m[1]; j++ {
				masked[j] = ' '
			}
		}

		// Caps detection is skipped for paragraphs with no lower-case letters,
		// which are headings rather than prose with embedded fields.
		if !hasLower(p) {
			continue
		}
		for _, m := range wordPattern.FindAllIndex(masked, -1) {
			word := string(masked[m[0]:m[1]])
			if isCapsIdentifier(word) {
				add(word, word, p, m[0], m[1], i)
			}
		}
	}

	return tokens
}

// Variable converts a token body into a normalized identifier: accent-folded,
// lower-case, with runs of other characters collapsed to "_".
func Variable(inner string) string {
	v := nonAlnum.ReplaceAllString(normalize.Fold(strings.TrimSpace(inner)), "_")
	return strings.Trim(v, "_")
}

func firstGroup(s string, m []int) string {
	for g := 2; g+1 < len(m); g += 2 {
		if m[g] >= 0 {
			return strings.TrimSpace(s[m[g]:m[g+1]])
		}
	}
	return ""
}

func isIdentifier(inner string) bool {
	if inner == "" || len(inner) > 60 || !identifierPattern.MatchString(inner) {
		return false
	}
	for _, r := range inner {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// isCapsIdentifier accepts NOM_CLIENT style names and bare upper-case words of
// four or more letters.
func isCapsIdentifier(word string) bool {
	letters := 0
	first := true
	for _, r := range word {
		if first {
			if !unicode.IsUpper(r) {
				return false
			}
			first = false
		}
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsLetter(r):
			letters++
		}
	}

	if strings.Contains(strings.Trim(word, "_"), "_") {
		return letters >= 2
	}
	return letters >= 4 && letters == len([]rune(word))
}

func hasLower(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}

// window returns the text around s[start:end], trimmed to word-ish boundaries.
func window(s string, start, end int) string {
	before := []rune(s[:start])
	after := []rune(s[end:])
	if len(before) > contextRadius {
		before = before[len(before)-contextRadius:]
	}
	if len(after) > contextRadius {
		after = after[:contextRadius]
	}
	return strings.Join(strings.Fields(string(before)+s[start:end]+string(after)), " ")
}
