package tags

import (
	"strings"
	"unicode"

	"github.com/segmentio/encoding/json"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Words that look plural but aren't, or whose singular form is the same.
var singularExceptions = map[string]bool{
	"series":  true,
	"species": true,
	"news":    true,
}

// Sanitize unwraps historical double encoding and collapses whitespace while
// preserving the original case. The result is the display candidate for a
// tag; Normalize produces the lookup key.
func Sanitize(raw string) string {
	return strings.Join(strings.Fields(unwrap(raw)), " ")
}

// Normalize converts a raw tag string into its canonical lookup key. The
// pipeline, in order: unwrap nested JSON arrays to their first scalar,
// lowercase and strip diacritics, replace non-alphanumerics with spaces,
// drop a trailing lone "s" token, and singularize the final token.
// Normalize is idempotent.
func Normalize(raw string) string {
	s := unwrap(raw)
	s = strings.ToLower(stripDiacritics(s))

	tokens := tokenize(s)
	if len(tokens) == 0 {
		return ""
	}

	if len(tokens) > 1 && tokens[len(tokens)-1] == "s" {
		tokens = tokens[:len(tokens)-1]
	}
	tokens[len(tokens)-1] = singularize(tokens[len(tokens)-1])

	return strings.Join(tokens, " ")
}

// unwrap recursively resolves strings that are themselves JSON arrays
// (`["Action"]`, `[["Action"]]`) to their first scalar element.
func unwrap(raw string) string {
	s := strings.TrimSpace(raw)
	for strings.HasPrefix(s, "[") {
		var elems []interface{}
		if err := json.Unmarshal([]byte(s), &elems); err != nil || len(elems) == 0 {
			break
		}
		switch first := elems[0].(type) {
		case string:
			s = strings.TrimSpace(first)
		default:
			data, err := json.Marshal(first)
			if err != nil {
				return ""
			}
			s = strings.TrimSpace(string(data))
		}
	}
	return s
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// tokenize replaces every non-alphanumeric rune with a space and splits.
func tokenize(s string) []string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

func singularize(word string) string {
	if singularExceptions[word] {
		return word
	}

	switch {
	case len(word) > 3 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case hasAnySuffix(word, "ses", "xes", "ches", "shes"):
		return word[:len(word)-2]
	case len(word) > 1 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	default:
		return word
	}
}

func hasAnySuffix(word string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if len(word) > len(suffix) && strings.HasSuffix(word, suffix) {
			return true
		}
	}
	return false
}
