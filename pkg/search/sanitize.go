package search

import "strings"

const maxQueryLength = 100

// SanitizeFTSQuery escapes FTS5 special characters and wraps the input in
// quotes so it matches as a literal phrase. FTS5 has its own query language
// (AND, OR, NOT, *, NEAR(), :, ") that the engine interprets even through
// parameterized queries.
func SanitizeFTSQuery(input string) string {
	input = strings.TrimSpace(input)
	if len(input) > maxQueryLength {
		input = input[:maxQueryLength]
	}
	if input == "" {
		return ""
	}

	input = strings.ReplaceAll(input, `"`, `""`)

	return `"` + input + `"`
}

// BuildPrefixQuery creates an FTS5 query for typeahead search. Every word
// becomes a quoted prefix term, so "one pie" produces `"one"* "pie"*` and
// matches regardless of word order.
func BuildPrefixQuery(userInput string) string {
	userInput = strings.TrimSpace(userInput)
	if len(userInput) > maxQueryLength {
		userInput = userInput[:maxQueryLength]
	}

	var terms []string
	for _, word := range strings.Fields(userInput) {
		if sanitized := SanitizeFTSQuery(word); sanitized != "" {
			terms = append(terms, sanitized+"*")
		}
	}
	return strings.Join(terms, " ")
}

// escapeLike escapes LIKE wildcards so user input matches literally. Used by
// the fallback path when FTS5 is unavailable.
func escapeLike(input string) string {
	input = strings.ReplaceAll(input, `\`, `\\`)
	input = strings.ReplaceAll(input, `%`, `\%`)
	input = strings.ReplaceAll(input, `_`, `\_`)
	return input
}
