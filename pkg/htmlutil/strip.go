// Package htmlutil cleans up HTML fragments that show up in series metadata,
// like synopses exported from tracking sites.
package htmlutil

import (
	"html"
	"regexp"
	"strings"
)

// tagRE matches HTML tags including self-closing tags.
var tagRE = regexp.MustCompile(`<[^>]*>`)

// spacesRE matches runs of spaces and tabs within a line.
var spacesRE = regexp.MustCompile(`[ \t]{2,}`)

// sourceNoteRE matches trailing attribution notes like "(Source: MAL)" or
// "[Written by MAL Rewrite]".
var sourceNoteRE = regexp.MustCompile(`(?i)\s*[\[(](?:written by [^)\]]*rewrite|source:[^)\]]*)[\])]\.?\s*$`)

// blockTags are closing or void tags that visually break text. They become
// newlines before the remaining markup is stripped.
var blockTags = []string{"</p>", "</div>", "<br>", "<br/>", "<br />", "</li>", "</h1>", "</h2>", "</h3>", "</h4>", "</h5>", "</h6>"}

// StripTags removes HTML markup from a string while keeping paragraph
// structure. Block-level tags become newlines, everything else is dropped,
// entities are decoded, and whitespace is normalized.
func StripTags(s string) string {
	if s == "" {
		return ""
	}

	for _, tag := range blockTags {
		s = strings.ReplaceAll(s, tag, "\n")
		s = strings.ReplaceAll(s, strings.ToUpper(tag), "\n")
	}

	s = tagRE.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spacesRE.ReplaceAllString(line, " "))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}

// StripSourceNotes removes a trailing attribution note from a synopsis.
func StripSourceNotes(s string) string {
	return strings.TrimSpace(sourceNoteRE.ReplaceAllString(s, ""))
}
