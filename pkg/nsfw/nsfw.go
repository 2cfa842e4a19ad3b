// Package nsfw flags series as adult content from admin-configurable rules.
package nsfw

import (
	"path"
	"strings"

	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/settings"
	"github.com/comicden/comicden/pkg/tags"
)

// Classify decides whether a series is NSFW. The checks run in precedence
// order: a manual override always wins, then the sidecar's adult flag, then
// category substring rules, subcategory equality rules, and finally glob
// patterns against the series' normalized tags. The series' list columns
// must already be unmarshalled.
func Classify(s *models.Series, rules *settings.NSFWRules) bool {
	if s.NSFWOverride != nil {
		return *s.NSFWOverride
	}
	if s.IsAdult {
		return true
	}

	if s.Category != nil {
		category := strings.ToLower(strings.TrimSpace(*s.Category))
		if category != "" {
			for _, entry := range rules.Categories {
				entry = strings.ToLower(strings.TrimSpace(entry))
				if entry != "" && strings.Contains(category, entry) {
					return true
				}
			}
		}
	}

	if s.Subcategory != nil {
		subcategory := strings.ToLower(strings.TrimSpace(*s.Subcategory))
		if subcategory != "" {
			for _, entry := range rules.Subcategories {
				if entry = strings.ToLower(strings.TrimSpace(entry)); entry == subcategory {
					return true
				}
			}
		}
	}

	var raws []string
	raws = append(raws, s.GenresParsed...)
	raws = append(raws, s.TagsParsed...)
	raws = append(raws, s.DemographicsParsed...)
	return matchesTagPattern(raws, rules.TagPatterns)
}

func matchesTagPattern(raws, patterns []string) bool {
	if len(raws) == 0 || len(patterns) == 0 {
		return false
	}

	normalized := make([]string, 0, len(raws))
	for _, raw := range raws {
		if n := tags.Normalize(raw); n != "" {
			normalized = append(normalized, n)
		}
	}

	for _, pattern := range patterns {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		for _, tag := range normalized {
			// A malformed pattern fails to match rather than erroring.
			if ok, _ := path.Match(pattern, tag); ok {
				return true
			}
		}
	}
	return false
}
