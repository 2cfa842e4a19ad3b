package tags

import (
	"github.com/comicden/comicden/pkg/models"
)

// resolveNorm applies the modification table to a norm. It returns the
// canonical norm and whether the tag survives at all: blacklisted norms
// (directly or at the end of a merge chain) resolve to nothing. Merge
// chains are walked with a visited set so a cycle settles on the norm where
// the walk would repeat instead of looping.
func resolveNorm(mods map[string]*models.TagModification, n string) (string, bool) {
	if n == "" {
		return "", false
	}

	visited := map[string]bool{}
	for {
		mod, ok := mods[n]
		if !ok {
			return n, true
		}
		switch mod.Action {
		case models.TagActionBlacklist:
			return "", false
		case models.TagActionMerge:
			if mod.TargetNorm == nil || *mod.TargetNorm == "" {
				return n, true
			}
			if visited[n] {
				return n, true
			}
			visited[n] = true
			n = *mod.TargetNorm
		default:
			// Whitelist only overrides display.
			return n, true
		}
	}
}

// displayFor returns the display string for a canonical norm, honoring a
// whitelist override.
func displayFor(snap *Snapshot, n string) string {
	if mod, ok := snap.Mods[n]; ok && mod.Action == models.TagActionWhitelist && mod.DisplayName != nil && *mod.DisplayName != "" {
		return *mod.DisplayName
	}
	if display, ok := snap.Vocab[n]; ok {
		return display
	}
	return n
}

// resolveAll normalizes and resolves a list of raw tag strings into a set
// of canonical norms.
func resolveAll(mods map[string]*models.TagModification, raws []string) map[string]bool {
	out := make(map[string]bool, len(raws))
	for _, raw := range raws {
		n, ok := resolveNorm(mods, Normalize(raw))
		if ok {
			out[n] = true
		}
	}
	return out
}
