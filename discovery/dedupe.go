package discovery

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Dedupe merges per-catalog source lists into one list keyed by Key:
// insertion-ordered-by-scan, first-seen-wins. A newly scanned source never
// overwrites one already accepted in this pass.
func Dedupe(sources []Source) []Source {
	seen := make(map[string]struct{}, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.Key == "" {
			continue
		}
		if _, dup := seen[s.Key]; dup {
			continue
		}
		seen[s.Key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// RankByTitle sorts sources by display title under locale collation,
// stable for equal titles. The input slice is not modified.
func RankByTitle(sources []Source) []Source {
	out := make([]Source, len(sources))
	copy(out, sources)

	c := collate.New(language.Und)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Title, out[j].Title) < 0
	})
	return out
}
